package fsops

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"
)

// Entry is one file in a listed directory.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
}

// ListFiles returns the regular files directly inside dir whose names end in one of exts
// (all files when exts is empty), sorted by name. A missing dir yields an empty list.
func ListFiles(dir string, exts ...string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(des))
	for _, de := range des {
		if !de.Type().IsRegular() || !hasExt(de.Name(), exts) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		out = append(out, Entry{Name: de.Name(), Size: info.Size(), ModTime: info.ModTime().UTC()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, e := range exts {
		if strings.HasSuffix(strings.ToLower(name), strings.ToLower(e)) {
			return true
		}
	}
	return false
}
