package tools_test

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/petasbytes/research-agent/tools"
)

func TestListOutputs_PagesSortedArtifacts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_1.pdf", "a_1.pdf", "a_1.tex", "a_1.log", "c_1.tex"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	def := tools.ListOutputs(dir)

	decode := func(out string) tools.ListOutputsResult {
		t.Helper()
		var res tools.ListOutputsResult
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("unmarshal: %v\n%s", err, out)
		}
		return res
	}

	out, err := call(t, def, tools.ListOutputsInput{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list_outputs: %v", err)
	}
	res := decode(out)
	if res.Total != 4 || res.Page != 1 || len(res.Entries) != 2 || res.Entries[0].Name != "a_1.pdf" || res.Entries[1].Name != "a_1.tex" {
		t.Fatalf("page 1: %+v", res)
	}
	if !filepath.IsAbs(res.Dir) {
		t.Fatalf("dir not absolute: %s", res.Dir)
	}

	out, _ = call(t, def, tools.ListOutputsInput{Page: 2, PageSize: 2})
	if res := decode(out); len(res.Entries) != 2 || res.Entries[1].Name != "c_1.tex" {
		t.Fatalf("page 2: %+v", res)
	}

	out, _ = call(t, def, tools.ListOutputsInput{Page: 5, PageSize: 2})
	if res := decode(out); res.Entries == nil || len(res.Entries) != 0 {
		t.Fatalf("out of range page: %s", out)
	}
}

func TestListOutputs_MissingDirIsEmpty(t *testing.T) {
	out, err := call(t, tools.ListOutputs(filepath.Join(t.TempDir(), "none")), struct{}{})
	if err != nil {
		t.Fatalf("list_outputs: %v", err)
	}
	var res tools.ListOutputsResult
	if err := json.Unmarshal([]byte(out), &res); err != nil || res.Total != 0 {
		t.Fatalf("unexpected: %s (%v)", out, err)
	}
}

func TestListOutputs_HugePagingValues(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.pdf", "c.tex"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	def := tools.ListOutputs(dir)

	cases := []struct {
		name string
		in   tools.ListOutputsInput
		want int
	}{
		{"page wraps when multiplied", tools.ListOutputsInput{Page: math.MaxInt/50 + 2, PageSize: 50}, 0},
		{"max page", tools.ListOutputsInput{Page: math.MaxInt, PageSize: 2}, 0},
		{"max page size", tools.ListOutputsInput{Page: 1, PageSize: math.MaxInt}, 3},
		{"both max", tools.ListOutputsInput{Page: math.MaxInt, PageSize: math.MaxInt}, 0},
		{"last partial page", tools.ListOutputsInput{Page: 2, PageSize: 2}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := call(t, def, tc.in)
			if err != nil {
				t.Fatalf("list_outputs: %v", err)
			}
			var res tools.ListOutputsResult
			if err := json.Unmarshal([]byte(out), &res); err != nil {
				t.Fatalf("unmarshal: %v\n%s", err, out)
			}
			if res.Total != 3 || len(res.Entries) != tc.want {
				t.Fatalf("got total=%d entries=%d, want 3/%d", res.Total, len(res.Entries), tc.want)
			}
		})
	}
}
