package pdftext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/petasbytes/research-agent/internal/arxiv"
)

const (
	maxDownloadBytes = 64 << 20
	downloadTimeout  = 60 * time.Second
	userAgent        = "research-agent/1.0 (+https://github.com/petasbytes/research-agent)"
)

// arxivIDRe matches new-style (2301.00001v2) and old-style (hep-th/9901001) identifiers.
var arxivIDRe = regexp.MustCompile(`^(\d{4}\.\d{4,5}|[a-z\-]+(\.[A-Z]{2})?/\d{7})(v\d+)?$`)

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// ErrNotPDF reports a download whose body does not start with the PDF header.
var ErrNotPDF = errors.New("response is not a PDF")

// Downloader fetches remote PDFs into a cache directory.
type Downloader struct {
	Dir    string
	client *http.Client
}

// NewDownloader caches downloads under dir.
func NewDownloader(dir string) *Downloader {
	return NewDownloaderWithClient(dir, &http.Client{Timeout: downloadTimeout})
}

// NewDownloaderWithClient is NewDownloader with a caller-supplied HTTP client.
func NewDownloaderWithClient(dir string, hc *http.Client) *Downloader {
	return &Downloader{Dir: dir, client: hc}
}

// IsRemote reports whether source names something Fetch can download.
func IsRemote(source string) bool {
	s := strings.TrimSpace(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || arxivIDRe.MatchString(s)
}

// ResolveURL maps a bare arXiv identifier to its PDF URL; URLs pass through.
func ResolveURL(source string) string {
	s := strings.TrimSpace(source)
	if arxivIDRe.MatchString(s) {
		return arxiv.PDFURL(s)
	}
	return s
}

// Fetch downloads source (URL or arXiv id) unless it is already cached and returns the local path.
func (d *Downloader) Fetch(ctx context.Context, source string) (string, error) {
	u := ResolveURL(source)
	name := cacheName(u)
	path := filepath.Join(d.Dir, name)
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, u)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxDownloadBytes {
		return "", fmt.Errorf("%s exceeds %d bytes", u, maxDownloadBytes)
	}
	if !strings.HasPrefix(string(body[:min(len(body), 5)]), "%PDF-") {
		return "", fmt.Errorf("%s: %w", u, ErrNotPDF)
	}

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}
	// Rename into place; a partial download must never look cached.
	tmp, err := os.CreateTemp(d.Dir, ".download-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

func cacheName(u string) string {
	s := u
	for _, p := range []string{"https://", "http://", "arxiv.org/pdf/", "export.arxiv.org/pdf/"} {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.TrimSuffix(s, ".pdf")
	return unsafeNameRe.ReplaceAllString(s, "_") + ".pdf"
}
