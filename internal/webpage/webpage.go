// Package webpage fetches an HTML page, isolates its main content and converts it to Markdown.
package webpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "research-agent/1.0 (+https://github.com/petasbytes/research-agent)"
	maxBodyBytes     = 4 << 20
)

// noiseSelectors are removed before the main container is chosen.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header",
	"img", "picture", "svg", "canvas",
	"iframe", "video", "audio",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
}

// Page is the cleaned content of a fetched URL.
type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Markdown string `json:"markdown"`
}

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	client *http.Client
}

// New returns a Fetcher with a modest timeout.
func New() *Fetcher {
	return NewWithClient(&http.Client{Timeout: defaultTimeout})
}

// NewWithClient is New with a caller-supplied HTTP client.
func NewWithClient(hc *http.Client) *Fetcher {
	return &Fetcher{client: hc}
}

// Fetch downloads rawURL and returns its main content as Markdown.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Page{}, errors.New("fetch url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("reading response body: %w", err)
	}
	title, md, err := Convert(string(body))
	if err != nil {
		return Page{}, err
	}
	return Page{URL: rawURL, Title: title, Markdown: md}, nil
}

// Convert strips noise from html and returns the page title and the main container as Markdown.
// The container is the first of <main>, <article>, <body> present.
func Convert(html string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("parsing HTML: %w", err)
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	var content *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		if sel := doc.Find(tag); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		return title, "", errors.New("no content container found in HTML")
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return title, "", fmt.Errorf("serializing content: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return title, "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return title, strings.TrimSpace(md), nil
}
