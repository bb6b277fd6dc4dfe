// Package arxiv queries the arXiv export API and maps Atom entries to Paper records.
package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"
)

const (
	DefaultBaseURL    = "https://export.arxiv.org/api/query"
	DefaultMaxResults = 5
	MaxResultsLimit   = 50

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "research-agent/1.0 (+https://github.com/petasbytes/research-agent)"
)

// Paper is the metadata of one search hit.
type Paper struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Authors    []string  `json:"authors"`
	Summary    string    `json:"summary"`
	Published  time.Time `json:"published"`
	Categories []string  `json:"categories,omitempty"`
	AbsURL     string    `json:"abs_url,omitempty"`
	PDFURL     string    `json:"pdf_url,omitempty"`
}

// Client talks to an arXiv-compatible Atom endpoint.
type Client struct {
	BaseURL string
	client  *http.Client
}

// New returns a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL string) *Client {
	return NewWithClient(baseURL, &http.Client{Timeout: defaultTimeout})
}

// NewWithClient is New with a caller-supplied HTTP client.
func NewWithClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{BaseURL: baseURL, client: hc}
}

// Search returns up to max papers for query, newest submissions first.
// A query without a field prefix (e.g. "ti:") searches all fields.
func (c *Client) Search(ctx context.Context, query string, max int) ([]Paper, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("arxiv: query is empty")
	}
	if max <= 0 {
		max = DefaultMaxResults
	}
	if max > MaxResultsLimit {
		max = MaxResultsLimit
	}
	if !strings.Contains(query, ":") {
		query = "all:" + query
	}

	q := url.Values{}
	q.Set("search_query", query)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(max))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("arxiv: creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("arxiv http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	feed, err := (&atom.Parser{}).Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("arxiv: parsing feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		papers = append(papers, fromEntry(e))
		if len(papers) >= max {
			break
		}
	}
	return papers, nil
}

func fromEntry(e *atom.Entry) Paper {
	p := Paper{
		ID:      IDFromURL(e.ID),
		Title:   collapse(e.Title),
		Summary: collapse(e.Summary),
	}
	if e.PublishedParsed != nil {
		p.Published = e.PublishedParsed.UTC()
	}
	for _, a := range e.Authors {
		if a != nil && a.Name != "" {
			p.Authors = append(p.Authors, collapse(a.Name))
		}
	}
	for _, cat := range e.Categories {
		if cat != nil && cat.Term != "" {
			p.Categories = append(p.Categories, cat.Term)
		}
	}
	for _, l := range e.Links {
		if l == nil {
			continue
		}
		switch {
		case l.Title == "pdf" || l.Type == "application/pdf":
			p.PDFURL = l.Href
		case l.Rel == "alternate":
			p.AbsURL = l.Href
		}
	}
	if p.AbsURL == "" {
		p.AbsURL = e.ID
	}
	if p.PDFURL == "" && p.ID != "" {
		p.PDFURL = PDFURL(p.ID)
	}
	return p
}

// IDFromURL strips the abs/pdf URL prefix from an arXiv identifier URL.
func IDFromURL(s string) string {
	for _, prefix := range []string{"http://arxiv.org/abs/", "https://arxiv.org/abs/", "http://arxiv.org/pdf/", "https://arxiv.org/pdf/"} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimSuffix(strings.TrimPrefix(s, prefix), ".pdf")
		}
	}
	return s
}

// PDFURL returns the canonical PDF URL for an arXiv identifier.
func PDFURL(id string) string {
	return "https://arxiv.org/pdf/" + id
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
