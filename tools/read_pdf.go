package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/petasbytes/research-agent/internal/fsops"
	"github.com/petasbytes/research-agent/internal/pdftext"
	"github.com/petasbytes/research-agent/internal/safety"
)

type ReadPDFInput struct {
	Source string `json:"source" jsonschema_description:"arXiv id (2401.01234), PDF URL, or a relative path to a local PDF."`
	Page   int    `json:"page,omitempty" jsonschema_description:"1-based first page to return (default 1)."`
	Pages  int    `json:"pages,omitempty" jsonschema_description:"Number of pages to return from page (default 10)."`
}

const defaultReadPages = 10
const pdfSentinel = "-- truncated; use page/pages to fetch more --\n"
const maxPageRunes = 6_000 // per-page clamp

var ReadPDFInputSchema = GenerateSchema[ReadPDFInput]()

// ReadPDF returns the read_pdf tool. Remote sources are fetched through dl; local
// relative paths are resolved inside the sandbox.
func ReadPDF(dl *pdftext.Downloader) ToolDefinition {
	return ToolDefinition{
		Name:        "read_pdf",
		Description: "Read the text of a PDF: an arXiv id, a PDF URL, or a relative path to a local PDF. Output is paged; a trailing marker means more pages are available.",
		InputSchema: ReadPDFInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in ReadPDFInput
			if err := decode(input, &in); err != nil {
				return "", err
			}
			src := strings.TrimSpace(in.Source)
			if src == "" {
				return "", invalidInput("source must not be empty")
			}

			path, err := locatePDF(ctx, dl, src)
			if err != nil {
				return "", err
			}
			doc, err := pdftext.Extract(path)
			if err != nil {
				return "", err
			}
			return formatPages(doc, in.Page, in.Pages), nil
		},
	}
}

func locatePDF(ctx context.Context, dl *pdftext.Downloader, src string) (string, error) {
	if pdftext.IsRemote(src) {
		if dl == nil {
			return "", invalidInput("remote sources are not available")
		}
		return dl.Fetch(ctx, src)
	}
	if err := safety.RequireExt(src, ".pdf"); err != nil {
		return "", err
	}
	return fsops.ResolveFile(src)
}

// formatPages renders the selected page window of doc with small, deterministic caps:
//   - page: 1-based first page (values < 1 clamp to 1)
//   - pages: page count (<= 0 defaults to 10)
//
// Any truncation, including pages left unread, appends the sentinel.
func formatPages(doc pdftext.Document, page, pages int) string {
	if page < 1 {
		page = 1
	}
	if pages <= 0 {
		pages = defaultReadPages
	}
	total := len(doc.Pages)
	start := min(page-1, total)
	end := start + min(pages, total-start)

	var b strings.Builder
	if doc.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", doc.Title)
	}
	fmt.Fprintf(&b, "Pages: %d\n", total)

	truncated := end < total
	for _, p := range doc.Pages[start:end] {
		content, did := clampRunes(strings.TrimSpace(p.Content), maxPageRunes)
		truncated = truncated || did
		fmt.Fprintf(&b, "\n--- page %d ---\n%s\n", p.Number, content)
	}

	out, did := clampRunes(b.String(), overallRuneCap)
	if truncated || did {
		out = withSentinel(out, pdfSentinel)
	}
	return out
}
