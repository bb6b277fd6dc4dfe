package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/petasbytes/research-agent/internal/webpage"
)

type FetchPageInput struct {
	URL string `json:"url" jsonschema_description:"Absolute http(s) URL of the page, e.g. an arXiv abstract page or a project site."`
}

const pageSentinel = "-- truncated --\n"

var FetchPageInputSchema = GenerateSchema[FetchPageInput]()

// FetchPage returns the fetch_page tool backed by f.
func FetchPage(f *webpage.Fetcher) ToolDefinition {
	return ToolDefinition{
		Name:        "fetch_page",
		Description: "Fetch a web page and return its main content as Markdown, without navigation, scripts or images.",
		InputSchema: FetchPageInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in FetchPageInput
			if err := decode(input, &in); err != nil {
				return "", err
			}
			u := strings.TrimSpace(in.URL)
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				return "", invalidInput("url must start with http:// or https://")
			}
			page, err := f.Fetch(ctx, u)
			if err != nil {
				return "", err
			}

			var b strings.Builder
			if page.Title != "" {
				fmt.Fprintf(&b, "# %s\n", page.Title)
			}
			fmt.Fprintf(&b, "URL: %s\n\n%s", page.URL, page.Markdown)
			out, did := clampRunes(b.String(), overallRuneCap)
			if did {
				out = withSentinel(out, pageSentinel)
			}
			return out, nil
		},
	}
}
