package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/petasbytes/research-agent/internal/arxiv"
)

type ArxivSearchInput struct {
	Query      string `json:"query" jsonschema_description:"Search terms, or an arXiv query such as ti:diffusion AND cat:cs.LG."`
	MaxResults int    `json:"max_results,omitempty" jsonschema_description:"Number of papers to return, newest first (default 5, at most 50)."`
}

var ArxivSearchInputSchema = GenerateSchema[ArxivSearchInput]()

// ArxivSearch returns the arxiv_search tool backed by c. defaultMax applies when the model
// does not ask for a count.
func ArxivSearch(c *arxiv.Client, defaultMax int) ToolDefinition {
	return ToolDefinition{
		Name:        "arxiv_search",
		Description: "Search arxiv.org for recent papers. Returns a JSON array of papers with id, title, authors, summary, published date and PDF URL. Pass an id or PDF URL to read_pdf to read a paper.",
		InputSchema: ArxivSearchInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in ArxivSearchInput
			if err := decode(input, &in); err != nil {
				return "", err
			}
			if strings.TrimSpace(in.Query) == "" {
				return "", invalidInput("query must not be empty")
			}
			n := in.MaxResults
			if n <= 0 {
				n = defaultMax
			}
			papers, err := c.Search(ctx, in.Query, n)
			if err != nil {
				return "", err
			}
			b, err := json.Marshal(papers)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}
}
