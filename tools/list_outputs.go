package tools

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/petasbytes/research-agent/internal/fsops"
)

type ListOutputsInput struct {
	Page     int `json:"page,omitempty" jsonschema_description:"1-based page number (default 1)."`
	PageSize int `json:"page_size,omitempty" jsonschema_description:"Page size (default 50)."`
}

// defaultListOutputsPageSize is the fallback page size when page_size <= 0.
const defaultListOutputsPageSize = 50

var ListOutputsInputSchema = GenerateSchema[ListOutputsInput]()

// ListOutputsResult is the JSON body returned by list_outputs.
type ListOutputsResult struct {
	Dir     string        `json:"dir"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	Entries []fsops.Entry `json:"entries"`
}

// ListOutputs returns the list_outputs tool for the renderer output directory dir.
func ListOutputs(dir string) ToolDefinition {
	return ToolDefinition{
		Name:        "list_outputs",
		Description: "List generated .tex and .pdf files in the output directory, sorted by name. Use it to find earlier renders.",
		InputSchema: ListOutputsInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in ListOutputsInput
			if err := decode(input, &in); err != nil {
				return "", err
			}
			page := in.Page
			// Default benign inputs for LLM callers to keep behaviour predictable.
			if page <= 0 {
				page = 1
			}
			pageSize := in.PageSize
			if pageSize <= 0 {
				pageSize = defaultListOutputsPageSize
			}

			abs, err := filepath.Abs(dir)
			if err != nil {
				return "", err
			}
			entries, err := fsops.ListFiles(abs, ".pdf", ".tex")
			if err != nil {
				return "", err
			}

			res := ListOutputsResult{Dir: abs, Total: len(entries), Page: page, Entries: []fsops.Entry{}}
			// Out-of-range pages return an empty entry list. The bound is checked by
			// division so model-supplied values cannot overflow.
			if n := len(entries); n > 0 && page-1 <= (n-1)/pageSize {
				start := (page - 1) * pageSize
				res.Entries = entries[start : start+min(pageSize, n-start)]
			}
			b, err := json.Marshal(res)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}
}
