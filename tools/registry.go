package tools

import (
	"github.com/petasbytes/research-agent/internal/arxiv"
	"github.com/petasbytes/research-agent/internal/pdftext"
	"github.com/petasbytes/research-agent/internal/render"
	"github.com/petasbytes/research-agent/internal/webpage"
)

// Deps are the collaborators the tools run against. A nil collaborator leaves its tool out.
type Deps struct {
	Search     *arxiv.Client
	MaxResults int
	Papers     *pdftext.Downloader
	Pages      *webpage.Fetcher
	Renderer   *render.Renderer
}

// Registry returns the tool definitions wired for the agent, in a stable order.
func Registry(d Deps) []ToolDefinition {
	var defs []ToolDefinition
	if d.Search != nil {
		n := d.MaxResults
		if n <= 0 {
			n = arxiv.DefaultMaxResults
		}
		defs = append(defs, ArxivSearch(d.Search, n))
	}
	if d.Papers != nil {
		defs = append(defs, ReadPDF(d.Papers))
	}
	if d.Pages != nil {
		defs = append(defs, FetchPage(d.Pages))
	}
	if d.Renderer != nil {
		defs = append(defs, RenderLatexPDF(d.Renderer), ListOutputs(d.Renderer.OutputDir()))
	}
	return defs
}
