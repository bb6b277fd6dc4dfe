package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/petasbytes/research-agent/internal/metrics"
	"github.com/petasbytes/research-agent/internal/render"
	"github.com/petasbytes/research-agent/internal/safety"
	"github.com/petasbytes/research-agent/internal/telemetry"
)

type RenderLatexInput struct {
	LatexContent string `json:"latex_content" jsonschema_description:"LaTeX source. A full document (with \\documentclass) is compiled as-is; anything else is wrapped in a standard article preamble."`
}

// Render error codes surfaced to the model.
const (
	CodeEngineNotFound = "ERR_ENGINE_NOT_FOUND"
	CodeWriteFailed    = "ERR_WRITE_FAILED"
	CodeCompileFailed  = "ERR_COMPILE_FAILED"
)

// maxDiagnosticRunes keeps the end of the engine log, where the first fatal error usually sits.
const maxDiagnosticRunes = 2_000

var RenderLatexInputSchema = GenerateSchema[RenderLatexInput]()

// RenderLatexPDF returns the render_latex_pdf tool backed by r.
func RenderLatexPDF(r *render.Renderer) ToolDefinition {
	return ToolDefinition{
		Name:        "render_latex_pdf",
		Description: "Render LaTeX to PDF and return the absolute path of the generated file. Use \\title{...} to name the output. On compile errors the engine log is returned; fix the source and call again.",
		InputSchema: RenderLatexInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in RenderLatexInput
			if err := decode(input, &in); err != nil {
				return "", err
			}
			if strings.TrimSpace(in.LatexContent) == "" {
				return "", invalidInput("latex_content must not be empty")
			}

			res, err := r.Render(ctx, in.LatexContent)
			ev := telemetry.RenderEvent{
				Stem:     res.Stem,
				Full:     res.Full,
				Engine:   r.Engine(),
				Duration: res.Duration,
				ExitCode: res.ExitCode,
				Outcome:  "ok",
				Source:   metrics.CountLatex(in.LatexContent),
			}
			if err != nil {
				te := renderToolError(err)
				ev.Outcome = strings.ToLower(strings.TrimPrefix(te.Code, "ERR_"))
				telemetry.EmitRender(ctx, ev)
				return "", te
			}
			telemetry.EmitRender(ctx, ev)
			return res.PDFPath, nil
		},
	}
}

// renderToolError maps render failures onto stable codes. Context cancellation passes
// through with the compile code so the model sees a consistent shape.
func renderToolError(err error) safety.ToolError {
	switch {
	case errors.Is(err, render.ErrEngineNotFound):
		return safety.ToolError{Code: CodeEngineNotFound, Message: err.Error()}
	case errors.Is(err, render.ErrWrite):
		return safety.ToolError{Code: CodeWriteFailed, Message: err.Error()}
	}
	msg := err.Error()
	if diag := strings.TrimSpace(render.Diagnostics(err)); diag != "" {
		msg = fmt.Sprintf("%s\nengine output (tail):\n%s", msg, tailRunes(diag, maxDiagnosticRunes))
	}
	return safety.ToolError{Code: CodeCompileFailed, Message: msg}
}
