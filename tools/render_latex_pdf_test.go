package tools_test

import (
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/research-agent/internal/render"
	"github.com/petasbytes/research-agent/tools"
)

const (
	engineOK = `#!/bin/sh
printf '%%PDF-1.4 fake\n' > "$3/${1%.tex}.pdf"
`
	engineFail = `#!/bin/sh
i=0
while [ $i -lt 400 ]; do echo "line $i: Overfull \hbox" >&2; i=$((i+1)); done
echo "error: Undefined control sequence \foo" >&2
exit 1
`
)

// newRenderer builds a renderer whose engine is the given shell script.
func newRenderer(t *testing.T, script string) (*render.Renderer, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script engines are not supported on Windows")
	}
	engine := filepath.Join(t.TempDir(), "tectonic")
	if err := os.WriteFile(engine, []byte(script), 0o755); err != nil {
		t.Fatalf("prepare engine: %v", err)
	}
	out := filepath.Join(t.TempDir(), "output")
	r := render.New(render.Options{
		OutputDir: out,
		Timeout:   10 * time.Second,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		LookPath:  func(string) (string, error) { return engine, nil },
	})
	return r, out
}

func TestRenderLatexPDF_ReturnsAbsolutePath(t *testing.T) {
	r, out := newRenderer(t, engineOK)
	def := tools.RenderLatexPDF(r)

	got, err := call(t, def, tools.RenderLatexInput{LatexContent: "\\title{Test}\nHello world."})
	if err != nil {
		t.Fatalf("render_latex_pdf: %v", err)
	}
	if want := filepath.Join(out, "Test_20260102_030405.pdf"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("path not absolute: %s", got)
	}
}

func TestRenderLatexPDF_EngineMissing(t *testing.T) {
	r := render.New(render.Options{
		OutputDir: filepath.Join(t.TempDir(), "output"),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		LookPath:  func(string) (string, error) { return "", exec.ErrNotFound },
	})
	_, err := call(t, tools.RenderLatexPDF(r), tools.RenderLatexInput{LatexContent: "x"})
	te := wantCode(t, err, tools.CodeEngineNotFound)
	if !strings.Contains(te.Message, "tectonic is not installed") {
		t.Fatalf("message: %s", te.Message)
	}
}

func TestRenderLatexPDF_CompileFailureCarriesTail(t *testing.T) {
	r, _ := newRenderer(t, engineFail)
	_, err := call(t, tools.RenderLatexPDF(r), tools.RenderLatexInput{LatexContent: "\\foo"})
	te := wantCode(t, err, tools.CodeCompileFailed)
	if !strings.Contains(te.Message, "Undefined control sequence") {
		t.Fatalf("diagnostic tail missing: %s", te.Message)
	}
	if strings.Contains(te.Message, "line 0:") {
		t.Fatal("diagnostics not trimmed to the tail")
	}
}

func TestRenderLatexPDF_EmptyInput(t *testing.T) {
	r, _ := newRenderer(t, engineOK)
	_, err := call(t, tools.RenderLatexPDF(r), tools.RenderLatexInput{LatexContent: " \n"})
	wantCode(t, err, tools.CodeInvalidInput)
}
