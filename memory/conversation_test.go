package memory_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/petasbytes/research-agent/memory"
)

func TestTranscript_RoundTrip(t *testing.T) {
	p := memory.Path(filepath.Join(t.TempDir(), "state"))

	in := memory.Transcript{
		Messages:  []memory.Message{{Role: "user", Text: "hi"}, {Role: "assistant", Text: "hello"}},
		Artifacts: []memory.Artifact{{Path: "/out/a.pdf", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}},
	}
	if err := memory.Save(p, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := memory.Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(out.Messages, in.Messages) {
		t.Fatalf("messages: got %+v want %+v", out.Messages, in.Messages)
	}
	if len(out.Artifacts) != 1 || out.Artifacts[0].Path != "/out/a.pdf" || !out.Artifacts[0].CreatedAt.Equal(in.Artifacts[0].CreatedAt) {
		t.Fatalf("artifacts: %+v", out.Artifacts)
	}
	if out.Version != 1 || out.UpdatedAt.IsZero() {
		t.Fatalf("header: version=%d updated=%v", out.Version, out.UpdatedAt)
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(filepath.Dir(p))
	if len(entries) != 1 {
		t.Fatalf("expected only the transcript in the state dir, got %d entries", len(entries))
	}
}

func TestLoad_Missing_ReturnsEmpty(t *testing.T) {
	tr, err := memory.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(tr.Messages) != 0 || len(tr.Artifacts) != 0 {
		t.Fatalf("expected empty transcript, got %+v", tr)
	}
}

func TestLoad_BareMessageArray(t *testing.T) {
	p := filepath.Join(t.TempDir(), "conv.json")
	if err := os.WriteFile(p, []byte(`[{"role":"user","text":"hi"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	tr, err := memory.Load(p)
	if err != nil || len(tr.Messages) != 1 || tr.Messages[0].Text != "hi" {
		t.Fatalf("got %+v, %v", tr, err)
	}
}

func TestLoad_InvalidJSON_ReturnsError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(p, []byte("{oops"), 0o664); err != nil {
		t.Fatalf("prep: %v", err)
	}
	if _, err := memory.Load(p); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

// toolTurn is user text, assistant text + tool_use, tool_result, final assistant text.
func toolTurn(tool, result string, isErr bool) []anthropic.MessageParam {
	return []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock("write the paper")),
		anthropic.NewAssistantMessage(
			anthropic.NewTextBlock("Rendering now."),
			anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{ID: "t1", Name: tool}},
		),
		anthropic.NewUserMessage(anthropic.NewToolResultBlock("t1", result, isErr)),
		anthropic.NewAssistantMessage(anthropic.NewTextBlock("Done.")),
	}
}

func TestFromParams_KeepsTextOnly(t *testing.T) {
	got := memory.FromParams(toolTurn("render_latex_pdf", "/out/p.pdf", false))
	want := []memory.Message{
		{Role: "user", Text: "write the paper"},
		{Role: "assistant", Text: "Rendering now."},
		{Role: "assistant", Text: "Done."},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestParams_MergesRolesAndStartsWithUser(t *testing.T) {
	tr := memory.Transcript{Messages: []memory.Message{
		{Role: "assistant", Text: "stray"},
		{Role: "user", Text: "q"},
		{Role: "assistant", Text: "a1"},
		{Role: "assistant", Text: "a2"},
		{Role: "system", Text: "ignored"},
		{Role: "user", Text: ""},
	}}
	got := tr.Params()
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d: %+v", len(got), got)
	}
	if got[0].Role != anthropic.MessageParamRoleUser || got[0].Content[0].OfText.Text != "q" {
		t.Fatalf("first: %+v", got[0])
	}
	if got[1].Role != anthropic.MessageParamRoleAssistant || len(got[1].Content) != 2 || got[1].Content[1].OfText.Text != "a2" {
		t.Fatalf("second: %+v", got[1])
	}
}

func TestRenderedPaths(t *testing.T) {
	if got := memory.RenderedPaths(toolTurn("render_latex_pdf", "/out/p.pdf", false)); !slices.Equal(got, []string{"/out/p.pdf"}) {
		t.Fatalf("success: got %v", got)
	}
	if got := memory.RenderedPaths(toolTurn("render_latex_pdf", `{"code":"ERR_COMPILE_FAILED"}`, true)); len(got) != 0 {
		t.Fatalf("error result recorded: %v", got)
	}
	if got := memory.RenderedPaths(toolTurn("read_pdf", "/tmp/x.pdf", false)); len(got) != 0 {
		t.Fatalf("other tool recorded: %v", got)
	}
}

func TestAddArtifacts_Dedupes(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var tr memory.Transcript
	tr.AddArtifacts(now, "/out/a.pdf", "/out/b.pdf", "/out/a.pdf", "")
	tr.AddArtifacts(now.Add(time.Hour), "/out/b.pdf")
	if len(tr.Artifacts) != 2 || tr.Artifacts[1].Path != "/out/b.pdf" || !tr.Artifacts[1].CreatedAt.Equal(now) {
		t.Fatalf("got %+v", tr.Artifacts)
	}
}
