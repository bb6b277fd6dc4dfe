package memory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// DefaultFile is the transcript file name inside the state directory.
const DefaultFile = "conversation.json"

// renderTool names the tool whose successful results are recorded as artifacts.
const renderTool = "render_latex_pdf"

const transcriptVersion = 1

// Message is a minimal persisted view of a chat turn.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text,omitempty"`
}

// Artifact is a generated file reported back to the user.
type Artifact struct {
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is the persisted state of a chat.
type Transcript struct {
	Version   int        `json:"version"`
	Messages  []Message  `json:"messages"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Path returns the transcript location inside stateDir.
func Path(stateDir string) string { return filepath.Join(stateDir, DefaultFile) }

// Load reads a transcript. A missing file yields an empty transcript. Files holding a
// bare message array are accepted as well.
func Load(path string) (Transcript, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Transcript{Version: transcriptVersion}, nil
	}
	if err != nil {
		return Transcript{}, err
	}

	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		var msgs []Message
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return Transcript{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return Transcript{Version: transcriptVersion, Messages: msgs}, nil
	}
	var t Transcript
	if err := json.Unmarshal(b, &t); err != nil {
		return Transcript{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if t.Version == 0 {
		t.Version = transcriptVersion
	}
	return t, nil
}

// Save writes t to path, creating parent directories as needed.
func Save(path string, t Transcript) error {
	t.Version = transcriptVersion
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	}
	b, err := json.MarshalIndent(t, "", " ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".conversation-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// FromParams keeps the text of each API message. Messages without text are dropped.
func FromParams(conv []anthropic.MessageParam) []Message {
	out := make([]Message, 0, len(conv))
	for _, m := range conv {
		var parts []string
		for _, blk := range m.Content {
			if tb := blk.OfText; tb != nil && strings.TrimSpace(tb.Text) != "" {
				parts = append(parts, tb.Text)
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, Message{Role: string(m.Role), Text: strings.Join(parts, "\n")})
	}
	return out
}

// Params rebuilds API messages from the stored text. Consecutive messages with the
// same role are merged so roles alternate, and leading assistant messages are dropped.
func (t Transcript) Params() []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range t.Messages {
		if m.Text == "" {
			continue
		}
		role := anthropic.MessageParamRole(m.Role)
		if role != anthropic.MessageParamRoleUser && role != anthropic.MessageParamRoleAssistant {
			continue
		}
		if len(out) == 0 && role != anthropic.MessageParamRoleUser {
			continue
		}
		blk := anthropic.NewTextBlock(m.Text)
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blk)
			continue
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: []anthropic.ContentBlockParamUnion{blk}})
	}
	return out
}

// RenderedPaths returns the PDF paths reported by successful render_latex_pdf calls in conv.
func RenderedPaths(conv []anthropic.MessageParam) []string {
	names := map[string]string{} // tool_use id -> tool name
	var paths []string
	for _, m := range conv {
		for _, blk := range m.Content {
			if tu := blk.OfToolUse; tu != nil {
				names[tu.ID] = tu.Name
			}
			tr := blk.OfToolResult
			if tr == nil || names[tr.ToolUseID] != renderTool || tr.IsError.Value {
				continue
			}
			for _, c := range tr.Content {
				if c.OfText != nil && strings.HasSuffix(c.OfText.Text, ".pdf") {
					paths = append(paths, c.OfText.Text)
				}
			}
		}
	}
	return paths
}

// AddArtifacts records paths not already present.
func (t *Transcript) AddArtifacts(now time.Time, paths ...string) {
	seen := make(map[string]bool, len(t.Artifacts))
	for _, a := range t.Artifacts {
		seen[a.Path] = true
	}
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		t.Artifacts = append(t.Artifacts, Artifact{Path: p, CreatedAt: now.UTC()})
	}
}
