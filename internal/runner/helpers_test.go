package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/petasbytes/research-agent/internal/runner"
	"github.com/petasbytes/research-agent/tools"
)

// fakeTransport replays canned responses in order (the last one repeats) and
// records every request body.
type fakeTransport struct {
	mu        sync.Mutex
	responses []string
	bodies    [][]byte
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()

	f.mu.Lock()
	f.bodies = append(f.bodies, b)
	i := min(len(f.bodies)-1, len(f.responses)-1)
	body := f.responses[i]
	f.mu.Unlock()

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

func (f *fakeTransport) body(i int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[i]
}

func newClientWithTransport(rt http.RoundTripper) *anthropic.Client {
	c := anthropic.NewClient(
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return &c
}

const emptyReply = `{"role":"assistant","content":[],"stop_reason":"end_turn"}`

// newRunner wires a runner against canned responses. Output is captured in the returned buffer.
func newRunner(t *testing.T, defs []tools.ToolDefinition, budget int, responses ...string) (*runner.Runner, *fakeTransport, *bytes.Buffer) {
	t.Helper()
	if len(responses) == 0 {
		responses = []string{emptyReply}
	}
	fake := &fakeTransport{responses: responses}
	out := &bytes.Buffer{}
	r := runner.New(newClientWithTransport(fake), defs, runner.Options{
		System: "You are a test assistant.",
		Budget: budget,
		Out:    out,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return r, fake, out
}

// echoTool returns its raw input, so output_size is always > 0.
func echoTool() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "echo",
		Description: "echo input",
		InputSchema: tools.GenerateSchema[struct {
			Text string `json:"text"`
		}](),
		Function: func(_ context.Context, input json.RawMessage) (string, error) {
			return string(input), nil
		},
	}
}

func errTool() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "err_tool",
		Description: "always errors",
		InputSchema: tools.GenerateSchema[struct{}](),
		Function: func(context.Context, json.RawMessage) (string, error) {
			return "", errors.New("boom")
		},
	}
}

// stateDir points telemetry at a temp dir with observation on and returns it.
func stateDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AGT_STATE_DIR", dir)
	t.Setenv("AGT_OBSERVE_JSON", "1")
	return dir
}

// chdirTemp moves the test into a fresh directory for tests that check the default state dir.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func readEventLines(t *testing.T, dir string) []string {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()
	var lines []string
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	return lines
}

// lastEvent returns the newest event with the given name.
func lastEvent(t *testing.T, lines []string, name string) map[string]any {
	t.Helper()
	for i := len(lines) - 1; i >= 0; i-- {
		var m map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &m); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if m["event"] == name {
			return m
		}
	}
	t.Fatalf("no %s event found", name)
	return nil
}

type sentRequest struct {
	System []struct {
		Text string `json:"text"`
	} `json:"system"`
	MaxTokens int `json:"max_tokens"`
	Tools     []struct {
		Name string `json:"name"`
	} `json:"tools"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type      string          `json:"type"`
			Text      string          `json:"text,omitempty"`
			ID        string          `json:"id,omitempty"`
			Input     json.RawMessage `json:"input,omitempty"`
			ToolUseID string          `json:"tool_use_id,omitempty"`
			IsError   bool            `json:"is_error,omitempty"`
			Content   []struct {
				Text string `json:"text"`
			} `json:"content,omitempty"`
		} `json:"content"`
	} `json:"messages"`
}

func decodeRequest(t *testing.T, b []byte) sentRequest {
	t.Helper()
	var rb sentRequest
	if err := json.Unmarshal(b, &rb); err != nil {
		t.Fatalf("unmarshal body: %v\nbody=%s", err, b)
	}
	return rb
}
