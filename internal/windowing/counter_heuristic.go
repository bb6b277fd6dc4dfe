package windowing

import (
	"encoding/json"
	"log/slog"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m anthropic.MessageParam) int
	CountGroup(g Group, all []anthropic.MessageParam) int
}

// HeuristicCounter is the default deterministic estimator. One rune counts as one token.
//   - text: runes of the text
//   - tool_result: runes of the string payload, or of nested text blocks
//   - tool_use: runes of the tool name plus the JSON-encoded input; rendered
//     LaTeX documents travel here, so they must count against the budget
//
// Every block also pays a fixed overhead.
type HeuristicCounter struct{}

// Fixed per-block overhead for deterministic counts; changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountMessage(m anthropic.MessageParam) int {
	total := 0
	for _, blk := range m.Content {
		total += countBlock(blk)
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []anthropic.MessageParam) int {
	total := 0
	for _, m := range g.Span(all) {
		total += h.CountMessage(m)
	}
	return total
}

func countBlock(blk anthropic.ContentBlockParamUnion) int {
	switch {
	case blk.OfText != nil:
		return utf8.RuneCountInString(blk.OfText.Text) + blockOverhead
	case blk.OfToolUse != nil:
		return countToolUse(blk.OfToolUse) + blockOverhead
	case blk.OfToolResult != nil:
		return countToolResult(blk.OfToolResult) + blockOverhead
	}
	// thinking, images, documents: overhead only
	return blockOverhead
}

func countToolUse(tu *anthropic.ToolUseBlockParam) int {
	n := utf8.RuneCountInString(tu.Name)
	switch in := tu.Input.(type) {
	case nil:
	case json.RawMessage:
		n += utf8.RuneCount(in)
	case string:
		n += utf8.RuneCountInString(in)
	default:
		b, err := json.Marshal(in)
		if err != nil {
			slog.Debug("windowing: tool_use input not encodable", "tool", tu.Name, "err", err)
			break
		}
		n += utf8.RuneCount(b)
	}
	return n
}

func countToolResult(tr *anthropic.ToolResultBlockParam) int {
	n := 0
	for _, nb := range tr.Content {
		if nt := nb.OfText; nt != nil {
			n += utf8.RuneCountInString(nt.Text)
		}
		// Non-text nested blocks contribute only via parent overhead.
	}
	return n
}
