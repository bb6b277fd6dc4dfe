package windowing

import (
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

func (k GroupKind) String() string {
	if k == GroupPair {
		return "pair"
	}
	return "singleton"
}

// Group is the span [Start, End) of the message slice it was computed from.
type Group struct {
	Kind  GroupKind
	Start int
	End   int
}

// Span returns the messages of g.
func (g Group) Span(msgs []anthropic.MessageParam) []anthropic.MessageParam {
	return msgs[g.Start:g.End]
}

// Reasons an assistant tool_use message is not paired with the next message.
const (
	reasonNoResultMessage = "not_followed_by_user"
	reasonOrdering        = "ordering_invalid"
	reasonMissing         = "missing_results"
	reasonExtra           = "extra_results"
)

// GroupBlocks splits msgs into the units a send window may keep or drop. A pair is an
// assistant message with tool_use blocks immediately followed by a user message that
// opens with exactly the matching tool_result blocks (any order, errors included).
// Text may follow the results. Everything else is a singleton.
func GroupBlocks(msgs []anthropic.MessageParam) []Group {
	groups := make([]Group, 0, len(msgs))
	i := 0
	for i < len(msgs) {
		reason, ok := pairAt(msgs, i)
		if ok {
			groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
			i += 2
			continue
		}
		if reason != "" {
			slog.Debug("windowing: exclude pair", "reason", reason, "idx", i)
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// pairAt reports whether msgs[i] and msgs[i+1] form a tool round trip. reason is empty
// when msgs[i] makes no tool calls at all.
func pairAt(msgs []anthropic.MessageParam, i int) (reason string, ok bool) {
	uses := toolUseIDs(msgs[i])
	if len(uses) == 0 {
		return "", false
	}
	if i+1 >= len(msgs) || msgs[i+1].Role != anthropic.MessageParamRoleUser {
		return reasonNoResultMessage, false
	}
	results, ordered := leadingResultIDs(msgs[i+1])
	switch {
	case !ordered:
		return reasonOrdering, false
	case !subset(uses, results):
		return reasonMissing, false
	case !subset(results, uses):
		return reasonExtra, false
	}
	return "", true
}

// toolUseIDs returns the tool_use ids of an assistant message.
func toolUseIDs(m anthropic.MessageParam) map[string]bool {
	if m.Role != anthropic.MessageParamRoleAssistant {
		return nil
	}
	var ids map[string]bool
	for _, blk := range m.Content {
		if tu := blk.OfToolUse; tu != nil && tu.ID != "" {
			if ids == nil {
				ids = make(map[string]bool)
			}
			ids[tu.ID] = true
		}
	}
	return ids
}

// leadingResultIDs collects the ids of the tool_result blocks that open m. ordered is
// false when a tool_result appears after any other block.
func leadingResultIDs(m anthropic.MessageParam) (ids map[string]bool, ordered bool) {
	ids = make(map[string]bool)
	inResults := true
	for _, blk := range m.Content {
		tr := blk.OfToolResult
		if tr == nil {
			inResults = false
			continue
		}
		if !inResults {
			return ids, false
		}
		if tr.ToolUseID != "" {
			ids[tr.ToolUseID] = true
		}
	}
	return ids, true
}

func subset(a, b map[string]bool) bool {
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
