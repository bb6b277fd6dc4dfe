package windowing

import (
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
)

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated tokens for included groups only.
// - Budget: the input token budget used.
// - IncludedGroups: number of groups included.
// - SkippedGroups: total groups minus IncludedGroups.
// - OrphansDropped: leading groups removed because they open with an unpaired tool_result.
// - OverBudgetNewest: true when the newest single group alone exceeds Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OrphansDropped   int
	OverBudgetNewest bool
}

// PrepareSendWindow returns a subslice of msgs (oldest→newest) that fits within
// budget using the TokenCounter, without splitting groups.
//
// Rules:
// - Include whole groups scanning newest→oldest while total ≤ budget.
// - If the newest group alone exceeds budget, return an empty window and set OverBudgetNewest.
// - If budget ≤ 0, return an empty window (OverBudgetNewest set when any groups exist).
// - A window never opens with a tool_result whose tool_use was cut off.
func PrepareSendWindow(msgs []anthropic.MessageParam, budget int, c TokenCounter) ([]anthropic.MessageParam, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	groups := GroupBlocks(msgs)

	if budget <= 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
	}

	costs := make([]int, len(groups))
	for i, g := range groups {
		costs[i] = c.CountGroup(g, msgs)
	}

	newest := len(groups) - 1
	if costs[newest] > budget {
		slog.Debug("windowing: newest group over budget", "budget", budget, "cost", costs[newest])
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
	}

	// startIdx is the oldest included group.
	total, startIdx := 0, len(groups)
	for gi := newest; gi >= 0 && total+costs[gi] <= budget; gi-- {
		total += costs[gi]
		startIdx = gi
	}

	orphans := 0
	for startIdx < len(groups) && opensWithToolResult(groups[startIdx], msgs) {
		total -= costs[startIdx]
		startIdx++
		orphans++
	}
	if orphans > 0 {
		slog.Debug("windowing: dropped leading orphan tool_result", "groups", orphans)
	}

	included := len(groups) - startIdx
	stats := Stats{
		Total:          total,
		Budget:         budget,
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
		OrphansDropped: orphans,
	}
	if included == 0 {
		return nil, stats
	}
	return msgs[groups[startIdx].Start:], stats
}

// opensWithToolResult reports whether g is a lone user message led by a tool_result.
// Such a message cannot be sent without the assistant turn that issued the tool_use.
func opensWithToolResult(g Group, msgs []anthropic.MessageParam) bool {
	if g.Kind != GroupSingleton {
		return false
	}
	m := msgs[g.Start]
	return m.Role == anthropic.MessageParamRoleUser && len(m.Content) > 0 && m.Content[0].OfToolResult != nil
}
