package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/petasbytes/research-agent/internal/telemetry"
	"github.com/petasbytes/research-agent/internal/windowing"
	"github.com/petasbytes/research-agent/tools"
)

// Defaults applied by New for zero-valued options.
const (
	DefaultMaxTokens = 8192
	DefaultMaxSteps  = 25
)

// ErrOverBudget reports that the newest message group alone exceeds the token budget.
var ErrOverBudget = errors.New("windowing: newest group exceeds the token budget; increase the budget or tighten tool caps")

// Options configures a Runner.
type Options struct {
	System    string // system prompt; empty sends none
	MaxTokens int64
	Budget    int // input token budget for the send window; must be > 0
	MaxSteps  int // model calls per RunTurn
	Out       io.Writer
	Logger    *slog.Logger
	Counter   windowing.TokenCounter
}

type Runner struct {
	Client *anthropic.Client
	Tools  []tools.ToolDefinition
	opts   Options
}

// New returns a Runner over the given tool set. The set is fixed for the Runner's lifetime.
func New(client *anthropic.Client, toolDefs []tools.ToolDefinition, opts Options) *Runner {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Counter == nil {
		opts.Counter = windowing.HeuristicCounter{}
	}
	return &Runner{Client: client, Tools: toolDefs, opts: opts}
}

func (r *Runner) anthropicTools() []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(r.Tools))
	for _, t := range r.Tools {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: t.InputSchema,
		}})
	}
	return out
}

// RunTurn drives the model until it answers without tool calls, appending every assistant
// message and tool_result message to conv. The returned conversation is valid even on error.
func (r *Runner) RunTurn(ctx context.Context, model anthropic.Model, conv []anthropic.MessageParam) ([]anthropic.MessageParam, error) {
	ctx, turnID := telemetry.EnsureTurnID(ctx)
	for step := 0; step < r.opts.MaxSteps; step++ {
		msg, results, err := r.RunOneStep(ctx, model, conv)
		if err != nil {
			return conv, err
		}
		conv = append(conv, msg.ToParam())
		if len(results) == 0 {
			return conv, nil
		}
		conv = append(conv, anthropic.NewUserMessage(results...))
	}
	r.opts.Logger.Warn("turn stopped without a final answer", "turn_id", turnID, "steps", r.opts.MaxSteps)
	return conv, fmt.Errorf("runner: no final answer after %d model calls", r.opts.MaxSteps)
}

// RunOneStep sends the conversation and either prints text or returns tool results to be appended.
func (r *Runner) RunOneStep(ctx context.Context, model anthropic.Model, conv []anthropic.MessageParam) (*anthropic.Message, []anthropic.ContentBlockParamUnion, error) {
	if r.opts.Budget <= 0 {
		return nil, nil, fmt.Errorf("runner: token budget must be > 0, got %d", r.opts.Budget)
	}

	// Prepare pair-safe, budgeted window
	window, stats := windowing.PrepareSendWindow(conv, r.opts.Budget, r.opts.Counter)

	ctx, turnID := telemetry.EnsureTurnID(ctx)

	telemetry.Emit("window_prepared", map[string]any{
		"turn_id":            turnID,
		"model":              string(model),
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"orphans_dropped":    stats.OrphansDropped,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	r.opts.Logger.Debug("window prepared",
		"model", string(model), "budget", stats.Budget, "est_total", stats.Total,
		"groups_in", stats.IncludedGroups, "groups_skip", stats.SkippedGroups, "newest_over", stats.OverBudgetNewest)

	// With tool caps the newest group should always fit. If not, treat it as a
	// misconfiguration and fail before calling the API.
	if stats.OverBudgetNewest {
		return nil, nil, ErrOverBudget
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: r.opts.MaxTokens,
		Messages:  window,
	}
	if r.opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: r.opts.System}}
	}
	// Calibration runs measure plain text exchanges, so tools are withheld.
	if !telemetry.CalibrationModeEnabled() {
		params.Tools = r.anthropicTools()
	}
	step := strconv.Itoa(len(conv))
	telemetry.PersistPayload(turnID, "request_"+step, params)

	msg, err := r.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	telemetry.PersistPayload(turnID, "response_"+step, msg)

	toolResults := []anthropic.ContentBlockParamUnion{}
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			fmt.Fprintf(r.opts.Out, "\u001b[93mClaude\u001b[0m: %s\n", v.Text)
		case anthropic.ToolUseBlock:
			// Pass raw JSON input through to the tool implementation
			input := json.RawMessage(v.JSON.Input.Raw())
			toolResults = append(toolResults, r.execTool(ctx, v.ID, v.Name, input))
		}
	}
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		r.opts.Logger.Warn("model output hit max_tokens", "turn_id", turnID, "max_tokens", r.opts.MaxTokens)
	}
	return msg, toolResults, nil
}

func (r *Runner) execTool(ctx context.Context, id, name string, input json.RawMessage) anthropic.ContentBlockParamUnion {
	var def *tools.ToolDefinition
	for i := range r.Tools {
		if r.Tools[i].Name == name {
			def = &r.Tools[i]
			break
		}
	}

	turnID, _ := telemetry.TurnIDFromContext(ctx)
	log := r.opts.Logger.With("tool", name, "turn_id", turnID)

	// Sizes and a generic error class only; raw payloads never reach telemetry.
	emit := func(d time.Duration, inputSize, outputSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   name,
			"duration_ms": d.Milliseconds(),
			"input_size":  inputSize,
			"output_size": outputSize,
			"turn_id":     turnID,
			"error":       nil,
		}
		if errStr != "" {
			fields["error"] = errStr
		}
		telemetry.Emit("tool_exec", fields)
	}

	start := time.Now()
	if def == nil {
		log.Warn("model requested an unknown tool")
		emit(time.Since(start), len(input), 0, "tool not found")
		return anthropic.NewToolResultBlock(id, "tool not found", true)
	}

	fmt.Fprintf(r.opts.Out, "\u001b[92mtool\u001b[0m: %s\n", name)
	resp, err := callTool(ctx, def.Function, input)
	if err != nil {
		log.Warn("tool failed", "err", err, "duration", time.Since(start))
		emit(time.Since(start), len(input), 0, "tool error")
		// The detailed message goes back to the model so it can correct the call.
		return anthropic.NewToolResultBlock(id, err.Error(), true)
	}
	log.Debug("tool finished", "duration", time.Since(start), "output_size", len(resp))
	emit(time.Since(start), len(input), len(resp), "")
	return anthropic.NewToolResultBlock(id, resp, false)
}

// callTool runs fn and turns a panic into an error, so a failing tool ends only its own call.
func callTool(ctx context.Context, fn tools.ToolFunc, input json.RawMessage) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tool panicked: %v", p)
		}
	}()
	return fn(ctx, input)
}
