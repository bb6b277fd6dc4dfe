package telemetry

import (
	"context"
	"time"

	"github.com/petasbytes/research-agent/internal/metrics"
)

// EmitLocalFeatures records size features of a user message in calibration mode.
func EmitLocalFeatures(ctx context.Context, user string) {
	if !(CalibrationModeEnabled() && ObserveEnabled()) {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(user)
	Emit("local_features", map[string]any{
		"turn_id":          turnID,
		"features_version": "1",
		"user":             featureFields(f),
	})
}

// RenderEvent summarises one render call. Source carries counts only.
type RenderEvent struct {
	Stem     string
	Full     bool
	Engine   string
	Duration time.Duration
	ExitCode int
	Outcome  string // ok, engine_not_found, write_failed, compile_failed
	Source   metrics.LatexFeatures
}

// EmitRender records a render_finished event.
func EmitRender(ctx context.Context, ev RenderEvent) {
	turnID, _ := TurnIDFromContext(ctx)
	mode := "fragment"
	if ev.Full {
		mode = "full"
	}
	src := featureFields(ev.Source.Features)
	src["sections"] = ev.Source.Sections
	src["equations"] = ev.Source.Equations
	src["citations"] = ev.Source.Citations
	Emit("render_finished", map[string]any{
		"turn_id":     turnID,
		"stem":        ev.Stem,
		"mode":        mode,
		"engine":      ev.Engine,
		"duration_ms": ev.Duration.Milliseconds(),
		"exit_code":   ev.ExitCode,
		"outcome":     ev.Outcome,
		"source":      src,
	})
}

func featureFields(f metrics.Features) map[string]any {
	return map[string]any{
		"bytes": f.Bytes,
		"runes": f.Runes,
		"words": f.Words,
		"lines": f.Lines,
	}
}
