// Package plan implements the execution planner: given an operator
// chain, classify it by memory discipline and choose stream,
// materialize, or windowed execution, emitting advisory warnings along
// the way. Classification is a plain synchronous pass over each step's
// declared Kind; there is no background dispatch or goroutine involved.
package plan

import (
	"github.com/mxkacsa/jsonla/jsonlaerr"
	"github.com/mxkacsa/jsonla/relation"
)

// Mode is the chosen execution strategy for a pipeline.
type Mode uint8

const (
	ModeStream Mode = iota
	ModeMaterialize
	ModeWindowed
)

func (m Mode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeMaterialize:
		return "materialize"
	case ModeWindowed:
		return "windowed"
	default:
		return "unknown"
	}
}

// Step is one operator in a chain, tagged with its memory-discipline
// class. Name identifies the operator kind for diagnostics and for the
// windowed-join check (e.g. "join", "sort", "distinct", "group_by").
type Step struct {
	Name string
	Kind relation.OpKind
}

// Options configures classification: a requested window size (0 means no
// windowing), whether the caller explicitly asked for streaming mode, and
// an optional estimated input row count used for the large-input warning.
type Options struct {
	Window             int
	RequestStream      bool
	EstimatedInputRows int64
}

// largeInputThreshold is the row count above which a materializing or
// bounded-stateful operator earns a memory warning.
const largeInputThreshold = 1_000_000

// Result is the planner's decision: the chosen mode, the effective window
// size (0 unless ModeWindowed), and any warnings to surface to the user.
// A warning is never fatal; the one exception is the windowed-join
// combination, which Classify rejects outright via its error return.
type Result struct {
	Mode     Mode
	Window   int
	Warnings []jsonlaerr.Warning
}

// Classify chooses an execution mode for steps under opts. It returns an
// error for the one combination that is rejected outright rather than
// approximated: a requested window size together with a `join` step.
// An equi-join's right-side hash index cannot be rebuilt per-window in a
// way that approximates the unwindowed semantics, unlike sort or
// group_by, where a per-window approximation is an acceptable result.
func Classify(steps []Step, opts Options) (Result, error) {
	var hasMaterializing, hasBoundedStateful, hasJoin bool
	for _, s := range steps {
		switch s.Kind {
		case relation.KindMaterializing:
			hasMaterializing = true
			if s.Name == "join" {
				hasJoin = true
			}
		case relation.KindBoundedStateful:
			hasBoundedStateful = true
		}
	}

	if opts.Window > 0 && hasJoin {
		return Result{}, jsonlaerr.New(jsonlaerr.PipelineError,
			"windowed execution does not support join: window size %d requested with a join step", opts.Window)
	}

	var warnings []jsonlaerr.Warning
	var mode Mode
	window := 0

	switch {
	case opts.Window > 0 && hasMaterializing:
		mode = ModeWindowed
		window = opts.Window
		warnings = append(warnings, jsonlaerr.Warning{
			Message: "windowed execution produces approximations: sort gives per-window order, not global; " +
				"group_by+aggregate collapses per-window, so the same key across windows yields multiple rows",
		})
	case hasMaterializing:
		mode = ModeMaterialize
		if opts.RequestStream {
			warnings = append(warnings, jsonlaerr.Warning{
				Message: "streaming mode was requested but the operator chain contains a non-streamable operator; falling back to materializing",
			})
		}
	default:
		mode = ModeStream
	}

	if (hasMaterializing || hasBoundedStateful) && opts.EstimatedInputRows > largeInputThreshold {
		warnings = append(warnings, jsonlaerr.Warning{
			Message: "memory-intensive operator over a large estimated input; consider a window size",
		})
	}

	return Result{Mode: mode, Window: window, Warnings: warnings}, nil
}
