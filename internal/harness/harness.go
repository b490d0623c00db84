package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/noderegistry/internal/engine"
	"github.com/roach88/noderegistry/internal/event"
	"github.com/roach88/noderegistry/internal/notify"
	"github.com/roach88/noderegistry/internal/registry"
	"github.com/roach88/noderegistry/internal/store"
	"github.com/roach88/noderegistry/internal/testutil"
)

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes engine and registry logs to l. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with deterministic ids
// and wall clock. A non-nil error means the scenario could not be executed
// at all; expectation and assertion failures are reported in Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	rec := notify.NewRecorder()
	eng, err := engine.Open(ctx, st,
		engine.WithIDGenerator(event.NewSequenceGenerator("")),
		engine.WithWallClock(testutil.NewStepClock().Now),
		engine.WithNotifier(rec),
		engine.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	if err := eng.Bootstrap(ctx, registry.Principal(scenario.Owner)); err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		before := len(rec.Events())
		trace, err := executeStep(ctx, eng, i, step)
		if err != nil {
			return nil, err
		}
		for _, ev := range rec.Events()[before:] {
			trace.Seqs = append(trace.Seqs, ev.Seq)
		}
		result.Steps = append(result.Steps, trace)
		checkStep(result, step, trace)
	}

	reg, err := eng.Registry()
	if err != nil {
		return nil, err
	}
	result.Final = reg.Snapshot()
	result.Events = rec.Events()

	for _, msg := range EvaluateAssertions(reg, result.Events, scenario.Assertions) {
		result.AddError(msg)
	}

	if _, err := eng.Verify(ctx); err != nil {
		result.AddError(fmt.Sprintf("replay verification failed: %v", err))
	}

	return result, nil
}

// stepOutcome carries the op-specific return values of a step.
type stepOutcome struct {
	approved *bool
	applied  []string
}

// executeStep performs one step. Registry errors become the step outcome;
// only engine failures are returned as errors.
func executeStep(ctx context.Context, eng *engine.Engine, index int, st Step) (StepTrace, error) {
	caller := registry.Principal(st.As)
	trace := StepTrace{Index: index, As: st.As, Op: st.Op, Outcome: OutcomeOK}

	var out stepOutcome
	err := eng.Mutate(ctx, func(r *registry.Registry) error {
		switch st.Op {
		case OpTransferOwnership:
			return r.TransferOwnership(ctx, caller, registry.Principal(st.Args.Principal))
		case OpAddManager:
			return r.AddManager(ctx, caller, registry.Principal(st.Args.Principal))
		case OpRemoveManager:
			return r.RemoveManager(ctx, caller, registry.Principal(st.Args.Principal))
		case OpUpdateAppInfo:
			return r.UpdateAppInfo(ctx, caller, registry.AppInfo{
				Version:       st.Args.Version,
				DownloadLink:  st.Args.DownloadLink,
				UpdateContent: st.Args.UpdateContent,
			})
		case OpAddNode:
			approved, err := r.AddNode(ctx, caller, st.Args.URL)
			if err == nil {
				out.approved = &approved
			}
			return err
		case OpApproveNode:
			return r.ApproveNode(ctx, caller, st.Args.URL)
		case OpApproveNodes:
			applied, err := r.ApproveNodes(ctx, caller, st.Args.URLs)
			out.applied = applied
			return err
		case OpRemoveNode:
			return r.RemoveNode(ctx, caller, st.Args.URL)
		case OpRemoveNodes:
			removed, err := r.RemoveNodes(ctx, caller, st.Args.URLs)
			out.applied = removed
			return err
		default:
			return fmt.Errorf("unknown op %q", st.Op)
		}
	})

	if err != nil {
		code := registry.CodeOf(err)
		if code == "" {
			return trace, fmt.Errorf("steps[%d] %s: %w", index, st.Op, err)
		}
		trace.Outcome = string(code)
	}
	trace.Approved = out.approved
	trace.Applied = out.applied
	return trace, nil
}

// checkStep compares a step's outcome with its expectations.
func checkStep(result *Result, st Step, trace StepTrace) {
	prefix := fmt.Sprintf("steps[%d] %s as %s", trace.Index, st.Op, st.As)

	want := OutcomeOK
	if st.ExpectError != "" {
		want = st.ExpectError
	}
	if trace.Outcome != want {
		result.AddError(fmt.Sprintf("%s: expected %s, got %s", prefix, want, trace.Outcome))
		return
	}

	if st.ExpectApproved != nil && trace.Approved != nil && *trace.Approved != *st.ExpectApproved {
		result.AddError(fmt.Sprintf("%s: expected approved=%t, got %t", prefix, *st.ExpectApproved, *trace.Approved))
	}
	if st.ExpectApplied != nil && !slices.Equal(st.ExpectApplied, trace.Applied) {
		result.AddError(fmt.Sprintf("%s: expected applied %v, got %v", prefix, st.ExpectApplied, trace.Applied))
	}
}
