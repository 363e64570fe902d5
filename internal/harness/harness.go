package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/dbsim/internal/connect"
	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/store"
	"github.com/roach88/dbsim/internal/testutil"
	"github.com/roach88/dbsim/internal/workspace"
)

// Harness executes scenario steps against one workspace.
type Harness struct {
	ws     *workspace.Workspace
	logger *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory store with fixed project ids,
// a fixed clock and a connector that never waits.
//
// Execution flow:
// 1. Build the workspace
// 2. Execute setup steps (all must succeed)
// 3. Execute flow steps, checking expect clauses
// 4. Evaluate assertions against the final state
//
// A returned error means the scenario could not be executed; failed
// expectations are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}

	var connector connect.SimulatedConnector = connect.InstantConnector{}
	if scenario.Connector == "failing" {
		connector = connect.FailingConnector{}
	}

	h.ws = workspace.New(store.NewMemory(), workspace.Options{
		IDs:       testutil.NewFixedIDs("p", scenario.IDs...),
		Clock:     testutil.NewDeterministicClock(testutil.DefaultEpoch),
		Connector: connector,
		Logger:    h.logger,
	})
	defer h.ws.Close()

	result := NewResult()

	for i, step := range scenario.Setup {
		outcome, _, err := h.execute(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
		if outcome != CaseOK {
			return nil, fmt.Errorf("setup[%d] %s: failed with %s", i, step.Op, outcome)
		}
	}

	for i, step := range scenario.Flow {
		outcome, res, err := h.execute(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}
		for _, msg := range checkExpect(step, outcome, res) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}

	actx := &AssertionContext{Ctx: ctx, Workspace: h.ws}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished", "name", scenario.Name, "pass", result.Pass, "steps", len(result.Trace))
	return result, nil
}

// execute runs one step and appends it to the trace. Workspace errors
// become the step's case; anything else aborts the run.
func (h *Harness) execute(ctx context.Context, step Step, result *Result) (string, map[string]any, error) {
	fn, ok := ops[step.Op]
	if !ok {
		return "", nil, fmt.Errorf("unknown op %q", step.Op)
	}

	res, err := fn(ctx, h.ws, args(step.Args))
	outcome := CaseOK
	if err != nil {
		var argErr *ArgError
		if errors.As(err, &argErr) {
			return "", nil, err
		}
		code := dberr.CodeOf(err)
		if code == "" {
			return "", nil, err
		}
		outcome = string(code)
		res = nil
	}

	seq := result.AddTrace(step.Op, step.Args, outcome, res)
	h.logger.Debug("step executed", "seq", seq, "op", step.Op, "case", outcome)
	return outcome, res, nil
}

// checkExpect compares a step's outcome with its expect clause. A step
// without one must succeed.
func checkExpect(step Step, outcome string, res map[string]any) []string {
	want := CaseOK
	if step.Expect != nil {
		want = step.Expect.Case
	}
	if outcome != want {
		return []string{fmt.Sprintf("expected case %s, got %s", want, outcome)}
	}
	if step.Expect == nil || step.Expect.Result == nil {
		return nil
	}
	return subsetMismatches("result", res, step.Expect.Result)
}
