package connect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/dbsim/internal/dberr"
)

// DefaultDelay is the simulated connection latency.
const DefaultDelay = 1500 * time.Millisecond

// SimulatedConnector stands in for opening a connection. It must not do
// any real I/O.
type SimulatedConnector interface {
	Connect(ctx context.Context, spec KindSpec, params map[string]string) error
}

// DelayConnector waits Delay, then succeeds if and only if params carry
// every field spec requires. The wait ends early if ctx is cancelled.
type DelayConnector struct {
	Delay time.Duration
}

// Connect implements SimulatedConnector.
func (c DelayConnector) Connect(ctx context.Context, spec KindSpec, params map[string]string) error {
	if c.Delay > 0 {
		timer := time.NewTimer(c.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("connect %s: %w", spec.Kind, ctx.Err())
		case <-timer.C:
		}
	}
	return checkPresent(spec, params)
}

// InstantConnector is a DelayConnector without the delay.
type InstantConnector struct{}

// Connect implements SimulatedConnector.
func (InstantConnector) Connect(ctx context.Context, spec KindSpec, params map[string]string) error {
	return DelayConnector{}.Connect(ctx, spec, params)
}

// FailingConnector always fails with Reason.
type FailingConnector struct {
	Reason string
}

// Connect implements SimulatedConnector.
func (c FailingConnector) Connect(_ context.Context, spec KindSpec, _ map[string]string) error {
	reason := c.Reason
	if reason == "" {
		reason = "connection refused"
	}
	return dberr.SimulatedFailure(string(spec.Kind), reason)
}

func checkPresent(spec KindSpec, params map[string]string) error {
	var missing []string
	for _, f := range spec.Fields {
		if strings.TrimSpace(params[f.Name]) == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return dberr.SimulatedFailure(string(spec.Kind), "missing "+strings.Join(missing, ", "))
	}
	return nil
}
