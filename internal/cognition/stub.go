// Stub providers. The failure path must be exercised as often as the
// success path, so the stubs cover absent, failing, slow, and canned
// behavior for tests and offline runs.
package cognition

import (
	"context"
	"fmt"
	"time"
)

// FailingProvider always errors. Simulations wired to it must behave
// identically to simulations with no provider at all.
type FailingProvider struct{}

func (FailingProvider) Propose(context.Context, Request) (Intent, error) {
	return Intent{}, fmt.Errorf("cognition provider unavailable")
}

// CannedProvider returns a fixed intent for every request.
type CannedProvider struct {
	Intent Intent
}

func (p CannedProvider) Propose(context.Context, Request) (Intent, error) {
	return p.Intent, nil
}

// SlowProvider waits for Delay before responding, honoring context
// cancellation — used to exercise the timeout and late-response paths.
type SlowProvider struct {
	Delay  time.Duration
	Intent Intent
}

func (p SlowProvider) Propose(ctx context.Context, _ Request) (Intent, error) {
	select {
	case <-time.After(p.Delay):
		return p.Intent, nil
	case <-ctx.Done():
		return Intent{}, ctx.Err()
	}
}

// FuncProvider adapts a function, for tests that need per-request control.
type FuncProvider func(ctx context.Context, req Request) (Intent, error)

func (f FuncProvider) Propose(ctx context.Context, req Request) (Intent, error) {
	return f(ctx, req)
}
