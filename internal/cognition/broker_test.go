package cognition

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ferune/wildmere/internal/agent"
)

// drainUntil polls Drain until cond holds or the deadline passes.
func drainUntil(t *testing.T, b *Broker, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.Drain(0)
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestBrokerNilProvider(t *testing.T) {
	b := NewBroker(nil, time.Second)
	if b.Enabled() {
		t.Error("nil provider must disable the broker")
	}
	b.Consult(Request{AgentID: 1}, 1)
	b.Drain(0)
	if b.InFlight(1) {
		t.Error("disabled broker must never track a request")
	}
	if _, ok := b.Take(1, 0); ok {
		t.Error("disabled broker produced an intent")
	}
}

func TestBrokerDeliversIntent(t *testing.T) {
	b := NewBroker(CannedProvider{Intent: Intent{Action: "explore"}}, time.Second)
	b.Consult(Request{AgentID: 7}, 5)
	if !b.InFlight(7) {
		t.Fatal("request not tracked as in flight")
	}

	var got Intent
	var ok bool
	drainUntil(t, b, func() bool {
		got, ok = b.Take(7, 5)
		return ok
	})
	if got.Action != "explore" {
		t.Errorf("intent action = %q, want explore", got.Action)
	}
	if b.InFlight(7) {
		t.Error("delivered request still marked in flight")
	}
	// The intent is consumed on Take.
	if _, ok := b.Take(7, 5); ok {
		t.Error("intent delivered twice")
	}
}

func TestBrokerFailureDegradesSilently(t *testing.T) {
	b := NewBroker(FailingProvider{}, time.Second)
	b.Consult(Request{AgentID: 3}, 1)

	drainUntil(t, b, func() bool { return !b.InFlight(3) })
	if _, ok := b.Take(3, 1); ok {
		t.Error("failed consultation produced an intent")
	}
}

func TestBrokerSlowProviderNeverBlocksTick(t *testing.T) {
	b := NewBroker(SlowProvider{Delay: 10 * time.Second}, 20*time.Millisecond)

	start := time.Now()
	b.Consult(Request{AgentID: 2}, 1)
	b.Drain(0)
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Consult/Drain blocked for %v", elapsed)
	}

	// The timeout fires, the error is drained, nothing arrives.
	drainUntil(t, b, func() bool { return !b.InFlight(2) })
	if _, ok := b.Take(2, 1); ok {
		t.Error("timed-out consultation produced an intent")
	}
}

func TestBrokerSupersededIntentDropped(t *testing.T) {
	b := NewBroker(CannedProvider{Intent: Intent{Action: "seek_food"}}, time.Second)
	b.Consult(Request{AgentID: 9}, 5)
	drainUntil(t, b, func() bool { return !b.InFlight(9) })

	// The engine decided again at tick 10 before the intent was consumed.
	if _, ok := b.Take(9, 10); ok {
		t.Error("intent issued before the last decision must be dropped")
	}
	if _, ok := b.Take(9, 10); ok {
		t.Error("superseded intent must be gone, not retried")
	}
}

func TestBrokerSingleFlightPerAgent(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	b := NewBroker(FuncProvider(func(ctx context.Context, _ Request) (Intent, error) {
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return Intent{Action: "idle"}, nil
	}), time.Second)

	b.Consult(Request{AgentID: 4}, 1)
	b.Consult(Request{AgentID: 4}, 2) // ignored: one already in flight
	close(release)

	drainUntil(t, b, func() bool { return !b.InFlight(4) })
	if n := calls.Load(); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}
	if intent, ok := b.Take(4, 1); !ok || intent.Action != "idle" {
		t.Errorf("first consultation lost: %+v ok=%v", intent, ok)
	}
}

func TestBrokerStuckPendingAgesOut(t *testing.T) {
	b := NewBroker(CannedProvider{Intent: Intent{Action: "idle"}}, time.Second)

	// A response dropped on a full results channel leaves the pending entry
	// behind with no outcome ever arriving for it.
	b.pending[11] = 40
	if !b.InFlight(11) {
		t.Fatal("wedged entry not tracked")
	}

	b.Drain(40 + pendingTTLTicks)
	if !b.InFlight(11) {
		t.Fatal("entry swept before its ttl elapsed")
	}

	b.Drain(41 + pendingTTLTicks)
	if b.InFlight(11) {
		t.Fatal("wedged entry never aged out, agent can never consult again")
	}

	// The agent is consultable again.
	b.Consult(Request{AgentID: 11}, 400)
	drainUntil(t, b, func() bool {
		_, ok := b.Take(11, 400)
		return ok
	})
}

func TestBrokerForgetDropsLateResponse(t *testing.T) {
	release := make(chan struct{})
	b := NewBroker(FuncProvider(func(ctx context.Context, _ Request) (Intent, error) {
		<-release
		return Intent{Action: "flee"}, nil
	}), time.Second)

	b.Consult(Request{AgentID: 6}, 1)
	b.Forget(agent.AgentID(6)) // agent died mid-flight
	close(release)

	// The late response arrives but has no pending entry to match.
	time.Sleep(20 * time.Millisecond)
	b.Drain(0)
	if _, ok := b.Take(6, 1); ok {
		t.Error("forgotten agent received an intent")
	}
	if b.InFlight(6) {
		t.Error("forgotten agent still in flight")
	}
}
