// Broker — the only asynchronous seam in the simulation. A consultation is
// issued fire-and-forget; the tick proceeds on the agent's previous or
// fallback goal, and the response, if it ever arrives, is applied at that
// agent's next decision boundary. Late or orphaned responses are discarded,
// never retroactively applied.
package cognition

import (
	"context"
	"log/slog"
	"time"

	"github.com/ferune/wildmere/internal/agent"
)

// Broker mediates between the synchronous tick and the asynchronous
// provider. All methods are called from the tick goroutine only; the
// provider goroutines touch nothing but the results channel.
type Broker struct {
	provider Provider
	timeout  time.Duration

	results chan outcome
	pending map[agent.AgentID]uint64 // agent → tick the request was issued
	ready   map[agent.AgentID]arrival
}

type outcome struct {
	id     agent.AgentID
	issued uint64
	intent Intent
	err    error
}

type arrival struct {
	intent Intent
	issued uint64
}

// NewBroker wraps a provider. A nil provider yields a broker that never
// issues requests — the simulation runs fully deterministic without one.
func NewBroker(provider Provider, timeout time.Duration) *Broker {
	return &Broker{
		provider: provider,
		timeout:  timeout,
		results:  make(chan outcome, 64),
		pending:  make(map[agent.AgentID]uint64),
		ready:    make(map[agent.AgentID]arrival),
	}
}

// Enabled reports whether consultations can be issued at all.
func (b *Broker) Enabled() bool {
	return b != nil && b.provider != nil
}

// Consult issues an advisory request for an agent unless one is already in
// flight. Never blocks: the provider call runs in its own goroutine under a
// timeout context.
func (b *Broker) Consult(req Request, now uint64) {
	if !b.Enabled() {
		return
	}
	id := agent.AgentID(req.AgentID)
	if _, inFlight := b.pending[id]; inFlight {
		return
	}
	b.pending[id] = now

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		intent, err := b.provider.Propose(ctx, req)
		// A full results channel means the tick is far behind on drains;
		// dropping the response is the correct degradation.
		select {
		case b.results <- outcome{id: id, issued: now, intent: intent, err: err}:
		default:
		}
	}()
}

// pendingTTLTicks re-arms consultation for an agent whose response was
// dropped on a full results channel and so never cleared its pending entry.
// Aging out an entry whose goroutine is still running is harmless: the
// result no longer matches a pending issue tick and is discarded.
const pendingTTLTicks = 256

// Drain collects finished consultations and sweeps aged-out pending
// entries. Failures are logged at debug and dropped; responses whose
// request is no longer pending (agent died, broker forgot it) are discarded
// silently.
func (b *Broker) Drain(now uint64) {
	for {
		select {
		case res := <-b.results:
			issued, inFlight := b.pending[res.id]
			if !inFlight || issued != res.issued {
				continue
			}
			delete(b.pending, res.id)
			if res.err != nil {
				slog.Debug("cognition consult failed", "agent", res.id, "error", res.err)
				continue
			}
			b.ready[res.id] = arrival{intent: res.intent, issued: res.issued}
		default:
			for id, issued := range b.pending {
				if now > issued && now-issued > pendingTTLTicks {
					delete(b.pending, id)
				}
			}
			return
		}
	}
}

// Take returns the arrived intent for an agent, if any. An intent issued
// before the agent's last applied decision is superseded and dropped: the
// deterministic engine already moved on.
func (b *Broker) Take(id agent.AgentID, lastDecided uint64) (Intent, bool) {
	arr, ok := b.ready[id]
	if !ok {
		return Intent{}, false
	}
	delete(b.ready, id)
	if arr.issued < lastDecided {
		slog.Debug("cognition intent superseded", "agent", id, "issued", arr.issued, "last_decided", lastDecided)
		return Intent{}, false
	}
	return arr.intent, true
}

// Forget drops all broker state for an agent. Called when the agent dies or
// departs so a late response can never touch a stale id.
func (b *Broker) Forget(id agent.AgentID) {
	if b == nil {
		return
	}
	delete(b.pending, id)
	delete(b.ready, id)
}

// InFlight reports whether a consultation is pending for an agent.
func (b *Broker) InFlight(id agent.AgentID) bool {
	_, ok := b.pending[id]
	return ok
}
