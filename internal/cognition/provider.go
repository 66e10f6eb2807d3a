// Package cognition integrates the external cognition provider: a slow,
// fallible source of advisory behavioral intent. The provider is never
// authoritative — its suggestions are mapped onto the shared goal vocabulary
// and validated like any rule-based goal, and every failure mode (absent,
// slow, malformed) degrades to deterministic selection.
package cognition

import (
	"context"

	"github.com/ferune/wildmere/internal/agent"
)

// Request is the bounded context shipped to the provider: the agent's state,
// drive pressures, recent memory, and a summary of nearby agents. Nothing in
// it references live simulation memory.
type Request struct {
	AgentID    uint64             `json:"agent_id"`
	Name       string             `json:"name"`
	Species    string             `json:"species"`
	Health     float64            `json:"health"`
	Drives     map[string]float64 `json:"drives"`
	Memories   []string           `json:"memories,omitempty"`
	Nearby     []NearbySummary    `json:"nearby,omitempty"`
	IssuedTick uint64             `json:"tick"`
}

// NearbySummary describes one perceived agent for the provider.
type NearbySummary struct {
	ID       uint64  `json:"id"`
	Species  string  `json:"species"`
	Distance float64 `json:"distance"`
	Threat   float64 `json:"threat"`
}

// Intent is the provider's structured suggestion: a goal label from the
// shared vocabulary plus an optional target hint. It has passed schema
// validation but not world validation — the decision engine does that.
type Intent struct {
	Action      string `json:"action"`
	TargetAgent uint64 `json:"target_agent,omitempty"`
	TargetX     *int   `json:"target_x,omitempty"`
	TargetY     *int   `json:"target_y,omitempty"`
	Reasoning   string `json:"reasoning,omitempty"`
}

// Provider produces an advisory intent for a request, or an error. All
// errors are expected, non-exceptional outcomes.
type Provider interface {
	Propose(ctx context.Context, req Request) (Intent, error)
}

// BuildRequest assembles the bounded provider context from an agent's
// current state. Memory and nearby lists are capped so prompt size stays
// bounded regardless of how busy the neighborhood is.
func BuildRequest(a *agent.Agent, p *agent.Params, now uint64) Request {
	req := Request{
		AgentID:    uint64(a.ID),
		Name:       a.Name,
		Species:    a.Species.Name(),
		Health:     a.HealthRatio(),
		Drives:     make(map[string]float64),
		IssuedTick: now,
	}

	for k := agent.DriveKind(0); k < agent.NumDrives; k++ {
		if a.Drives.Has(k) {
			req.Drives[k.Name()] = p.Drive(a, k)
		}
	}

	for _, m := range agent.RecentMemories(a, 6) {
		req.Memories = append(req.Memories, describeMemory(m))
	}

	count := 0
	for _, r := range a.Percept.Records {
		if r.Kind != agent.RecordAgent {
			continue
		}
		req.Nearby = append(req.Nearby, NearbySummary{
			ID:       uint64(r.Agent),
			Distance: r.Distance,
			Threat:   r.Threat,
		})
		count++
		if count >= 8 {
			break
		}
	}

	return req
}

func describeMemory(m agent.MemoryEvent) string {
	switch m.Kind {
	case agent.MemoryThreat:
		return "fled from danger"
	case agent.MemoryMeal:
		return "ate a meal"
	case agent.MemorySocial:
		return "spent time in company"
	case agent.MemoryArrival:
		return "arrived in the valley"
	default:
		return "noticed someone nearby"
	}
}
