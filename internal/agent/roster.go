// Roster — the arena that owns every agent, keyed by stable id. All other
// subsystems resolve ids through Get and tolerate "id no longer present" as
// a normal, recoverable case. Removals are deferred and applied in a batch
// after the evaluation pass so iteration is never invalidated mid-pass.
package agent

// Roster owns the authoritative agent list.
type Roster struct {
	agents  []*Agent
	index   map[AgentID]int
	pending []AgentID
	nextID  AgentID
}

// NewRoster creates an empty roster issuing ids from 1.
func NewRoster() *Roster {
	return &Roster{
		index:  make(map[AgentID]int),
		nextID: 1,
	}
}

// NextID issues a fresh agent id.
func (r *Roster) NextID() AgentID {
	id := r.nextID
	r.nextID++
	return id
}

// Add inserts an agent. The agent must already carry an id from NextID.
func (r *Roster) Add(a *Agent) {
	r.index[a.ID] = len(r.agents)
	r.agents = append(r.agents, a)
}

// Get resolves an id. ok is false when the agent was removed — callers treat
// that as a stale reference, not an error.
func (r *Roster) Get(id AgentID) (*Agent, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.agents[i], true
}

// All returns the live agent slice in deterministic insertion order.
// Callers iterate but never retain the slice across ticks.
func (r *Roster) All() []*Agent {
	return r.agents
}

// Len returns the number of agents currently present.
func (r *Roster) Len() int {
	return len(r.agents)
}

// Defer queues an agent for removal at the end of the current pass.
func (r *Roster) Defer(id AgentID) {
	r.pending = append(r.pending, id)
}

// Flush applies all deferred removals and returns the removed agents.
// Uses swap-remove; insertion order of survivors is preserved relative to
// each other except for the swapped tail, which is acceptable because the
// pass order is re-derived from the slice every tick.
func (r *Roster) Flush() []*Agent {
	if len(r.pending) == 0 {
		return nil
	}
	removed := make([]*Agent, 0, len(r.pending))
	for _, id := range r.pending {
		i, ok := r.index[id]
		if !ok {
			continue // already removed this batch
		}
		removed = append(removed, r.agents[i])
		last := len(r.agents) - 1
		r.agents[i] = r.agents[last]
		r.index[r.agents[i].ID] = i
		r.agents = r.agents[:last]
		delete(r.index, id)
	}
	r.pending = r.pending[:0]
	return removed
}
