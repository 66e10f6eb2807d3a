// Settler goal selection — social and exploration needs ranked by urgency,
// falling back to hunger, falling back to an idle wander.
package brain

import (
	"github.com/ferune/wildmere/internal/agent"
)

func (e *Engine) settlerGoal(a *agent.Agent, now uint64) *agent.Goal {
	type candidate struct {
		urgency float64
		build   func() *agent.Goal
	}
	var cands []candidate

	if a.Drives.Has(agent.DriveSocial) {
		urg := e.Params.Urgency(a, agent.DriveSocial)
		if urg > 0.4 {
			cands = append(cands, candidate{urg, func() *agent.Goal {
				return e.socialGoal(a, now)
			}})
		}
	}
	if a.Drives.Has(agent.DriveExplore) {
		urg := e.Params.Urgency(a, agent.DriveExplore)
		if urg > 0.5 {
			cands = append(cands, candidate{urg, func() *agent.Goal {
				return e.exploreGoal(a, agent.GoalExplore, now)
			}})
		}
	}

	// Highest urgency wins; builders may come back empty-handed (no partner
	// in view, no passable explore target), in which case the next candidate
	// gets its chance.
	for len(cands) > 0 {
		best := 0
		for i := range cands {
			if cands[i].urgency > cands[best].urgency {
				best = i
			}
		}
		if g := cands[best].build(); g != nil {
			return g
		}
		cands = append(cands[:best], cands[best+1:]...)
	}

	// Fall back to hunger even below the critical threshold.
	if e.Params.Urgency(a, agent.DriveHunger) > 0.5 {
		if g := e.seekFoodGoal(a, now); g != nil {
			return g
		}
	}

	// Idle-wander: a short aimless stroll rather than standing still.
	if g := e.exploreGoal(a, agent.GoalExplore, now); g != nil && e.RNG.Float64() < 0.3 {
		g.Urgency = 0.1
		return g
	}
	return nil
}

// socialGoal picks the most compatible perceived same-species partner.
func (e *Engine) socialGoal(a *agent.Agent, now uint64) *agent.Goal {
	pc := e.Cfg.Perception
	rec, ok := a.Percept.BestAgent(now, pc.StalenessTicks, func(r agent.Record) float64 {
		other, live := e.Roster.Get(r.Agent)
		if !live || !other.Alive || other.Species != a.Species {
			return 0
		}
		// Affinity shifts preference but never excludes a stranger:
		// affinity 0 still scores through relevance.
		return (r.Relevance + (a.AffinityWith(other.ID)+1)/4) / (1 + r.Distance/4)
	})
	if !ok {
		return nil
	}
	return &agent.Goal{
		Kind:        agent.GoalSeekSocial,
		TargetAgent: rec.Agent,
		Urgency:     e.Params.Urgency(a, agent.DriveSocial),
		Issued:      now,
		Deadline:    now + 6*e.Params.ForSpecies(a.Species).DecisionInterval,
	}
}
