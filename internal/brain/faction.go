// Outside-faction goal selection: a role-specific goal gated by
// satisfaction accumulation, with a flee/leave threshold tied to health.
// Groups arrive with business to do and depart when it is done or when
// staying stops being worth the bruises.
package brain

import (
	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/world"
)

const (
	// departSatisfaction is the accumulated satisfaction at which a faction
	// member considers its visit complete.
	departSatisfaction = 3.0

	// fleeHealthRatio is the health fraction below which a faction member
	// abandons its role and leaves.
	fleeHealthRatio = 0.35
)

func (e *Engine) factionGoal(a *agent.Agent, now uint64) *agent.Goal {
	// Leave when the visit is done or the body is failing.
	if a.Satisfaction >= departSatisfaction || a.HealthRatio() < fleeHealthRatio {
		return e.departGoal(a, now)
	}

	// Role goal by capability.
	switch {
	case agent.Has(a, agent.CanTrade):
		if g := e.settlerTargetGoal(a, agent.GoalTrade, now); g != nil {
			return g
		}
	case agent.Has(a, agent.CanPreach):
		if g := e.settlerTargetGoal(a, agent.GoalPreach, now); g != nil {
			return g
		}
	case agent.Has(a, agent.CanScoutLand):
		if g := e.exploreGoal(a, agent.GoalScoutLand, now); g != nil {
			return g
		}
	case agent.Has(a, agent.CanFight):
		if g := e.raidGoal(a, now); g != nil {
			return g
		}
	}

	// No one to do business with: drift toward the settled interior and try
	// again next boundary.
	if g := e.exploreGoal(a, agent.GoalExplore, now); g != nil {
		return g
	}
	return nil
}

// settlerTargetGoal aims a role goal at the nearest perceived settler.
func (e *Engine) settlerTargetGoal(a *agent.Agent, kind agent.GoalKind, now uint64) *agent.Goal {
	pc := e.Cfg.Perception
	rec, ok := a.Percept.BestAgent(now, pc.StalenessTicks, func(r agent.Record) float64 {
		other, live := e.Roster.Get(r.Agent)
		if !live || !other.Alive || other.Species != agent.SpeciesSettler {
			return 0
		}
		return 1 / (1 + r.Distance)
	})
	if !ok {
		return nil
	}
	return &agent.Goal{
		Kind:        kind,
		TargetAgent: rec.Agent,
		Urgency:     0.6,
		Issued:      now,
		Deadline:    now + 6*e.Params.ForSpecies(a.Species).DecisionInterval,
	}
}

// raidGoal aims at the most vulnerable perceived settler.
func (e *Engine) raidGoal(a *agent.Agent, now uint64) *agent.Goal {
	pc := e.Cfg.Perception
	rec, ok := a.Percept.BestAgent(now, pc.StalenessTicks, func(r agent.Record) float64 {
		other, live := e.Roster.Get(r.Agent)
		if !live || !other.Alive || other.Species != agent.SpeciesSettler {
			return 0
		}
		return (1.5 - other.HealthRatio()) / (1 + r.Distance)
	})
	if !ok {
		return nil
	}
	return &agent.Goal{
		Kind:        agent.GoalRaid,
		TargetAgent: rec.Agent,
		Urgency:     0.8,
		Issued:      now,
		Deadline:    now + 6*e.Params.ForSpecies(a.Species).DecisionInterval,
	}
}

// departGoal heads for the nearest map edge. Completion at the edge removes
// the agent and emits a departure record.
func (e *Engine) departGoal(a *agent.Agent, now uint64) *agent.Goal {
	edge := nearestEdge(e.Grid, a.Pos)
	if near, ok := e.Grid.NearestPassable(edge, 6); ok {
		edge = near
	}
	return &agent.Goal{
		Kind:      agent.GoalDepart,
		TargetPos: &edge,
		Urgency:   0.9,
		Issued:    now,
		Deadline:  now + 20*e.Params.ForSpecies(a.Species).DecisionInterval,
	}
}

func nearestEdge(g *world.Grid, p world.Pos) world.Pos {
	candidates := [4]world.Pos{
		{X: p.X, Y: 0},
		{X: p.X, Y: g.Height - 1},
		{X: 0, Y: p.Y},
		{X: g.Width - 1, Y: p.Y},
	}
	best := candidates[0]
	bestDist := world.ChebyshevDist(p, best)
	for _, c := range candidates[1:] {
		if d := world.ChebyshevDist(p, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
