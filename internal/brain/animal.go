// Animal goal selection — pure drive-and-proximity rules. No cognition
// provider involvement, ever.
package brain

import (
	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/world"
)

func (e *Engine) animalGoal(a *agent.Agent, now uint64) *agent.Goal {
	pc := e.Cfg.Perception
	sp := e.Params.ForSpecies(a.Species)

	// Graze or hunt when hunger presses. Overrides already handled the
	// critical band; this is the ordinary "getting peckish" band.
	if e.Params.Urgency(a, agent.DriveHunger) > 0.4 {
		if g := e.seekFoodGoal(a, now); g != nil {
			return g
		}
	}

	// Mate when the drive has built up and a partner is in view.
	if a.Drives.Has(agent.DriveMate) && e.Params.Urgency(a, agent.DriveMate) > 0.85 {
		rec, ok := a.Percept.BestAgent(now, pc.StalenessTicks, func(r agent.Record) float64 {
			other, live := e.Roster.Get(r.Agent)
			if !live || !other.Alive || other.Species != a.Species || other.ID == a.ID {
				return 0
			}
			if !other.Drives.Has(agent.DriveMate) {
				return 0
			}
			return 1 / (1 + r.Distance)
		})
		if ok {
			return &agent.Goal{
				Kind:        agent.GoalSeekMate,
				TargetAgent: rec.Agent,
				Urgency:     e.Params.Urgency(a, agent.DriveMate),
				Issued:      now,
				Deadline:    now + 6*sp.DecisionInterval,
			}
		}
	}

	// Territorial animals drift back to their range when far from home or
	// when the territory drive has built up.
	if agent.Has(a, agent.Territorial) && a.Drives.Has(agent.DriveTerritory) {
		dist := world.ChebyshevDist(a.Pos, a.Home)
		if dist > sp.PerceptionRadius || e.Params.Urgency(a, agent.DriveTerritory) > 0.8 {
			home := a.Home
			return &agent.Goal{
				Kind:      agent.GoalDefendTerritory,
				TargetPos: &home,
				Urgency:   e.Params.Urgency(a, agent.DriveTerritory),
				Issued:    now,
				Deadline:  now + 8*sp.DecisionInterval,
			}
		}
	}

	// Otherwise wander the neighborhood.
	return e.exploreGoal(a, agent.GoalExplore, now)
}
