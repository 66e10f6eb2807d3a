// Per-tick goal execution: one movement step plus the completion check.
// Transient failures — target gone, dead-end tile, path budget exhausted —
// clear the goal and let the next decision boundary re-route; none of them
// surface as errors.
package brain

import (
	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/scent"
	"github.com/ferune/wildmere/internal/steer"
	"github.com/ferune/wildmere/internal/world"
)

// stallLimit is how many non-improving ticks toward a target trigger the
// bounded path search.
const stallLimit = 10

// Execute advances an agent one tick along its current goal.
func (e *Engine) Execute(a *agent.Agent, now uint64) {
	if !a.Alive || a.Goal == nil {
		return
	}
	g := a.Goal

	// Resolve the target. A dead or removed target agent invalidates the
	// goal on the spot; the stale id is never used again.
	var targetPos *world.Pos
	var targetAgent *agent.Agent
	if g.TargetAgent != 0 {
		t, ok := e.Roster.Get(g.TargetAgent)
		if !ok || !t.Alive {
			a.Goal = nil
			return
		}
		targetAgent = t
		pos := t.Pos
		targetPos = &pos
	} else if g.TargetPos != nil {
		targetPos = g.TargetPos
	}

	if e.arrived(a, g, targetPos) {
		e.complete(a, g, targetAgent, now)
		return
	}

	e.moveToward(a, g, targetPos, now)

	// Some goals complete on state rather than position.
	if a.Goal != nil && g.Kind == agent.GoalFleeThreat {
		e.checkFleeComplete(a, g, targetAgent, now)
	}
	if a.Goal != nil && g.Kind == agent.GoalDepart && e.Grid.OnEdge(a.Pos) {
		e.complete(a, g, targetAgent, now)
	}
}

// moveToward composes the movement vector and applies one tile step.
func (e *Engine) moveToward(a *agent.Agent, g *agent.Goal, targetPos *world.Pos, now uint64) {
	in := steer.Inputs{Momentum: a.Momentum}

	if targetPos != nil {
		if g.Kind == agent.GoalFleeThreat {
			// Away from the threat, not toward it.
			in.Target = steer.TowardTile(*targetPos, a.Pos)
		} else {
			in.Target = steer.TowardTile(a.Pos, *targetPos)

			// Stall detection: when direct attraction stops making progress,
			// fall back to the bounded path search.
			d := world.ChebyshevDist(a.Pos, *targetPos)
			if g.BestDist == 0 || d < g.BestDist {
				g.BestDist = d
				g.Stall = 0
			} else {
				g.Stall++
			}
			if g.Stall >= stallLimit {
				path, found := steer.FindPath(e.Grid, a.Pos, *targetPos, e.Cfg.Movement.PathBudget)
				if !found {
					// Unreachable within budget: invalid, re-evaluated at the
					// next boundary rather than stalling forever.
					a.Goal = nil
					return
				}
				g.Stall = 0
				if len(path) > 0 {
					in.Target = steer.TowardTile(a.Pos, path[0])
				}
			}
		}
	}

	in.Gradient = e.scentPull(a, g)
	in.Social = e.socialForce(a, g, now)

	desire := steer.Compose(in, e.Cfg.Movement, e.RNG)
	res := steer.ChooseStep(e.Grid, a.Pos, desire, e.Cfg.Movement, e.RNG)

	a.Stuck = res.Stuck
	if res.Moved {
		a.Pos = world.Pos{X: a.Pos.X + res.Step.X, Y: a.Pos.Y + res.Step.Y}
		a.Momentum = steer.UpdateMomentum(a.Momentum, res.Step, e.Cfg.Movement.MomentumBlend)
	}
}

// scentPull blends the food gradient (for the hungry) with danger repulsion
// (for everyone).
func (e *Engine) scentPull(a *agent.Agent, g *agent.Goal) steer.Vec {
	var v steer.Vec

	if g.Kind == agent.GoalSeekFood || e.Params.Urgency(a, agent.DriveHunger) > 0.5 {
		fx, fy := e.Scent.Gradient(scent.ChannelFood, a.Pos.X, a.Pos.Y)
		v = v.Add(steer.Vec{X: fx, Y: fy})
	}

	dx, dy := e.Scent.Gradient(scent.ChannelDanger, a.Pos.X, a.Pos.Y)
	if dx != 0 || dy != 0 {
		fearScale := 0.5 + e.Params.Urgency(a, agent.DriveFear)
		v = v.Add(steer.Vec{X: -dx * fearScale, Y: -dy * fearScale})
	}
	return v
}

// socialForce sums attraction and repulsion toward perceived agents. The
// goal supplies the seek/avoid stance; threats always repel.
func (e *Engine) socialForce(a *agent.Agent, g *agent.Goal, now uint64) steer.Vec {
	pc := e.Cfg.Perception
	seek := g.Kind == agent.GoalSeekSocial || g.Kind == agent.GoalSeekMate

	var v steer.Vec
	for _, r := range a.Percept.Records {
		if r.Kind != agent.RecordAgent || now-r.Tick > pc.StalenessTicks {
			continue
		}
		other, ok := e.Roster.Get(r.Agent)
		if !ok || !other.Alive || other.Pos == a.Pos {
			continue
		}
		dir := steer.TowardTile(a.Pos, other.Pos)
		falloff := 1 / (1 + r.Distance)

		switch {
		case r.Threat > 0.3:
			v = v.Add(dir.Scale(-r.Threat * falloff))
		case seek && other.Species == a.Species:
			weight := 0.3 + a.AffinityWith(other.ID)*0.5
			v = v.Add(dir.Scale(weight * falloff))
		case a.AffinityWith(other.ID) < -0.3:
			// Old grudges keep a little distance even off-goal.
			v = v.Add(dir.Scale(-0.2 * falloff))
		}
	}
	return v
}

// arrived reports whether the agent is close enough to run the goal's
// completion predicate.
func (e *Engine) arrived(a *agent.Agent, g *agent.Goal, targetPos *world.Pos) bool {
	switch g.Kind {
	case agent.GoalIdle, agent.GoalFleeThreat:
		return false
	case agent.GoalDepart:
		return e.Grid.OnEdge(a.Pos)
	}
	if targetPos == nil {
		return false
	}
	d := world.ChebyshevDist(a.Pos, *targetPos)
	switch g.Kind {
	case agent.GoalSeekSocial, agent.GoalTrade, agent.GoalPreach, agent.GoalNegotiate, agent.GoalDefendTerritory:
		return d <= 2
	case agent.GoalSeekFood:
		if g.TargetAgent != 0 {
			return d <= 1 // prey: strike range
		}
		return d == 0 // forage tile: stand on it
	default:
		return d <= 1
	}
}

// complete runs the goal's completion side effect and clears it so the next
// decision boundary picks fresh work.
func (e *Engine) complete(a *agent.Agent, g *agent.Goal, target *agent.Agent, now uint64) {
	pc := e.Cfg.Perception

	switch g.Kind {
	case agent.GoalSeekFood:
		if target != nil {
			e.resolveHunt(a, target, now)
			return // resolveHunt decides whether the goal survives
		}
		e.resolveGraze(a, now)

	case agent.GoalFight, agent.GoalRaid:
		if target != nil {
			e.resolveFight(a, target, g, now)
			return
		}

	case agent.GoalSeekSocial:
		if target != nil {
			e.Params.Satisfy(a, agent.DriveSocial, 0)
			e.Params.Satisfy(target, agent.DriveSocial, 0)
			a.AdjustAffinity(target.ID, 0.05)
			target.AdjustAffinity(a.ID, 0.05)
			agent.Remember(a, agent.MemoryEvent{
				Tick: now, Kind: agent.MemorySocial, Subject: target.ID,
				Pos: a.Pos, Importance: 0.4,
			}, pc.MemoryLimit)
		}

	case agent.GoalSeekMate:
		if target != nil {
			e.Params.Satisfy(a, agent.DriveMate, 0)
			e.Params.Satisfy(target, agent.DriveMate, 0)
			e.spawnOffspring(a, now)
		}

	case agent.GoalExplore, agent.GoalScoutLand:
		e.Params.Satisfy(a, agent.DriveExplore, 0)
		if g.Kind == agent.GoalScoutLand {
			a.Satisfaction += 0.75
		}

	case agent.GoalDefendTerritory:
		e.Params.Satisfy(a, agent.DriveTerritory, 0)

	case agent.GoalTrade:
		if target != nil {
			a.Satisfaction += 1
			a.AdjustAffinity(target.ID, 0.1)
			target.AdjustAffinity(a.ID, 0.1)
		}

	case agent.GoalPreach, agent.GoalNegotiate:
		if target != nil {
			a.Satisfaction += 0.6
			target.AdjustAffinity(a.ID, 0.05)
		}

	case agent.GoalDepart:
		a.Departed = true
	}

	a.Goal = nil
}

// resolveGraze eats from the tile the agent stands on.
func (e *Engine) resolveGraze(a *agent.Agent, now uint64) {
	t := e.Grid.At(a.Pos)
	if a.Species == agent.SpeciesSettler && e.Forage != nil &&
		e.Forage.CanPerformHere(a, a.Pos, e.Grid) {
		switch e.Forage.Attempt(a, e.Grid) {
		case JobInProgress:
			return // keep the goal, keep working
		case JobSuccess:
			e.Params.Satisfy(a, agent.DriveHunger, 0)
			agent.Remember(a, agent.MemoryEvent{
				Tick: now, Kind: agent.MemoryMeal, Pos: a.Pos, Importance: 0.3,
			}, e.Cfg.Perception.MemoryLimit)
		}
		a.Goal = nil
		return
	}

	bite := t.Vegetation
	if bite > 0.4 {
		bite = 0.4
	}
	if bite > 0 {
		t.Vegetation -= bite
		e.Params.Satisfy(a, agent.DriveHunger, bite*120)
		agent.Remember(a, agent.MemoryEvent{
			Tick: now, Kind: agent.MemoryMeal, Pos: a.Pos, Importance: 0.3,
		}, e.Cfg.Perception.MemoryLimit)
	}
	a.Goal = nil
}

// resolveHunt delegates the strike to the combat collaborator. A kill feeds
// the hunter; a miss keeps the goal alive while the prey (probably) bolts.
func (e *Engine) resolveHunt(a, prey *agent.Agent, now uint64) {
	if e.Combat == nil {
		a.Goal = nil
		return
	}
	out := e.Combat.Resolve(a, prey)
	if out.Hit {
		prey.Health -= out.Damage
		e.Params.Stimulate(prey, agent.DriveFear, 40)
	}
	if out.Killed || prey.Health <= 0 {
		prey.Health = 0
		prey.Alive = false
		e.Params.Satisfy(a, agent.DriveHunger, 0)
		agent.Remember(a, agent.MemoryEvent{
			Tick: now, Kind: agent.MemoryMeal, Subject: prey.ID,
			Pos: a.Pos, Importance: 0.7,
		}, e.Cfg.Perception.MemoryLimit)
		a.Goal = nil
	}
}

// resolveFight is one exchange of an open fight or raid.
func (e *Engine) resolveFight(a, foe *agent.Agent, g *agent.Goal, now uint64) {
	if e.Combat == nil {
		a.Goal = nil
		return
	}
	out := e.Combat.Resolve(a, foe)
	if out.Hit {
		foe.Health -= out.Damage
		e.Params.Stimulate(foe, agent.DriveFear, 30)
	}
	if out.Killed || foe.Health <= 0 {
		foe.Health = 0
		foe.Alive = false
		e.Params.Satisfy(a, agent.DriveFear, 0)
		if g.Kind == agent.GoalRaid {
			a.Satisfaction += 1
		}
		agent.Remember(a, agent.MemoryEvent{
			Tick: now, Kind: agent.MemoryThreat, Subject: foe.ID,
			Pos: a.Pos, Importance: 0.8,
		}, e.Cfg.Perception.MemoryLimit)
		a.Goal = nil
	}
}

// checkFleeComplete ends a flight once the threat is dead, gone from view,
// or safely distant.
func (e *Engine) checkFleeComplete(a *agent.Agent, g *agent.Goal, threat *agent.Agent, now uint64) {
	safe := false
	switch {
	case threat == nil:
		safe = true
	case !threat.Alive:
		safe = true
	case world.ChebyshevDist(a.Pos, threat.Pos) > e.Params.ForSpecies(a.Species).PerceptionRadius:
		safe = true
	}
	if safe {
		e.Params.Satisfy(a, agent.DriveFear, 0)
		agent.Remember(a, agent.MemoryEvent{
			Tick: now, Kind: agent.MemoryThreat, Pos: a.Pos, Importance: 0.6,
		}, e.Cfg.Perception.MemoryLimit)
		a.Goal = nil
	}
}

// spawnOffspring places a newborn on a passable tile next to the parent.
func (e *Engine) spawnOffspring(a *agent.Agent, now uint64) {
	if e.Factory == nil {
		return
	}
	for _, n := range a.Pos.Neighbors() {
		if e.Grid.Passable(n) {
			child := e.Factory.SpawnAnimal(a.Species, n, now)
			child.AgeTicks = 0
			return
		}
	}
}
