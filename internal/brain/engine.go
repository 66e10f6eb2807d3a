package brain

import (
	"log/slog"
	"math/rand"

	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/cognition"
	"github.com/ferune/wildmere/internal/config"
	"github.com/ferune/wildmere/internal/scent"
	"github.com/ferune/wildmere/internal/steer"
	"github.com/ferune/wildmere/internal/world"
)

// Engine evaluates and executes goals. It borrows agents one at a time from
// the roster during a pass and holds nothing across ticks.
type Engine struct {
	Params *agent.Params
	Cfg    *config.Config
	Grid   *world.Grid
	Roster *agent.Roster
	Scent  *scent.Field
	Broker *cognition.Broker

	Combat Combat
	Forage Job // settler food-gathering collaborator; nil = graze rules only

	Factory *agent.Factory // offspring from completed seek-mate goals

	RNG *rand.Rand

	// OnGoalChange fires whenever an agent's goal is replaced; the engine
	// tick loop turns these into lifecycle records.
	OnGoalChange func(a *agent.Agent, g *agent.Goal)
}

// Evaluate runs the four decision tiers for an agent at its decision
// boundary. Always leaves the agent with a goal (possibly idle).
func (e *Engine) Evaluate(a *agent.Agent, now uint64) {
	sp := e.Params.ForSpecies(a.Species)
	// An intent issued at the previous boundary must still be takeable at
	// this one, so the supersession guard uses the pre-bump decision tick.
	prevDecided := a.LastDecided
	a.LastDecided = now
	a.NextDecision = now + sp.DecisionInterval

	// Tier 1 — overrides: critical drives and high-confidence threats force
	// a goal regardless of anything in flight.
	if g := e.overrideGoal(a, now); g != nil {
		e.adopt(a, g)
		return
	}

	// Tier 2 — continuation: a valid current goal survives to avoid
	// goal-thrashing every interval. An advisory intent that arrived since
	// the last boundary still gets its chance here; otherwise it would
	// expire before any boundary where tier 3 runs.
	if a.Goal != nil && e.goalValid(a, a.Goal, now) {
		if advised := e.advisedGoal(a, now, prevDecided); advised != nil {
			e.adopt(a, advised)
		}
		e.maybeConsult(a, now)
		return
	}

	// Tier 3 — species-family selection, always deterministic.
	var g *agent.Goal
	switch a.Species.Family() {
	case agent.FamilySettler:
		g = e.settlerGoal(a, now)
	case agent.FamilyAnimal:
		g = e.animalGoal(a, now)
	default:
		g = e.factionGoal(a, now)
	}
	if g == nil {
		g = e.idleGoal(a, now)
	}

	// Tier 4 — advisory cognition, settlers only, capability-gated. An
	// arrived intent that survives validation replaces the tier 3 choice;
	// anything else leaves the deterministic output untouched.
	if advised := e.advisedGoal(a, now, prevDecided); advised != nil {
		g = advised
	}
	e.maybeConsult(a, now)

	e.adopt(a, g)
}

func (e *Engine) adopt(a *agent.Agent, g *agent.Goal) {
	same := a.Goal != nil && a.Goal.Kind == g.Kind &&
		a.Goal.TargetAgent == g.TargetAgent
	a.Goal = g
	if !same && e.OnGoalChange != nil {
		e.OnGoalChange(a, g)
	}
}

// overrideGoal implements the override tier: critical fear flees, a
// high-confidence perceived threat fights or flees, critical hunger seeks
// food over everything else.
func (e *Engine) overrideGoal(a *agent.Agent, now uint64) *agent.Goal {
	pc := e.Cfg.Perception

	threatens := a.Percept.ThreatVal >= pc.ThreatHigh
	if e.Params.IsCritical(a, agent.DriveFear) || threatens {
		if threat, ok := e.Roster.Get(a.Percept.Threat); ok && threat.Alive {
			// Fight when able and in decent shape, otherwise run.
			if agent.Has(a, agent.CanFight) && a.HealthRatio() > 0.5 &&
				threat.HealthRatio() <= a.HealthRatio() {
				return e.fightGoal(a, threat.ID, now)
			}
			return e.fleeGoal(a, threat.ID, now)
		}
		if e.Params.IsCritical(a, agent.DriveFear) {
			// Afraid with nothing in sight: put distance on the last
			// remembered danger by moving toward home ground.
			return &agent.Goal{
				Kind:      agent.GoalFleeThreat,
				TargetPos: &a.Home,
				Urgency:   e.Params.Urgency(a, agent.DriveFear),
				Issued:    now,
				Deadline:  now + 3*e.Params.ForSpecies(a.Species).DecisionInterval,
			}
		}
	}

	if e.Params.IsCritical(a, agent.DriveHunger) {
		if g := e.seekFoodGoal(a, now); g != nil {
			return g
		}
	}
	return nil
}

// goalValid implements the continuation predicate: target alive, not timed
// out, and not wedged. A goal that failed pathing (stuck agent) is invalid
// so the next tier can re-route.
func (e *Engine) goalValid(a *agent.Agent, g *agent.Goal, now uint64) bool {
	if g.TimedOut(now) {
		return false
	}
	if g.TargetAgent != 0 {
		t, ok := e.Roster.Get(g.TargetAgent)
		if !ok || !t.Alive {
			return false
		}
	}
	if g.TargetPos != nil && !e.Grid.InBounds(*g.TargetPos) {
		return false
	}
	if a.Stuck && g.HasTarget() {
		return false
	}
	return true
}

// maybeConsult issues an advisory request for speaking agents — at most one
// in flight per agent, issued only at a decision boundary.
func (e *Engine) maybeConsult(a *agent.Agent, now uint64) {
	if !e.Broker.Enabled() || !agent.Has(a, agent.CanSpeak) {
		return
	}
	if a.Species != agent.SpeciesSettler {
		return
	}
	e.Broker.Consult(cognition.BuildRequest(a, e.Params, now), now)
}

// advisedGoal maps an arrived cognition intent onto the goal vocabulary and
// validates it against world constraints. Returns nil — deterministic
// fallback — for anything unreachable, nonexistent, or nonsensical.
func (e *Engine) advisedGoal(a *agent.Agent, now, prevDecided uint64) *agent.Goal {
	if !e.Broker.Enabled() || !agent.Has(a, agent.CanSpeak) {
		return nil
	}
	intent, ok := e.Broker.Take(a.ID, prevDecided)
	if !ok {
		return nil
	}

	kind, ok := agent.GoalKindByName(intent.Action)
	if !ok {
		slog.Debug("advised action unknown", "agent", a.ID, "action", intent.Action)
		return nil
	}
	if !goalAllowed(a, kind) {
		slog.Debug("advised action not permitted", "agent", a.ID, "action", intent.Action)
		return nil
	}

	g := &agent.Goal{
		Kind:     kind,
		Urgency:  0.5,
		Issued:   now,
		Deadline: now + 10*e.Params.ForSpecies(a.Species).DecisionInterval,
		Advised:  true,
	}

	if intent.TargetAgent != 0 {
		t, ok := e.Roster.Get(agent.AgentID(intent.TargetAgent))
		if !ok || !t.Alive {
			return nil
		}
		g.TargetAgent = t.ID
	}
	if intent.TargetX != nil && intent.TargetY != nil {
		pos := world.Pos{X: *intent.TargetX, Y: *intent.TargetY}
		if !e.Grid.Passable(pos) {
			return nil
		}
		if _, found := steer.FindPath(e.Grid, a.Pos, pos, e.Cfg.Movement.PathBudget); !found {
			return nil
		}
		g.TargetPos = &pos
	}

	// An advisory goal with neither target nor self-contained meaning is
	// noise.
	if !g.HasTarget() && kind != agent.GoalIdle && kind != agent.GoalExplore {
		return nil
	}
	slog.Debug("advised goal adopted", "agent", a.ID, "goal", kind.Name())
	return g
}

// goalAllowed gates the shared vocabulary by capability, not species name.
func goalAllowed(a *agent.Agent, kind agent.GoalKind) bool {
	switch kind {
	case agent.GoalFight, agent.GoalRaid, agent.GoalDefendTerritory:
		return agent.Has(a, agent.CanFight)
	case agent.GoalTrade:
		return agent.Has(a, agent.CanTrade)
	case agent.GoalPreach:
		return agent.Has(a, agent.CanPreach)
	case agent.GoalScoutLand:
		return agent.Has(a, agent.CanScoutLand)
	case agent.GoalNegotiate:
		return agent.Has(a, agent.CanNegotiate)
	case agent.GoalSeekMate:
		return agent.Has(a, agent.CanMate)
	case agent.GoalSeekFood:
		return agent.Has(a, agent.CanGraze) || agent.Has(a, agent.CanHunt) ||
			a.Species == agent.SpeciesSettler
	default:
		return true
	}
}

// Shared goal builders.

func (e *Engine) fleeGoal(a *agent.Agent, threat agent.AgentID, now uint64) *agent.Goal {
	return &agent.Goal{
		Kind:        agent.GoalFleeThreat,
		TargetAgent: threat,
		Urgency:     1,
		Issued:      now,
		Deadline:    now + 3*e.Params.ForSpecies(a.Species).DecisionInterval,
	}
}

func (e *Engine) fightGoal(a *agent.Agent, threat agent.AgentID, now uint64) *agent.Goal {
	return &agent.Goal{
		Kind:        agent.GoalFight,
		TargetAgent: threat,
		Urgency:     1,
		Issued:      now,
		Deadline:    now + 4*e.Params.ForSpecies(a.Species).DecisionInterval,
	}
}

func (e *Engine) idleGoal(a *agent.Agent, now uint64) *agent.Goal {
	return &agent.Goal{
		Kind:     agent.GoalIdle,
		Urgency:  0.05,
		Issued:   now,
		Deadline: now + 2*e.Params.ForSpecies(a.Species).DecisionInterval,
	}
}

// seekFoodGoal finds food for any mouth: grazers head to the best forage
// record, hunters to the best prey, settlers to a forage-job tile. Returns
// nil when perception offers nothing; a scent-following explore goal covers
// that case at the caller.
func (e *Engine) seekFoodGoal(a *agent.Agent, now uint64) *agent.Goal {
	pc := e.Cfg.Perception
	deadline := now + 6*e.Params.ForSpecies(a.Species).DecisionInterval
	urgency := e.Params.Urgency(a, agent.DriveHunger)

	if agent.Has(a, agent.CanGraze) {
		if rec, ok := a.Percept.BestLocation(agent.LocForage, now, pc.StalenessTicks); ok {
			pos := rec.Loc
			return &agent.Goal{
				Kind: agent.GoalSeekFood, TargetPos: &pos,
				Urgency: urgency, Issued: now, Deadline: deadline,
			}
		}
	}

	if agent.Has(a, agent.CanHunt) {
		rec, ok := a.Percept.BestAgent(now, pc.StalenessTicks, func(r agent.Record) float64 {
			prey, live := e.Roster.Get(r.Agent)
			if !live || !prey.Alive || !agent.Hostile(prey.Species, a.Species) {
				return 0
			}
			return r.Relevance / (1 + r.Distance)
		})
		if ok {
			return &agent.Goal{
				Kind: agent.GoalSeekFood, TargetAgent: rec.Agent,
				Urgency: urgency, Issued: now, Deadline: deadline,
			}
		}
	}

	if a.Species == agent.SpeciesSettler && e.Forage != nil {
		if pos, ok := e.nearestJobTile(a, e.Forage); ok {
			return &agent.Goal{
				Kind: agent.GoalSeekFood, TargetPos: &pos,
				Urgency: urgency, Issued: now, Deadline: deadline,
			}
		}
	}

	// Nothing in view: follow the food scent gradient as a wander.
	gx, gy := e.Scent.Gradient(scent.ChannelFood, a.Pos.X, a.Pos.Y)
	if gx != 0 || gy != 0 {
		pos := world.Pos{X: a.Pos.X + int(gx*4), Y: a.Pos.Y + int(gy*4)}
		if near, ok := e.Grid.NearestPassable(pos, 3); ok {
			return &agent.Goal{
				Kind: agent.GoalSeekFood, TargetPos: &near,
				Urgency: urgency, Issued: now, Deadline: deadline,
			}
		}
	}
	return nil
}

// nearestJobTile scans outward for the closest tile the job accepts.
func (e *Engine) nearestJobTile(a *agent.Agent, job Job) (world.Pos, bool) {
	radius := e.Params.ForSpecies(a.Species).PerceptionRadius
	var best world.Pos
	bestDist := -1
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			pos := world.Pos{X: a.Pos.X + dx, Y: a.Pos.Y + dy}
			if !e.Grid.Passable(pos) || !job.CanPerformHere(a, pos, e.Grid) {
				continue
			}
			d := world.ChebyshevDist(a.Pos, pos)
			if bestDist == -1 || d < bestDist {
				best, bestDist = pos, d
			}
		}
	}
	return best, bestDist != -1
}

// exploreGoal picks a random distant passable tile, biased away from
// momentum so repeated explorations fan out.
func (e *Engine) exploreGoal(a *agent.Agent, kind agent.GoalKind, now uint64) *agent.Goal {
	for try := 0; try < 8; try++ {
		r := e.Params.ForSpecies(a.Species).PerceptionRadius
		dx := e.RNG.Intn(2*r+1) - r
		dy := e.RNG.Intn(2*r+1) - r
		pos := world.Pos{X: a.Pos.X + dx, Y: a.Pos.Y + dy}
		if world.ChebyshevDist(a.Pos, pos) < r/2 {
			continue
		}
		if e.Grid.Passable(pos) {
			return &agent.Goal{
				Kind: kind, TargetPos: &pos,
				Urgency:  e.Params.Urgency(a, agent.DriveExplore),
				Issued:   now,
				Deadline: now + 8*e.Params.ForSpecies(a.Species).DecisionInterval,
			}
		}
	}
	return nil
}
