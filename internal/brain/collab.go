// Package brain is the goal/decision engine: per-interval goal selection
// across four tiers and per-tick goal execution. It decides what to do and
// where to stand; damage resolution and job mechanics belong to external
// collaborators behind the interfaces below.
package brain

import (
	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/world"
)

// CombatOutcome is the collaborator's resolution of one exchange.
type CombatOutcome struct {
	Hit    bool
	Damage float64
	Killed bool
}

// Combat resolves an exchange between two agents in range. The engine only
// decides to fight; it never computes damage itself.
type Combat interface {
	Resolve(attacker, defender *agent.Agent) CombatOutcome
}

// JobOutcome tags a job attempt result.
type JobOutcome uint8

const (
	JobSuccess JobOutcome = iota
	JobFailure
	JobInProgress
)

// Job is a black-box goal-completion predicate: foraging, fishing, hunting,
// crafting, construction. The engine routes an agent to a viable tile and
// calls Attempt until the job resolves.
type Job interface {
	CanPerformHere(a *agent.Agent, p world.Pos, g *world.Grid) bool
	Attempt(a *agent.Agent, g *world.Grid) JobOutcome
}
