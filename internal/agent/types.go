// Package agent provides the agent data model: species, capability flags,
// homeostatic drives, perception and event memory, and goal records.
package agent

import (
	"github.com/ferune/wildmere/internal/steer"
	"github.com/ferune/wildmere/internal/world"
)

// AgentID is a stable integer identifier. Goals and perception records hold
// ids, never pointers — the referent may be gone by the time they are read.
type AgentID uint64

// Species tags an agent with its population and behavior family.
// The set is closed: adding a species means adding a table row here,
// in the capability table, and in the species config.
type Species uint8

const (
	SpeciesSettler Species = iota
	SpeciesDeer
	SpeciesWolf
	SpeciesBoar
	SpeciesTrader
	SpeciesRaider
	SpeciesMissionary
	SpeciesScout

	NumSpecies
)

var speciesNames = [NumSpecies]string{
	"settler", "deer", "wolf", "boar",
	"trader", "raider", "missionary", "scout",
}

// Name returns the species config key.
func (s Species) Name() string {
	return speciesNames[s]
}

// SpeciesByName resolves a config key to a Species tag.
func SpeciesByName(name string) (Species, bool) {
	for i, n := range speciesNames {
		if n == name {
			return Species(i), true
		}
	}
	return 0, false
}

// Family groups species by evaluation rules in the decision engine.
type Family uint8

const (
	FamilySettler Family = iota
	FamilyAnimal
	FamilyFaction
)

// Family returns the behavior family of a species.
func (s Species) Family() Family {
	switch s {
	case SpeciesSettler:
		return FamilySettler
	case SpeciesDeer, SpeciesWolf, SpeciesBoar:
		return FamilyAnimal
	default:
		return FamilyFaction
	}
}

// Agent is the unit of simulation. The Roster owns every agent; other
// subsystems borrow one at a time during the evaluation pass and never hold
// a reference across ticks.
type Agent struct {
	ID      AgentID `json:"id"`
	Name    string  `json:"name"`
	Species Species `json:"species"`

	Pos      world.Pos `json:"pos"`
	Home     world.Pos `json:"home"` // spawn point; territorial species return here
	Momentum steer.Vec `json:"-"`    // recent movement direction, EMA-smoothed

	Health    float64 `json:"health"`
	MaxHealth float64 `json:"max_health"`
	AgeTicks  uint64  `json:"age_ticks"`

	Drives DriveVector `json:"drives"`

	Percept Snapshot      `json:"-"`
	Memory  []MemoryEvent `json:"-"`

	Goal *Goal `json:"goal,omitempty"`

	// Decision boundary bookkeeping. NextDecision staggers perception and
	// goal evaluation across agents; LastDecided guards late cognition
	// responses against superseded decisions.
	NextDecision uint64 `json:"-"`
	LastDecided  uint64 `json:"-"`

	// Sparse pairwise sentiment, -1.0 to 1.0. Sign drives the social force.
	Affinity map[AgentID]float64 `json:"-"`

	// Faction bookkeeping: members of one arrival group share a GroupID,
	// and Satisfaction accumulates toward the group's departure.
	GroupID      uint64  `json:"group_id,omitempty"`
	Satisfaction float64 `json:"satisfaction,omitempty"`

	// Stuck records a fully boxed-in tick; the next evaluation reacts to it.
	Stuck bool `json:"-"`

	BornTick uint64 `json:"born_tick"`
	Alive    bool   `json:"alive"`
	Departed bool   `json:"departed"`
}

// HealthRatio returns current health as a fraction of maximum.
func (a *Agent) HealthRatio() float64 {
	if a.MaxHealth <= 0 {
		return 0
	}
	return a.Health / a.MaxHealth
}

// AgeRatio returns lived age as a fraction of the species lifespan.
// Species with no lifespan (settlers, faction members) always return 0.
func (a *Agent) AgeRatio(maxAge uint64) float64 {
	if maxAge == 0 {
		return 0
	}
	return float64(a.AgeTicks) / float64(maxAge)
}

// AffinityWith returns the stored sentiment toward another agent, zero when
// the pair has never interacted.
func (a *Agent) AffinityWith(id AgentID) float64 {
	if a.Affinity == nil {
		return 0
	}
	return a.Affinity[id]
}

// AdjustAffinity shifts sentiment toward another agent, clamped to [-1, 1].
func (a *Agent) AdjustAffinity(id AgentID, delta float64) {
	if a.Affinity == nil {
		a.Affinity = make(map[AgentID]float64)
	}
	v := a.Affinity[id] + delta
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	a.Affinity[id] = v
}
