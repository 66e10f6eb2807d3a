package engine

import (
	"math/rand"
	"sync"

	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/brain"
	"github.com/ferune/wildmere/internal/world"
)

// attackPower is the base strike strength per species. Species that never
// fight carry a nominal floor so a cornered animal still scratches back.
var attackPower = [agent.NumSpecies]float64{
	agent.SpeciesSettler:    12,
	agent.SpeciesDeer:       3,
	agent.SpeciesWolf:       18,
	agent.SpeciesBoar:       14,
	agent.SpeciesTrader:     8,
	agent.SpeciesRaider:     16,
	agent.SpeciesMissionary: 5,
	agent.SpeciesScout:      10,
}

// meleeCombat resolves exchanges with a hit roll and variable damage.
// Wounded attackers hit softer; a defender below the damage dies outright.
type meleeCombat struct {
	rng *rand.Rand
}

func NewCombat(rng *rand.Rand) brain.Combat {
	return &meleeCombat{rng: rng}
}

func (c *meleeCombat) Resolve(attacker, defender *agent.Agent) brain.CombatOutcome {
	hitChance := 0.55 + 0.25*attacker.HealthRatio()
	if c.rng.Float64() > hitChance {
		return brain.CombatOutcome{}
	}
	base := attackPower[attacker.Species]
	dmg := base * (0.6 + 0.8*c.rng.Float64()) * (0.5 + 0.5*attacker.HealthRatio())
	return brain.CombatOutcome{
		Hit:    true,
		Damage: dmg,
		Killed: defender.Health-dmg <= 0,
	}
}

// forageJob is the settler food-gathering job: work a vegetated tile for a
// few attempts, then consume part of its growth. Fishing works the same way
// from a shoreline tile.
type forageJob struct {
	rng *rand.Rand

	mu       sync.Mutex
	progress map[agent.AgentID]int
}

const forageWorkTicks = 3

func NewForageJob(rng *rand.Rand) brain.Job {
	return &forageJob{rng: rng, progress: make(map[agent.AgentID]int)}
}

func (j *forageJob) CanPerformHere(a *agent.Agent, p world.Pos, g *world.Grid) bool {
	if !g.InBounds(p) {
		return false
	}
	if g.At(p).Vegetation >= 0.25 {
		return true
	}
	// Shoreline fishing: a passable tile adjacent to water.
	for _, d := range world.NeighborDirections {
		n := world.Pos{X: p.X + d.X, Y: p.Y + d.Y}
		if g.InBounds(n) && g.At(n).Terrain == world.TerrainWater {
			return true
		}
	}
	return false
}

func (j *forageJob) Attempt(a *agent.Agent, g *world.Grid) brain.JobOutcome {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.progress[a.ID]++
	if j.progress[a.ID] < forageWorkTicks {
		return brain.JobInProgress
	}
	delete(j.progress, a.ID)

	if g.InBounds(a.Pos) {
		if t := g.At(a.Pos); t.Vegetation >= 0.25 {
			t.Vegetation -= 0.3
			if t.Vegetation < 0 {
				t.Vegetation = 0
			}
			return brain.JobSuccess
		}
	}
	// Fishing succeeds most of the time but can come up empty.
	if j.rng.Float64() < 0.7 {
		return brain.JobSuccess
	}
	return brain.JobFailure
}
