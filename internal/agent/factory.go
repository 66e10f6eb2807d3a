// Agent factories — settler arrivals, animal spawns and births, and outside
// faction groups. All randomness flows from one seeded source so runs are
// reproducible.
package agent

import (
	"fmt"
	"math/rand"

	"github.com/ferune/wildmere/internal/world"
)

// Factory creates agents with species-appropriate starting state.
type Factory struct {
	rng     *rand.Rand
	params  *Params
	roster  *Roster
	nextGrp uint64
}

// NewFactory creates a factory drawing ids from the roster and randomness
// from the given seed.
func NewFactory(seed int64, params *Params, roster *Roster) *Factory {
	return &Factory{
		rng:     rand.New(rand.NewSource(seed + 300)),
		params:  params,
		roster:  roster,
		nextGrp: 1,
	}
}

// settler name pools — small on purpose; collisions are fine, ids are the
// identity.
var settlerGiven = []string{
	"Aldous", "Berta", "Cass", "Doran", "Edda", "Fenn", "Greta", "Hale",
	"Ilsa", "Joris", "Kerra", "Lunn", "Mara", "Nils", "Orla", "Pell",
	"Quin", "Rask", "Senna", "Tove", "Ulf", "Vanna", "Wim", "Ysolde",
}

var settlerFamily = []string{
	"Ashdown", "Briarholt", "Coldwater", "Dunmore", "Eastmarch", "Fernby",
	"Greyfield", "Harrow", "Ironwood", "Kestrel", "Larkspur", "Mossvale",
}

func (f *Factory) settlerName() string {
	return settlerGiven[f.rng.Intn(len(settlerGiven))] + " " +
		settlerFamily[f.rng.Intn(len(settlerFamily))]
}

// newAgent builds the species-independent shell.
func (f *Factory) newAgent(species Species, pos world.Pos, tick uint64) *Agent {
	sp := f.params.ForSpecies(species)
	a := &Agent{
		ID:        f.roster.NextID(),
		Species:   species,
		Pos:       pos,
		Home:      pos,
		Health:    sp.MaxHealth,
		MaxHealth: sp.MaxHealth,
		BornTick:  tick,
		Alive:     true,
	}
	f.params.InitDrives(a)

	// Staggered first decision: a random offset within the interval keeps
	// perception refreshes from synchronizing across the population.
	a.NextDecision = tick + uint64(f.rng.Int63n(int64(sp.DecisionInterval))) + 1
	return a
}

// SpawnSettler creates a settler arriving at pos.
func (f *Factory) SpawnSettler(pos world.Pos, tick uint64) *Agent {
	a := f.newAgent(SpeciesSettler, pos, tick)
	a.Name = f.settlerName()

	// Arrivals come with some drives already pressing — nobody steps off a
	// long road fully rested.
	f.params.Stimulate(a, DriveHunger, f.rng.Float64()*15)
	f.params.Stimulate(a, DriveExplore, f.rng.Float64()*20)

	f.roster.Add(a)
	return a
}

// SpawnAnimal creates a wild animal of the given species at pos.
// Used both for initial population and for births from seek-mate goals.
func (f *Factory) SpawnAnimal(species Species, pos world.Pos, tick uint64) *Agent {
	if species.Family() != FamilyAnimal {
		panic(fmt.Sprintf("SpawnAnimal called with non-animal species %s", species.Name()))
	}
	a := f.newAgent(species, pos, tick)
	a.Name = fmt.Sprintf("%s-%d", species.Name(), a.ID)

	// Spread starting ages so the herd doesn't die of old age in one tick.
	sp := f.params.ForSpecies(species)
	if sp.MaxAgeTicks > 0 {
		a.AgeTicks = uint64(f.rng.Int63n(int64(sp.MaxAgeTicks / 2)))
	}

	f.roster.Add(a)
	return a
}

// SpawnFactionGroup creates a group of size members of one faction species
// arriving together at an edge tile. Members share a GroupID; the group
// departs when satisfaction accumulates or its flee threshold trips.
func (f *Factory) SpawnFactionGroup(species Species, size int, entry world.Pos, tick uint64) []*Agent {
	if species.Family() != FamilyFaction {
		panic(fmt.Sprintf("SpawnFactionGroup called with non-faction species %s", species.Name()))
	}
	grp := f.nextGrp
	f.nextGrp++

	members := make([]*Agent, 0, size)
	for i := 0; i < size; i++ {
		a := f.newAgent(species, entry, tick)
		a.Name = fmt.Sprintf("%s-%d-%d", species.Name(), grp, i+1)
		a.GroupID = grp
		f.roster.Add(a)
		members = append(members, a)
	}
	return members
}
