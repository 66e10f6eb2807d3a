package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/brain"
	"github.com/ferune/wildmere/internal/cognition"
	"github.com/ferune/wildmere/internal/config"
	"github.com/ferune/wildmere/internal/scent"
	"github.com/ferune/wildmere/internal/world"
)

const (
	vegetationRegrowRate = 0.015
	starvationDamage     = 0.25
	vegScentThreshold    = 0.5
)

// Stats is a point-in-time population summary.
type Stats struct {
	Tick       uint64  `json:"tick" csv:"tick"`
	Agents     int     `json:"agents" csv:"agents"`
	Settlers   int     `json:"settlers" csv:"settlers"`
	Animals    int     `json:"animals" csv:"animals"`
	Factions   int     `json:"factions" csv:"factions"`
	Births     uint64  `json:"births" csv:"births"`
	Deaths     uint64  `json:"deaths" csv:"deaths"`
	Departures uint64  `json:"departures" csv:"departures"`
	FoodScent  float64 `json:"food_scent" csv:"food_scent"`
	MeanHunger float64 `json:"mean_hunger" csv:"mean_hunger"`
}

// AgentView is the read-only projection served by the API.
type AgentView struct {
	ID      uint64             `json:"id"`
	Name    string             `json:"name,omitempty"`
	Species string             `json:"species"`
	X       int                `json:"x"`
	Y       int                `json:"y"`
	Health  float64            `json:"health"`
	Goal    string             `json:"goal"`
	Drives  map[string]float64 `json:"drives,omitempty"`
}

// Sim owns the world state and advances it one tick at a time. All mutation
// happens on the tick goroutine; readers go through the mutex-guarded
// snapshot methods.
type Sim struct {
	Cfg     *config.Config
	Params  *agent.Params
	Grid    *world.Grid
	Roster  *agent.Roster
	Factory *agent.Factory
	Scent   *scent.Field
	Broker  *cognition.Broker
	Brain   *brain.Engine
	Records *Recorder
	RNG     *rand.Rand

	// OnDayExtra runs after the built-in daily work; the main wires
	// telemetry and persistence flushes here.
	OnDayExtra func(tick uint64)

	mu         sync.RWMutex
	births     uint64
	deaths     uint64
	departures uint64
}

// NewSim builds the world, spawns the starting population, and wires the
// decision engine. The cognition provider may be nil.
func NewSim(cfg *config.Config, provider cognition.Provider) (*Sim, error) {
	params, err := agent.NewParams(cfg)
	if err != nil {
		return nil, err
	}

	grid := world.Generate(world.GenConfig{
		Width:    cfg.World.Width,
		Height:   cfg.World.Height,
		Seed:     cfg.World.Seed,
		WaterLvl: 0.22,
		RockLvl:  0.78,
	})
	if !grid.AnyPassable() {
		return nil, fmt.Errorf("generated world %dx%d has no passable tile", cfg.World.Width, cfg.World.Height)
	}

	roster := agent.NewRoster()
	factory := agent.NewFactory(cfg.World.Seed, params, roster)
	rng := rand.New(rand.NewSource(cfg.World.Seed + 7))

	s := &Sim{
		Cfg:     cfg,
		Params:  params,
		Grid:    grid,
		Roster:  roster,
		Factory: factory,
		Scent:   scent.NewField(grid, cfg.Scent),
		Broker:  cognition.NewBroker(provider, cfg.CognitionTimeout()),
		Records: NewRecorder(4096),
		RNG:     rng,
	}
	s.Brain = &brain.Engine{
		Params:  params,
		Cfg:     cfg,
		Grid:    grid,
		Roster:  roster,
		Scent:   s.Scent,
		Broker:  s.Broker,
		Combat:  NewCombat(rng),
		Forage:  NewForageJob(rng),
		Factory: factory,
		RNG:     rng,
		OnGoalChange: func(a *agent.Agent, g *agent.Goal) {
			s.Records.Append(Record{
				Tick: a.LastDecided, Kind: RecordGoalChange,
				AgentID: uint64(a.ID), Name: a.Name,
				Species: a.Species.Name(), Detail: g.Kind.Name(),
			})
		},
	}

	s.seedPopulation()
	return s, nil
}

// seedPopulation places the opening cast: settlers clustered near the map
// center, wildlife scattered across passable ground.
func (s *Sim) seedPopulation() {
	center, _ := s.Grid.NearestPassable(world.Pos{X: s.Grid.Width / 2, Y: s.Grid.Height / 2}, s.Grid.Width)

	for i := 0; i < s.Cfg.Population.Settlers; i++ {
		pos := s.scatterNear(center, 6)
		a := s.Factory.SpawnSettler(pos, 0)
		s.recordSpawn(a, 0)
	}
	spawnAnimals := func(sp agent.Species, n int) {
		for i := 0; i < n; i++ {
			pos, ok := s.randomPassable(64)
			if !ok {
				continue
			}
			a := s.Factory.SpawnAnimal(sp, pos, 0)
			s.recordSpawn(a, 0)
		}
	}
	spawnAnimals(agent.SpeciesDeer, s.Cfg.Population.Deer)
	spawnAnimals(agent.SpeciesWolf, s.Cfg.Population.Wolves)
	spawnAnimals(agent.SpeciesBoar, s.Cfg.Population.Boars)

	slog.Info("population seeded",
		"settlers", s.Cfg.Population.Settlers,
		"deer", s.Cfg.Population.Deer,
		"wolves", s.Cfg.Population.Wolves,
		"boars", s.Cfg.Population.Boars)
}

func (s *Sim) scatterNear(center world.Pos, radius int) world.Pos {
	for try := 0; try < 32; try++ {
		p := world.Pos{
			X: center.X + s.RNG.Intn(2*radius+1) - radius,
			Y: center.Y + s.RNG.Intn(2*radius+1) - radius,
		}
		if s.Grid.Passable(p) {
			return p
		}
	}
	return center
}

func (s *Sim) randomPassable(tries int) (world.Pos, bool) {
	for i := 0; i < tries; i++ {
		p := world.Pos{X: s.RNG.Intn(s.Grid.Width), Y: s.RNG.Intn(s.Grid.Height)}
		if s.Grid.Passable(p) {
			return p, true
		}
	}
	return world.Pos{}, false
}

func (s *Sim) recordSpawn(a *agent.Agent, tick uint64) {
	s.births++
	s.Records.Append(Record{
		Tick: tick, Kind: RecordSpawned,
		AgentID: uint64(a.ID), Name: a.Name, Species: a.Species.Name(),
	})
}

// Tick advances the simulation one step. Phase order is fixed: field decay,
// then drives, then perception and decisions, then movement and actions,
// then removals. Nothing observes a partially updated phase.
func (s *Sim) Tick(now uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Phase 1: scent decay then fresh emissions.
	s.Scent.Step()
	s.emitScent(now)

	// Phase 2: drives, aging, starvation. No agent decides yet.
	for _, a := range s.Roster.All() {
		if !a.Alive {
			continue
		}
		s.Params.DecayDrives(a)
		a.AgeTicks++
		if s.Params.Urgency(a, agent.DriveHunger) >= 0.999 {
			a.Health -= starvationDamage
		}
	}

	// Phase 3: collect async cognition results, then run decisions for
	// agents at their staggered boundary.
	s.Broker.Drain(now)
	for _, a := range s.Roster.All() {
		if !a.Alive || now < a.NextDecision {
			continue
		}
		agent.Perceive(a, s.Roster, s.Grid, s.Params, s.Cfg.Perception, now)
		s.Brain.Evaluate(a, now)
	}

	// Phase 4: every living agent acts on its current goal.
	for _, a := range s.Roster.All() {
		if a.Alive {
			s.Brain.Execute(a, now)
		}
	}

	// Phase 5: deferred removals, applied in one batch.
	s.reap(now)
}

// emitScent refreshes the shared field from the current world state.
func (s *Sim) emitScent(now uint64) {
	// Stagger vegetation emission across four tick phases to bound cost.
	phase := int(now % 4)
	for y := 0; y < s.Grid.Height; y++ {
		for x := 0; x < s.Grid.Width; x++ {
			if (x+y)%4 != phase {
				continue
			}
			t := s.Grid.At(world.Pos{X: x, Y: y})
			if t.Vegetation >= vegScentThreshold {
				s.Scent.Emit(scent.ChannelFood, x, y, 0.5*t.Vegetation, 2)
			}
		}
	}

	for _, a := range s.Roster.All() {
		if !a.Alive {
			continue
		}
		if agent.Has(a, agent.CanHunt) {
			s.Scent.Emit(scent.ChannelDanger, a.Pos.X, a.Pos.Y, 0.8, 3)
		}
		if a.Goal != nil && (a.Goal.Kind == agent.GoalFight || a.Goal.Kind == agent.GoalRaid) {
			s.Scent.Emit(scent.ChannelDanger, a.Pos.X, a.Pos.Y, 1.2, 3)
		}
		if a.Species == agent.SpeciesSettler {
			s.Scent.Emit(scent.ChannelHome, a.Home.X, a.Home.Y, 0.4, 3)
		}
	}
}

// reap marks dead and departed agents, records their exits, and flushes the
// roster in one batch so mid-tick indices stay valid.
func (s *Sim) reap(now uint64) {
	for _, a := range s.Roster.All() {
		sp := s.Params.ForSpecies(a.Species)
		aged := sp.MaxAgeTicks > 0 && a.AgeTicks >= sp.MaxAgeTicks
		switch {
		case a.Departed:
			s.departures++
			s.Records.Append(Record{
				Tick: now, Kind: RecordDeparted,
				AgentID: uint64(a.ID), Name: a.Name, Species: a.Species.Name(),
			})
			s.Roster.Defer(a.ID)
		case !a.Alive, a.Health <= 0, aged:
			a.Alive = false
			s.deaths++
			detail := "injury"
			if aged {
				detail = "old age"
			} else if s.Params.Urgency(a, agent.DriveHunger) >= 0.999 {
				detail = "starvation"
			}
			s.Records.Append(Record{
				Tick: now, Kind: RecordDied,
				AgentID: uint64(a.ID), Name: a.Name,
				Species: a.Species.Name(), Detail: detail,
			})
			s.Roster.Defer(a.ID)
		}
	}

	for _, removed := range s.Roster.Flush() {
		s.Broker.Forget(removed.ID)
	}
}

// Hour runs the slow world processes: vegetation regrowth.
func (s *Sim) Hour(now uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Grid.RegrowVegetation(vegetationRegrowRate)
}

// Day runs daily work: possible faction arrival and the summary report.
func (s *Sim) Day(now uint64) {
	s.mu.Lock()
	if s.RNG.Float64() < s.Cfg.Population.ArrivalChance {
		s.spawnFactionGroup(now)
	}
	st := s.statsLocked(now)
	s.mu.Unlock()

	slog.Info("daily report",
		"time", SimTime(now, uint64(s.Cfg.Tick.TicksPerHour), uint64(s.Cfg.Tick.TicksPerDay)),
		"agents", st.Agents,
		"settlers", st.Settlers,
		"animals", st.Animals,
		"factions", st.Factions,
		"births", st.Births,
		"deaths", st.Deaths,
		"departures", st.Departures,
		"mean_hunger", fmt.Sprintf("%.1f", st.MeanHunger),
	)

	if s.OnDayExtra != nil {
		s.OnDayExtra(now)
	}
}

var arrivingSpecies = []agent.Species{
	agent.SpeciesTrader, agent.SpeciesRaider,
	agent.SpeciesMissionary, agent.SpeciesScout,
}

func (s *Sim) spawnFactionGroup(now uint64) {
	sp := arrivingSpecies[s.RNG.Intn(len(arrivingSpecies))]
	entry, ok := s.edgeEntry()
	if !ok {
		return
	}
	size := 2 + s.RNG.Intn(3)
	group := s.Factory.SpawnFactionGroup(sp, size, entry, now)
	for _, a := range group {
		s.recordSpawn(a, now)
	}
	slog.Info("faction group arrived", "species", sp.Name(), "size", size, "x", entry.X, "y", entry.Y)
}

// edgeEntry picks a random passable tile on or near the map border.
func (s *Sim) edgeEntry() (world.Pos, bool) {
	for try := 0; try < 48; try++ {
		var p world.Pos
		switch s.RNG.Intn(4) {
		case 0:
			p = world.Pos{X: s.RNG.Intn(s.Grid.Width), Y: 0}
		case 1:
			p = world.Pos{X: s.RNG.Intn(s.Grid.Width), Y: s.Grid.Height - 1}
		case 2:
			p = world.Pos{X: 0, Y: s.RNG.Intn(s.Grid.Height)}
		default:
			p = world.Pos{X: s.Grid.Width - 1, Y: s.RNG.Intn(s.Grid.Height)}
		}
		if s.Grid.Passable(p) {
			return p, true
		}
		if near, ok := s.Grid.NearestPassable(p, 4); ok {
			return near, true
		}
	}
	return world.Pos{}, false
}

// Stats returns the current population summary.
func (s *Sim) Stats(now uint64) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked(now)
}

func (s *Sim) statsLocked(now uint64) Stats {
	st := Stats{
		Tick:       now,
		Births:     s.births,
		Deaths:     s.deaths,
		Departures: s.departures,
		FoodScent:  s.Scent.TotalMass(scent.ChannelFood),
	}
	var hungerSum float64
	var hungerN int
	for _, a := range s.Roster.All() {
		if !a.Alive {
			continue
		}
		st.Agents++
		switch a.Species.Family() {
		case agent.FamilySettler:
			st.Settlers++
		case agent.FamilyAnimal:
			st.Animals++
		default:
			st.Factions++
		}
		if a.Drives.Has(agent.DriveHunger) {
			hungerSum += s.Params.Drive(a, agent.DriveHunger)
			hungerN++
		}
	}
	if hungerN > 0 {
		st.MeanHunger = hungerSum / float64(hungerN)
	}
	return st
}

// SnapshotAgents returns read-only views of all living agents.
func (s *Sim) SnapshotAgents() []AgentView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AgentView, 0, s.Roster.Len())
	for _, a := range s.Roster.All() {
		if !a.Alive {
			continue
		}
		out = append(out, s.viewLocked(a))
	}
	return out
}

// SnapshotAgent returns one agent's view with full drive values.
func (s *Sim) SnapshotAgent(id uint64) (AgentView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.Roster.Get(agent.AgentID(id))
	if !ok {
		return AgentView{}, false
	}
	v := s.viewLocked(a)
	v.Drives = make(map[string]float64)
	for k := agent.DriveKind(0); k < agent.NumDrives; k++ {
		if a.Drives.Has(k) {
			v.Drives[k.Name()] = s.Params.Drive(a, k)
		}
	}
	return v, true
}

// WorldView is a serializable projection of the terrain grid.
type WorldView struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Terrain    []uint8   `json:"terrain"`
	Vegetation []float64 `json:"vegetation"`
}

// SnapshotWorld captures terrain and vegetation in row-major order.
func (s *Sim) SnapshotWorld() WorldView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := WorldView{
		Width:      s.Grid.Width,
		Height:     s.Grid.Height,
		Terrain:    make([]uint8, 0, s.Grid.Width*s.Grid.Height),
		Vegetation: make([]float64, 0, s.Grid.Width*s.Grid.Height),
	}
	for y := 0; y < s.Grid.Height; y++ {
		for x := 0; x < s.Grid.Width; x++ {
			t := s.Grid.At(world.Pos{X: x, Y: y})
			w.Terrain = append(w.Terrain, uint8(t.Terrain))
			w.Vegetation = append(w.Vegetation, t.Vegetation)
		}
	}
	return w
}

// DriveValues returns the current value of one drive across all living
// agents that carry it. Used for telemetry aggregates.
func (s *Sim) DriveValues(k agent.DriveKind) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []float64
	for _, a := range s.Roster.All() {
		if a.Alive && a.Drives.Has(k) {
			out = append(out, s.Params.Drive(a, k))
		}
	}
	return out
}

func (s *Sim) viewLocked(a *agent.Agent) AgentView {
	goal := "idle"
	if a.Goal != nil {
		goal = a.Goal.Kind.Name()
	}
	return AgentView{
		ID:      uint64(a.ID),
		Name:    a.Name,
		Species: a.Species.Name(),
		X:       a.Pos.X,
		Y:       a.Pos.Y,
		Health:  a.Health,
		Goal:    goal,
	}
}
