package engine

import (
	"testing"

	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/cognition"
	"github.com/ferune/wildmere/internal/config"
	"github.com/ferune/wildmere/internal/world"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.Width = 48
	cfg.World.Height = 48
	cfg.Population.Settlers = 8
	cfg.Population.Deer = 10
	cfg.Population.Wolves = 2
	cfg.Population.Boars = 4
	return cfg
}

func newTestSim(t *testing.T, provider cognition.Provider) *Sim {
	t.Helper()
	sim, err := NewSim(testConfig(), provider)
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	return sim
}

func TestNewSimSeedsPopulation(t *testing.T) {
	sim := newTestSim(t, nil)
	st := sim.Stats(0)
	if st.Settlers != 8 {
		t.Errorf("settlers = %d, want 8", st.Settlers)
	}
	if st.Animals == 0 {
		t.Error("no animals seeded")
	}
	if st.Births != uint64(st.Agents) {
		t.Errorf("births %d != seeded agents %d", st.Births, st.Agents)
	}
	for _, a := range sim.Roster.All() {
		if !sim.Grid.Passable(a.Pos) {
			t.Fatalf("agent %d seeded on impassable tile %+v", a.ID, a.Pos)
		}
	}
}

func TestTickInvariants(t *testing.T) {
	sim := newTestSim(t, nil)
	for tick := uint64(1); tick <= 100; tick++ {
		sim.Tick(tick)
		for _, a := range sim.Roster.All() {
			if !a.Alive {
				t.Fatalf("tick %d: dead agent %d survived the reap phase", tick, a.ID)
			}
			if !sim.Grid.Passable(a.Pos) {
				t.Fatalf("tick %d: agent %d on impassable tile %+v", tick, a.ID, a.Pos)
			}
			if a.Health <= 0 {
				t.Fatalf("tick %d: agent %d alive with health %v", tick, a.ID, a.Health)
			}
		}
	}
}

func TestReapRemovesDeadWithRecord(t *testing.T) {
	sim := newTestSim(t, nil)
	victim := sim.Roster.All()[0]
	id := victim.ID
	victim.Health = 0

	sim.Tick(1)

	if _, ok := sim.Roster.Get(id); ok {
		t.Error("dead agent still in the roster after the tick")
	}
	found := false
	for _, r := range sim.Records.Recent(0) {
		if r.Kind == RecordDied && r.AgentID == uint64(id) {
			found = true
		}
	}
	if !found {
		t.Error("death left no lifecycle record")
	}
	if sim.Stats(1).Deaths == 0 {
		t.Error("death not counted")
	}
}

func TestReapRemovesDeparted(t *testing.T) {
	sim := newTestSim(t, nil)
	leaver := sim.Roster.All()[0]
	id := leaver.ID
	leaver.Departed = true

	sim.Tick(1)

	if _, ok := sim.Roster.Get(id); ok {
		t.Error("departed agent still in the roster")
	}
	found := false
	for _, r := range sim.Records.Recent(0) {
		if r.Kind == RecordDeparted && r.AgentID == uint64(id) {
			found = true
		}
	}
	if !found {
		t.Error("departure left no lifecycle record")
	}
}

func TestStaggeredDecisions(t *testing.T) {
	sim := newTestSim(t, nil)
	boundaries := make(map[uint64]int)
	for _, a := range sim.Roster.All() {
		boundaries[a.NextDecision]++
	}
	// The factory offsets first decisions randomly within the interval, so
	// the population must not all decide on the same tick.
	if len(boundaries) < 2 {
		t.Errorf("all %d agents share one decision boundary", sim.Roster.Len())
	}
}

func TestHourRegrowsVegetation(t *testing.T) {
	sim := newTestSim(t, nil)
	var grazed world.Pos
	found := false
	for y := 0; y < sim.Grid.Height && !found; y++ {
		for x := 0; x < sim.Grid.Width && !found; x++ {
			p := world.Pos{X: x, Y: y}
			if sim.Grid.At(p).Terrain == world.TerrainGrass {
				grazed, found = p, true
			}
		}
	}
	if !found {
		t.Skip("generated map has no grass")
	}
	sim.Grid.At(grazed).Vegetation = 0.1

	sim.Hour(60)
	if got := sim.Grid.At(grazed).Vegetation; got <= 0.1 {
		t.Errorf("vegetation = %v after regrowth, want > 0.1", got)
	}
}

func TestSoakWithFailingProvider(t *testing.T) {
	if testing.Short() {
		t.Skip("soak test")
	}
	cfg := testConfig()
	cfg.Population.Settlers = 50
	sim, err := NewSim(cfg, cognition.FailingProvider{})
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}

	runner := NewRunner(uint64(cfg.Tick.TicksPerHour), uint64(cfg.Tick.TicksPerDay), 0)
	runner.OnTick = sim.Tick
	runner.OnHour = sim.Hour

	for i := 0; i < 1000; i++ {
		runner.Step()
	}

	// The provider failed on every consultation; the population still ran
	// deterministic selection the whole way through.
	st := sim.Stats(runner.Tick())
	if st.Agents == 0 {
		t.Error("entire population died during the soak")
	}
	for _, a := range sim.Roster.All() {
		if a.Goal == nil && a.NextDecision < runner.Tick() {
			t.Errorf("agent %d passed a decision boundary with no goal", a.ID)
		}
		if !sim.Grid.Passable(a.Pos) {
			t.Errorf("agent %d ended on impassable tile %+v", a.ID, a.Pos)
		}
	}
}

func TestSnapshotAgent(t *testing.T) {
	sim := newTestSim(t, nil)
	first := sim.Roster.All()[0]

	v, ok := sim.SnapshotAgent(uint64(first.ID))
	if !ok {
		t.Fatal("snapshot of a live agent failed")
	}
	if v.Species != first.Species.Name() {
		t.Errorf("species = %q, want %q", v.Species, first.Species.Name())
	}
	if len(v.Drives) == 0 {
		t.Error("detail view carries no drive values")
	}
	if _, ok := sim.SnapshotAgent(999999); ok {
		t.Error("snapshot of an unknown id succeeded")
	}

	views := sim.SnapshotAgents()
	if len(views) != sim.Roster.Len() {
		t.Errorf("snapshot count %d != roster %d", len(views), sim.Roster.Len())
	}
}

func TestSnapshotWorldShape(t *testing.T) {
	sim := newTestSim(t, nil)
	w := sim.SnapshotWorld()
	if w.Width != 48 || w.Height != 48 {
		t.Errorf("snapshot size %dx%d, want 48x48", w.Width, w.Height)
	}
	if len(w.Terrain) != 48*48 || len(w.Vegetation) != 48*48 {
		t.Errorf("snapshot arrays %d/%d, want %d", len(w.Terrain), len(w.Vegetation), 48*48)
	}
}

func TestDriveValues(t *testing.T) {
	sim := newTestSim(t, nil)
	vals := sim.DriveValues(agent.DriveHunger)
	if len(vals) != sim.Roster.Len() {
		t.Errorf("hunger values for %d agents, roster has %d", len(vals), sim.Roster.Len())
	}
	for _, v := range vals {
		if v < 0 || v > 100 {
			t.Errorf("hunger value %v outside configured range", v)
		}
	}
}
