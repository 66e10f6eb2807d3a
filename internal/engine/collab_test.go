package engine

import (
	"math/rand"
	"testing"

	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/brain"
	"github.com/ferune/wildmere/internal/world"
)

func TestForageEdgeTiles(t *testing.T) {
	g := world.NewGrid(8, 8)
	job := NewForageJob(rand.New(rand.NewSource(1)))
	a := &agent.Agent{Species: agent.SpeciesSettler, Alive: true}

	// Border tiles have off-map neighbors; checking them must not panic.
	edges := []world.Pos{
		{X: 3, Y: 0}, {X: 0, Y: 3}, {X: 7, Y: 4}, {X: 4, Y: 7},
		{X: 0, Y: 0}, {X: 7, Y: 7},
	}
	for _, p := range edges {
		g.At(p).Vegetation = 0.8
		if !job.CanPerformHere(a, p, g) {
			t.Errorf("vegetated edge tile %v not workable", p)
		}
		g.At(p).Vegetation = 0
	}

	if job.CanPerformHere(a, world.Pos{X: -1, Y: 3}, g) {
		t.Error("off-map tile reported workable")
	}
	if job.CanPerformHere(a, world.Pos{X: 3, Y: 8}, g) {
		t.Error("off-map tile reported workable")
	}
}

func TestForageShorelineFishing(t *testing.T) {
	g := world.NewGrid(8, 8)
	g.At(world.Pos{X: 4, Y: 3}).Terrain = world.TerrainWater
	job := NewForageJob(rand.New(rand.NewSource(1)))
	a := &agent.Agent{Species: agent.SpeciesSettler, Alive: true}

	shore := world.Pos{X: 4, Y: 4}
	if !job.CanPerformHere(a, shore, g) {
		t.Fatal("bare shoreline tile next to water not workable")
	}
	far := world.Pos{X: 1, Y: 6}
	if job.CanPerformHere(a, far, g) {
		t.Error("barren tile away from water reported workable")
	}
}

func TestForageAttemptWorksThenConsumes(t *testing.T) {
	g := world.NewGrid(8, 8)
	pos := world.Pos{X: 2, Y: 2}
	g.At(pos).Vegetation = 0.8
	job := NewForageJob(rand.New(rand.NewSource(1)))
	a := &agent.Agent{ID: 7, Species: agent.SpeciesSettler, Alive: true, Pos: pos}

	for i := 0; i < forageWorkTicks-1; i++ {
		if got := job.Attempt(a, g); got != brain.JobInProgress {
			t.Fatalf("attempt %d = %v, want in-progress", i, got)
		}
	}
	if got := job.Attempt(a, g); got != brain.JobSuccess {
		t.Fatalf("final attempt = %v, want success", got)
	}
	if veg := g.At(pos).Vegetation; veg >= 0.8 {
		t.Errorf("vegetation not consumed, still %.2f", veg)
	}
}
