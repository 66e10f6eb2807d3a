package brain

import (
	"testing"
	"time"

	"github.com/ferune/wildmere/internal/agent"
	"github.com/ferune/wildmere/internal/cognition"
	"github.com/ferune/wildmere/internal/world"
)

// seedIntent runs one consult round-trip so the intent is ready for the next
// evaluation at the same tick.
func seedIntent(t *testing.T, f *fixture, a *agent.Agent, now uint64) {
	t.Helper()
	f.eng.Broker.Consult(cognition.BuildRequest(a, f.p, now), now)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.eng.Broker.Drain(now)
		if !f.eng.Broker.InFlight(a.ID) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("consultation never completed")
}

func TestAdvisedGoalAdopted(t *testing.T) {
	tx, ty := 30, 20
	f := newFixture(t, cognition.CannedProvider{Intent: cognition.Intent{
		Action: "explore", TargetX: &tx, TargetY: &ty,
	}})
	s := f.fac.SpawnSettler(world.Pos{X: 20, Y: 20}, 0)
	f.p.Satisfy(s, agent.DriveHunger, 1000)

	seedIntent(t, f, s, 10)
	f.perceive(s, 10)
	f.eng.Evaluate(s, 10)

	if !s.Goal.Advised {
		t.Fatalf("goal = %s advised=%v, want the provider's explore", s.Goal.Kind.Name(), s.Goal.Advised)
	}
	if s.Goal.TargetPos == nil || *s.Goal.TargetPos != (world.Pos{X: tx, Y: ty}) {
		t.Errorf("advised target = %v, want (%d,%d)", s.Goal.TargetPos, tx, ty)
	}
}

func TestAdvisedIntentAppliedAtNextBoundary(t *testing.T) {
	tx, ty := 30, 20
	f := newFixture(t, cognition.CannedProvider{Intent: cognition.Intent{
		Action: "explore", TargetX: &tx, TargetY: &ty,
	}})
	s := f.fac.SpawnSettler(world.Pos{X: 20, Y: 20}, 0)
	f.p.Satisfy(s, agent.DriveHunger, 1000)

	// Boundary one: the evaluation issues the consultation itself.
	f.perceive(s, 10)
	f.eng.Evaluate(s, 10)
	if !f.eng.Broker.InFlight(s.ID) {
		t.Fatal("evaluation did not issue a consultation")
	}

	// The response lands between boundaries.
	deadline := time.Now().Add(2 * time.Second)
	for f.eng.Broker.InFlight(s.ID) {
		if time.Now().After(deadline) {
			t.Fatal("consultation never completed")
		}
		f.eng.Broker.Drain(10)
		time.Sleep(2 * time.Millisecond)
	}

	// Boundary two: the intent from boundary one must be applied, not
	// discarded as superseded.
	f.perceive(s, 30)
	f.eng.Evaluate(s, 30)

	if s.Goal == nil || !s.Goal.Advised {
		t.Fatalf("intent issued at the previous boundary was not applied; goal = %v", s.Goal)
	}
	if s.Goal.TargetPos == nil || *s.Goal.TargetPos != (world.Pos{X: tx, Y: ty}) {
		t.Errorf("advised target = %v, want (%d,%d)", s.Goal.TargetPos, tx, ty)
	}
}

func TestAdvisedGoalRejectedByCapability(t *testing.T) {
	f := newFixture(t, cognition.CannedProvider{Intent: cognition.Intent{
		Action: "preach",
	}})
	s := f.fac.SpawnSettler(world.Pos{X: 20, Y: 20}, 0)
	f.p.Satisfy(s, agent.DriveHunger, 1000)

	seedIntent(t, f, s, 10)
	f.perceive(s, 10)
	f.eng.Evaluate(s, 10)

	if s.Goal == nil || s.Goal.Advised {
		t.Error("capability-gated action must fall back to deterministic selection")
	}
}

func TestAdvisedGoalRejectedByWorld(t *testing.T) {
	tx, ty := 30, 20
	f := newFixture(t, cognition.CannedProvider{Intent: cognition.Intent{
		Action: "explore", TargetX: &tx, TargetY: &ty,
	}})
	f.g.At(world.Pos{X: tx, Y: ty}).Terrain = world.TerrainRock

	s := f.fac.SpawnSettler(world.Pos{X: 20, Y: 20}, 0)
	f.p.Satisfy(s, agent.DriveHunger, 1000)

	seedIntent(t, f, s, 10)
	f.perceive(s, 10)
	f.eng.Evaluate(s, 10)

	if s.Goal == nil || s.Goal.Advised {
		t.Error("impassable advised target must fall back to deterministic selection")
	}
}

func TestAdvisedGoalUnknownAction(t *testing.T) {
	f := newFixture(t, cognition.CannedProvider{Intent: cognition.Intent{
		Action: "summon-rain",
	}})
	s := f.fac.SpawnSettler(world.Pos{X: 20, Y: 20}, 0)
	f.p.Satisfy(s, agent.DriveHunger, 1000)

	seedIntent(t, f, s, 10)
	f.perceive(s, 10)
	f.eng.Evaluate(s, 10)

	if s.Goal == nil || s.Goal.Advised {
		t.Error("unknown action must fall back to deterministic selection")
	}
}

func TestAnimalsNeverConsult(t *testing.T) {
	f := newFixture(t, cognition.CannedProvider{Intent: cognition.Intent{Action: "explore"}})
	deer := f.fac.SpawnAnimal(agent.SpeciesDeer, world.Pos{X: 20, Y: 20}, 0)

	f.perceive(deer, 10)
	f.eng.Evaluate(deer, 10)

	if f.eng.Broker.InFlight(deer.ID) {
		t.Error("animal evaluation issued a cognition request")
	}
	if deer.Goal != nil && deer.Goal.Advised {
		t.Error("animal adopted an advised goal")
	}
}

func TestTargetlessAdvisedActionRejected(t *testing.T) {
	f := newFixture(t, cognition.CannedProvider{Intent: cognition.Intent{
		Action: "trade", // allowed for settlers, but meaningless without a target
	}})
	s := f.fac.SpawnSettler(world.Pos{X: 20, Y: 20}, 0)
	f.p.Satisfy(s, agent.DriveHunger, 1000)

	seedIntent(t, f, s, 10)
	f.perceive(s, 10)
	f.eng.Evaluate(s, 10)

	if s.Goal == nil || s.Goal.Advised {
		t.Error("targetless trade intent must fall back to deterministic selection")
	}
}
