package agent

import (
	"math"
	"testing"

	"github.com/ferune/wildmere/internal/config"
)

func testParams(t *testing.T) *Params {
	t.Helper()
	p, err := NewParams(config.Default())
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	return p
}

func TestInitDrivesSparse(t *testing.T) {
	p := testParams(t)
	a := &Agent{Species: SpeciesSettler}
	p.InitDrives(a)

	for _, k := range []DriveKind{DriveHunger, DriveFear, DriveSocial, DriveExplore} {
		if !a.Drives.Has(k) {
			t.Errorf("settler missing drive %s", k.Name())
		}
	}
	for _, k := range []DriveKind{DriveTerritory, DriveMate} {
		if a.Drives.Has(k) {
			t.Errorf("settler should not carry drive %s", k.Name())
		}
	}
	if got := p.Drive(a, DriveHunger); got != 30 {
		t.Errorf("settler initial hunger = %v, want 30", got)
	}

	d := &Agent{Species: SpeciesDeer}
	p.InitDrives(d)
	if d.Drives.Has(DriveSocial) || d.Drives.Has(DriveExplore) {
		t.Error("deer should carry only hunger, fear, mate")
	}
	if !d.Drives.Has(DriveMate) {
		t.Error("deer missing mate drive")
	}
}

func TestDecayRaisesPressureAndClamps(t *testing.T) {
	p := testParams(t)
	a := &Agent{Species: SpeciesSettler}
	p.InitDrives(a)

	// Needs that build over time carry negative linear decay, so each tick
	// pushes the stored value up toward the critical threshold.
	before := p.Drive(a, DriveHunger)
	p.DecayDrives(a)
	after := p.Drive(a, DriveHunger)
	if after <= before {
		t.Fatalf("hunger did not build: %v -> %v", before, after)
	}

	// Explore has negative linear decay, so pressure accumulates upward.
	exBefore := p.Drive(a, DriveExplore)
	p.DecayDrives(a)
	if got := p.Drive(a, DriveExplore); got <= exBefore {
		t.Errorf("explore pressure did not accumulate: %v -> %v", exBefore, got)
	}

	// Ten thousand ticks of decay must keep every drive inside its range.
	for i := 0; i < 10000; i++ {
		p.DecayDrives(a)
	}
	sp := p.ForSpecies(SpeciesSettler)
	for k := DriveKind(0); k < NumDrives; k++ {
		if !a.Drives.Has(k) {
			continue
		}
		v := p.Drive(a, k)
		d := sp.Drives[k]
		if v < d.Min || v > d.Max {
			t.Errorf("drive %s = %v outside [%v,%v] after long decay", k.Name(), v, d.Min, d.Max)
		}
	}
}

func TestProportionalDecayFadesTowardZero(t *testing.T) {
	p := testParams(t)
	a := &Agent{Species: SpeciesDeer}
	p.InitDrives(a)
	p.Stimulate(a, DriveFear, 80)

	start := p.Drive(a, DriveFear)
	for i := 0; i < 500; i++ {
		p.DecayDrives(a)
	}
	end := p.Drive(a, DriveFear)
	if end >= start {
		t.Fatalf("fear did not fade: %v -> %v", start, end)
	}
	if end > 0.01 {
		t.Errorf("fear = %v after 500 ticks, expected near zero", end)
	}
	if end < 0 {
		t.Errorf("fear went negative: %v", end)
	}
}

func TestSatisfyAndStimulateClamp(t *testing.T) {
	p := testParams(t)
	a := &Agent{Species: SpeciesSettler}
	p.InitDrives(a)

	// Social floor is below zero for settlers: oversatisfying stops at min.
	p.Satisfy(a, DriveSocial, 1000)
	if got := p.Drive(a, DriveSocial); got != -20 {
		t.Errorf("oversatisfied social = %v, want clamp at -20", got)
	}

	// Stimulating past the ceiling stops at max.
	p.Stimulate(a, DriveHunger, 1000)
	if got := p.Drive(a, DriveHunger); got != 100 {
		t.Errorf("overstimulated hunger = %v, want clamp at 100", got)
	}

	// Zero amount means the configured restore value.
	p.Satisfy(a, DriveHunger, 0)
	if got := p.Drive(a, DriveHunger); got != 60 {
		t.Errorf("hunger after default restore = %v, want 60", got)
	}

	// Drives the species does not carry are untouched.
	p.Satisfy(a, DriveMate, 50)
	p.Stimulate(a, DriveMate, 50)
	if a.Drives.Has(DriveMate) {
		t.Error("satisfy/stimulate materialized an absent drive")
	}
}

func TestUrgencyNormalized(t *testing.T) {
	p := testParams(t)
	a := &Agent{Species: SpeciesSettler}
	p.InitDrives(a)

	// Social spans [-20, 100]; the initial 40 sits exactly halfway.
	if got := p.Urgency(a, DriveSocial); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("social urgency = %v, want 0.5", got)
	}

	p.Stimulate(a, DriveHunger, 1000)
	if got := p.Urgency(a, DriveHunger); got != 1 {
		t.Errorf("maxed hunger urgency = %v, want 1", got)
	}
	p.Satisfy(a, DriveHunger, 1000)
	if got := p.Urgency(a, DriveHunger); got != 0 {
		t.Errorf("emptied hunger urgency = %v, want 0", got)
	}
}

func TestIsCritical(t *testing.T) {
	p := testParams(t)
	a := &Agent{Species: SpeciesSettler}
	p.InitDrives(a)

	if p.IsCritical(a, DriveHunger) {
		t.Error("fresh settler should not be hunger-critical")
	}
	p.Stimulate(a, DriveHunger, 55) // 30 + 55 = 85, threshold 80
	if !p.IsCritical(a, DriveHunger) {
		t.Error("hunger 85 should be critical at threshold 80")
	}
	if p.IsCritical(a, DriveMate) {
		t.Error("absent drive can never be critical")
	}
}

func TestDominantPicksHighestUrgency(t *testing.T) {
	p := testParams(t)
	a := &Agent{Species: SpeciesSettler}
	p.InitDrives(a)

	p.Stimulate(a, DriveHunger, 65) // urgency 0.95
	k, urg, ok := p.Dominant(a)
	if !ok {
		t.Fatal("settler carries drives, Dominant must report ok")
	}
	if k != DriveHunger {
		t.Errorf("dominant = %s, want hunger", k.Name())
	}
	if urg < 0.9 || urg > 1 {
		t.Errorf("dominant urgency = %v, want ~0.95", urg)
	}

	// No drives at all: ok is false.
	bare := &Agent{Species: SpeciesSettler}
	if _, _, ok := p.Dominant(bare); ok {
		t.Error("agent with empty drive vector must report ok=false")
	}
}

func TestDriveClampsAtRead(t *testing.T) {
	p := testParams(t)
	a := &Agent{Species: SpeciesSettler}
	p.InitDrives(a)

	// Simulate float drift past the write-time clamp.
	a.Drives.Values[DriveHunger] = 140
	if got := p.Drive(a, DriveHunger); got != 100 {
		t.Errorf("read clamp high: got %v, want 100", got)
	}
	a.Drives.Values[DriveHunger] = -7
	if got := p.Drive(a, DriveHunger); got != 0 {
		t.Errorf("read clamp low: got %v, want 0", got)
	}
}

func TestNewParamsRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Species["griffin"] = cfg.Species["deer"]
	if _, err := NewParams(cfg); err == nil {
		t.Error("unknown species name must fail params resolution")
	}
	delete(cfg.Species, "griffin")

	cfg2 := config.Default()
	delete(cfg2.Species, "boar")
	if _, err := NewParams(cfg2); err == nil {
		t.Error("missing species entry must fail params resolution")
	}
}
