// Drive model — per-agent homeostatic scalars that decay over time and are
// satisfied by actions. Decay and satisfaction are the only mutators; values
// are clamped at read time as well, so floating-point drift over long runs
// can never produce phantom urgency.
package agent

import (
	"fmt"

	"github.com/ferune/wildmere/internal/config"
)

// DriveKind enumerates every drive any species may carry. Each species'
// vector is sparse: only the kinds present in its config exist on its agents.
type DriveKind uint8

const (
	DriveHunger DriveKind = iota
	DriveFear
	DriveSocial
	DriveTerritory
	DriveExplore
	DriveMate

	NumDrives
)

var driveNames = [NumDrives]string{
	"hunger", "fear", "social", "territory", "explore", "mate",
}

// Name returns the drive config key.
func (k DriveKind) Name() string {
	return driveNames[k]
}

// DriveKindByName resolves a config key to a DriveKind.
func DriveKindByName(name string) (DriveKind, bool) {
	for i, n := range driveNames {
		if n == name {
			return DriveKind(i), true
		}
	}
	return 0, false
}

// DriveSpec holds the resolved parameter set of one drive for one species.
type DriveSpec struct {
	Min         float64
	Max         float64
	Initial     float64
	DecayRate   float64 // proportional per-tick decay
	LinearDecay float64 // flat per-tick decay; negative values accumulate pressure
	Restore     float64 // default satisfaction amount
	Critical    float64 // above this the drive overrides goal selection
}

// DriveVector is a sparse drive store: a fixed value array plus a presence
// mask. Inline in the Agent struct, zero heap allocation.
type DriveVector struct {
	Values  [NumDrives]float64 `json:"values"`
	Present uint8              `json:"present"`
}

// Has reports whether the drive exists on this vector.
func (v *DriveVector) Has(k DriveKind) bool {
	return v.Present&(1<<k) != 0
}

// set stores a raw value and marks the drive present. Internal — all
// external mutation goes through Decay/Satisfy/Stimulate.
func (v *DriveVector) set(k DriveKind, val float64) {
	v.Values[k] = val
	v.Present |= 1 << k
}

// SpeciesParams is the resolved per-species behavior table.
type SpeciesParams struct {
	Species          Species
	PerceptionRadius int
	DecisionInterval uint64
	MaxHealth        float64
	MaxAgeTicks      uint64
	Drives           [NumDrives]DriveSpec
	DriveMask        uint8
}

// HasDrive reports whether the species carries a drive at all.
func (p *SpeciesParams) HasDrive(k DriveKind) bool {
	return p.DriveMask&(1<<k) != 0
}

// Params holds resolved behavior tables for every species.
type Params struct {
	bySpecies [NumSpecies]SpeciesParams
}

// NewParams resolves the species configuration into indexed tables.
// Every species in the closed set must be configured; a missing or unknown
// entry is a construction-time error, never a silent default.
func NewParams(cfg *config.Config) (*Params, error) {
	p := &Params{}
	seen := [NumSpecies]bool{}

	for name, sc := range cfg.Species {
		sp, ok := SpeciesByName(name)
		if !ok {
			return nil, fmt.Errorf("config names unknown species %q", name)
		}
		resolved := SpeciesParams{
			Species:          sp,
			PerceptionRadius: sc.PerceptionRadius,
			DecisionInterval: sc.DecisionInterval,
			MaxHealth:        sc.MaxHealth,
			MaxAgeTicks:      sc.MaxAgeTicks,
		}
		for driveName, dc := range sc.Drives {
			k, ok := DriveKindByName(driveName)
			if !ok {
				return nil, fmt.Errorf("species %s names unknown drive %q", name, driveName)
			}
			resolved.Drives[k] = DriveSpec{
				Min:         dc.Min,
				Max:         dc.Max,
				Initial:     dc.Initial,
				DecayRate:   dc.DecayRate * cfg.Difficulty.DecayMultiplier,
				LinearDecay: dc.LinearDecay * cfg.Difficulty.DecayMultiplier,
				Restore:     dc.Restore,
				Critical:    dc.Critical,
			}
			resolved.DriveMask |= 1 << k
		}
		p.bySpecies[sp] = resolved
		seen[sp] = true
	}

	for s := Species(0); s < NumSpecies; s++ {
		if !seen[s] {
			return nil, fmt.Errorf("species %s has no config entry", s.Name())
		}
	}
	return p, nil
}

// ForSpecies returns the resolved table for a species.
func (p *Params) ForSpecies(s Species) *SpeciesParams {
	return &p.bySpecies[s]
}

// InitDrives populates an agent's drive vector from its species defaults.
func (p *Params) InitDrives(a *Agent) {
	sp := p.ForSpecies(a.Species)
	a.Drives = DriveVector{}
	for k := DriveKind(0); k < NumDrives; k++ {
		if sp.HasDrive(k) {
			a.Drives.set(k, sp.Drives[k].Initial)
		}
	}
}

// Drive returns the clamped current value of a drive. Clamping at read time
// guards against drift that slipped past write-time clamps.
func (p *Params) Drive(a *Agent, k DriveKind) float64 {
	sp := p.ForSpecies(a.Species)
	return clampDrive(a.Drives.Values[k], sp.Drives[k])
}

// DecayDrives applies one tick of decay to every drive the agent carries.
// Tick-invariant: the same per-tick constants apply at any wall-clock speed.
func (p *Params) DecayDrives(a *Agent) {
	sp := p.ForSpecies(a.Species)
	for k := DriveKind(0); k < NumDrives; k++ {
		if !a.Drives.Has(k) {
			continue
		}
		d := sp.Drives[k]
		v := a.Drives.Values[k]
		v = v*(1-d.DecayRate) - d.LinearDecay
		a.Drives.Values[k] = clampDrive(v, d)
	}
}

// Satisfy reduces a drive by amount (an action met the need), clamped.
// A zero amount uses the drive's configured restore value.
func (p *Params) Satisfy(a *Agent, k DriveKind, amount float64) {
	if !a.Drives.Has(k) {
		return
	}
	d := p.ForSpecies(a.Species).Drives[k]
	if amount == 0 {
		amount = d.Restore
	}
	a.Drives.Values[k] = clampDrive(a.Drives.Values[k]-amount, d)
}

// Stimulate raises a drive by amount (the world provoked the need), clamped.
func (p *Params) Stimulate(a *Agent, k DriveKind, amount float64) {
	if !a.Drives.Has(k) {
		return
	}
	d := p.ForSpecies(a.Species).Drives[k]
	a.Drives.Values[k] = clampDrive(a.Drives.Values[k]+amount, d)
}

// Dominant returns the agent's most urgent drive and its normalized urgency
// in [0,1]. Returns ok=false when the agent carries no drives.
func (p *Params) Dominant(a *Agent) (DriveKind, float64, bool) {
	best := DriveKind(0)
	bestUrg := -1.0
	for k := DriveKind(0); k < NumDrives; k++ {
		if !a.Drives.Has(k) {
			continue
		}
		u := p.Urgency(a, k)
		if u > bestUrg {
			best, bestUrg = k, u
		}
	}
	if bestUrg < 0 {
		return 0, 0, false
	}
	return best, bestUrg, true
}

// Urgency returns a drive value normalized to [0,1] over its configured range.
func (p *Params) Urgency(a *Agent, k DriveKind) float64 {
	d := p.ForSpecies(a.Species).Drives[k]
	span := d.Max - d.Min
	if span <= 0 {
		return 0
	}
	return (clampDrive(a.Drives.Values[k], d) - d.Min) / span
}

// IsCritical reports whether a drive has crossed its override threshold.
func (p *Params) IsCritical(a *Agent, k DriveKind) bool {
	if !a.Drives.Has(k) {
		return false
	}
	d := p.ForSpecies(a.Species).Drives[k]
	return clampDrive(a.Drives.Values[k], d) >= d.Critical
}

func clampDrive(v float64, d DriveSpec) float64 {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}
