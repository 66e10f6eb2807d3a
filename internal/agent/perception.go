// Perception — a radius-bounded snapshot of nearby agents and locations,
// refreshed only at decision boundaries. Full-radius scans are the most
// expensive per-agent operation; each agent's own interval counter staggers
// them so the cost spreads across ticks.
package agent

import (
	"math"

	"github.com/ferune/wildmere/internal/config"
	"github.com/ferune/wildmere/internal/world"
)

// RecordKind tags what a perception record observed.
type RecordKind uint8

const (
	RecordAgent RecordKind = iota
	RecordLocation
)

// LocationKind tags what a location record found there.
type LocationKind uint8

const (
	LocForage LocationKind = iota // edible vegetation
	LocWater                      // shoreline tile adjacent to water
)

// Record is a short-lived observed fact. Records are purged once they exceed
// the staleness window and are never used to infer a target's current
// position beyond one decision interval without re-observation.
type Record struct {
	Kind      RecordKind
	Agent     AgentID // valid when Kind == RecordAgent; resolved per read
	Loc       world.Pos
	LocKind   LocationKind
	Tick      uint64
	Distance  float64
	Relevance float64 // 0 to 1
	Threat    float64 // 0 to 1, agents only
}

// Snapshot is an agent's current view of its surroundings.
type Snapshot struct {
	Records   []Record
	Threat    AgentID // highest-threat observation; 0 = none
	ThreatVal float64
	Refreshed uint64 // tick of last refresh
}

// Fresh returns records no older than the staleness window at tick now.
// Reads always go through Fresh so a stale record can never leak out between
// purges.
func (s *Snapshot) Fresh(now, staleness uint64) []Record {
	fresh := make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		if now-r.Tick <= staleness {
			fresh = append(fresh, r)
		}
	}
	return fresh
}

// Perceive refreshes the agent's snapshot: scan agents and locations within
// the species perception radius, score relevance and threat, update the
// threat pointer, and feed notable observations into the rolling event
// memory. The snapshot is rebuilt whole; staleness is enforced at read time
// by Fresh and the Best* lookups, which guards the interval between
// boundaries.
func Perceive(a *Agent, ros *Roster, g *world.Grid, p *Params, pc config.PerceptionConfig, now uint64) {
	sp := p.ForSpecies(a.Species)
	radius := sp.PerceptionRadius

	a.Percept.Records = a.Percept.Records[:0]
	a.Percept.Threat = 0
	a.Percept.ThreatVal = 0
	a.Percept.Refreshed = now

	hungerUrg := 0.0
	if a.Drives.Has(DriveHunger) {
		hungerUrg = p.Urgency(a, DriveHunger)
	}

	for _, other := range ros.All() {
		if other.ID == a.ID || !other.Alive {
			continue
		}
		dist := float64(world.ChebyshevDist(a.Pos, other.Pos))
		if dist > float64(radius) {
			continue
		}

		threat := threatScore(a, other, dist, float64(radius))
		rel := agentRelevance(a, other, p, threat, hungerUrg)

		rec := Record{
			Kind:      RecordAgent,
			Agent:     other.ID,
			Loc:       other.Pos,
			Tick:      now,
			Distance:  dist,
			Relevance: rel,
			Threat:    threat,
		}
		a.Percept.Records = append(a.Percept.Records, rec)

		if threat > a.Percept.ThreatVal {
			a.Percept.Threat = other.ID
			a.Percept.ThreatVal = threat
		}

		if rel >= pc.RelevanceMin {
			Remember(a, MemoryEvent{
				Tick:       now,
				Kind:       MemorySighting,
				Subject:    other.ID,
				Pos:        other.Pos,
				Importance: rel,
			}, pc.MemoryLimit)
		}
	}

	scanLocations(a, g, p, now, radius, hungerUrg)
}

// threatScore combines species hostility, the observer's own frailty, and
// proximity. Same-species observations generally do not threaten.
func threatScore(a, other *Agent, dist, radius float64) float64 {
	base := 0.0
	if Hostile(a.Species, other.Species) {
		base = 0.6
	} else if other.Species != a.Species {
		base = 0.05
	}
	if base == 0 {
		return 0
	}

	// Frail observers see sharper threats.
	base += (1 - a.HealthRatio()) * 0.3

	// Proximity scaling: full weight adjacent, tapering to half at the rim.
	prox := 1.0 - 0.5*(dist/radius)
	v := base * prox
	if v > 1 {
		v = 1
	}
	return v
}

// agentRelevance ranks an observed agent: threat far above food, food above
// mate, mate above social, everything else background noise.
func agentRelevance(a, other *Agent, p *Params, threat, hungerUrg float64) float64 {
	if threat >= 0.3 {
		return math.Min(1, 0.6+threat*0.4)
	}

	// Prey when hungry.
	if Has(a, CanHunt) && Hostile(other.Species, a.Species) && hungerUrg > 0.3 {
		return math.Min(1, 0.4+hungerUrg*0.4)
	}

	// Potential mate when the mate drive presses.
	if other.Species == a.Species && Has(a, CanMate) && a.Drives.Has(DriveMate) {
		if mateUrg := p.Urgency(a, DriveMate); mateUrg > 0.5 {
			return math.Min(1, 0.3+mateUrg*0.4)
		}
	}

	// Company for the sociable.
	if other.Species == a.Species && a.Drives.Has(DriveSocial) {
		socialUrg := p.Urgency(a, DriveSocial)
		return math.Min(1, 0.2+socialUrg*0.35)
	}

	return 0.1
}

// scanLocations records nearby points of interest, scored against the
// agent's current dominant drive.
func scanLocations(a *Agent, g *world.Grid, p *Params, now uint64, radius int, hungerUrg float64) {
	grazer := Has(a, CanGraze)
	speaker := Has(a, CanSpeak)

	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			pos := world.Pos{X: a.Pos.X + dx, Y: a.Pos.Y + dy}
			if !g.InBounds(pos) {
				continue
			}
			t := g.At(pos)
			dist := float64(world.ChebyshevDist(a.Pos, pos))

			if grazer && t.Vegetation >= 0.25 {
				rel := hungerUrg * t.Vegetation
				if rel > 0.15 {
					a.Percept.Records = append(a.Percept.Records, Record{
						Kind:      RecordLocation,
						Loc:       pos,
						LocKind:   LocForage,
						Tick:      now,
						Distance:  dist,
						Relevance: rel,
					})
				}
			}

			// Shoreline matters to settlers with water-adjacent work.
			if speaker && t.Terrain == world.TerrainWater {
				a.Percept.Records = append(a.Percept.Records, Record{
					Kind:      RecordLocation,
					Loc:       pos,
					LocKind:   LocWater,
					Tick:      now,
					Distance:  dist,
					Relevance: 0.2 + hungerUrg*0.2,
				})
			}
		}
	}
}

// BestLocation returns the most relevant fresh location record of a kind.
func (s *Snapshot) BestLocation(kind LocationKind, now, staleness uint64) (Record, bool) {
	var best Record
	found := false
	for _, r := range s.Records {
		if r.Kind != RecordLocation || r.LocKind != kind {
			continue
		}
		if now-r.Tick > staleness {
			continue
		}
		// Prefer relevance, break ties toward the closer site.
		if !found || r.Relevance > best.Relevance ||
			(r.Relevance == best.Relevance && r.Distance < best.Distance) {
			best = r
			found = true
		}
	}
	return best, found
}

// BestAgent returns the fresh agent record maximizing score(record),
// skipping records whose referent test fails.
func (s *Snapshot) BestAgent(now, staleness uint64, score func(Record) float64) (Record, bool) {
	var best Record
	bestScore := 0.0
	found := false
	for _, r := range s.Records {
		if r.Kind != RecordAgent || now-r.Tick > staleness {
			continue
		}
		sc := score(r)
		if sc > bestScore {
			best, bestScore = r, sc
			found = true
		}
	}
	return best, found
}
