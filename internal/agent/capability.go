// Capability flags — a static species table answering "can this agent do X?".
// Behavior dispatch keys off these flags, never off species comparisons
// scattered through the engine.
package agent

// Capability is a bit flag in a species capability set.
type Capability uint16

const (
	CanSpeak Capability = 1 << iota // may be offered the cognition-provider path
	CanGraze                        // eats vegetation from tiles
	CanHunt                         // eats other agents
	CanFight                        // may choose combat over flight
	CanTrade
	CanPreach
	CanScoutLand
	CanNegotiate
	CanMate     // participates in reproduction
	Territorial // returns to and defends a home range
)

// capabilityTable maps each species to its capability set. Adding a species
// means adding one row. Indexing with an out-of-range species panics, which
// is the intended failure mode for an unknown species: a programming error,
// not a runtime condition.
var capabilityTable = [NumSpecies]Capability{
	SpeciesSettler:    CanSpeak | CanFight | CanTrade | CanNegotiate,
	SpeciesDeer:       CanGraze | CanMate,
	SpeciesWolf:       CanHunt | CanFight | CanMate | Territorial,
	SpeciesBoar:       CanGraze | CanFight | Territorial,
	SpeciesTrader:     CanSpeak | CanTrade | CanNegotiate,
	SpeciesRaider:     CanSpeak | CanFight,
	SpeciesMissionary: CanSpeak | CanPreach,
	SpeciesScout:      CanSpeak | CanScoutLand,
}

// Has reports whether the agent's species grants a capability.
func Has(a *Agent, c Capability) bool {
	return capabilityTable[a.Species]&c != 0
}

// SpeciesHas reports whether a species grants a capability without needing
// an agent in hand.
func SpeciesHas(s Species, c Capability) bool {
	return capabilityTable[s]&c != 0
}

// Hostile reports whether species b is a threat to species a.
// Same-species pairs are never hostile here; low health and proximity
// raise threat separately during perception scoring.
func Hostile(a, b Species) bool {
	if a == b {
		return false
	}
	switch b {
	case SpeciesWolf:
		// Wolves threaten prey species and settlers.
		return a == SpeciesDeer || a == SpeciesBoar || a == SpeciesSettler
	case SpeciesRaider:
		return a.Family() != FamilyFaction
	case SpeciesBoar:
		// Boars only threaten whatever crowds their range.
		return a == SpeciesSettler || a == SpeciesWolf
	case SpeciesSettler:
		// Settlers hunt game and fight raiders.
		return a == SpeciesDeer || a == SpeciesBoar || a == SpeciesRaider
	}
	return false
}
