// Reference terrain provider using layered simplex noise.
// Terrain generation proper belongs to an external collaborator; this built-in
// provider exists so the core can be run and tested without one.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds parameters for the reference terrain provider.
type GenConfig struct {
	Width    int
	Height   int
	Seed     int64   // 0 = random
	WaterLvl float64 // Noise threshold below which tiles become water
	RockLvl  float64 // Noise threshold above which tiles become rock
}

// DefaultGenConfig returns a map sized for a full simulation run.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:    96,
		Height:   96,
		Seed:     0,
		WaterLvl: 0.22,
		RockLvl:  0.78,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration and tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:    24,
		Height:   24,
		Seed:     42,
		WaterLvl: 0.18,
		RockLvl:  0.85,
	}
}

// Generate builds a grid from layered noise: one elevation layer drives
// water/rock placement, a moisture layer splits the remaining land into
// grass, forest, swamp, and sand.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)

	g := NewGrid(cfg.Width, cfg.Height)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x), float64(y)

			elev := octaveNoise(elevNoise, fx, fy, 4, 0.06, 0.5)
			moist := octaveNoise(moistNoise, fx, fy, 3, 0.05, 0.5)

			t := g.At(Pos{x, y})
			t.Terrain = deriveTerrain(elev, moist, cfg)
			t.Vegetation = startingVegetation(t.Terrain, moist)
		}
	}

	return g
}

func deriveTerrain(elev, moist float64, cfg GenConfig) Terrain {
	switch {
	case elev < cfg.WaterLvl:
		return TerrainWater
	case elev > cfg.RockLvl:
		return TerrainRock
	case elev < cfg.WaterLvl+0.06:
		return TerrainSand
	case moist > 0.72:
		return TerrainSwamp
	case moist > 0.48:
		return TerrainForest
	default:
		return TerrainGrass
	}
}

func startingVegetation(t Terrain, moist float64) float64 {
	switch t {
	case TerrainGrass:
		return 0.5 + moist*0.5
	case TerrainForest:
		return 0.3 + moist*0.3
	case TerrainSwamp:
		return 0.15
	default:
		return 0
	}
}

// octaveNoise samples multi-octave noise, normalized to 0.0–1.0.
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, baseFreq, persistence float64) float64 {
	total := 0.0
	freq := baseFreq
	amp := 1.0
	maxAmp := 0.0

	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, y*freq) * amp
		maxAmp += amp
		amp *= persistence
		freq *= 2
	}

	return total / maxAmp
}

// RegrowVegetation advances vegetation on fertile tiles toward full growth.
// Called once per sim-hour rather than per tick.
func (g *Grid) RegrowVegetation(rate float64) {
	for i := range g.Tiles {
		t := &g.Tiles[i]
		var cap float64
		switch t.Terrain {
		case TerrainGrass:
			cap = 1.0
		case TerrainForest:
			cap = 0.6
		case TerrainSwamp:
			cap = 0.2
		default:
			continue
		}
		if t.Vegetation < cap {
			t.Vegetation += rate
			if t.Vegetation > cap {
				t.Vegetation = cap
			}
		}
	}
}

// TerrainCounts tallies tiles by terrain type.
func TerrainCounts(g *Grid) map[Terrain]int {
	counts := make(map[Terrain]int)
	for i := range g.Tiles {
		counts[g.Tiles[i].Terrain]++
	}
	return counts
}
