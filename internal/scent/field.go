// Package scent provides the shared diffusing scalar fields agents use for
// gradient-following movement. One field per channel, sized to the map;
// emission is additive and order-independent within a tick, so the phase
// ordering in the engine can treat writes as idempotent accumulation.
package scent

import (
	"math"

	"github.com/ferune/wildmere/internal/config"
	"github.com/ferune/wildmere/internal/world"
)

// Channel selects one scalar field.
type Channel uint8

const (
	ChannelFood   Channel = iota // forage and carcasses; never negative
	ChannelDanger                // predators and combat
	ChannelHome                  // settlements and dens

	NumChannels
)

// ChannelName returns a stable label for logs and telemetry.
func ChannelName(c Channel) string {
	switch c {
	case ChannelFood:
		return "food"
	case ChannelDanger:
		return "danger"
	case ChannelHome:
		return "home"
	default:
		return "unknown"
	}
}

// Field holds every scent channel for one world. Owned by the simulation,
// passed explicitly — never process-global.
type Field struct {
	width  int
	height int
	cells  [NumChannels][]float64

	decay       float64 // per-tick global multiplier
	epsilon     float64 // snap-to-zero floor
	falloff     float64 // per-tile distance attenuation on emission
	gradientMin float64 // below this magnitude the gradient is zero
}

// NewField creates a zeroed field sized to the grid.
func NewField(g *world.Grid, cfg config.ScentConfig) *Field {
	f := &Field{
		width:       g.Width,
		height:      g.Height,
		decay:       cfg.GlobalDecay,
		epsilon:     cfg.Epsilon,
		falloff:     cfg.EmitFalloff,
		gradientMin: cfg.GradientMin,
	}
	for c := Channel(0); c < NumChannels; c++ {
		f.cells[c] = make([]float64, g.Width*g.Height)
	}
	return f
}

// At returns the current value of a channel at a tile, zero off-map.
func (f *Field) At(c Channel, x, y int) float64 {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return 0
	}
	return f.cells[c][y*f.width+x]
}

// Emit adds strength to every cell within radius (Euclidean), attenuated by
// falloff^distance. Multiple emissions in one tick simply accumulate.
func (f *Field) Emit(c Channel, x, y int, strength, radius float64) {
	if strength == 0 || radius <= 0 {
		return
	}
	r := int(math.Ceil(radius))
	r2 := radius * radius
	for dy := -r; dy <= r; dy++ {
		cy := y + dy
		if cy < 0 || cy >= f.height {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			cx := x + dx
			if cx < 0 || cx >= f.width {
				continue
			}
			d2 := float64(dx*dx + dy*dy)
			if d2 > r2 {
				continue
			}
			dist := math.Sqrt(d2)
			f.cells[c][cy*f.width+cx] += strength * math.Pow(f.falloff, dist)
		}
	}
}

// Step applies the per-tick global decay to every channel, snapping
// near-zero values to zero so the field converges instead of accumulating
// float noise. The food channel additionally clamps negatives; the other
// channels tolerate them (repulsion emitters subtract).
func (f *Field) Step() {
	for c := Channel(0); c < NumChannels; c++ {
		cells := f.cells[c]
		for i, v := range cells {
			v *= f.decay
			if v < f.epsilon && v > -f.epsilon {
				v = 0
			}
			if c == ChannelFood && v < 0 {
				v = 0
			}
			cells[i] = v
		}
	}
}

// Gradient samples the eight neighbors of (x, y), weights each direction by
// its scent value, and returns the normalized ascent direction. Returns the
// zero vector when no appreciable gradient exists — the epsilon guard keeps
// a divide-by-near-zero from inventing a direction.
func (f *Field) Gradient(c Channel, x, y int) (float64, float64) {
	var gx, gy float64
	for _, d := range world.NeighborDirections {
		v := f.At(c, x+d.X, y+d.Y)
		if v == 0 {
			continue
		}
		// Diagonal neighbors contribute along a unit direction.
		nx, ny := float64(d.X), float64(d.Y)
		if d.X != 0 && d.Y != 0 {
			const invSqrt2 = 0.7071067811865476
			nx *= invSqrt2
			ny *= invSqrt2
		}
		gx += nx * v
		gy += ny * v
	}

	mag := math.Hypot(gx, gy)
	if mag < f.gradientMin {
		return 0, 0
	}
	return gx / mag, gy / mag
}

// TotalMass returns the summed absolute value of one channel. Telemetry and
// convergence tests use it; the simulation itself never does.
func (f *Field) TotalMass(c Channel) float64 {
	total := 0.0
	for _, v := range f.cells[c] {
		total += math.Abs(v)
	}
	return total
}
