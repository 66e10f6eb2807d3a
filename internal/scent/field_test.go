package scent

import (
	"math"
	"testing"

	"github.com/ferune/wildmere/internal/config"
	"github.com/ferune/wildmere/internal/world"
)

func testField(t *testing.T, w, h int) *Field {
	t.Helper()
	return NewField(world.NewGrid(w, h), config.Default().Scent)
}

func TestEmitFalloff(t *testing.T) {
	f := testField(t, 16, 16)
	f.Emit(ChannelFood, 8, 8, 1.0, 3)

	center := f.At(ChannelFood, 8, 8)
	if center != 1.0 {
		t.Fatalf("center = %v, want 1.0", center)
	}
	one := f.At(ChannelFood, 9, 8)
	two := f.At(ChannelFood, 10, 8)
	if !(center > one && one > two) {
		t.Errorf("strength must fall with distance: %v, %v, %v", center, one, two)
	}
	// Default falloff is 0.7 per tile.
	if math.Abs(one-0.7) > 1e-9 {
		t.Errorf("one tile out = %v, want 0.7", one)
	}
	if got := f.At(ChannelFood, 12, 8); got != 0 {
		t.Errorf("outside radius = %v, want 0", got)
	}
}

func TestEmitAccumulates(t *testing.T) {
	f := testField(t, 8, 8)
	f.Emit(ChannelHome, 4, 4, 0.5, 2)
	f.Emit(ChannelHome, 4, 4, 0.5, 2)
	if got := f.At(ChannelHome, 4, 4); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("two emissions at one cell = %v, want 1.0", got)
	}
}

func TestStepConvergesToZero(t *testing.T) {
	f := testField(t, 16, 16)
	f.Emit(ChannelDanger, 8, 8, 5.0, 4)
	if f.TotalMass(ChannelDanger) == 0 {
		t.Fatal("emission left no mass")
	}

	prev := f.TotalMass(ChannelDanger)
	for i := 0; i < 400; i++ {
		f.Step()
		m := f.TotalMass(ChannelDanger)
		if m > prev+1e-12 {
			t.Fatalf("mass rose during decay at step %d: %v -> %v", i, prev, m)
		}
		prev = m
	}
	if prev != 0 {
		t.Errorf("field did not converge to exact zero, mass = %v", prev)
	}
}

func TestStepClampsFoodNegatives(t *testing.T) {
	f := testField(t, 8, 8)
	f.Emit(ChannelFood, 4, 4, -2.0, 2)
	f.Emit(ChannelDanger, 4, 4, -2.0, 2)
	f.Step()

	if got := f.At(ChannelFood, 4, 4); got != 0 {
		t.Errorf("food channel must clamp negatives, got %v", got)
	}
	if got := f.At(ChannelDanger, 4, 4); got >= 0 {
		t.Errorf("danger channel should keep negative repulsion, got %v", got)
	}
}

func TestGradientPointsUphill(t *testing.T) {
	f := testField(t, 32, 32)
	f.Emit(ChannelFood, 20, 16, 2.0, 6)

	// Sampling west of the source: ascent must point east.
	gx, gy := f.Gradient(ChannelFood, 16, 16)
	if gx <= 0 {
		t.Errorf("gradient x = %v, want positive (toward source)", gx)
	}
	if math.Abs(gy) > 0.2 {
		t.Errorf("gradient y = %v, want near zero on the axis", gy)
	}
	if mag := math.Hypot(gx, gy); math.Abs(mag-1) > 1e-9 {
		t.Errorf("gradient magnitude = %v, want unit", mag)
	}
}

func TestGradientZeroWhenFlat(t *testing.T) {
	f := testField(t, 8, 8)
	if gx, gy := f.Gradient(ChannelFood, 4, 4); gx != 0 || gy != 0 {
		t.Errorf("empty field gradient = (%v,%v), want zero vector", gx, gy)
	}

	// A uniform plateau has no ascent direction either.
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			f.cells[ChannelFood][y*8+x] = 0.5
		}
	}
	if gx, gy := f.Gradient(ChannelFood, 4, 4); gx != 0 || gy != 0 {
		t.Errorf("plateau gradient = (%v,%v), want zero vector", gx, gy)
	}
}

func TestAtOffMapIsZero(t *testing.T) {
	f := testField(t, 8, 8)
	f.Emit(ChannelFood, 0, 0, 3.0, 2)
	if got := f.At(ChannelFood, -1, 0); got != 0 {
		t.Errorf("off-map read = %v, want 0", got)
	}
	if got := f.At(ChannelFood, 0, 8); got != 0 {
		t.Errorf("off-map read = %v, want 0", got)
	}
}
