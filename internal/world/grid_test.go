package world

import "testing"

func TestPassability(t *testing.T) {
	g := NewGrid(8, 8)
	g.At(Pos{3, 3}).Terrain = TerrainWater
	g.At(Pos{4, 4}).Terrain = TerrainRock
	g.At(Pos{5, 5}).Terrain = TerrainSwamp

	cases := []struct {
		p    Pos
		want bool
	}{
		{Pos{0, 0}, true},
		{Pos{3, 3}, false},
		{Pos{4, 4}, false},
		{Pos{5, 5}, true},
		{Pos{-1, 0}, false},
		{Pos{8, 0}, false},
	}
	for _, c := range cases {
		if got := g.Passable(c.p); got != c.want {
			t.Errorf("Passable(%+v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestChebyshevDist(t *testing.T) {
	if d := ChebyshevDist(Pos{0, 0}, Pos{3, 1}); d != 3 {
		t.Errorf("dist = %d, want 3", d)
	}
	if d := ChebyshevDist(Pos{5, 5}, Pos{2, 9}); d != 4 {
		t.Errorf("dist = %d, want 4", d)
	}
	if d := ChebyshevDist(Pos{1, 1}, Pos{1, 1}); d != 0 {
		t.Errorf("dist = %d, want 0", d)
	}
}

func TestOnEdge(t *testing.T) {
	g := NewGrid(5, 5)
	for _, p := range []Pos{{0, 2}, {4, 2}, {2, 0}, {2, 4}, {0, 0}} {
		if !g.OnEdge(p) {
			t.Errorf("%+v should be on the edge", p)
		}
	}
	if g.OnEdge(Pos{2, 2}) {
		t.Error("center reported on the edge")
	}
}

func TestNearestPassable(t *testing.T) {
	g := NewGrid(9, 9)
	for y := 3; y <= 5; y++ {
		for x := 3; x <= 5; x++ {
			g.At(Pos{x, y}).Terrain = TerrainRock
		}
	}
	got, ok := g.NearestPassable(Pos{4, 4}, 3)
	if !ok {
		t.Fatal("passable ring exists within radius")
	}
	if !g.Passable(got) {
		t.Fatalf("returned impassable tile %+v", got)
	}
	if ChebyshevDist(Pos{4, 4}, got) != 2 {
		t.Errorf("nearest at distance %d, want 2", ChebyshevDist(Pos{4, 4}, got))
	}

	// Already-passable input returns itself.
	if p, ok := g.NearestPassable(Pos{0, 0}, 1); !ok || p != (Pos{0, 0}) {
		t.Errorf("NearestPassable on open tile = %+v ok=%v", p, ok)
	}
}

func TestGenerateReproducible(t *testing.T) {
	cfg := SmallTestConfig()
	a := Generate(cfg)
	b := Generate(cfg)

	if a.Width != cfg.Width || a.Height != cfg.Height {
		t.Fatalf("generated %dx%d, want %dx%d", a.Width, a.Height, cfg.Width, cfg.Height)
	}
	for i := range a.Tiles {
		if a.Tiles[i] != b.Tiles[i] {
			t.Fatal("same seed produced different terrain")
		}
	}
	if !a.AnyPassable() {
		t.Error("test map has no passable ground")
	}

	counts := TerrainCounts(a)
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != cfg.Width*cfg.Height {
		t.Errorf("terrain counts sum %d, want %d", total, cfg.Width*cfg.Height)
	}
}

func TestRegrowVegetationCaps(t *testing.T) {
	g := NewGrid(4, 4)
	g.At(Pos{0, 0}).Terrain = TerrainGrass
	g.At(Pos{1, 0}).Terrain = TerrainForest
	g.At(Pos{2, 0}).Terrain = TerrainSand
	g.At(Pos{1, 0}).Vegetation = 0.55

	for i := 0; i < 200; i++ {
		g.RegrowVegetation(0.015)
	}

	if got := g.At(Pos{0, 0}).Vegetation; got != 1.0 {
		t.Errorf("grass vegetation = %v, want cap 1.0", got)
	}
	if got := g.At(Pos{1, 0}).Vegetation; got != 0.6 {
		t.Errorf("forest vegetation = %v, want cap 0.6", got)
	}
	if got := g.At(Pos{2, 0}).Vegetation; got != 0 {
		t.Errorf("sand grew vegetation: %v", got)
	}
}
