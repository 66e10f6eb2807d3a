// Package world provides the tile grid, terrain, and spatial queries the
// decision core runs against. Square tiles, integer coordinates, eight-way
// adjacency.
package world

import "fmt"

// Pos is an integer tile coordinate.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Terrain types for tiles.
type Terrain uint8

const (
	TerrainGrass  Terrain = iota // Open grassland — forage, grazing
	TerrainForest                // Cover, game, slow going but passable
	TerrainWater                 // Rivers and lakes — impassable, drinkable from shore
	TerrainRock                  // Cliffs and boulders — impassable
	TerrainSand                  // Shores and dry beds — passable, barren
	TerrainSwamp                 // Passable, low forage
)

// TerrainName returns a human-readable terrain name.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainGrass:
		return "grass"
	case TerrainForest:
		return "forest"
	case TerrainWater:
		return "water"
	case TerrainRock:
		return "rock"
	case TerrainSand:
		return "sand"
	case TerrainSwamp:
		return "swamp"
	default:
		return "unknown"
	}
}

// Tile is a single cell of the grid.
type Tile struct {
	Terrain Terrain `json:"terrain"`

	// Vegetation is the edible growth on this tile, 0.0–1.0.
	// Grazing consumes it; it regrows slowly on fertile terrain.
	Vegetation float64 `json:"vegetation"`
}

// Grid holds the world map as a dense row-major tile array.
type Grid struct {
	Width  int
	Height int
	Tiles  []Tile
}

// NewGrid creates a grid of the given size, all grass.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Tiles:  make([]Tile, width*height),
	}
}

// InBounds reports whether the coordinate lies on the map.
func (g *Grid) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// At returns the tile at p. Panics on out-of-bounds access — callers are
// expected to bounds-check first, and an unchecked read is a programming error.
func (g *Grid) At(p Pos) *Tile {
	return &g.Tiles[p.Y*g.Width+p.X]
}

// Passable reports whether an agent may occupy the tile.
// Out-of-bounds coordinates are never passable.
func (g *Grid) Passable(p Pos) bool {
	if !g.InBounds(p) {
		return false
	}
	switch g.Tiles[p.Y*g.Width+p.X].Terrain {
	case TerrainWater, TerrainRock:
		return false
	}
	return true
}

// OnEdge reports whether p lies on the map border. Departing agents are
// removed when a leave goal completes on an edge tile.
func (g *Grid) OnEdge(p Pos) bool {
	return p.X == 0 || p.Y == 0 || p.X == g.Width-1 || p.Y == g.Height-1
}

// NeighborDirections lists the eight adjacent offsets, clockwise from north.
var NeighborDirections = [8]Pos{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// Neighbors returns the eight adjacent coordinates of p, including
// off-map ones; callers filter with InBounds/Passable.
func (p Pos) Neighbors() [8]Pos {
	var out [8]Pos
	for i, d := range NeighborDirections {
		out[i] = Pos{p.X + d.X, p.Y + d.Y}
	}
	return out
}

// ChebyshevDist returns the board distance between two tiles under
// eight-way movement.
func ChebyshevDist(a, b Pos) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d)", g.Width, g.Height)
}

// AnyPassable reports whether the map has at least one passable tile.
// A map without one is malformed; the simulation degrades to uniform idle.
func (g *Grid) AnyPassable() bool {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Passable(Pos{x, y}) {
				return true
			}
		}
	}
	return false
}

// NearestPassable returns the closest passable tile to p within maxRadius,
// scanning outward ring by ring. Returns p itself when already passable.
func (g *Grid) NearestPassable(p Pos, maxRadius int) (Pos, bool) {
	if g.Passable(p) {
		return p, true
	}
	for r := 1; r <= maxRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx > -r && dx < r && dy > -r && dy < r {
					continue // interior of the ring, already scanned
				}
				c := Pos{p.X + dx, p.Y + dy}
				if g.Passable(c) {
					return c, true
				}
			}
		}
	}
	return Pos{}, false
}
