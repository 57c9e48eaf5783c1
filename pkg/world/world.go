// Package world owns the shared grid of tiles and the position indices
// over it. It holds no lock of its own: every mutation is expected to run
// under the single writer lock held by the action pipeline (see pkg/game),
// mirroring the teacher's single exclusively-owned world value passed to
// every handler instead of an ambient singleton.
package world

import (
	"fmt"
	"math"
)

// Point is an integer grid coordinate.
type Point struct {
	X, Y int
}

// World is the process-wide grid plus the bookkeeping the spec assigns to
// the "world store": the tile grid, the spawn-point set, and a
// position->player-id index for O(1) occupancy lookups. The player
// registry (pkg/player) is the canonical owner of player records; World
// only tracks where they stand.
type World struct {
	Size int

	tiles        []Tile // flat grid, index y*Size+x
	spawnPoints  []Point
	totalMines   int
	flaggedMines int

	playerAt map[Point]string // position -> player id
	version  uint64
}

// NewWorld returns an empty, fully-covered grid of the given size with no
// mines, flag tokens, or spawn points set. Generate builds a populated
// world on top of this; direct callers (tests, tooling) can use it to
// assemble custom boards.
func NewWorld(size int) *World {
	w := &World{Size: size, tiles: make([]Tile, size*size), playerAt: make(map[Point]string)}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			w.tiles[w.index(x, y)] = Tile{X: x, Y: y, Kind: KindCovered}
		}
	}
	return w
}

// SetSpawnPoints overrides the spawn-point set (test/tooling helper).
func (w *World) SetSpawnPoints(pts []Point) { w.spawnPoints = pts }

// SetTotalMines overrides the mine-count cache (test/tooling helper; real
// world generation derives this from the mines it actually places).
func (w *World) SetTotalMines(n int) { w.totalMines = n }

// InBounds reports whether (x,y) lies within [0,Size).
func (w *World) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < w.Size && y < w.Size
}

func (w *World) index(x, y int) int { return y*w.Size + x }

// Tile returns the tile at (x,y). The second return is false if the
// coordinate is out of bounds.
func (w *World) Tile(x, y int) (Tile, bool) {
	if !w.InBounds(x, y) {
		return Tile{}, false
	}
	return w.tiles[w.index(x, y)], true
}

// SetTile overwrites the tile at (x,y). Callers must hold the writer lock.
func (w *World) SetTile(t Tile) {
	if !w.InBounds(t.X, t.Y) {
		return
	}
	w.tiles[w.index(t.X, t.Y)] = t
	w.version++
}

// SpawnPoints returns the reserved spawn locations. The slice is owned by
// World and must not be mutated by callers.
func (w *World) SpawnPoints() []Point {
	return w.spawnPoints
}

// TotalMines returns the mine count fixed at generation time.
func (w *World) TotalMines() int { return w.totalMines }

// FlaggedMines returns the count of mines correctly flagged so far.
func (w *World) FlaggedMines() int { return w.flaggedMines }

// MarkMineFlagged increments the flagged-mine counter. Callers must hold
// the writer lock and must only call this once per mine.
func (w *World) MarkMineFlagged() {
	w.flaggedMines++
	w.version++
}

// GameEnded reports whether every mine has been flagged.
func (w *World) GameEnded() bool {
	return w.totalMines-w.flaggedMines <= 0
}

// Progress returns the percentage of mines flagged so far, floored. The
// raw remaining-mine count is intentionally not exposed anywhere else.
func (w *World) Progress() int {
	if w.totalMines <= 0 {
		return 100
	}
	return int(math.Floor(float64(w.flaggedMines) / float64(w.totalMines) * 100))
}

// PlayerAt returns the id of the player standing at (x,y), if any.
func (w *World) PlayerAt(x, y int) (string, bool) {
	id, ok := w.playerAt[Point{x, y}]
	return id, ok
}

// SetPlayerAt records a player's occupancy of a tile, clearing any
// previous position for that player id. Callers must hold the writer
// lock.
func (w *World) SetPlayerAt(id string, from Point, to Point, hadFrom bool) {
	if hadFrom {
		if cur, ok := w.playerAt[from]; ok && cur == id {
			delete(w.playerAt, from)
		}
	}
	w.playerAt[to] = id
}

// ClearPlayer removes a player from the occupancy index entirely (used on
// eviction).
func (w *World) ClearPlayer(id string, at Point) {
	if cur, ok := w.playerAt[at]; ok && cur == id {
		delete(w.playerAt, at)
	}
}

// Version returns a monotonically increasing counter bumped on every
// mutation. It exists solely so callers can cheaply assert that no
// mutation occurred between two observations (e.g. two viewport reads).
func (w *World) Version() uint64 { return w.version }

// CountAdjacentMines counts mines in the 8-neighborhood of (x,y), the same
// rule generation used to compute numbered-tile counts (spec.md §4.1 step
// 4), reused here so a flag-token reveal can recompute the count of the
// cell it uncovers.
func (w *World) CountAdjacentMines(x, y int) int {
	count := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if t, ok := w.Tile(x+dx, y+dy); ok && t.Kind == KindMine {
				count++
			}
		}
	}
	return count
}

// ManhattanDistance returns |dx|+|dy| between two points.
func ManhattanDistance(a, b Point) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}
