package world

import "math/rand"

// GenConfig parameterizes one-shot world generation (spec.md §4.1).
type GenConfig struct {
	Size        int     // world side length W
	MineDensity float64 // fraction of tiles that are mines
	FlagDensity float64 // fraction of tiles that are flag tokens
	SpawnCount  int     // number of reserved spawn points
	SpawnMargin int     // margin, in tiles, kept clear of the world edge
}

// DefaultGenConfig returns the generation parameters named in spec.md §4.1.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Size:        1000,
		MineDensity: 0.075,
		FlagDensity: 0.02,
		SpawnCount:  10,
		SpawnMargin: 50,
	}
}

// spawnMinDistance is the Manhattan radius around every spawn point kept
// free of mines and flag tokens.
const spawnMinDistance = 2

// Generate deterministically builds a fully-populated world for the given
// seed, following spec.md §4.1 in order: spawn points, mines, flag
// tokens, neighbor numbers.
func Generate(cfg GenConfig, seed int64) *World {
	w := NewWorld(cfg.Size)

	rng := rand.New(rand.NewSource(seed))

	w.spawnPoints = placeSpawnPoints(cfg)
	for _, sp := range w.spawnPoints {
		w.SetTile(Tile{X: sp.X, Y: sp.Y, Kind: KindEmpty, Revealed: true})
	}

	occupied := make(map[Point]bool, len(w.spawnPoints))
	for _, sp := range w.spawnPoints {
		occupied[sp] = true
	}

	mineTarget := int(float64(cfg.Size*cfg.Size) * cfg.MineDensity)
	mines := make(map[Point]bool, mineTarget)
	for len(mines) < mineTarget {
		p := Point{X: rng.Intn(cfg.Size), Y: rng.Intn(cfg.Size)}
		if occupied[p] || mines[p] || nearAnySpawn(p, w.spawnPoints, spawnMinDistance) {
			continue
		}
		mines[p] = true
		w.SetTile(Tile{X: p.X, Y: p.Y, Kind: KindMine})
	}

	flagTarget := int(float64(cfg.Size*cfg.Size) * cfg.FlagDensity)
	flagTokens := make(map[Point]bool, flagTarget)
	for len(flagTokens) < flagTarget {
		p := Point{X: rng.Intn(cfg.Size), Y: rng.Intn(cfg.Size)}
		if occupied[p] || mines[p] || flagTokens[p] || nearAnySpawn(p, w.spawnPoints, spawnMinDistance) {
			continue
		}
		flagTokens[p] = true
		w.SetTile(Tile{X: p.X, Y: p.Y, Kind: KindFlagToken})
	}

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			p := Point{X: x, Y: y}
			if occupied[p] || mines[p] || flagTokens[p] {
				continue
			}
			n := countAdjacentMines(mines, x, y)
			if n > 0 {
				w.SetTile(Tile{X: x, Y: y, Kind: KindNumbered, Number: n})
			} else {
				w.SetTile(Tile{X: x, Y: y, Kind: KindEmpty})
			}
		}
	}

	w.totalMines = len(mines)
	w.flaggedMines = 0
	w.version = 0
	return w
}

// placeSpawnPoints lays spawn points on a ceil(sqrt(n))xceil(sqrt(n)) grid
// clamped into [margin, W-margin-1], per spec.md §4.1 step 1.
func placeSpawnPoints(cfg GenConfig) []Point {
	n := cfg.SpawnCount
	cols := isqrtCeil(n)
	lo := cfg.SpawnMargin
	hi := cfg.Size - cfg.SpawnMargin - 1
	if hi < lo {
		hi = lo
	}
	span := hi - lo

	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		row := i / cols
		col := i % cols
		var x, y int
		if cols > 1 {
			x = lo + (col*span)/(cols-1)
		} else {
			x = lo + span/2
		}
		rows := isqrtCeil(n)
		if rows > 1 {
			y = lo + (row*span)/(rows-1)
		} else {
			y = lo + span/2
		}
		if x < lo {
			x = lo
		}
		if x > hi {
			x = hi
		}
		if y < lo {
			y = lo
		}
		if y > hi {
			y = hi
		}
		points = append(points, Point{X: x, Y: y})
	}
	return points
}

func isqrtCeil(n int) int {
	c := 1
	for c*c < n {
		c++
	}
	if c == 0 {
		c = 1
	}
	return c
}

func nearAnySpawn(p Point, spawns []Point, radius int) bool {
	for _, sp := range spawns {
		if p == sp || ManhattanDistance(p, sp) <= radius {
			return true
		}
	}
	return false
}

// countAdjacentMines counts mines in the 8-neighborhood of (x,y). Cells
// outside [0,Size) are treated as non-mine, per spec.md §4.1 edge policy.
func countAdjacentMines(mines map[Point]bool, x, y int) int {
	count := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if mines[Point{X: x + dx, Y: y + dy}] {
				count++
			}
		}
	}
	return count
}
