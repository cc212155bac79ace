package services

import (
	"hash/fnv"
	"math/rand"
	"strconv"
	"time"

	"mazebound/server/models"
)

// GenerateMaze carves a maze with a randomized depth-first backtracker. Both
// dimensions are forced odd so lattice cells sit two apart with one-cell walls
// between them; the walk itself guarantees every open cell is reachable from
// the (1,1) spawn. An empty seed picks one from the clock. The same seed
// always produces the same layout.
func GenerateMaze(width, height int, seed string) models.Maze {
	if seed == "" {
		seed = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	if width%2 == 0 {
		width++
	}
	if height%2 == 0 {
		height++
	}

	rng := rand.New(rand.NewSource(SeedToInt64(seed)))

	layout := make([][]int, height)
	for y := range layout {
		layout[y] = make([]int, width)
		for x := range layout[y] {
			layout[y][x] = models.CellWall
		}
	}

	type cell struct{ x, y int }
	directions := [4]cell{{0, -2}, {2, 0}, {0, 2}, {-2, 0}}

	layout[1][1] = models.CellOpen
	stack := []cell{{1, 1}}

	for len(stack) > 0 {
		current := stack[len(stack)-1]

		neighbors := make([]cell, 0, 4)
		for _, d := range directions {
			nx, ny := current.x+d.x, current.y+d.y
			if nx > 0 && nx < width-1 && ny > 0 && ny < height-1 && layout[ny][nx] == models.CellWall {
				neighbors = append(neighbors, cell{nx, ny})
			}
		}

		if len(neighbors) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		next := neighbors[rng.Intn(len(neighbors))]
		layout[(current.y+next.y)/2][(current.x+next.x)/2] = models.CellOpen
		layout[next.y][next.x] = models.CellOpen
		stack = append(stack, next)
	}

	// Entrance and exit openings on the border.
	layout[1][0] = models.CellOpen
	layout[height-2][width-1] = models.CellOpen

	return models.Maze{Width: width, Height: height, Seed: seed, Layout: layout}
}

// SeedToInt64 hashes an arbitrary seed string into a source for math/rand.
func SeedToInt64(seed string) int64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return int64(h.Sum64())
}
