package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mazebound/server/models"
)

func TestGenerateMazeDeterministic(t *testing.T) {
	first := GenerateMaze(15, 15, "seed1")
	second := GenerateMaze(15, 15, "seed1")

	assert.Equal(t, first.Layout, second.Layout)
	assert.Equal(t, "seed1", first.Seed)

	other := GenerateMaze(15, 15, "seed2")
	assert.NotEqual(t, first.Layout, other.Layout)
}

func TestGenerateMazeForcesOddDimensions(t *testing.T) {
	tests := []struct {
		width, height         int
		wantWidth, wantHeight int
	}{
		{15, 15, 15, 15},
		{8, 8, 9, 9},
		{14, 15, 15, 15},
		{15, 20, 15, 21},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.width, tt.height), func(t *testing.T) {
			maze := GenerateMaze(tt.width, tt.height, "dims")
			assert.Equal(t, tt.wantWidth, maze.Width)
			assert.Equal(t, tt.wantHeight, maze.Height)
			require.Len(t, maze.Layout, tt.wantHeight)
			for _, row := range maze.Layout {
				assert.Len(t, row, tt.wantWidth)
			}
		})
	}
}

func TestGenerateMazeLandmarks(t *testing.T) {
	maze := GenerateMaze(15, 15, "landmarks")

	spawn := maze.SpawnPoint()
	exit := maze.ExitPoint()
	assert.Equal(t, models.Position{X: 1, Y: 1}, spawn)
	assert.Equal(t, models.Position{X: 13, Y: 13}, exit)
	assert.True(t, maze.IsOpen(spawn.X, spawn.Y))
	assert.True(t, maze.IsOpen(exit.X, exit.Y))

	// Border openings next to the spawn and exit corners.
	assert.Equal(t, models.CellOpen, maze.Layout[1][0])
	assert.Equal(t, models.CellOpen, maze.Layout[13][14])
}

func TestGenerateMazeEmptySeedPicksOne(t *testing.T) {
	maze := GenerateMaze(15, 15, "")
	assert.NotEmpty(t, maze.Seed)
}

// Every open cell must be reachable from the spawn. The border openings are
// dead ends into the frame, so the flood fill skips the outer ring.
func TestGenerateMazeFullyConnected(t *testing.T) {
	for _, seed := range []string{"a", "b", "c", "connectivity", "0"} {
		for _, size := range []int{15, 21, 31} {
			t.Run(fmt.Sprintf("%s/%d", seed, size), func(t *testing.T) {
				maze := GenerateMaze(size, size, seed)

				open := 0
				for y := 1; y < maze.Height-1; y++ {
					for x := 1; x < maze.Width-1; x++ {
						if maze.Layout[y][x] == models.CellOpen {
							open++
						}
					}
				}
				require.Positive(t, open)

				visited := make(map[models.Position]bool)
				stack := []models.Position{maze.SpawnPoint()}
				for len(stack) > 0 {
					p := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					if visited[p] || p.X < 1 || p.X >= maze.Width-1 || p.Y < 1 || p.Y >= maze.Height-1 || !maze.IsOpen(p.X, p.Y) {
						continue
					}
					visited[p] = true
					stack = append(stack,
						models.Position{X: p.X, Y: p.Y - 1},
						models.Position{X: p.X, Y: p.Y + 1},
						models.Position{X: p.X - 1, Y: p.Y},
						models.Position{X: p.X + 1, Y: p.Y},
					)
				}

				assert.Equal(t, open, len(visited), "unreachable open cells")
				assert.True(t, visited[maze.ExitPoint()])
			})
		}
	}
}

func TestSeedToInt64Stable(t *testing.T) {
	assert.Equal(t, SeedToInt64("seed1"), SeedToInt64("seed1"))
	assert.NotEqual(t, SeedToInt64("seed1"), SeedToInt64("seed2"))
}
