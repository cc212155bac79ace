package models

// Cell values inside a maze layout. The layout is indexed Layout[y][x].
const (
	CellOpen = 0
	CellWall = 1
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Maze is an odd-by-odd grid of open and wall cells. The seed that produced
// the layout is recorded so a run can be reproduced.
type Maze struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Seed   string  `json:"seed"`
	Layout [][]int `json:"layout"`
}

// IsOpen reports whether (x, y) is inside the grid and walkable.
func (m *Maze) IsOpen(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height && m.Layout[y][x] == CellOpen
}

// SpawnPoint is where players enter the maze.
func (m *Maze) SpawnPoint() Position {
	return Position{X: 1, Y: 1}
}

// ExitPoint is the interior goal cell players must reach to finish.
func (m *Maze) ExitPoint() Position {
	return Position{X: m.Width - 2, Y: m.Height - 2}
}
