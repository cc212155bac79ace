package services

import (
	"fmt"
	"math/rand"
	"sync"

	"mazebound/server/models"
)

// PlayerState is one character's transient view inside a dungeon session. It
// caches what combat needs (health, equipment bonuses) so the hot path reads
// memory; the persisted character row stays the source of truth and cache
// updates always follow the persisted write.
type PlayerState struct {
	CharacterID  string
	Name         string
	Class        string
	Position     models.Position
	Health       int
	BonusAttack  int
	BonusDefense int
	Client       Client
}

// DungeonSession owns one dungeon instance: its maze, enemies and connected
// players. All mutation happens under mu, which serializes commands for the
// session; the per-session RNG feeding damage jitter is covered by the same
// lock.
type DungeonSession struct {
	ID         string
	Difficulty int
	Maze       models.Maze

	mu      sync.Mutex
	rng     *rand.Rand
	enemies []*models.Enemy
	players map[string]*PlayerState
}

func newDungeonSession(id string, difficulty int, maze models.Maze) *DungeonSession {
	s := &DungeonSession{
		ID:         id,
		Difficulty: difficulty,
		Maze:       maze,
		rng:        rand.New(rand.NewSource(SeedToInt64(maze.Seed))),
		players:    make(map[string]*PlayerState),
	}
	s.enemies = spawnEnemies(&maze, difficulty, s.rng)
	return s
}

// Room names the broadcast group for this session.
func (s *DungeonSession) Room() string {
	return "dungeon_" + s.ID
}

// spawnEnemies places difficulty-scaled enemies on walkable cells, drawn
// without replacement and never on the spawn cell.
func spawnEnemies(maze *models.Maze, difficulty int, rng *rand.Rand) []*models.Enemy {
	spawn := maze.SpawnPoint()
	walkable := make([]models.Position, 0)
	for y := 0; y < maze.Height; y++ {
		for x := 0; x < maze.Width; x++ {
			if maze.Layout[y][x] == models.CellOpen && !(x == spawn.X && y == spawn.Y) {
				walkable = append(walkable, models.Position{X: x, Y: y})
			}
		}
	}

	count := 3 + 2*difficulty
	if count > len(walkable) {
		count = len(walkable)
	}
	tier := TierForDifficulty(difficulty)

	enemies := make([]*models.Enemy, 0, count)
	for i := 0; i < count; i++ {
		j := rng.Intn(len(walkable))
		pos := walkable[j]
		walkable = append(walkable[:j], walkable[j+1:]...)

		enemies = append(enemies, &models.Enemy{
			ID:        fmt.Sprintf("enemy_%d", i),
			Name:      tier.Name,
			Sprite:    tier.Sprite,
			Health:    tier.Health,
			MaxHealth: tier.Health,
			Attack:    tier.Attack,
			Position:  pos,
			Alive:     true,
		})
	}
	return enemies
}

// aliveEnemyCount must be called with s.mu held.
func (s *DungeonSession) aliveEnemyCount() int {
	n := 0
	for _, e := range s.enemies {
		if e.Alive {
			n++
		}
	}
	return n
}

// enemyAt must be called with s.mu held.
func (s *DungeonSession) enemyAt(pos models.Position) *models.Enemy {
	for _, e := range s.enemies {
		if e.Alive && e.Position == pos {
			return e
		}
	}
	return nil
}

// enemyByID must be called with s.mu held.
func (s *DungeonSession) enemyByID(id string) *models.Enemy {
	for _, e := range s.enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}
