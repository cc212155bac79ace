package models

// EnemyType describes one enemy archetype. Sessions stamp out Enemy instances
// from these at spawn time.
type EnemyType struct {
	Name   string `json:"name"`
	Health int    `json:"health"`
	Attack int    `json:"attack"`
	Sprite string `json:"sprite"`
	BaseXP int    `json:"baseXp"`
}

// Enemy is one live monster inside a dungeon session. Its ID is unique within
// the session only; enemies are never persisted.
type Enemy struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Sprite    string   `json:"sprite"`
	Health    int      `json:"health"`
	MaxHealth int      `json:"maxHealth"`
	Attack    int      `json:"attack"`
	Position  Position `json:"position"`
	Alive     bool     `json:"isAlive"`
}
