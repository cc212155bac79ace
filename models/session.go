package models

import "time"

// DungeonRecord is the persisted audit row for a dungeon session. The live
// maze, enemies and players exist only in memory; this row outlives them so
// completed and abandoned runs stay queryable.
type DungeonRecord struct {
	ID            string     `json:"id"`
	CharacterID   string     `json:"characterId"`
	Difficulty    int        `json:"difficulty"`
	Seed          string     `json:"seed"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Active        bool       `json:"isActive"`
	EnemiesKilled int        `json:"enemiesKilled"`
	StartedAt     time.Time  `json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
}
