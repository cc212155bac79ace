package models

import "time"

// User is the owner of one or more characters. Authentication happens outside
// this server; users only surface here as the identity a connection resolves to.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Character classes and their starting stats.
const (
	ClassWarrior = "warrior"
	ClassMage    = "mage"
	ClassRogue   = "rogue"
)

type Character struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Class       string    `json:"class"`
	Level       int       `json:"level"`
	Experience  int       `json:"experience"`
	Health      int       `json:"health"`
	MaxHealth   int       `json:"maxHealth"`
	BaseAttack  int       `json:"attack"`
	BaseDefense int       `json:"defense"`
	LastPlayed  time.Time `json:"lastPlayed"`
}

// ClassStats returns the starting health/attack/defense for a class.
func ClassStats(class string) (health, attack, defense int) {
	switch class {
	case ClassWarrior:
		return 150, 15, 10
	case ClassMage:
		return 80, 20, 3
	case ClassRogue:
		return 100, 18, 5
	default:
		return 100, 10, 5
	}
}
