package persistence

import (
	"context"
	"errors"

	"mazebound/server/models"
)

// ErrNotFound is returned when a requested row does not exist. Callers match
// it with errors.Is.
var ErrNotFound = errors.New("not found")

// Storage defines the interface for data persistence. Mutations that race
// with concurrent commands (health decrements, quantity upserts, exclusive
// equips) are expressed as single atomic operations at the store.
type Storage interface {
	// Characters.
	CharacterByID(ctx context.Context, id string) (*models.Character, error)
	// LatestCharacterByUsername resolves a case-insensitive username to that
	// user's most recently played character.
	LatestCharacterByUsername(ctx context.Context, username string) (*models.User, *models.Character, error)
	// AddExperience adds xp and returns the character's post-update level and
	// experience.
	AddExperience(ctx context.Context, characterID string, xp int) (level, experience int, err error)
	// ApplyProgression records a level-up: the new level and carried
	// experience plus stat increases. Health is set to the new max health.
	ApplyProgression(ctx context.Context, characterID string, level, experience, healthGain, attackGain, defenseGain int) error
	// ReduceHealth subtracts amount, flooring at zero, and returns the new health.
	ReduceHealth(ctx context.Context, characterID string, amount int) (int, error)
	SetHealth(ctx context.Context, characterID string, health int) error
	// HealToFull sets health to max health and returns the updated character.
	HealToFull(ctx context.Context, characterID string) (*models.Character, error)

	// Inventory.
	Inventory(ctx context.Context, characterID string) ([]models.InventoryEntry, error)
	InventoryEntry(ctx context.Context, entryID, characterID string) (*models.InventoryEntry, error)
	// GrantItem adds one unit of an item, creating the stack or incrementing
	// an existing one, and returns the resulting entry.
	GrantItem(ctx context.Context, characterID, itemID string) (*models.InventoryEntry, error)
	// ConsumeOne decrements a stack by one, deleting it at zero.
	ConsumeOne(ctx context.Context, entryID string) error
	SetEquipped(ctx context.Context, entryID string, equipped bool) error
	// UnequipOthers clears the equipped flag on every entry of the given item
	// type except keepEntryID.
	UnequipOthers(ctx context.Context, characterID, itemType, keepEntryID string) error
	// EquippedBonuses sums effect values over equipped weapons and armor.
	EquippedBonuses(ctx context.Context, characterID string) (attack, defense int, err error)
	RandomItemByRarity(ctx context.Context, rarity string) (*models.Item, error)

	// Dungeon session records.
	CreateDungeonSession(ctx context.Context, rec *models.DungeonRecord) error
	EndDungeonSession(ctx context.Context, sessionID string) error
	DungeonSessionActive(ctx context.Context, sessionID string) (bool, error)
	IncrementEnemiesKilled(ctx context.Context, sessionID string) error

	Close() error
}
