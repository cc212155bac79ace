package services

import (
	"context"

	"mazebound/server/messages"
	"mazebound/server/models"
	"mazebound/server/persistence"
)

// GameService executes dungeon commands. Callers are already authenticated;
// every command still verifies that the named character belongs to the
// calling user before touching anything.
type GameService struct {
	store    persistence.Storage
	registry *Registry
	rooms    Broadcaster
	loot     *LootService

	// seedFn supplies maze seeds; the default defers to the clock. Tests
	// override it for reproducible layouts.
	seedFn func() string
}

func NewGameService(store persistence.Storage, registry *Registry, rooms Broadcaster, loot *LootService) *GameService {
	return &GameService{
		store:    store,
		registry: registry,
		rooms:    rooms,
		loot:     loot,
		seedFn:   func() string { return "" },
	}
}

// authorize resolves and checks ownership of the character a command names.
func (g *GameService) authorize(ctx context.Context, user *models.User, characterID string) (*models.Character, error) {
	if user == nil {
		return nil, errUnauthenticated()
	}
	char, err := g.store.CharacterByID(ctx, characterID)
	if err != nil {
		return nil, storeErr(err, "Character not found", "Failed to load character")
	}
	if char.UserID != user.ID {
		return nil, errUnauthorized("Unauthorized: This character does not belong to you")
	}
	return char, nil
}

// removePlayerLocked takes a player out of a session and tears the session
// down once it is empty. Must be called with session.mu held.
func (g *GameService) removePlayerLocked(session *DungeonSession, player *PlayerState) {
	delete(session.players, player.CharacterID)
	g.registry.UnbindPlayer(player.CharacterID, player.Client.ID())
	g.rooms.LeaveRoom(session.Room(), player.Client)
	if len(session.players) == 0 {
		g.registry.Remove(session.ID)
	}
}

// characterView builds the character sheet clients render from.
func characterView(char *models.Character, bonusAttack, bonusDefense int) messages.CharacterView {
	return messages.CharacterView{
		ID:           char.ID,
		Name:         char.Name,
		Class:        char.Class,
		Level:        char.Level,
		Experience:   char.Experience,
		RequiredXP:   RequiredXP(char.Level),
		Health:       char.Health,
		MaxHealth:    char.MaxHealth,
		Attack:       char.BaseAttack,
		Defense:      char.BaseDefense,
		BonusAttack:  bonusAttack,
		BonusDefense: bonusDefense,
	}
}

// snapshotEnemiesLocked copies the enemy list for serialization outside the
// lock. Must be called with session.mu held.
func (s *DungeonSession) snapshotEnemiesLocked() []*models.Enemy {
	out := make([]*models.Enemy, 0, len(s.enemies))
	for _, e := range s.enemies {
		clone := *e
		out = append(out, &clone)
	}
	return out
}
