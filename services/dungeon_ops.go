package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"mazebound/server/messages"
	"mazebound/server/models"
)

// StartDungeon generates a maze scaled to the requested difficulty, spawns
// enemies, records the session and places the caller at the spawn point.
func (g *GameService) StartDungeon(ctx context.Context, user *models.User, characterID string, difficulty int, client Client) error {
	char, err := g.authorize(ctx, user, characterID)
	if err != nil {
		return err
	}
	if difficulty < 0 {
		return errInvalidState("Difficulty must be zero or greater")
	}

	size := 15 + 2*difficulty
	maze := GenerateMaze(size, size, g.seedFn())

	rec := &models.DungeonRecord{
		ID:          uuid.NewString(),
		CharacterID: characterID,
		Difficulty:  difficulty,
		Seed:        maze.Seed,
		Width:       maze.Width,
		Height:      maze.Height,
	}
	if err := g.store.CreateDungeonSession(ctx, rec); err != nil {
		return errPersistence("Failed to start dungeon", err)
	}

	bonusAttack, bonusDefense, err := g.store.EquippedBonuses(ctx, characterID)
	if err != nil {
		return errPersistence("Failed to start dungeon", err)
	}
	inventory, err := g.store.Inventory(ctx, characterID)
	if err != nil {
		return errPersistence("Failed to start dungeon", err)
	}

	session := newDungeonSession(rec.ID, difficulty, maze)

	session.mu.Lock()
	session.players[characterID] = &PlayerState{
		CharacterID:  characterID,
		Name:         char.Name,
		Class:        char.Class,
		Position:     maze.SpawnPoint(),
		Health:       char.Health,
		BonusAttack:  bonusAttack,
		BonusDefense: bonusDefense,
		Client:       client,
	}
	enemies := session.snapshotEnemiesLocked()
	session.mu.Unlock()

	g.registry.Add(session)
	g.registry.BindPlayer(characterID, session.ID, client.ID())
	g.rooms.JoinRoom(session.Room(), client)

	slog.Info("dungeon started",
		slog.String("session", session.ID),
		slog.String("character", characterID),
		slog.Int("difficulty", difficulty),
		slog.String("seed", maze.Seed),
	)

	return client.Send(messages.New(messages.TypeDungeonReady, messages.DungeonReadyPayload{
		SessionID:  session.ID,
		Maze:       maze.Layout,
		Enemies:    enemies,
		SpawnPoint: maze.SpawnPoint(),
		ExitPoint:  maze.ExitPoint(),
		Inventory:  inventory,
		Character:  characterView(char, bonusAttack, bonusDefense),
	}))
}

// Move steps a player one cell. Moves into walls, out of bounds or with an
// unrecognized direction are silent no-ops. Reaching the exit with enemies
// still alive blocks; with the dungeon cleared it completes the run.
func (g *GameService) Move(ctx context.Context, user *models.User, sessionID, characterID, direction string, client Client) error {
	if _, err := g.authorize(ctx, user, characterID); err != nil {
		return err
	}
	session, ok := g.registry.Get(sessionID)
	if !ok {
		return errNotFound("Dungeon not found")
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	player, ok := session.players[characterID]
	if !ok {
		return errInvalidState("You are not in this dungeon")
	}

	next := player.Position
	switch direction {
	case "up":
		next.Y--
	case "down":
		next.Y++
	case "left":
		next.X--
	case "right":
		next.X++
	default:
		return nil
	}
	if !session.Maze.IsOpen(next.X, next.Y) {
		return nil
	}

	player.Position = next
	g.rooms.BroadcastRoom(session.Room(), messages.New(messages.TypePlayerMoved, messages.PlayerMovedPayload{
		CharacterID: characterID,
		Position:    next,
	}))

	if enemy := session.enemyAt(next); enemy != nil {
		clone := *enemy
		_ = client.Send(messages.New(messages.TypeEnemyEncounter, messages.EnemyEncounterPayload{Enemy: &clone}))
	}

	if next != session.Maze.ExitPoint() {
		return nil
	}

	if remaining := session.aliveEnemyCount(); remaining > 0 {
		_ = client.Send(messages.New(messages.TypeExitBlocked, exitBlocked(remaining)))
		return nil
	}

	char, err := g.store.HealToFull(ctx, characterID)
	if err != nil {
		return errPersistence("Failed to complete dungeon", err)
	}
	if err := g.store.EndDungeonSession(ctx, sessionID); err != nil {
		return errPersistence("Failed to complete dungeon", err)
	}

	_ = client.Send(messages.New(messages.TypeDungeonCompleted, messages.DungeonCompletedPayload{
		SessionID: sessionID,
		Message:   "Victory! You escaped the dungeon!",
		Healed:    true,
		Health:    char.Health,
		MaxHealth: char.MaxHealth,
	}))
	g.removePlayerLocked(session, player)
	return nil
}

func exitBlocked(remaining int) messages.ExitBlockedPayload {
	return messages.ExitBlockedPayload{
		Message:   fmt.Sprintf("Defeat all monsters first! %d remaining.", remaining),
		Remaining: remaining,
	}
}

// Attack resolves one swing at a living enemy, and the enemy's counter-attack
// if it survives. Persisted writes land before the in-memory mirrors so a
// failed store call fails the command without leaving the two divergent.
func (g *GameService) Attack(ctx context.Context, user *models.User, sessionID, characterID, enemyID string, client Client) error {
	char, err := g.authorize(ctx, user, characterID)
	if err != nil {
		return err
	}
	session, ok := g.registry.Get(sessionID)
	if !ok {
		return errNotFound("Dungeon not found")
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	enemy := session.enemyByID(enemyID)
	if enemy == nil || !enemy.Alive {
		return errNotFound("Enemy not found")
	}
	player, ok := session.players[characterID]
	if !ok {
		return errInvalidState("You are not in this dungeon")
	}

	damage := AttackDamage(char.BaseAttack+player.BonusAttack, session.rng)
	remaining := enemy.Health - damage

	if remaining <= 0 {
		return g.resolveKill(ctx, session, player, char, enemy, client)
	}

	enemy.Health = remaining
	g.rooms.BroadcastRoom(session.Room(), messages.New(messages.TypeCombatUpdate, messages.CombatUpdatePayload{
		EnemyID: enemy.ID,
		Damage:  damage,
		Health:  remaining,
	}))

	counter := CounterDamage(enemy.Attack, player.BonusDefense, session.rng)
	newHealth, err := g.store.ReduceHealth(ctx, characterID, counter)
	if err != nil {
		return errPersistence("Failed to process attack", err)
	}
	player.Health = newHealth

	g.rooms.BroadcastRoom(session.Room(), messages.New(messages.TypePlayerDamaged, messages.PlayerDamagedPayload{
		CharacterID: characterID,
		Damage:      counter,
		Health:      newHealth,
		MaxHealth:   char.MaxHealth,
		EnemyName:   enemy.Name,
	}))

	if newHealth > 0 {
		return nil
	}

	healed, err := g.store.HealToFull(ctx, characterID)
	if err != nil {
		return errPersistence("Failed to process attack", err)
	}
	if err := g.store.EndDungeonSession(ctx, session.ID); err != nil {
		slog.Warn("mark session ended failed", slog.String("session", session.ID), slog.Any("error", err))
	}

	_ = client.Send(messages.New(messages.TypePlayerDied, messages.PlayerDiedPayload{
		CharacterID: characterID,
		Message:     "You have been defeated!",
		Healed:      true,
		Health:      healed.Health,
		MaxHealth:   healed.MaxHealth,
	}))
	g.removePlayerLocked(session, player)
	return nil
}

// resolveKill settles a killing blow: XP award, leveling, kill counter, loot
// roll and the fanout. Must be called with session.mu held.
func (g *GameService) resolveKill(ctx context.Context, session *DungeonSession, player *PlayerState, char *models.Character, enemy *models.Enemy, client Client) error {
	xp := EnemyXP(enemy.Name, session.Difficulty)

	level, experience, err := g.store.AddExperience(ctx, char.ID, xp)
	if err != nil {
		return errPersistence("Failed to process attack", err)
	}
	up := ResolveLevelUps(level, experience)
	if up.LeveledUp {
		err := g.store.ApplyProgression(ctx, char.ID, up.NewLevel, up.RemainingXP,
			up.HealthIncrease, up.AttackIncrease, up.DefenseIncrease)
		if err != nil {
			return errPersistence("Failed to process attack", err)
		}
	}
	if err := g.store.IncrementEnemiesKilled(ctx, session.ID); err != nil {
		// Audit counter only; the kill itself already stuck.
		slog.Warn("increment kill counter failed", slog.String("session", session.ID), slog.Any("error", err))
	}

	enemy.Health = 0
	enemy.Alive = false

	g.rooms.BroadcastRoom(session.Room(), messages.New(messages.TypeEnemyDefeated, messages.EnemyDefeatedPayload{
		EnemyID:    enemy.ID,
		KilledBy:   char.ID,
		XPGained:   xp,
		CurrentXP:  up.RemainingXP,
		RequiredXP: RequiredXP(up.NewLevel),
		Level:      up.NewLevel,
	}))

	drop, err := g.loot.RollDrop(ctx, char.ID, session.Difficulty)
	if err != nil {
		slog.Warn("item drop failed", slog.String("character", char.ID), slog.Any("error", err))
	} else if drop != nil {
		_ = client.Send(messages.New(messages.TypeItemDropped, messages.ItemDroppedPayload{
			InventoryID: drop.ID,
			Quantity:    drop.Quantity,
			Item:        drop.Item,
		}))
	}

	if up.LeveledUp {
		newMax := char.MaxHealth + up.HealthIncrease
		player.Health = newMax
		_ = client.Send(messages.New(messages.TypeLevelUp, messages.LevelUpPayload{
			NewLevel: up.NewLevel,
			Stats: messages.LevelUpStats{
				HealthIncrease:  up.HealthIncrease,
				AttackIncrease:  up.AttackIncrease,
				DefenseIncrease: up.DefenseIncrease,
			},
			CurrentXP:  up.RemainingXP,
			RequiredXP: RequiredXP(up.NewLevel),
			MaxHealth:  newMax,
			Attack:     char.BaseAttack + up.AttackIncrease,
			Defense:    char.BaseDefense + up.DefenseIncrease,
		}))
	}
	return nil
}

// LeaveDungeon lets a player out once every enemy is down, healing them and
// closing out the session record.
func (g *GameService) LeaveDungeon(ctx context.Context, user *models.User, sessionID, characterID string, client Client) error {
	if _, err := g.authorize(ctx, user, characterID); err != nil {
		return err
	}

	session, ok := g.registry.Get(sessionID)
	if ok {
		session.mu.Lock()
		defer session.mu.Unlock()

		if remaining := session.aliveEnemyCount(); remaining > 0 {
			_ = client.Send(messages.New(messages.TypeExitBlocked, exitBlocked(remaining)))
			return nil
		}
		if _, err := g.store.HealToFull(ctx, characterID); err != nil {
			return errPersistence("Failed to leave dungeon", err)
		}
		if err := g.store.EndDungeonSession(ctx, sessionID); err != nil {
			return errPersistence("Failed to leave dungeon", err)
		}
		if player, ok := session.players[characterID]; ok {
			g.removePlayerLocked(session, player)
		}
		return nil
	}

	// No live session; still settle the character and the record.
	if _, err := g.store.HealToFull(ctx, characterID); err != nil {
		return errPersistence("Failed to leave dungeon", err)
	}
	if err := g.store.EndDungeonSession(ctx, sessionID); err != nil {
		return errPersistence("Failed to leave dungeon", err)
	}
	return nil
}

// JoinDungeon drops a character into a friend's already-running session. The
// joiner gets the full snapshot plus the other players' positions; the room
// learns about the newcomer.
func (g *GameService) JoinDungeon(ctx context.Context, user *models.User, sessionID, characterID string, client Client) error {
	char, err := g.authorize(ctx, user, characterID)
	if err != nil {
		return err
	}

	session, ok := g.registry.Get(sessionID)
	if !ok {
		return errNotFound("Dungeon not found. Check your code.")
	}

	active, err := g.store.DungeonSessionActive(ctx, sessionID)
	if err != nil {
		return storeErr(err, "That dungeon session has ended.", "Failed to join dungeon")
	}
	if !active {
		return errInvalidState("That dungeon session has ended.")
	}

	bonusAttack, bonusDefense, err := g.store.EquippedBonuses(ctx, characterID)
	if err != nil {
		return errPersistence("Failed to join dungeon", err)
	}
	inventory, err := g.store.Inventory(ctx, characterID)
	if err != nil {
		return errPersistence("Failed to join dungeon", err)
	}

	spawn := session.Maze.SpawnPoint()

	session.mu.Lock()
	session.players[characterID] = &PlayerState{
		CharacterID:  characterID,
		Name:         char.Name,
		Class:        char.Class,
		Position:     spawn,
		Health:       char.Health,
		BonusAttack:  bonusAttack,
		BonusDefense: bonusDefense,
		Client:       client,
	}
	enemies := session.snapshotEnemiesLocked()
	others := make([]messages.PlayerJoinedPayload, 0, len(session.players)-1)
	for id, p := range session.players {
		if id == characterID {
			continue
		}
		others = append(others, messages.PlayerJoinedPayload{
			CharacterID:    p.CharacterID,
			CharacterName:  p.Name,
			CharacterClass: p.Class,
			Position:       p.Position,
		})
	}
	session.mu.Unlock()

	g.registry.BindPlayer(characterID, session.ID, client.ID())
	g.rooms.JoinRoom(session.Room(), client)

	_ = client.Send(messages.New(messages.TypeDungeonReady, messages.DungeonReadyPayload{
		SessionID:  session.ID,
		Maze:       session.Maze.Layout,
		Enemies:    enemies,
		SpawnPoint: spawn,
		ExitPoint:  session.Maze.ExitPoint(),
		Inventory:  inventory,
		Character:  characterView(char, bonusAttack, bonusDefense),
	}))

	g.rooms.BroadcastRoomExcept(session.Room(), client.ID(), messages.New(messages.TypePlayerJoined, messages.PlayerJoinedPayload{
		CharacterID:    char.ID,
		CharacterName:  char.Name,
		CharacterClass: char.Class,
		Position:       spawn,
	}))

	if len(others) > 0 {
		_ = client.Send(messages.New(messages.TypeExistingPlayers, others))
	}
	return nil
}

// Disconnect detaches a dropped connection from whatever session it was in.
// Immediate and unannounced beyond one playerLeft broadcast.
func (g *GameService) Disconnect(client Client) {
	session, characterID, ok := g.registry.SessionForConnection(client.ID())
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	player, ok := session.players[characterID]
	if !ok || player.Client.ID() != client.ID() {
		return
	}

	g.rooms.BroadcastRoomExcept(session.Room(), client.ID(), messages.New(messages.TypePlayerLeft, messages.PlayerLeftPayload{
		CharacterID: characterID,
	}))
	g.removePlayerLocked(session, player)
}
