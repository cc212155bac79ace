package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // PostgreSQL driver

	"mazebound/server/models"
)

// PostgresStore implements Storage on top of PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and ensures the schema exists.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS characters (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		class TEXT NOT NULL,
		level INTEGER NOT NULL DEFAULT 1,
		experience INTEGER NOT NULL DEFAULT 0,
		health INTEGER NOT NULL,
		max_health INTEGER NOT NULL,
		base_attack INTEGER NOT NULL,
		base_defense INTEGER NOT NULL,
		last_played TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		effect_value INTEGER NOT NULL,
		sprite_icon TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		rarity TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS character_inventory (
		id TEXT PRIMARY KEY,
		character_id TEXT NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
		item_id TEXT NOT NULL REFERENCES items(id),
		quantity INTEGER NOT NULL DEFAULT 1,
		equipped BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE(character_id, item_id)
	);

	CREATE TABLE IF NOT EXISTS dungeon_sessions (
		id TEXT PRIMARY KEY,
		character_id TEXT NOT NULL REFERENCES characters(id),
		difficulty INTEGER NOT NULL,
		seed TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		enemies_killed INTEGER NOT NULL DEFAULT 0,
		started_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		ended_at TIMESTAMP WITH TIME ZONE
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

const characterColumns = `id, user_id, name, class, level, experience, health, max_health, base_attack, base_defense, last_played`

func scanCharacter(row *sql.Row) (*models.Character, error) {
	var c models.Character
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Class, &c.Level, &c.Experience,
		&c.Health, &c.MaxHealth, &c.BaseAttack, &c.BaseDefense, &c.LastPlayed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan character: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CharacterByID(ctx context.Context, id string) (*models.Character, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	return scanCharacter(row)
}

func (s *PostgresStore) LatestCharacterByUsername(ctx context.Context, username string) (*models.User, *models.Character, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, c.id, c.user_id, c.name, c.class, c.level, c.experience,
		       c.health, c.max_health, c.base_attack, c.base_defense, c.last_played
		FROM users u
		JOIN characters c ON c.user_id = u.id
		WHERE LOWER(u.username) = LOWER($1)
		ORDER BY c.last_played DESC
		LIMIT 1
	`, username)

	var u models.User
	var c models.Character
	err := row.Scan(&u.ID, &u.Username, &c.ID, &c.UserID, &c.Name, &c.Class, &c.Level,
		&c.Experience, &c.Health, &c.MaxHealth, &c.BaseAttack, &c.BaseDefense, &c.LastPlayed)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("lookup character by username: %w", err)
	}
	return &u, &c, nil
}

func (s *PostgresStore) AddExperience(ctx context.Context, characterID string, xp int) (int, int, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE characters
		SET experience = experience + $1
		WHERE id = $2
		RETURNING level, experience
	`, xp, characterID)

	var level, experience int
	if err := row.Scan(&level, &experience); err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, ErrNotFound
		}
		return 0, 0, fmt.Errorf("add experience: %w", err)
	}
	return level, experience, nil
}

func (s *PostgresStore) ApplyProgression(ctx context.Context, characterID string, level, experience, healthGain, attackGain, defenseGain int) error {
	// max_health on the right-hand side refers to the pre-update value, so
	// health lands exactly at the new max.
	_, err := s.db.ExecContext(ctx, `
		UPDATE characters
		SET level = $1,
		    experience = $2,
		    max_health = max_health + $3,
		    health = max_health + $3,
		    base_attack = base_attack + $4,
		    base_defense = base_defense + $5
		WHERE id = $6
	`, level, experience, healthGain, attackGain, defenseGain, characterID)
	if err != nil {
		return fmt.Errorf("apply progression: %w", err)
	}
	return nil
}

func (s *PostgresStore) ReduceHealth(ctx context.Context, characterID string, amount int) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE characters
		SET health = GREATEST(health - $1, 0)
		WHERE id = $2
		RETURNING health
	`, amount, characterID)

	var health int
	if err := row.Scan(&health); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("reduce health: %w", err)
	}
	return health, nil
}

func (s *PostgresStore) SetHealth(ctx context.Context, characterID string, health int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE characters SET health = $1 WHERE id = $2`, health, characterID)
	if err != nil {
		return fmt.Errorf("set health: %w", err)
	}
	return nil
}

func (s *PostgresStore) HealToFull(ctx context.Context, characterID string) (*models.Character, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE characters
		SET health = max_health
		WHERE id = $1
		RETURNING `+characterColumns+`
	`, characterID)
	return scanCharacter(row)
}

const inventoryColumns = `
	ci.id, ci.character_id, ci.item_id, ci.quantity, ci.equipped,
	i.id, i.name, i.type, i.effect_value, i.sprite_icon, i.description, i.rarity`

func scanInventoryEntry(scan func(dest ...any) error) (*models.InventoryEntry, error) {
	var e models.InventoryEntry
	err := scan(&e.ID, &e.CharacterID, &e.ItemID, &e.Quantity, &e.Equipped,
		&e.Item.ID, &e.Item.Name, &e.Item.Type, &e.Item.EffectValue,
		&e.Item.SpriteIcon, &e.Item.Description, &e.Item.Rarity)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan inventory entry: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) Inventory(ctx context.Context, characterID string) ([]models.InventoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM character_inventory ci
		JOIN items i ON i.id = ci.item_id
		WHERE ci.character_id = $1
		ORDER BY i.type, i.rarity DESC, i.name
	`, characterID)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	entries := make([]models.InventoryEntry, 0)
	for rows.Next() {
		e, err := scanInventoryEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) InventoryEntry(ctx context.Context, entryID, characterID string) (*models.InventoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM character_inventory ci
		JOIN items i ON i.id = ci.item_id
		WHERE ci.id = $1 AND ci.character_id = $2
	`, entryID, characterID)
	return scanInventoryEntry(row.Scan)
}

func (s *PostgresStore) GrantItem(ctx context.Context, characterID, itemID string) (*models.InventoryEntry, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO character_inventory (id, character_id, item_id, quantity)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (character_id, item_id)
		DO UPDATE SET quantity = character_inventory.quantity + 1
	`, newID(), characterID, itemID)
	if err != nil {
		return nil, fmt.Errorf("grant item: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+inventoryColumns+`
		FROM character_inventory ci
		JOIN items i ON i.id = ci.item_id
		WHERE ci.character_id = $1 AND ci.item_id = $2
	`, characterID, itemID)
	return scanInventoryEntry(row.Scan)
}

func (s *PostgresStore) ConsumeOne(ctx context.Context, entryID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE character_inventory SET quantity = quantity - 1
		WHERE id = $1 AND quantity > 1
	`, entryID)
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	res, err = s.db.ExecContext(ctx,
		`DELETE FROM character_inventory WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("delete inventory entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetEquipped(ctx context.Context, entryID string, equipped bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE character_inventory SET equipped = $1 WHERE id = $2`, equipped, entryID)
	if err != nil {
		return fmt.Errorf("set equipped: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnequipOthers(ctx context.Context, characterID, itemType, keepEntryID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE character_inventory ci
		SET equipped = FALSE
		FROM items i
		WHERE ci.item_id = i.id
		  AND ci.character_id = $1
		  AND i.type = $2
		  AND ci.id != $3
	`, characterID, itemType, keepEntryID)
	if err != nil {
		return fmt.Errorf("unequip others: %w", err)
	}
	return nil
}

func (s *PostgresStore) EquippedBonuses(ctx context.Context, characterID string) (int, int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.type, i.effect_value
		FROM character_inventory ci
		JOIN items i ON i.id = ci.item_id
		WHERE ci.character_id = $1 AND ci.equipped = TRUE AND i.type IN ('weapon', 'armor')
	`, characterID)
	if err != nil {
		return 0, 0, fmt.Errorf("query equipped bonuses: %w", err)
	}
	defer rows.Close()

	var attack, defense int
	for rows.Next() {
		var itemType string
		var effect int
		if err := rows.Scan(&itemType, &effect); err != nil {
			return 0, 0, fmt.Errorf("scan equipped bonus: %w", err)
		}
		switch itemType {
		case models.ItemWeapon:
			attack += effect
		case models.ItemArmor:
			defense += effect
		}
	}
	return attack, defense, rows.Err()
}

func (s *PostgresStore) RandomItemByRarity(ctx context.Context, rarity string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, effect_value, sprite_icon, description, rarity
		FROM items WHERE rarity = $1 ORDER BY RANDOM() LIMIT 1
	`, rarity)

	var item models.Item
	err := row.Scan(&item.ID, &item.Name, &item.Type, &item.EffectValue,
		&item.SpriteIcon, &item.Description, &item.Rarity)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pick random item: %w", err)
	}
	return &item, nil
}

func (s *PostgresStore) CreateDungeonSession(ctx context.Context, rec *models.DungeonRecord) error {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO dungeon_sessions (id, character_id, difficulty, seed, width, height)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING started_at
	`, rec.ID, rec.CharacterID, rec.Difficulty, rec.Seed, rec.Width, rec.Height)

	if err := row.Scan(&rec.StartedAt); err != nil {
		return fmt.Errorf("insert dungeon session: %w", err)
	}
	rec.Active = true
	return nil
}

func (s *PostgresStore) EndDungeonSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE dungeon_sessions
		SET ended_at = NOW(), is_active = FALSE
		WHERE id = $1
	`, sessionID)
	if err != nil {
		return fmt.Errorf("end dungeon session: %w", err)
	}
	return nil
}

func (s *PostgresStore) DungeonSessionActive(ctx context.Context, sessionID string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT is_active FROM dungeon_sessions WHERE id = $1`, sessionID)

	var active bool
	if err := row.Scan(&active); err != nil {
		if err == sql.ErrNoRows {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("query session active: %w", err)
	}
	return active, nil
}

func (s *PostgresStore) IncrementEnemiesKilled(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE dungeon_sessions
		SET enemies_killed = enemies_killed + 1
		WHERE id = $1
	`, sessionID)
	if err != nil {
		return fmt.Errorf("increment enemies killed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	slog.Info("closing database connection")
	return s.db.Close()
}
