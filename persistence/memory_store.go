package persistence

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"mazebound/server/models"
)

// MemoryStore implements Storage with in-process maps. It backs local
// development (DB_TYPE=memory) and the service tests; the dungeon core never
// notices the difference since it only talks to the Storage interface.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*models.User
	characters map[string]*models.Character
	items      map[string]*models.Item
	inventory  map[string]*models.InventoryEntry
	sessions   map[string]*models.DungeonRecord
	rng        *rand.Rand
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*models.User),
		characters: make(map[string]*models.Character),
		items:      make(map[string]*models.Item),
		inventory:  make(map[string]*models.InventoryEntry),
		sessions:   make(map[string]*models.DungeonRecord),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// PutUser inserts or replaces a user, assigning an id if empty.
func (s *MemoryStore) PutUser(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	s.users[u.ID] = u
	return u
}

// PutCharacter inserts or replaces a character, assigning an id if empty.
func (s *MemoryStore) PutCharacter(c *models.Character) *models.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	if c.LastPlayed.IsZero() {
		c.LastPlayed = time.Now()
	}
	s.characters[c.ID] = c
	return c
}

// PutItem inserts or replaces an item, assigning an id if empty.
func (s *MemoryStore) PutItem(item *models.Item) *models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = newID()
	}
	s.items[item.ID] = item
	return item
}

// PutInventoryEntry inserts an inventory stack directly, assigning an id if
// empty. The referenced item must already exist.
func (s *MemoryStore) PutInventoryEntry(e *models.InventoryEntry) *models.InventoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	if item, ok := s.items[e.ItemID]; ok {
		e.Item = *item
	}
	s.inventory[e.ID] = e
	return e
}

// DungeonRecord reads back a stored session record.
func (s *MemoryStore) DungeonRecord(sessionID string) (*models.DungeonRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	clone := *rec
	return &clone, true
}

func (s *MemoryStore) CharacterByID(ctx context.Context, id string) (*models.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.characters[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *MemoryStore) LatestCharacterByUsername(ctx context.Context, username string) (*models.User, *models.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var user *models.User
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			user = u
			break
		}
	}
	if user == nil {
		return nil, nil, ErrNotFound
	}

	var latest *models.Character
	for _, c := range s.characters {
		if c.UserID != user.ID {
			continue
		}
		if latest == nil || c.LastPlayed.After(latest.LastPlayed) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil, ErrNotFound
	}

	u, c := *user, *latest
	return &u, &c, nil
}

func (s *MemoryStore) AddExperience(ctx context.Context, characterID string, xp int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[characterID]
	if !ok {
		return 0, 0, ErrNotFound
	}
	c.Experience += xp
	return c.Level, c.Experience, nil
}

func (s *MemoryStore) ApplyProgression(ctx context.Context, characterID string, level, experience, healthGain, attackGain, defenseGain int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[characterID]
	if !ok {
		return ErrNotFound
	}
	c.Level = level
	c.Experience = experience
	c.MaxHealth += healthGain
	c.Health = c.MaxHealth
	c.BaseAttack += attackGain
	c.BaseDefense += defenseGain
	return nil
}

func (s *MemoryStore) ReduceHealth(ctx context.Context, characterID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[characterID]
	if !ok {
		return 0, ErrNotFound
	}
	c.Health -= amount
	if c.Health < 0 {
		c.Health = 0
	}
	return c.Health, nil
}

func (s *MemoryStore) SetHealth(ctx context.Context, characterID string, health int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[characterID]
	if !ok {
		return ErrNotFound
	}
	c.Health = health
	return nil
}

func (s *MemoryStore) HealToFull(ctx context.Context, characterID string) (*models.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.characters[characterID]
	if !ok {
		return nil, ErrNotFound
	}
	c.Health = c.MaxHealth
	clone := *c
	return &clone, nil
}

func (s *MemoryStore) Inventory(ctx context.Context, characterID string) ([]models.InventoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.InventoryEntry, 0)
	for _, e := range s.inventory {
		if e.CharacterID == characterID {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Item, entries[j].Item
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Rarity != b.Rarity {
			return a.Rarity > b.Rarity
		}
		return a.Name < b.Name
	})
	return entries, nil
}

func (s *MemoryStore) InventoryEntry(ctx context.Context, entryID, characterID string) (*models.InventoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.inventory[entryID]
	if !ok || e.CharacterID != characterID {
		return nil, ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (s *MemoryStore) GrantItem(ctx context.Context, characterID, itemID string) (*models.InventoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, ErrNotFound
	}

	for _, e := range s.inventory {
		if e.CharacterID == characterID && e.ItemID == itemID {
			e.Quantity++
			clone := *e
			return &clone, nil
		}
	}

	e := &models.InventoryEntry{
		ID:          newID(),
		CharacterID: characterID,
		ItemID:      itemID,
		Quantity:    1,
		Item:        *item,
	}
	s.inventory[e.ID] = e
	clone := *e
	return &clone, nil
}

func (s *MemoryStore) ConsumeOne(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.inventory[entryID]
	if !ok {
		return ErrNotFound
	}
	if e.Quantity > 1 {
		e.Quantity--
		return nil
	}
	delete(s.inventory, entryID)
	return nil
}

func (s *MemoryStore) SetEquipped(ctx context.Context, entryID string, equipped bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.inventory[entryID]
	if !ok {
		return ErrNotFound
	}
	e.Equipped = equipped
	return nil
}

func (s *MemoryStore) UnequipOthers(ctx context.Context, characterID, itemType, keepEntryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.inventory {
		if e.CharacterID == characterID && e.Item.Type == itemType && e.ID != keepEntryID {
			e.Equipped = false
		}
	}
	return nil
}

func (s *MemoryStore) EquippedBonuses(ctx context.Context, characterID string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var attack, defense int
	for _, e := range s.inventory {
		if e.CharacterID != characterID || !e.Equipped {
			continue
		}
		switch e.Item.Type {
		case models.ItemWeapon:
			attack += e.Item.EffectValue
		case models.ItemArmor:
			defense += e.Item.EffectValue
		}
	}
	return attack, defense, nil
}

func (s *MemoryStore) RandomItemByRarity(ctx context.Context, rarity string) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]*models.Item, 0)
	for _, item := range s.items {
		if item.Rarity == rarity {
			matches = append(matches, item)
		}
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	clone := *matches[s.rng.Intn(len(matches))]
	return &clone, nil
}

func (s *MemoryStore) CreateDungeonSession(ctx context.Context, rec *models.DungeonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = newID()
	}
	rec.Active = true
	rec.StartedAt = time.Now()
	clone := *rec
	s.sessions[rec.ID] = &clone
	return nil
}

func (s *MemoryStore) EndDungeonSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	rec.Active = false
	rec.EndedAt = &now
	return nil
}

func (s *MemoryStore) DungeonSessionActive(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return false, ErrNotFound
	}
	return rec.Active, nil
}

func (s *MemoryStore) IncrementEnemiesKilled(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	rec.EnemiesKilled++
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
