package services

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"mazebound/server/messages"
	"mazebound/server/models"
	"mazebound/server/persistence"
)

// fakeClient records every message sent to one connection.
type fakeClient struct {
	id       string
	userID   string
	username string

	mu   sync.Mutex
	sent []messages.BaseMessage
}

func newFakeClient(id, userID, username string) *fakeClient {
	return &fakeClient{id: id, userID: userID, username: username}
}

func (c *fakeClient) ID() string       { return c.id }
func (c *fakeClient) UserID() string   { return c.userID }
func (c *fakeClient) Username() string { return c.username }

func (c *fakeClient) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, v.(messages.BaseMessage))
	return nil
}

func (c *fakeClient) ofType(t messages.MessageType) []messages.BaseMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []messages.BaseMessage
	for _, m := range c.sent {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeClient) lastOfType(t *testing.T, typ messages.MessageType) messages.BaseMessage {
	t.Helper()
	got := c.ofType(typ)
	require.NotEmpty(t, got, "no %s message sent", typ)
	return got[len(got)-1]
}

type roomBroadcast struct {
	room       string
	exceptConn string
	msg        messages.BaseMessage
}

// fakeBroadcaster records room membership and every fanned-out message.
type fakeBroadcaster struct {
	mu         sync.Mutex
	rooms      map[string]map[string]Client
	broadcasts []roomBroadcast
	userSends  map[string][]messages.BaseMessage
	online     map[string]bool
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		rooms:     make(map[string]map[string]Client),
		userSends: make(map[string][]messages.BaseMessage),
		online:    make(map[string]bool),
	}
}

func (b *fakeBroadcaster) JoinRoom(room string, c Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[string]Client)
	}
	b.rooms[room][c.ID()] = c
}

func (b *fakeBroadcaster) LeaveRoom(room string, c Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms[room], c.ID())
}

func (b *fakeBroadcaster) BroadcastRoom(room string, v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcasts = append(b.broadcasts, roomBroadcast{room: room, msg: v.(messages.BaseMessage)})
}

func (b *fakeBroadcaster) BroadcastRoomExcept(room, exceptConnID string, v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcasts = append(b.broadcasts, roomBroadcast{room: room, exceptConn: exceptConnID, msg: v.(messages.BaseMessage)})
}

func (b *fakeBroadcaster) SendToUser(userID string, v any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.online[userID] {
		return false
	}
	b.userSends[userID] = append(b.userSends[userID], v.(messages.BaseMessage))
	return true
}

func (b *fakeBroadcaster) inRoom(room, connID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.rooms[room][connID]
	return ok
}

func (b *fakeBroadcaster) roomMessages(room string, typ messages.MessageType) []roomBroadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []roomBroadcast
	for _, bc := range b.broadcasts {
		if bc.room == room && bc.msg.Type == typ {
			out = append(out, bc)
		}
	}
	return out
}

// gameFixture wires a GameService against a memory store with one user and
// one warrior character. The item catalog starts empty so drop rolls are
// no-ops; tests that need items put their own.
type gameFixture struct {
	store    *persistence.MemoryStore
	registry *Registry
	rooms    *fakeBroadcaster
	game     *GameService
	user     *models.User
	char     *models.Character
	client   *fakeClient
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()

	store := persistence.NewMemoryStore()
	user := store.PutUser(&models.User{Username: "tester"})
	health, attack, defense := models.ClassStats(models.ClassWarrior)
	char := store.PutCharacter(&models.Character{
		UserID:      user.ID,
		Name:        "Tess",
		Class:       models.ClassWarrior,
		Level:       1,
		Health:      health,
		MaxHealth:   health,
		BaseAttack:  attack,
		BaseDefense: defense,
	})

	registry := NewRegistry()
	rooms := newFakeBroadcaster()
	loot := NewLootService(store, rand.New(rand.NewSource(1)))
	game := NewGameService(store, registry, rooms, loot)
	game.seedFn = func() string { return "fixture-seed" }

	return &gameFixture{
		store:    store,
		registry: registry,
		rooms:    rooms,
		game:     game,
		user:     user,
		char:     char,
		client:   newFakeClient("conn-1", user.ID, user.Username),
	}
}

// start runs StartDungeon and returns the live session.
func (f *gameFixture) start(t *testing.T, difficulty int) *DungeonSession {
	t.Helper()
	require.NoError(t, f.game.StartDungeon(context.Background(), f.user, f.char.ID, difficulty, f.client))
	session, ok := f.registry.SessionForCharacter(f.char.ID)
	require.True(t, ok)
	return session
}

// clearEnemies marks every enemy in the session dead.
func clearEnemies(s *DungeonSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enemies {
		e.Alive = false
		e.Health = 0
	}
}

// placePlayer moves a player's cached position directly.
func placePlayer(s *DungeonSession, characterID string, pos models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[characterID].Position = pos
}

// openNeighbor finds a walkable cell next to from and the direction to it.
func openNeighbor(maze *models.Maze, from models.Position) (models.Position, string, bool) {
	candidates := []struct {
		pos       models.Position
		direction string
	}{
		{models.Position{X: from.X, Y: from.Y - 1}, "up"},
		{models.Position{X: from.X, Y: from.Y + 1}, "down"},
		{models.Position{X: from.X - 1, Y: from.Y}, "left"},
		{models.Position{X: from.X + 1, Y: from.Y}, "right"},
	}
	for _, c := range candidates {
		// Skip the border openings so a test move stays in the interior.
		if c.pos.X == 0 || c.pos.Y == 0 || c.pos.X == maze.Width-1 || c.pos.Y == maze.Height-1 {
			continue
		}
		if maze.IsOpen(c.pos.X, c.pos.Y) {
			return c.pos, c.direction, true
		}
	}
	return models.Position{}, "", false
}

// wallNeighbor finds a direction from from that runs into a wall.
func wallNeighbor(maze *models.Maze, from models.Position) (string, bool) {
	candidates := []struct {
		pos       models.Position
		direction string
	}{
		{models.Position{X: from.X, Y: from.Y - 1}, "up"},
		{models.Position{X: from.X, Y: from.Y + 1}, "down"},
		{models.Position{X: from.X - 1, Y: from.Y}, "left"},
		{models.Position{X: from.X + 1, Y: from.Y}, "right"},
	}
	for _, c := range candidates {
		if !maze.IsOpen(c.pos.X, c.pos.Y) {
			return c.direction, true
		}
	}
	return "", false
}
