package handlers

import (
	"log/slog"
	"sync"

	"mazebound/server/services"
)

// ClientManager tracks connected clients, the user each belongs to, and named
// broadcast rooms (one per dungeon session plus the global chat room). It is
// the process's services.Broadcaster.
type ClientManager struct {
	mu      sync.RWMutex
	clients map[string]services.Client            // connection id -> client
	byUser  map[string]services.Client            // user id -> client
	rooms   map[string]map[string]services.Client // room -> connection id -> client
}

// NewClientManager creates an empty client manager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]services.Client),
		byUser:  make(map[string]services.Client),
		rooms:   make(map[string]map[string]services.Client),
	}
}

// AddClient registers a connected client. A user reconnecting replaces their
// previous entry in the user index.
func (cm *ClientManager) AddClient(c services.Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[c.ID()] = c
	if c.UserID() != "" {
		cm.byUser[c.UserID()] = c
	}
}

// RemoveClient drops a client from the manager and every room it was in.
func (cm *ClientManager) RemoveClient(c services.Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.clients, c.ID())
	if existing, ok := cm.byUser[c.UserID()]; ok && existing.ID() == c.ID() {
		delete(cm.byUser, c.UserID())
	}
	for room, members := range cm.rooms {
		delete(members, c.ID())
		if len(members) == 0 {
			delete(cm.rooms, room)
		}
	}
}

func (cm *ClientManager) JoinRoom(room string, c services.Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	members, ok := cm.rooms[room]
	if !ok {
		members = make(map[string]services.Client)
		cm.rooms[room] = members
	}
	members[c.ID()] = c
}

func (cm *ClientManager) LeaveRoom(room string, c services.Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	members, ok := cm.rooms[room]
	if !ok {
		return
	}
	delete(members, c.ID())
	if len(members) == 0 {
		delete(cm.rooms, room)
	}
}

// BroadcastRoom sends a message to every member of a room.
func (cm *ClientManager) BroadcastRoom(room string, msg any) {
	cm.broadcast(room, "", msg)
}

// BroadcastRoomExcept sends a message to every room member but one connection.
func (cm *ClientManager) BroadcastRoomExcept(room, exceptConnID string, msg any) {
	cm.broadcast(room, exceptConnID, msg)
}

func (cm *ClientManager) broadcast(room, exceptConnID string, msg any) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for id, c := range cm.rooms[room] {
		if id == exceptConnID {
			continue
		}
		if err := c.Send(msg); err != nil {
			slog.Warn("broadcast to client", slog.String("conn", id), slog.Any("error", err))
		}
	}
}

// SendToUser delivers a message to a user's connection if they are online.
func (cm *ClientManager) SendToUser(userID string, msg any) bool {
	cm.mu.RLock()
	c, ok := cm.byUser[userID]
	cm.mu.RUnlock()
	if !ok {
		return false
	}
	if err := c.Send(msg); err != nil {
		slog.Warn("send to user", slog.String("user", userID), slog.Any("error", err))
	}
	return true
}
