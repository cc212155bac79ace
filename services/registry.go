package services

import "sync"

type connRef struct {
	sessionID   string
	characterID string
}

// Registry is the authoritative table of live dungeon sessions. It also keeps
// two secondary indexes guarded by the same lock: character id to session, so
// out-of-session commands (equip, use item) can refresh a live session's
// cache, and connection id to session, so a dropped connection is detached
// without scanning every session.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*DungeonSession
	byCharacter map[string]string
	byConn      map[string]connRef
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]*DungeonSession),
		byCharacter: make(map[string]string),
		byConn:      make(map[string]connRef),
	}
}

func (r *Registry) Add(s *DungeonSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *Registry) Get(sessionID string) (*DungeonSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// BindPlayer records that a character, reached through a connection, is
// playing in a session.
func (r *Registry) BindPlayer(characterID, sessionID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCharacter[characterID] = sessionID
	r.byConn[connID] = connRef{sessionID: sessionID, characterID: characterID}
}

// UnbindPlayer drops both indexes for a character/connection pair.
func (r *Registry) UnbindPlayer(characterID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byCharacter, characterID)
	delete(r.byConn, connID)
}

// SessionForCharacter finds the live session a character is currently in.
func (r *Registry) SessionForCharacter(characterID string) (*DungeonSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessionID, ok := r.byCharacter[characterID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[sessionID]
	return s, ok
}

// SessionForConnection finds the session and character bound to a connection.
func (r *Registry) SessionForConnection(connID string) (*DungeonSession, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.byConn[connID]
	if !ok {
		return nil, "", false
	}
	s, ok := r.sessions[ref.sessionID]
	if !ok {
		return nil, "", false
	}
	return s, ref.characterID, true
}

// Count reports the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
