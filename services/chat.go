package services

import (
	"strings"
	"time"

	"mazebound/server/messages"
	"mazebound/server/models"
)

const maxChatLength = 200

// GlobalChat relays a message to every connected player. Anonymous or empty
// messages are dropped silently.
func (g *GameService) GlobalChat(user *models.User, message string) {
	payload, ok := chatPayload(user, message)
	if !ok {
		return
	}
	g.rooms.BroadcastRoom(GlobalRoom, messages.New(messages.TypeGlobalChat, payload))
}

// PartyChat relays a message to everyone in one dungeon session's room.
func (g *GameService) PartyChat(user *models.User, sessionID, message string) {
	payload, ok := chatPayload(user, message)
	if !ok || sessionID == "" {
		return
	}
	session, ok := g.registry.Get(sessionID)
	if !ok {
		return
	}
	g.rooms.BroadcastRoom(session.Room(), messages.New(messages.TypePartyChat, payload))
}

func chatPayload(user *models.User, message string) (messages.ChatBroadcastPayload, bool) {
	if user == nil || user.Username == "" {
		return messages.ChatBroadcastPayload{}, false
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return messages.ChatBroadcastPayload{}, false
	}
	return messages.ChatBroadcastPayload{
		Username: user.Username,
		Message:  truncateRunes(message, maxChatLength),
		At:       time.Now().UTC().Format(time.RFC3339),
	}, true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
