package services

// GlobalRoom is the chat room every authenticated connection joins.
const GlobalRoom = "global"

// Client is one connected player's outbound channel. Implemented by the
// websocket client handler; tests substitute an in-memory fake.
type Client interface {
	// ID identifies the underlying connection, not the user.
	ID() string
	UserID() string
	Username() string
	Send(v any) error
}

// Broadcaster fans events out to rooms and individual users. Sends are
// fire-and-forget: a slow or dead recipient never blocks the sender.
type Broadcaster interface {
	JoinRoom(room string, c Client)
	LeaveRoom(room string, c Client)
	BroadcastRoom(room string, v any)
	// BroadcastRoomExcept skips the connection with the given id, for events
	// the triggering player already learned about first-hand.
	BroadcastRoomExcept(room, exceptConnID string, v any)
	// SendToUser delivers to a user's connection if they are online. Returns
	// false when they are not; callers treat that as best-effort delivery.
	SendToUser(userID string, v any) bool
}
