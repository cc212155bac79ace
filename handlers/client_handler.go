package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"mazebound/server/messages"
	"mazebound/server/models"
	"mazebound/server/network"
	"mazebound/server/services"
)

// ClientHandler manages a single client connection: it decodes inbound
// commands, dispatches them to the game service and translates failures into
// private error events. It is also the services.Client for this connection.
type ClientHandler struct {
	conn    *network.Connection
	user    *models.User // nil when identity resolution failed
	game    *services.GameService
	manager *ClientManager
	timeout time.Duration
}

// HandleClientConnection runs a client connection to completion. The user is
// whatever the identity provider resolved at upgrade time; nil means every
// command will be rejected as unauthenticated.
func HandleClientConnection(wsConn *websocket.Conn, user *models.User, game *services.GameService, manager *ClientManager, commandTimeout time.Duration) {
	conn := network.NewConnection(wsConn)
	h := &ClientHandler{
		conn:    conn,
		user:    user,
		game:    game,
		manager: manager,
		timeout: commandTimeout,
	}

	manager.AddClient(h)
	if user != nil {
		manager.JoinRoom(services.GlobalRoom, h)
		slog.Info("client connected", slog.String("conn", conn.ID()), slog.String("user", user.ID))
	} else {
		slog.Info("client connected unauthenticated", slog.String("conn", conn.ID()))
	}

	go conn.WritePump()
	conn.ReadPump(h)

	game.Disconnect(h)
	manager.RemoveClient(h)
	slog.Info("client disconnected", slog.String("conn", conn.ID()))
}

// ID implements services.Client.
func (h *ClientHandler) ID() string { return h.conn.ID() }

// UserID implements services.Client.
func (h *ClientHandler) UserID() string {
	if h.user == nil {
		return ""
	}
	return h.user.ID
}

// Username implements services.Client.
func (h *ClientHandler) Username() string {
	if h.user == nil {
		return ""
	}
	return h.user.Username
}

// Send implements services.Client.
func (h *ClientHandler) Send(v any) error { return h.conn.SendMessage(v) }

// HandleMessage decodes one inbound frame and dispatches it.
func (h *ClientHandler) HandleMessage(conn *network.Connection, message []byte) {
	var inbound messages.Inbound
	if err := json.Unmarshal(message, &inbound); err != nil {
		slog.Warn("unmarshal message", slog.String("conn", h.ID()), slog.Any("error", err))
		h.sendError(string(services.KindInvalidState), "Malformed message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var err error
	switch inbound.Type {
	case messages.TypeStartDungeon:
		err = decode(inbound.Payload, func(p messages.StartDungeonPayload) error {
			return h.game.StartDungeon(ctx, h.user, p.CharacterID, p.Difficulty, h)
		})
	case messages.TypeMove:
		err = decode(inbound.Payload, func(p messages.MovePayload) error {
			return h.game.Move(ctx, h.user, p.SessionID, p.CharacterID, p.Direction, h)
		})
	case messages.TypeAttack:
		err = decode(inbound.Payload, func(p messages.AttackPayload) error {
			return h.game.Attack(ctx, h.user, p.SessionID, p.CharacterID, p.EnemyID, h)
		})
	case messages.TypeLeaveDungeon:
		err = decode(inbound.Payload, func(p messages.LeaveDungeonPayload) error {
			return h.game.LeaveDungeon(ctx, h.user, p.SessionID, p.CharacterID, h)
		})
	case messages.TypeUseItem:
		err = decode(inbound.Payload, func(p messages.UseItemPayload) error {
			return h.game.UseItem(ctx, h.user, p.CharacterID, p.InventoryID, h)
		})
	case messages.TypeEquipItem:
		err = decode(inbound.Payload, func(p messages.EquipItemPayload) error {
			return h.game.EquipItem(ctx, h.user, p.CharacterID, p.InventoryID, h)
		})
	case messages.TypeJoinDungeon:
		err = decode(inbound.Payload, func(p messages.JoinDungeonPayload) error {
			return h.game.JoinDungeon(ctx, h.user, p.SessionID, p.CharacterID, h)
		})
	case messages.TypeGiftItem:
		err = decode(inbound.Payload, func(p messages.GiftItemPayload) error {
			return h.game.GiftItem(ctx, h.user, p.CharacterID, p.InventoryID, p.ToUsername, h)
		})
	case messages.TypeGlobalChat:
		err = decode(inbound.Payload, func(p messages.ChatPayload) error {
			h.game.GlobalChat(h.user, p.Message)
			return nil
		})
	case messages.TypePartyChat:
		err = decode(inbound.Payload, func(p messages.ChatPayload) error {
			h.game.PartyChat(h.user, p.SessionID, p.Message)
			return nil
		})
	default:
		slog.Warn("unknown message type", slog.String("conn", h.ID()), slog.String("type", string(inbound.Type)))
		h.sendError("UNKNOWN_MESSAGE_TYPE", "Unknown message type received")
		return
	}

	if err != nil {
		slog.Error("command failed",
			slog.String("conn", h.ID()),
			slog.String("type", string(inbound.Type)),
			slog.Any("error", err),
		)
		h.sendError(string(services.KindOf(err)), services.ClientMessage(err))
	}
}

// decode unmarshals a payload into its typed struct before running the
// command. A payload that does not parse fails the command, not the connection.
func decode[P any](raw json.RawMessage, run func(P) error) error {
	var p P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return &services.Error{Kind: services.KindInvalidState, Message: "Malformed payload", Err: err}
		}
	}
	return run(p)
}

func (h *ClientHandler) sendError(code, message string) {
	_ = h.conn.SendMessage(messages.New(messages.TypeError, messages.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}
