package network

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection wraps a WebSocket connection with an id and a buffered outbound
// queue so broadcasts never block on a slow peer.
type Connection struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

// MessageHandler receives every frame the read pump pulls off the wire.
type MessageHandler interface {
	HandleMessage(conn *Connection, message []byte)
}

// NewConnection creates a connection wrapper with a fresh id.
func NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, 256),
	}
}

// ID identifies this connection for the duration of its life.
func (c *Connection) ID() string {
	return c.id
}

// ReadPump reads messages off the socket and hands them to the handler. It
// returns when the peer goes away; the caller runs cleanup after.
func (c *Connection) ReadPump(h MessageHandler) {
	defer c.ws.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("read message", slog.String("conn", c.id), slog.Any("error", err))
			}
			break
		}
		h.HandleMessage(c, message)
	}
}

// WritePump drains the outbound queue onto the socket.
func (c *Connection) WritePump() {
	defer c.ws.Close()

	for message := range c.send {
		w, err := c.ws.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		if _, err := w.Write(message); err != nil {
			return
		}
		if err := w.Close(); err != nil {
			return
		}
	}
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}

// SendMessage queues a message for delivery. A full queue means the peer has
// stopped draining; the connection is closed rather than blocking the sender.
func (c *Connection) SendMessage(msg any) error {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case c.send <- messageBytes:
	default:
		c.ws.Close()
	}
	return nil
}
