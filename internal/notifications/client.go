package notifications

import (
	"log/slog"
	"time"

	"zenith/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// The feed is server to client; peers only send control frames.
	maxMessageSize = 512
)

// Client is one moderator connection.
type Client struct {
	hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint
}

func newClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 64),
	}
}

// ReadPump drains inbound frames so pongs and close frames are processed,
// and unregisters the client when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("moderation feed read error", slog.Uint64("user_id", uint64(c.UserID)), slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump pumps queued events to the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking; a full buffer drops it.
func (c *Client) TrySend(message []byte) bool {
	defer func() {
		// send on a channel closed by Unregister
		_ = recover()
	}()
	select {
	case c.Send <- message:
		return true
	default:
		middleware.Logger.Warn("moderation feed buffer full, dropping event", slog.Uint64("user_id", uint64(c.UserID)))
		return false
	}
}
