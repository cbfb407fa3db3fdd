package notifications

import (
	"context"
	"errors"
	"sync"

	"zenith/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 5
	maxTotalConns   = 1000
)

// ErrConnectionLimit is returned by Register when a limit is reached.
var ErrConnectionLimit = errors.New("moderation feed connection limit reached")

// Hub fans moderation events out to every connected moderator.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	perUser map[uint]int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		perUser: make(map[uint]int),
	}
}

// Register adds a connection for userID.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) >= maxTotalConns || h.perUser[userID] >= maxConnsPerUser {
		return nil, ErrConnectionLimit
	}
	client := newClient(h, conn, userID)
	h.clients[client] = struct{}{}
	h.perUser[userID]++
	observability.WebSocketConnections.Inc()
	return client, nil
}

// Unregister removes client and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if h.perUser[client.UserID]--; h.perUser[client.UserID] <= 0 {
		delete(h.perUser, client.UserID)
	}
	close(client.Send)
	observability.WebSocketConnections.Dec()
}

// Broadcast queues payload on every connection.
func (h *Hub) Broadcast(payload string) {
	data := []byte(payload)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(data)
	}
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartWiring subscribes the hub to the notifier's event stream.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, h.Broadcast)
}

// Shutdown drops every connection. Closing a client's queue makes its write
// pump send the close frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.Unregister(c)
	}
	return nil
}
