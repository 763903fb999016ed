package notifications

import (
	"context"
	"errors"
	"sync"

	"unigram/internal/observability"
)

const (
	defaultMaxConnsPerUser = 12
	defaultMaxTotalConns   = 10000
)

var (
	ErrHubClosed         = errors.New("notification hub is shut down")
	ErrServerConnLimit   = errors.New("server connection limit reached")
	ErrUserConnLimit     = errors.New("user connection limit reached")
	errInvalidConnectUID = errors.New("websocket connection requires a user")
)

// Hub maps user ids to their live websocket clients on this instance.
type Hub struct {
	mu              sync.RWMutex
	conns           map[uint]map[*Client]struct{}
	totalConns      int
	maxConnsPerUser int
	maxTotalConns   int
	closed          bool
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// NewHub creates an empty hub with the default connection limits.
func NewHub() *Hub {
	return &Hub{
		conns:           make(map[uint]map[*Client]struct{}),
		maxConnsPerUser: defaultMaxConnsPerUser,
		maxTotalConns:   defaultMaxTotalConns,
	}
}

// SetLimits overrides the per-user and global connection caps. Non-positive
// values keep the current setting.
func (h *Hub) SetLimits(perUser, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if perUser > 0 {
		h.maxConnsPerUser = perUser
	}
	if total > 0 {
		h.maxTotalConns = total
	}
}

// Register adds a connection for userID, failing when a limit is reached.
func (h *Hub) Register(userID uint, conn Conn) (*Client, error) {
	if userID == 0 {
		return nil, errInvalidConnectUID
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= h.maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= h.maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// Unregister removes client and closes its send queue. It is safe to call
// more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	close(client.Send)
}

// Broadcast sends message to all connections for userID
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// ConnectionCount returns how many clients userID has on this instance.
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring connects the Notifier to this hub: messages published on a
// user's channel are forwarded to that user's local connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		userID, ok := parseUserChannel(channel)
		if !ok {
			observability.GlobalLogger.Warn("invalid notification channel", "channel", channel)
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown closes every client's send queue, which makes its write pump
// send a close frame and drop the connection. Later registrations fail.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for _, userConns := range h.conns {
		for client := range userConns {
			close(client.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
