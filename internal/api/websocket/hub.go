// Package websocket pushes processed-game notifications to connected
// clients.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fortuna/courtside/internal/metrics"
)

const broadcastBufferSize = 1000

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan update
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewHub creates a hub. m may be nil.
func NewHub(m *metrics.Metrics, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan update, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		metrics:    m,
		logger:     logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.logger.Info().Msg("✓ Hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case u := <-h.broadcast:
			h.broadcastUpdate(u)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a game.processed notification for every client following
// the game. The message must be JSON carrying a game_id.
func (h *Hub) Broadcast(message []byte) {
	var head struct {
		GameID string `json:"game_id"`
	}
	if err := json.Unmarshal(message, &head); err != nil {
		h.logger.Warn().Err(err).Msg("dropping malformed broadcast")
		return
	}

	select {
	case h.broadcast <- update{gameID: head.GameID, payload: json.RawMessage(message)}:
	default:
		h.logger.Warn().Str("game_id", head.GameID).Msg("⚠️  Broadcast buffer full, dropping message")
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.clientsMu.Unlock()

	h.observe(n)
	h.logger.Debug().Str("client_id", c.ID).Int("total", n).Msg("client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		c.closeSend()
	}
	n := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		h.observe(n)
		h.logger.Debug().Str("client_id", c.ID).Int("total", n).Msg("client disconnected")
	}
}

func (h *Hub) broadcastUpdate(u update) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	msg := ServerMessage{
		Type:      MessageTypeGameProcessed,
		Payload:   u.payload,
		Timestamp: time.Now().UTC(),
	}

	for _, c := range clients {
		if !c.Follows(u.gameID) {
			continue
		}
		if !c.TrySend(msg) {
			// too slow to keep up
			h.logger.Warn().Str("client_id", c.ID).Msg("⚠️  client buffer full, disconnecting")
			h.unregisterClient(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	n := len(h.clients)
	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}
	h.clientsMu.Unlock()

	h.observe(0)
	h.logger.Info().Int("clients", n).Msg("hub stopped")
}

func (h *Hub) observe(n int) {
	if h.metrics != nil {
		h.metrics.SetWebsocketClients(n)
	}
}
