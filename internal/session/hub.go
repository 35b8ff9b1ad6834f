package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nextlevelbuilder/agentd/pkg/protocol"
)

const tickInterval = 30 * time.Second

// Hub is the daemon-wide client registry. Grounded on the teacher's
// gateway.Server clients map: a single lock guards membership; event
// fan-out snapshots recipients under the lock and sends after releasing
// it, per spec section 5's "no lock held across I/O" rule.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	stopTick chan struct{}
}

// NewHub creates an empty hub and starts its tick-keepalive loop.
func NewHub() *Hub {
	h := &Hub{
		clients:  make(map[string]*Client),
		stopTick: make(chan struct{}),
	}
	go h.tickLoop()
	return h
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	slog.Info("session connected", "id", c.id)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	slog.Info("session disconnected", "id", c.id)
}

// BroadcastEvent sends an event to every authenticated client.
func (h *Hub) BroadcastEvent(event, payload string, raw interface{}) {
	h.mu.RLock()
	recipients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		recipients = append(recipients, c)
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		if c.Authenticated() {
			c.sendEvent(event, raw)
		}
	}
}

// SendTo pushes an event to one specific session, identified by its
// client id. It reports false if no client with that id is connected.
func (h *Hub) SendTo(sessionID, event string, payload interface{}) bool {
	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	c.sendEvent(event, payload)
	return true
}

func (h *Hub) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.BroadcastEvent(protocol.EventTick, "", map[string]interface{}{})
		case <-h.stopTick:
			return
		}
	}
}

// Stop halts the tick loop. Individual client connections are closed by
// their own handlers.
func (h *Hub) Stop() {
	close(h.stopTick)
}
