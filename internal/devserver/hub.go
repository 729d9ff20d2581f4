package devserver

import (
	"log/slog"
	"sync"

	"github.com/arko-chat/pwashell/internal/bridge"
)

// Hub tracks connected pages. Sends never block: a page that stops reading
// loses frames rather than stalling the bridge.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	h.logger.Debug("ws register", "client", c.ID, "clients", len(h.clients))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
	h.logger.Debug("ws unregister", "client", c.ID)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SendTo(c *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		h.logger.Warn("ws dropped message", "client", c.ID)
		return false
	}
}

func (h *Hub) Broadcast(data []byte) int {
	if data == nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.clients {
		select {
		case c.Send <- data:
			sent++
		default:
			h.logger.Warn("ws dropped message", "client", c.ID)
		}
	}

	h.logger.Debug("ws broadcast", "recipients", sent)
	return sent
}

// Emit broadcasts an event to every connected page.
func (h *Hub) Emit(ev bridge.Event) error {
	data, err := eventFrame(ev)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}
