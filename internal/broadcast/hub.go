package broadcast

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/valter-silva-au/brainboard/internal/cache"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscriber is one connected dashboard client.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages subscriber connections and pushes invalidation messages to all
// of them. It implements http.Handler for the websocket upgrade endpoint.
type Hub struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger.With("component", "broadcast"),
		subs:   make(map[*subscriber]struct{}),
	}
}

// OnInvalidate is wired as the file watcher's invalidation hook: it maps the
// changed category to its logical channels and broadcasts each one.
func (h *Hub) OnInvalidate(cat cache.Category) {
	for _, ch := range ChannelsForCategory(cat) {
		h.Broadcast(ch)
	}
}

// Broadcast pushes an invalidate message for the channel to every open
// subscriber. Subscribers whose send queue is full are skipped: delivery is
// best-effort and they will catch up via polling.
func (h *Hub) Broadcast(ch Channel) {
	data, err := json.Marshal(NewInvalidateMessage(ch))
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.send <- data:
		default:
		}
	}
}

// SubscriberCount returns the number of open connections.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request and manages the subscriber lifecycle.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, 16)}
	h.register(s)

	go h.writePump(s)
	h.readPump(s)
}

func (h *Hub) register(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()
	h.logger.Info("subscriber connected", "subscribers", count)
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
	count := len(h.subs)
	h.mu.Unlock()
	h.logger.Info("subscriber disconnected", "subscribers", count)
}

// readPump discards inbound frames; subscribers never send data, but reading
// is how a closed connection is detected.
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		h.unregister(s)
		s.conn.Close()
	}()
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(s *subscriber) {
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.conn.Close()
		delete(h.subs, s)
		close(s.send)
	}
}
