package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Reconnect backoff bounds for the subscriber client.
const (
	backoffFloor = time.Second
	backoffCap   = 30 * time.Second
)

// DefaultPollInterval is the fallback refresh period used while no websocket
// connection is open.
const DefaultPollInterval = 30 * time.Second

// KeyCache is the client-side cache of fetched view data, keyed by the
// string keys the channel mappings refer to.
type KeyCache struct {
	mu      sync.Mutex
	entries map[string]any
}

// NewKeyCache creates an empty client-side cache.
func NewKeyCache() *KeyCache {
	return &KeyCache{entries: make(map[string]any)}
}

// Set stores a value under a key.
func (c *KeyCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Get returns the cached value for a key.
func (c *KeyCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// InvalidateMatching drops every key the rule covers and returns the dropped
// keys, so the owner can refetch them.
func (c *KeyCache) InvalidateMatching(rule KeyRule) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var dropped []string
	for key := range c.entries {
		if rule.Matches(key) {
			delete(c.entries, key)
			dropped = append(dropped, key)
		}
	}
	return dropped
}

// InvalidateAll drops every key and returns the dropped keys.
func (c *KeyCache) InvalidateAll() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var dropped []string
	for key := range c.entries {
		delete(c.entries, key)
		dropped = append(dropped, key)
	}
	return dropped
}

// Len returns the number of cached keys.
func (c *KeyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Subscriber maintains a websocket connection to an invalidation hub,
// revalidating client-side keys as channels change. While disconnected it
// reconnects with exponential backoff and covers the gap by periodic full
// refreshes.
type Subscriber struct {
	url          string
	cache        *KeyCache
	pollInterval time.Duration
	logger       *slog.Logger

	// OnRefresh is called with the keys that need refetching: the keys a
	// received channel covers, or nil for a full poll-driven refresh.
	OnRefresh func(keys []string)
}

// NewSubscriber creates a subscriber for the given websocket URL.
func NewSubscriber(url string, cache *KeyCache, pollInterval time.Duration, logger *slog.Logger) *Subscriber {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		url:          url,
		cache:        cache,
		pollInterval: pollInterval,
		logger:       logger.With("component", "subscriber"),
	}
}

// Run connects and processes invalidation messages until the context is
// cancelled. Each successful connect resets the backoff to its floor. The
// poll ticker spans the whole disconnected phase rather than one backoff
// wait, so short waits still accumulate toward the next poll.
func (s *Subscriber) Run(ctx context.Context) {
	backoff := backoffFloor
	poll := time.NewTicker(s.pollInterval)
	defer poll.Stop()
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			s.logger.Debug("connect failed", "error", err, "retry_in", backoff)
			if !s.waitWithPolling(ctx, backoff, poll.C) {
				return
			}
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
			continue
		}

		backoff = backoffFloor
		s.logger.Info("connected", "url", s.url)
		s.readLoop(ctx, conn)
		conn.Close()

		// Restart the poll clock for the new disconnected phase, dropping any
		// tick that accumulated while connected.
		poll.Reset(s.pollInterval)
		select {
		case <-poll.C:
		default:
		}
	}
}

// waitWithPolling sleeps for the backoff period, firing the polling fallback
// whenever the shared poll ticker fires. Returns false when ctx is done.
func (s *Subscriber) waitWithPolling(ctx context.Context, backoff time.Duration, poll <-chan time.Time) bool {
	wait := time.NewTimer(backoff)
	defer wait.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-poll:
			s.refreshAll()
		case <-wait.C:
			return true
		}
	}
}

func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Debug("connection lost", "error", err)
			return
		}

		var msg InvalidateMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "invalidate" {
			continue
		}
		s.handleInvalidate(msg.Channel)
	}
}

// handleInvalidate revalidates every client-side key the channel covers.
func (s *Subscriber) handleInvalidate(ch Channel) {
	dropped := s.cache.InvalidateMatching(KeysForChannel(ch))
	if len(dropped) == 0 {
		return
	}
	if s.OnRefresh != nil {
		s.OnRefresh(dropped)
	}
}

// refreshAll is the polling fallback: drop everything and refetch.
func (s *Subscriber) refreshAll() {
	s.cache.InvalidateAll()
	if s.OnRefresh != nil {
		s.OnRefresh(nil)
	}
}
