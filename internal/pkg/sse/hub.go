package sse

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Event is one message pushed to a subscriber stream
type Event struct {
	UserID string
	Event  string
	Data   interface{}
}

// Hub fans events out to the open streams of each user
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	bufferSize  int
	closed      bool
	dropped     atomic.Int64
}

// NewHub creates a hub whose subscriber channels hold bufferSize events
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a stream for userID. The returned cleanup closes the
// channel and is safe to call more than once.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.bufferSize)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan Event]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subscribers[userID][ch]; !ok {
				return
			}
			delete(h.subscribers[userID], ch)
			close(ch)
			if len(h.subscribers[userID]) == 0 {
				delete(h.subscribers, userID)
			}
		})
	}

	return ch, cleanup
}

// Publish sends event to every stream of userID without blocking. Events
// for a full stream are dropped.
func (h *Hub) Publish(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.UserID = userID
	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
			h.dropped.Add(1)
			slog.Debug("SSE subscriber buffer full, event dropped", "user_id", userID, "event", event.Event)
		}
	}
}

// PublishToMany sends event to several users
func (h *Hub) PublishToMany(userIDs []string, event Event) {
	for _, userID := range userIDs {
		h.Publish(userID, event)
	}
}

// SubscriberCount returns the number of open streams for userID
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// Dropped returns how many events were discarded for slow subscribers
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close ends every open stream. Later subscriptions receive a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for userID, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(h.subscribers, userID)
	}
}
