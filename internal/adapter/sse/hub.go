package sse

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

// SubscriberBuffer is the number of events queued per subscriber before
// further events are dropped for it.
const SubscriberBuffer = 64

// Compile-time check: Hub implements domain.EventPublisher.
var _ domain.EventPublisher = (*Hub)(nil)

// Hub fans garden events out to live subscribers such as SSE streams.
// Publish never blocks on a slow subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan domain.Event
	closed      bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan domain.Event)}
}

// Subscribe registers a subscriber. The returned cancel function removes it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, SubscriberBuffer)
	id := uuid.NewString()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(id) })
	}
}

// Publish delivers the event to every subscriber with room in its buffer.
func (h *Hub) Publish(ctx context.Context, event domain.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			slog.WarnContext(ctx, "dropping event for slow subscriber",
				"subscriber", id,
				"kind", event.Kind,
			)
		}
	}
	return nil
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber. Later subscriptions receive a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
	h.closed = true
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}
