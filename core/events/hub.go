package events

import (
	"context"
	"sync"
)

const defaultSubscriberBuffer = 64

// Hub fans committed records out to live subscribers. Slow subscribers are
// dropped rather than blocking the chain.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan Record
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan Record)}
}

// Subscribe registers a subscriber that lives until ctx is cancelled or the
// subscriber falls behind. The returned channel is closed in both cases.
func (h *Hub) Subscribe(ctx context.Context) <-chan Record {
	ch := make(chan Record, defaultSubscriberBuffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(id)
	}()
	return ch
}

// Publish delivers records to every subscriber in order.
func (h *Hub) Publish(records ...Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		if !deliver(ch, records) {
			delete(h.subs, id)
			close(ch)
		}
	}
}

func deliver(ch chan Record, records []Record) bool {
	for _, rec := range records {
		select {
		case ch <- rec:
		default:
			return false
		}
	}
	return true
}

// Subscribers reports the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}
