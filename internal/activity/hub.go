package activity

import (
	"sync"

	"ministry_hub/internal/models"
)

const subscriberBuffer = 32

type subscriber struct {
	ch     chan models.Activity
	filter func(models.Activity) bool
}

// Hub fans activity out to live subscribers. Slow subscribers miss entries rather
// than block the writer.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers a subscriber receiving the entries filter accepts.
// The returned cancel func must be called once the subscriber is done.
func (h *Hub) Subscribe(filter func(models.Activity) bool) (<-chan models.Activity, func()) {
	s := &subscriber{ch: make(chan models.Activity, subscriberBuffer), filter: filter}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			h.mu.Unlock()
			close(s.ch)
		})
	}
}

func (h *Hub) Publish(a models.Activity) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.filter != nil && !s.filter(a) {
			continue
		}
		select {
		case s.ch <- a:
		default:
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
