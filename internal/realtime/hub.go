// Package realtime carries live events to connected users. Every user has
// one logical channel, backed by Redis pub/sub so any instance can reach a
// user connected to any other instance; the Hub holds this instance's
// local WebSocket subscribers.
package realtime

import (
	"log"
	"sync"

	"github.com/hivedesk/hivedesk-backend/internal/models"
)

const subscriberBuffer = 32

// Hub is the local registry of per-user event channels. Delivery is
// best-effort: a subscriber that can't keep up loses events rather than
// blocking the fan-out path.
type Hub struct {
	mu   sync.RWMutex
	subs map[string][]chan models.Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string][]chan models.Event)}
}

// Subscribe registers a channel for a user's events. The returned cancel
// func must be called on disconnect; it closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan models.Event, func()) {
	ch := make(chan models.Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[userID] = append(h.subs[userID], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		chans := h.subs[userID]
		for i, c := range chans {
			if c == ch {
				h.subs[userID] = append(chans[:i], chans[i+1:]...)
				close(c)
				break
			}
		}
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
	}
	return ch, cancel
}

// Deliver hands an event to every local subscriber of the user. Drops the
// event for subscribers whose buffer is full.
func (h *Hub) Deliver(userID string, evt models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[userID] {
		select {
		case ch <- evt:
		default:
			log.Printf("realtime: dropping %s event for slow subscriber of user %s", evt.Type, userID)
		}
	}
}
