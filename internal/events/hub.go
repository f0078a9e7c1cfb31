// Package events fans out panel activity (reconnect attempts, command
// outcomes) to any number of live browser log panels.
package events

import (
	"sync"
	"time"
)

// Event is one log line shown in the panel's activity feed.
type Event struct {
	Time    time.Time `json:"ts"`
	Level   string    `json:"level"`
	Message string    `json:"msg"`
}

const subscriberBuffer = 16

// Hub broadcasts events to subscribers. Publishing never blocks: a
// subscriber that cannot keep up has events dropped, not queued.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a listener. The returned cancel func must be called
// when the listener goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish broadcasts one event. Safe on a nil hub so components can run
// without a feed attached (tests, mostly).
func (h *Hub) Publish(level, msg string) {
	if h == nil {
		return
	}
	ev := Event{Time: time.Now(), Level: level, Message: msg}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
