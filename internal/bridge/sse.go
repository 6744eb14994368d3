package bridge

import (
	"encoding/json"
	"sync"
)

// Hub is an in-process pub/sub for SSE events, keyed by username.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan []byte]struct{})}
}

// Subscribe returns a channel that receives every raw frame published for
// username, until Unsubscribe is called with the same channel.
func (h *Hub) Subscribe(username string) chan []byte {
	ch := make(chan []byte, 16)
	h.mu.Lock()
	if h.subs[username] == nil {
		h.subs[username] = make(map[chan []byte]struct{})
	}
	h.subs[username][ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes ch from username's subscriber set.
func (h *Hub) Unsubscribe(username string, ch chan []byte) {
	h.mu.Lock()
	delete(h.subs[username], ch)
	if len(h.subs[username]) == 0 {
		delete(h.subs, username)
	}
	h.mu.Unlock()
}

// Publish sends raw (an already-encoded frame) to every subscriber of
// username. A slow subscriber drops the event rather than blocking the
// publisher.
func (h *Hub) Publish(username string, raw []byte) {
	h.mu.RLock()
	for ch := range h.subs[username] {
		select {
		case ch <- raw:
		default:
		}
	}
	h.mu.RUnlock()
}

// PublishError synthesizes an internal ERROR event for username — one
// raised by the bridge itself, not the game server — and publishes it like
// any other frame (spec §4.9). None of the bridge's handlers call it.
func (h *Hub) PublishError(username, message string) {
	data, err := json.Marshal(map[string]string{"type": "ERROR", "message": message})
	if err != nil {
		return
	}
	h.Publish(username, data)
}
