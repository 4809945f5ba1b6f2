package sse

import (
	"sync"
)

const defaultBuffer = 16

// Event is one message written to a subscriber's stream.
type Event struct {
	ID          string
	RecipientID string
	Name        string
	Data        interface{}
}

// Hub fans events out to the open streams of each recipient.
type Hub struct {
	mu          sync.RWMutex
	buffer      int
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return NewHubWithBuffer(defaultBuffer)
}

func NewHubWithBuffer(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		buffer:      buffer,
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a stream for recipientID. The returned cleanup
// unregisters and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(recipientID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.subscribers[recipientID] == nil {
		h.subscribers[recipientID] = make(map[chan Event]struct{})
	}
	h.subscribers[recipientID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[recipientID], ch)
			close(ch)
			if len(h.subscribers[recipientID]) == 0 {
				delete(h.subscribers, recipientID)
			}
		})
	}

	return ch, cleanup
}

// Publish delivers event to every stream of recipientID and returns how many
// received it. Full streams are skipped rather than blocking the publisher.
func (h *Hub) Publish(recipientID string, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subscribers[recipientID] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) PublishToMany(recipientIDs []string, event Event) int {
	delivered := 0
	for _, id := range recipientIDs {
		e := event
		e.RecipientID = id
		delivered += h.Publish(id, e)
	}
	return delivered
}

// SubscriberCount returns the number of open streams for a recipient
func (h *Hub) SubscriberCount(recipientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[recipientID])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
