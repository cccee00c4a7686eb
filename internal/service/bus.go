package service

import (
	"sync"

	"github.com/amanmaurya7/f1-map/internal/metrics"
	"github.com/amanmaurya7/f1-map/internal/tracking"
)

// Event kinds.
const (
	KindLocation = "location"
	KindError    = "error"
	KindState    = "state"
)

// Event is a change in the live location published to stream subscribers.
type Event struct {
	Kind     string          // KindLocation, KindError or KindState
	Location *LocationUpdate // set for KindLocation
	Code     string          // provider error code, set for KindError
	Message  string
	State    tracking.State // set for KindState
	Hide     bool           // the user marker must be removed
}

// EventBus is a simple fan-out pub/sub for location events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	metrics.StreamSubscribers.Inc()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	_, ok := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ok {
		metrics.StreamSubscribers.Dec()
		close(ch)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
