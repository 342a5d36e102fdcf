package feed

import (
	"context"
	"sync"
)

// subscriberBuffer bounds how far a subscriber may fall behind before events
// are dropped for it. Dropped events are repaired by the next snapshot.
const subscriberBuffer = 64

// Bus is an in-process Feed: a channel fan-out over all active subscribers.
type Bus struct {
	subscribers map[chan Event]bool
	mu          sync.RWMutex
}

// NewBus creates a new Bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[chan Event]bool),
	}
}

// Subscribe adds a new subscriber to the bus.
func (b *Bus) Subscribe(_ context.Context) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = true
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subscribers[ch]; ok {
				delete(b.subscribers, ch)
				close(ch) // Signal the consumer loop to stop.
			}
		})
	}
	return ch, cancel, nil
}

// Publish sends an event to all current subscribers.
func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		// Use a non-blocking send to prevent a slow subscriber from blocking
		// the publisher; the periodic re-fetch covers anything dropped here.
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}
