package bridge

import (
	"sync"

	"github.com/seantiz/spotipi/internal/model"
)

// subscriberBufferSize is the channel buffer for each event subscriber.
// Events are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// EventBroker fans published events out to subscribers. It is safe for
// concurrent use.
//
// After Close, Subscribe returns an already-closed channel so late
// subscribers never block.
type EventBroker struct {
	mu     sync.Mutex
	subs   map[int]chan model.Event
	nextID int
	closed bool
}

// NewEventBroker creates a new event broker.
func NewEventBroker() *EventBroker {
	return &EventBroker{
		subs: make(map[int]chan model.Event),
	}
}

// Subscribe returns a channel that receives every event published from now
// on, and an unsubscribe function.
func (b *EventBroker) Subscribe() (<-chan model.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan model.Event, subscriberBufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (b *EventBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish sends e to all subscribers, dropping it for subscribers whose
// buffers are full.
func (b *EventBroker) Publish(e model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Drop for slow subscribers so the event loop never blocks.
		}
	}
}

// Close closes every subscriber channel. Later Publish calls are no-ops.
func (b *EventBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
