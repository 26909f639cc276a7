// Package events fans registry events out to background workers.
package events

import (
	"context"
	"sync"

	"github.com/ruteri/balancer-helper-registry/interfaces"
	"go.uber.org/atomic"
)

const defaultBufferSize = 64

// Broker implements interfaces.EventSink. Publish never blocks: an event is
// dropped for a subscriber whose buffer is full.
type Broker struct {
	subs       map[chan interfaces.Event]struct{}
	mu         sync.RWMutex
	done       chan struct{}
	watchers   sync.WaitGroup
	bufferSize int

	dropped atomic.Uint64
}

// NewBroker creates a broker with the default buffer size.
func NewBroker() *Broker {
	return NewBrokerWithBuffer(defaultBufferSize)
}

// NewBrokerWithBuffer creates a broker whose subscriber channels hold size events.
func NewBrokerWithBuffer(size int) *Broker {
	return &Broker{
		subs:       make(map[chan interfaces.Event]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe returns a channel receiving every event published from now on.
// The channel is closed when ctx is cancelled or the broker is closed.
func (b *Broker) Subscribe(ctx context.Context) <-chan interfaces.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan interfaces.Event)
		close(ch)
		return ch
	default:
	}

	sub := make(chan interfaces.Event, b.bufferSize)
	b.subs[sub] = struct{}{}

	b.watchers.Add(1)
	go func() {
		defer b.watchers.Done()

		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends ev to all subscribers.
func (b *Broker) Publish(ev interfaces.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	for sub := range b.subs {
		select {
		case sub <- ev:
		default:
			b.dropped.Inc()
		}
	}
}

// Close shuts down the broker and closes all subscriber channels. It returns
// once every subscription has been released.
func (b *Broker) Close() {
	b.mu.Lock()
	select {
	case <-b.done:
	default:
		close(b.done)
		for sub := range b.subs {
			close(sub)
		}
		b.subs = nil
	}
	b.mu.Unlock()

	b.watchers.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}
