package events

import (
	"context"
	"testing"
	"time"

	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s1 := b.Subscribe(ctx)
	s2 := b.Subscribe(ctx)
	require.Equal(t, 2, b.SubscriberCount())

	ev := interfaces.Event{Type: interfaces.EventPoolsAdded, PoolCount: 1}
	b.Publish(ev)

	assert.Equal(t, ev, <-s1)
	assert.Equal(t, ev, <-s2)
}

func TestBroker_UnsubscribeOnCancel(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed")
	}

	assert.Eventually(t, func() bool { return b.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBroker_PublishDoesNotBlock(t *testing.T) {
	b := NewBrokerWithBuffer(1)
	defer b.Close()

	_ = b.Subscribe(context.Background())

	b.Publish(interfaces.Event{Type: interfaces.EventPoolsAdded})
	b.Publish(interfaces.Event{Type: interfaces.EventPoolsDeleted})
	b.Publish(interfaces.Event{Type: interfaces.EventAllPoolsDeleted})

	assert.Equal(t, uint64(2), b.Dropped())
}

func TestBroker_Closed(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe(context.Background())
	b.Close()
	b.Close()

	_, ok := <-sub
	assert.False(t, ok)

	late := b.Subscribe(context.Background())
	_, ok = <-late
	assert.False(t, ok)

	b.Publish(interfaces.Event{Type: interfaces.EventPoolsAdded})
}

func TestBroker_CloseReleasesSubscriptions(t *testing.T) {
	b := NewBroker()
	subs := make([]<-chan interfaces.Event, 3)
	for i := range subs {
		subs[i] = b.Subscribe(context.Background())
	}

	closed := make(chan struct{})
	go func() {
		b.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not release subscriptions")
	}

	for _, sub := range subs {
		_, ok := <-sub
		assert.False(t, ok)
	}
	assert.Zero(t, b.SubscriberCount())
}
