// Package event provides a small in-process publish/subscribe bus used to
// fan change notifications out to daemon consumers.
package event

import (
	"context"
	"sync"
	"sync/atomic"

	"vfswatch/internal/metrics"
)

const defaultSubscriberBufferSize = 128

type BusOptions struct {
	Name                 string
	SubscriberBufferSize int
	MaxSubscribers       int
	Registry             *metrics.Registry
}

// Bus delivers published values to every matching subscriber. Sends never
// block: a subscriber that falls behind loses events, which are counted as
// drops.
type Bus[T any] struct {
	mu          sync.Mutex
	subscribers map[uint64]subscription[T]
	nextSubID   uint64
	closed      bool
	closeOnce   sync.Once
	options     BusOptions
	registry    *metrics.Registry
	published   atomic.Int64
	dropped     atomic.Int64
}

type subscription[T any] struct {
	id     uint64
	ch     chan T
	filter func(T) bool
}

func NewBus[T any](ctx context.Context, opts BusOptions) *Bus[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.SubscriberBufferSize <= 0 {
		opts.SubscriberBufferSize = defaultSubscriberBufferSize
	}
	bus := &Bus[T]{
		subscribers: make(map[uint64]subscription[T]),
		options:     opts,
		registry:    opts.Registry,
	}
	if bus.registry == nil {
		bus.registry = metrics.Default
	}
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			bus.Close()
		}()
	}
	return bus
}

func (b *Bus[T]) Subscribe() (<-chan T, func()) {
	return b.SubscribeFiltered(nil)
}

func (b *Bus[T]) SubscribeFiltered(filter func(T) bool) (<-chan T, func()) {
	if b == nil {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan T, b.options.SubscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if b.options.MaxSubscribers > 0 && len(b.subscribers) >= b.options.MaxSubscribers {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.nextSubID++
	id := b.nextSubID
	b.subscribers[id] = subscription[T]{id: id, ch: ch, filter: filter}
	b.mu.Unlock()

	cancel := func() {
		b.removeSubscriber(id)
	}
	return ch, cancel
}

func (b *Bus[T]) Publish(value T) {
	if b == nil {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subscribers := make([]subscription[T], 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subscribers = append(subscribers, sub)
	}
	b.mu.Unlock()

	b.published.Add(1)
	b.registry.IncBusPublished()

	for _, sub := range subscribers {
		if sub.filter != nil && !sub.filter(value) {
			continue
		}
		if !b.safeSend(sub, value) {
			b.dropped.Add(1)
			b.registry.IncBusDropped()
		}
	}
}

// safeSend tolerates a subscriber channel closed concurrently by cancel.
func (b *Bus[T]) safeSend(sub subscription[T], value T) (delivered bool) {
	defer func() {
		if recover() != nil {
			delivered = false
		}
	}()
	select {
	case sub.ch <- value:
		return true
	default:
		return false
	}
}

func (b *Bus[T]) Close() {
	if b == nil {
		return
	}
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		subscribers := b.subscribers
		b.subscribers = make(map[uint64]subscription[T])
		b.mu.Unlock()

		for _, sub := range subscribers {
			close(sub.ch)
		}
	})
}

// Counts reports the published and dropped totals for this bus.
func (b *Bus[T]) Counts() (published, dropped int64) {
	if b == nil {
		return 0, 0
	}
	return b.published.Load(), b.dropped.Load()
}

func (b *Bus[T]) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

func (b *Bus[T]) removeSubscriber(id uint64) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	b.mu.Unlock()

	if ok {
		close(sub.ch)
	}
}
