// Package eventbus fans committed domain events out to in-process
// subscribers. Delivery is asynchronous and best effort: a full buffer drops
// the event, which is acceptable because every reaction it triggers is also
// driven by a periodic job or is purely informational.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fulfillment/internal/core/domain/model/kernel"
)

const DefaultBufferSize = 1024

type Handler func(ctx context.Context, event kernel.DomainEvent) error

type subscriber struct {
	name    string
	handler Handler
}

type Option func(*Bus)

// WithDropHook is called for every event dropped on a full buffer.
func WithDropHook(hook func()) Option {
	return func(b *Bus) {
		b.onDrop = hook
	}
}

type Bus struct {
	queue  chan kernel.DomainEvent
	logger *slog.Logger
	onDrop func()

	mu       sync.RWMutex
	byName   map[string][]subscriber
	wildcard []subscriber
}

func New(bufferSize int, logger *slog.Logger, opts ...Option) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	b := &Bus{
		queue:  make(chan kernel.DomainEvent, bufferSize),
		logger: logger.With("component", "event_bus"),
		onDrop: func() {},
		byName: make(map[string][]subscriber),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for events with the given name.
func (b *Bus) Subscribe(eventName, subscriberName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byName[eventName] = append(b.byName[eventName], subscriber{name: subscriberName, handler: handler})
}

// SubscribeAll registers handler for every event.
func (b *Bus) SubscribeAll(subscriberName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, subscriber{name: subscriberName, handler: handler})
}

// Publish never blocks.
func (b *Bus) Publish(ctx context.Context, events ...kernel.DomainEvent) {
	for _, event := range events {
		select {
		case b.queue <- event:
		default:
			b.onDrop()
			b.logger.WarnContext(ctx, "event buffer full, dropping event",
				"event", event.EventName(), "aggregate_id", event.AggregateID().String())
		}
	}
}

// Run delivers events until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.queue:
			b.dispatch(ctx, event)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, event kernel.DomainEvent) {
	b.mu.RLock()
	subs := make([]subscriber, 0, len(b.wildcard)+len(b.byName[event.EventName()]))
	subs = append(subs, b.wildcard...)
	subs = append(subs, b.byName[event.EventName()]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := b.call(ctx, sub, event); err != nil {
			b.logger.ErrorContext(ctx, "event subscriber failed",
				"subscriber", sub.name,
				"event", event.EventName(),
				"aggregate_id", event.AggregateID().String(),
				"error", err)
		}
	}
}

func (b *Bus) call(ctx context.Context, sub subscriber, event kernel.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sub.handler(ctx, event)
}
