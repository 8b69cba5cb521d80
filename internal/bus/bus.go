package bus

import (
	"context"
	"log/slog"
	"sync"
)

// Subscriber receives every published event. A subscriber error is logged
// and does not stop delivery to the remaining subscribers; durability is the
// job queue's concern, not the bus's.
type Subscriber interface {
	HandleEvent(ctx context.Context, event Event) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, event Event) error

func (f SubscriberFunc) HandleEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is the in-process domain event bus: a buffered channel feeding a
// single dispatch loop. Publish is called after the mutation has been
// committed, so a dropped event loses a notification, never a state change.
type Bus struct {
	inbox  chan Event
	logger *slog.Logger

	mu   sync.RWMutex
	subs []Subscriber
}

func New(logger *slog.Logger, buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Subscribe registers a subscriber. Call before Run; late subscribers only
// see events published after registration.
func (b *Bus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
}

// Publish hands the event to the dispatch loop. It blocks only when the
// buffer is full, and gives up if the context is cancelled first.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	select {
	case b.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run dispatches events until the context is cancelled. It drains the buffer
// before returning so shutdown does not strand accepted events.
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-b.inbox:
					b.dispatch(context.WithoutCancel(ctx), event)
				default:
					return ctx.Err()
				}
			}
		case event := <-b.inbox:
			b.dispatch(ctx, event)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, event Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.HandleEvent(ctx, event); err != nil {
			b.logger.Error("event subscriber failed",
				"event", event.Name(),
				"key", event.Key(),
				"error", err,
			)
		}
	}
}
