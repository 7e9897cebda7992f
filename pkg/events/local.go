package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LocalBus dispatches events synchronously on the publisher's goroutine.
//
// A panicking handler is recovered and logged; the remaining handlers still
// run.
type LocalBus struct {
	logger *zap.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic]map[uint64]Handler
}

// NewLocalBus creates an in-process bus. logger may be nil.
func NewLocalBus(logger *zap.Logger) *LocalBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalBus{
		logger: logger,
		subs:   make(map[Topic]map[uint64]Handler),
	}
}

// Subscribe registers h for topic.
func (b *LocalBus) Subscribe(topic Topic, h Handler) (Subscription, error) {
	if h == nil {
		return nil, ErrNoHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]Handler)
	}
	b.subs[topic][id] = h

	return &localSubscription{bus: b, topic: topic, id: id}, nil
}

// Publish delivers ev to every handler subscribed to ev.Topic.
func (b *LocalBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Topic]))
	for _, h := range b.subs[ev.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, ev)
	}
	return nil
}

// Subscribers returns the number of handlers registered for topic.
func (b *LocalBus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *LocalBus) dispatch(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("event handler panicked",
				zap.String("topic", string(ev.Topic)),
				zap.Any("panic", r))
		}
	}()
	h(ctx, ev)
}

type localSubscription struct {
	bus   *LocalBus
	topic Topic
	id    uint64
	once  sync.Once
}

func (s *localSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs[s.topic], s.id)
	})
	return nil
}
