package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/crewtrace/internal/logging"
	"github.com/fyrsmithlabs/crewtrace/pkg/events"
)

// Subscriber opens a Crew Execution span for every crew-start notification
// and closes it on the matching crew-end notification.
//
// Registration never fails the host: a nil or broken bus is logged at debug
// level and ignored. Buses are tracked by identity, so they must be
// comparable (pointer types are).
type Subscriber struct {
	tel    *Telemetry
	logger *logging.Logger

	mu   sync.Mutex
	subs map[events.Bus][]events.Subscription
}

// NewSubscriber creates a subscriber that reports through tel. tel may be nil.
func NewSubscriber(tel *Telemetry) *Subscriber {
	logger := logging.NewNop()
	if tel != nil {
		logger = tel.logger
	}
	return &Subscriber{
		tel:    tel,
		logger: logger,
		subs:   make(map[events.Bus][]events.Subscription),
	}
}

// Register subscribes to crew-start and crew-end notifications on bus.
// Registering the same bus twice keeps a single subscription. It reports
// whether the subscriber is now listening on bus.
func (s *Subscriber) Register(bus events.Bus) bool {
	if s == nil {
		return false
	}
	ctx := context.Background()
	if bus == nil {
		s.logger.Debug(ctx, "crew start subscription skipped: no bus")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var subs []events.Subscription
	err := capture(func() error {
		if _, ok := s.subs[bus]; ok {
			return nil
		}
		for _, r := range []struct {
			topic events.Topic
			h     events.Handler
		}{
			{events.TopicCrewStart, s.handleStart},
			{events.TopicCrewEnd, s.handleEnd},
		} {
			topic := r.topic
			sub, err := bus.Subscribe(topic, r.h)
			if err != nil {
				return fmt.Errorf("subscribe %s: %w", topic, err)
			}
			if sub == nil {
				return fmt.Errorf("subscribe %s: bus returned no subscription", topic)
			}
			subs = append(subs, sub)
		}
		s.subs[bus] = subs
		return nil
	})
	if err != nil {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
		s.logger.Debug(ctx, "crew start subscription failed", zap.Error(err))
		return false
	}
	return true
}

// Registered returns the number of buses currently subscribed.
func (s *Subscriber) Registered() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close cancels every subscription.
func (s *Subscriber) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	all := s.subs
	s.subs = make(map[events.Bus][]events.Subscription)
	s.mu.Unlock()

	var errs []error
	for _, subs := range all {
		for _, sub := range subs {
			if err := sub.Unsubscribe(); err != nil {
				errs = append(errs, fmt.Errorf("unsubscribe: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Subscriber) handleStart(ctx context.Context, ev events.Event) {
	if ev.Crew == nil {
		return
	}
	ctx = logging.WithCrewID(ctx, ev.Crew.ID)
	s.logger.Trace(ctx, "crew start received")
	s.tel.CrewExecutionSpan(ctx, *ev.Crew, ev.Inputs)
}

func (s *Subscriber) handleEnd(ctx context.Context, ev events.Event) {
	if ev.Crew == nil {
		return
	}
	ctx = logging.WithCrewID(ctx, ev.Crew.ID)
	s.logger.Trace(ctx, "crew end received")
	s.tel.EndCrew(ctx, *ev.Crew, ev.Output)
}
