package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix is prepended to every topic to form the NATS subject.
const DefaultSubjectPrefix = "crewtrace.events."

// NATSBus publishes events as JSON on NATS subjects.
//
// Events are published to subjects of the form:
//
//	{prefix}{topic}        e.g. crewtrace.events.crew.start
//
// Delivery is at-most-once; handlers run on the NATS client's dispatch
// goroutine.
type NATSBus struct {
	nc     *nats.Conn
	prefix string
	logger *zap.Logger
}

// NATSOption configures a NATSBus.
type NATSOption func(*NATSBus)

// WithSubjectPrefix overrides DefaultSubjectPrefix.
func WithSubjectPrefix(prefix string) NATSOption {
	return func(b *NATSBus) {
		b.prefix = prefix
	}
}

// WithNATSLogger sets the logger used for undecodable messages.
func WithNATSLogger(logger *zap.Logger) NATSOption {
	return func(b *NATSBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewNATSBus wraps an established NATS connection.
func NewNATSBus(nc *nats.Conn, opts ...NATSOption) (*NATSBus, error) {
	if nc == nil {
		return nil, errors.New("events: nil NATS connection")
	}
	b := &NATSBus{
		nc:     nc,
		prefix: DefaultSubjectPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Subject returns the NATS subject used for topic.
func (b *NATSBus) Subject(topic Topic) string {
	return b.prefix + string(topic)
}

// Subscribe registers h for topic. Messages that fail to decode are dropped.
func (b *NATSBus) Subscribe(topic Topic, h Handler) (Subscription, error) {
	if h == nil {
		return nil, ErrNoHandler
	}

	subject := b.Subject(topic)
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Debug("dropping undecodable event",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		if ev.Topic == "" {
			ev.Topic = topic
		}
		defer func() {
			if r := recover(); r != nil {
				b.logger.Warn("event handler panicked",
					zap.String("subject", msg.Subject),
					zap.Any("panic", r))
			}
		}()
		h(context.Background(), ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// Publish encodes ev as JSON and publishes it on the topic's subject.
func (b *NATSBus) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := b.Subject(ev.Topic)
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Flush waits until the server has processed all published events. ctx must
// carry a deadline.
func (b *NATSBus) Flush(ctx context.Context) error {
	return b.nc.FlushWithContext(ctx)
}
