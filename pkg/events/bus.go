// Package events carries orchestration lifecycle notifications to interested
// subscribers.
//
// Two transports are provided: LocalBus dispatches synchronously inside the
// process, NATSBus fans notifications out over a NATS connection so a
// collector sidecar can observe crews running in other processes.
package events

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/crewtrace/pkg/crew"
)

// Topic names a notification stream.
type Topic string

const (
	// TopicCrewStart is published by the orchestration core when a crew
	// begins its kickoff.
	TopicCrewStart Topic = "crew.start"
	// TopicCrewEnd is published when a crew finishes. Output carries the
	// final result.
	TopicCrewEnd Topic = "crew.end"
)

// ErrNoHandler is returned by Subscribe when the handler is nil.
var ErrNoHandler = errors.New("events: nil handler")

// Event is a single notification. Crew is a snapshot; handlers must treat it
// as read-only.
type Event struct {
	Topic  Topic          `json:"topic"`
	Crew   *crew.Crew     `json:"crew,omitempty"`
	Inputs map[string]any `json:"inputs,omitempty"`
	Output string         `json:"output,omitempty"`
}

// Handler receives events for a subscribed topic. Handlers must not block.
type Handler func(ctx context.Context, ev Event)

// Subscription is an active registration that can be cancelled.
type Subscription interface {
	Unsubscribe() error
}

// Bus is a publish/subscribe notification transport.
type Bus interface {
	Subscribe(topic Topic, h Handler) (Subscription, error)
	Publish(ctx context.Context, ev Event) error
}
