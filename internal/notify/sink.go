// Package notify hosts the interchangeable event Sinks the spec's
// notification/metrics boundary calls for (C9): every sink implements
// the same narrow capability, Publish(ctx, Event) error, fronting a
// Shoutrrr-backed notifier and a Prometheus-backed metrics sink. The
// event log itself is a third, always-on sink living in the Durable
// Store and is not modeled here.
package notify

import (
	"context"

	"github.com/containerwarden/warden/internal/domain"
)

// Sink publishes a single event to some external collaborator. All
// implementations must be safe for concurrent use and must not block
// the caller's critical path on slow downstream delivery.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Event is the subset of domain.Event a Sink needs, decoupled from the
// domain package's Store-facing representation so notify has no import
// edge back into it.
type Event struct {
	StableID     string
	Name         string
	Type         string
	Status       string
	RestartCount int
	Message      string
}

// FromDomainEvent adapts a Store event record into the decoupled shape
// sinks consume.
func FromDomainEvent(e domain.Event) Event {
	return Event{
		StableID:     e.StableID,
		Name:         e.Name,
		Type:         string(e.Type),
		Status:       string(e.Status),
		RestartCount: e.RestartCount,
		Message:      e.Message,
	}
}

// Multi fans a single event out to every configured sink. An error from
// one sink does not stop delivery to the others; Publish returns the
// first error encountered (nil if every sink succeeded) and does not log.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Publish(ctx context.Context, e Event) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Publish(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
