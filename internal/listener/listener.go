// Package listener implements the Event Listener (C7): a stream
// subscriber that auto-enrolls newly started containers into the
// monitored set when their labels match the configured monitor label.
// Grounded on Will-Luck-Docker-Guardian's event-driven dispatch and
// dockward's label/compose matching; reconnect uses
// cenkalti/backoff/v5 rather than the pack's hand-rolled backoff loops.
package listener

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/identity"
	"github.com/containerwarden/warden/internal/runtime"
)

// Runtime is the capability the listener needs from the Runtime Adapter.
type Runtime interface {
	Events(ctx context.Context) (<-chan runtime.RuntimeEvent, <-chan error)
	Inspect(ctx context.Context, runtimeID string) (domain.Snapshot, error)
}

// Store is the capability the listener needs from the Durable Store.
type Store interface {
	GetConfig() domain.PolicyConfig
	Select(stableID string) error
	AppendEvent(e domain.Event) error
}

const (
	actionStart      = "start"
	minReconnectWait = time.Second
	maxReconnectWait = 30 * time.Second
)

// Listener runs the event subscription loop until ctx is canceled.
type Listener struct {
	runtime Runtime
	store   Store
}

func New(rt Runtime, st Store) *Listener {
	return &Listener{runtime: rt, store: st}
}

var errDisconnected = errors.New("listener: event stream disconnected")

// Run subscribes to the runtime event stream and reconnects with
// exponential backoff whenever the stream terminates, capped at
// maxReconnectWait. It never returns except when ctx is canceled.
func (l *Listener) Run(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = minReconnectWait
	b.MaxInterval = maxReconnectWait

	_, _ = backoff.Retry(ctx, func() (struct{}, error) {
		l.consumeOnce(ctx)
		if ctx.Err() != nil {
			return struct{}{}, nil
		}
		slog.WarnContext(ctx, "event stream disconnected; reconnecting")
		return struct{}{}, errDisconnected
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(0))
}

// consumeOnce subscribes and drains the stream until it terminates
// (error, close, or context cancellation).
func (l *Listener) consumeOnce(ctx context.Context) {
	events, errs := l.runtime.Events(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			l.handleEvent(ctx, ev)
		case err, ok := <-errs:
			if ok && err != nil {
				slog.WarnContext(ctx, "event stream error", "error", err)
			}
			return
		}
	}
}

func (l *Listener) handleEvent(ctx context.Context, ev runtime.RuntimeEvent) {
	if ev.Action != actionStart {
		return
	}

	cfg := l.store.GetConfig()
	if cfg.Monitor.LabelKey == "" || cfg.Monitor.LabelValue == "" {
		return
	}

	snap, err := l.runtime.Inspect(ctx, ev.ActorID)
	if err != nil {
		slog.WarnContext(ctx, "event listener: failed to inspect started container", "container_id", ev.ActorID, "error", err)
		return
	}

	if snap.Labels[cfg.Monitor.LabelKey] != cfg.Monitor.LabelValue {
		return
	}
	if cfg.Monitor.Excluded[identity.Resolve(snap)] {
		return
	}

	stableID := identity.Resolve(snap)
	if err := l.store.Select(stableID); err != nil {
		slog.ErrorContext(ctx, "event listener: failed to auto-enroll container", "stable_id", stableID, "error", err)
		return
	}

	_ = l.store.AppendEvent(domain.Event{
		StableID: stableID,
		Name:     snap.Name,
		Type:     domain.EventAutoMonitor,
		Status:   domain.StatusEnabled,
		Message:  "auto-enrolled on container start via label match",
	})
}
