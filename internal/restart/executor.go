// Package restart implements the Restart Executor (C5): the only
// component that actually invokes a runtime restart. It serializes
// restarts per stable id and records the outcome to the Durable Store.
// Grounded on the teacher's AutoHealJob, whose mutex-guarded
// restarts map[string]*restartRecord is generalized here from a
// container-id key to a stable-id key.
package restart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/runtimeerr"
)

// Runtime is the capability the executor needs from the Runtime Adapter.
type Runtime interface {
	Restart(ctx context.Context, runtimeID string, stopTimeout time.Duration) error
}

// Store is the capability the executor needs from the Durable Store.
type Store interface {
	RecordRestart(stableID string, t time.Time) error
	AppendEvent(e domain.Event) error
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface{ Now() time.Time }

// Executor performs restarts with at-most-one-in-flight-per-stable-id
// serialization.
type Executor struct {
	runtime Runtime
	store   Store
	clock   Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(rt Runtime, st Store, clock Clock) *Executor {
	return &Executor{
		runtime: rt,
		store:   st,
		clock:   clock,
		locks:   map[string]*sync.Mutex{},
	}
}

func (e *Executor) lockFor(stableID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[stableID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[stableID] = l
	}
	return l
}

// Restart performs a serialized restart of runtimeID (identified for
// bookkeeping purposes by stableID, which survives container
// recreation) with the given stop timeout. It records intent, then
// success or failure, as durable events and never retries internally —
// the caller's next loop iteration reconsiders.
func (e *Executor) Restart(ctx context.Context, stableID, name, runtimeID string, stopTimeout time.Duration) error {
	lock := e.lockFor(stableID)
	lock.Lock()
	defer lock.Unlock()

	e.appendEvent(domain.Event{
		StableID: stableID,
		Name:     name,
		Type:     domain.EventRestart,
		Status:   domain.StatusEnabled,
		Message:  "restart intent",
	})

	err := e.runtime.Restart(ctx, runtimeID, stopTimeout)
	if err != nil {
		kind := runtimeerr.ClassifyKind(err)
		slog.ErrorContext(ctx, "restart failed", "stable_id", stableID, "runtime_id", runtimeID, "kind", kind, "error", err)
		e.appendEvent(domain.Event{
			StableID: stableID,
			Name:     name,
			Type:     domain.EventRestart,
			Status:   domain.StatusFailure,
			Message:  "restart failed: " + err.Error(),
		})
		return err
	}

	now := e.clock.Now()
	if recErr := e.store.RecordRestart(stableID, now); recErr != nil {
		slog.ErrorContext(ctx, "restart succeeded but recording it failed", "stable_id", stableID, "error", recErr)
	}

	slog.InfoContext(ctx, "restart succeeded", "stable_id", stableID, "runtime_id", runtimeID)
	e.appendEvent(domain.Event{
		StableID: stableID,
		Name:     name,
		Type:     domain.EventRestart,
		Status:   domain.StatusSuccess,
		Message:  "restart succeeded",
	})
	return nil
}

func (e *Executor) appendEvent(ev domain.Event) {
	if err := e.store.AppendEvent(ev); err != nil {
		slog.Error("failed to append restart event", "stable_id", ev.StableID, "error", err)
	}
}
