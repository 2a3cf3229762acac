// Package monitor implements the Monitor Loop (C6): the periodic scan
// that drives the Policy Engine and Restart Executor across every
// discovered container. Ticks never overlap (gocron singleton/skip
// mode, the idiomatic replacement for the teacher's hand-rolled
// atomic.Bool overlap guard in EnvironmentHealthJob), and per-tick
// restart dispatch fans out concurrently across distinct stable ids
// with bounded concurrency, grounded on
// EnvironmentHealthJob.syncOnlineRemoteEnvironments.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/identity"
	"github.com/containerwarden/warden/internal/policy"
	"github.com/containerwarden/warden/internal/utils"
)

// Runtime is the capability the loop needs from the Runtime Adapter.
type Runtime interface {
	List(ctx context.Context, includeStopped bool) ([]domain.Snapshot, error)
}

// Executor is the capability the loop needs from the Restart Executor.
type Executor interface {
	Restart(ctx context.Context, stableID, name, runtimeID string, stopTimeout time.Duration) error
}

// Store is the capability the loop needs from the Durable Store.
type Store interface {
	GetConfig() domain.PolicyConfig
	GetMaintenance() domain.MaintenanceFlag
	IsQuarantined(stableID string) bool
	CountRecent(stableID string, window time.Duration, now time.Time) int
	MostRecentRestart(stableID string) time.Time
	Quarantine(stableID string) error
	AppendEvent(e domain.Event) error
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface{ Now() time.Time }

const defaultRestartConcurrency = 8

// Loop owns the periodic scan and its gocron scheduler handle.
type Loop struct {
	runtime     Runtime
	store       Store
	executor    Executor
	clock       Clock
	concurrency int

	scheduler gocron.Scheduler
}

func New(rt Runtime, st Store, ex Executor, clock Clock) *Loop {
	return &Loop{
		runtime:     rt,
		store:       st,
		executor:    ex,
		clock:       clock,
		concurrency: defaultRestartConcurrency,
	}
}

// Start schedules the loop at the store's currently configured monitor
// interval and begins running it. The returned Scheduler must be
// stopped by the caller on shutdown.
func (l *Loop) Start(ctx context.Context) (gocron.Scheduler, error) {
	interval := l.store.GetConfig().Monitor.IntervalSeconds
	if interval <= 0 {
		interval = 15
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(time.Duration(interval)*time.Second),
		gocron.NewTask(func() { l.Tick(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	l.scheduler = s
	s.Start()
	return s, nil
}

// Tick runs exactly one scan, bounded by a deadline of 2x the
// configured interval; remaining dispatch work is abandoned and
// reconsidered next tick.
func (l *Loop) Tick(ctx context.Context) {
	cfg := l.store.GetConfig()
	interval := cfg.Monitor.IntervalSeconds
	if interval <= 0 {
		interval = 15
	}
	deadline := time.Duration(interval) * 2 * time.Second

	tickCtx, cancel := utils.DeriveContext(ctx, deadline, false)
	defer cancel()

	snapshots, err := l.runtime.List(tickCtx, true)
	if err != nil {
		slog.ErrorContext(tickCtx, "monitor tick: failed to list containers", "error", err)
		_ = l.store.AppendEvent(domain.Event{
			Type:    domain.EventHealthCheckFailed,
			Status:  domain.StatusFailure,
			Message: "runtime unavailable: " + err.Error(),
		})
		return
	}

	maintenance := l.store.GetMaintenance().Active
	now := l.clock.Now()

	g, gctx := errgroup.WithContext(tickCtx)
	g.SetLimit(l.concurrency)

	for _, snap := range snapshots {
		snap := snap
		stableID := identity.Resolve(snap)

		decision := policy.Decide(policy.Input{
			Snapshot:    snap,
			StableID:    stableID,
			Maintenance: maintenance,
			Quarantined: l.store.IsQuarantined(stableID),
			Monitored:   cfg.Monitor.IsMonitored(stableID, snap.Labels),
			Policy:      cfg.Restart,
			RecentCount: l.store.CountRecent(stableID, time.Duration(cfg.Restart.MaxRestartsWindowSecond)*time.Second, now),
			LastRestart: l.store.MostRecentRestart(stableID),
			Now:         now,
		})

		switch decision.Kind {
		case domain.DecisionQuarantine:
			if err := l.store.Quarantine(stableID); err != nil {
				slog.ErrorContext(gctx, "failed to quarantine", "stable_id", stableID, "error", err)
			}
			_ = l.store.AppendEvent(domain.Event{
				StableID: stableID,
				Name:     snap.Name,
				Type:     domain.EventQuarantine,
				Status:   domain.StatusQuarantined,
				Message:  "restart rate exceeded",
			})
		case domain.DecisionRestart:
			stopTimeout := time.Duration(cfg.Restart.StopTimeoutSeconds) * time.Second
			g.Go(func() error {
				_ = l.executor.Restart(gctx, stableID, snap.Name, snap.RuntimeID, stopTimeout)
				return nil
			})
		}
	}

	_ = g.Wait()
	if tickCtx.Err() != nil {
		slog.WarnContext(ctx, "monitor tick deadline exceeded; remaining work deferred to next tick", "error", tickCtx.Err())
	}
}
