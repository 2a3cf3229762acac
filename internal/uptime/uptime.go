// Package uptime implements the Uptime Integration (C8): an optional
// poller that maps an external uptime monitor's status feed onto
// monitored stable ids and injects a synthetic health failure on a
// DOWN transition, debounced per monitor so a single outage episode
// produces at most one restart intent. The transition-tracking idiom
// is grounded on Docker-Guardian's orchestrationEvents map[string]time.Time.
package uptime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/policy"
)

// MonitorStatus mirrors one entry of the external uptime monitor's
// status feed.
type MonitorStatus struct {
	FriendlyName string `json:"friendly_name"`
	Status       string `json:"status"` // "up", "down", "pending", "maintenance", "unknown"
}

const (
	statusDown = "down"
)

// Store is the capability the poller needs from the Durable Store.
type Store interface {
	GetConfig() domain.PolicyConfig
	GetMaintenance() domain.MaintenanceFlag
	IsQuarantined(stableID string) bool
	CountRecent(stableID string, window time.Duration, now time.Time) int
	MostRecentRestart(stableID string) time.Time
	AppendEvent(e domain.Event) error
}

// Executor is the capability the poller needs from the Restart Executor.
type Executor interface {
	Restart(ctx context.Context, stableID, name, runtimeID string, stopTimeout time.Duration) error
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface{ Now() time.Time }

// Poller periodically fetches monitor statuses and reacts to DOWN
// transitions.
type Poller struct {
	store    Store
	executor Executor
	clock    Clock
	client   *http.Client

	mu        sync.Mutex
	lastState map[string]string // monitor friendly name -> last observed status
}

func New(st Store, ex Executor, clock Clock) *Poller {
	return &Poller{
		store:     st,
		executor:  ex,
		clock:     clock,
		client:    &http.Client{Timeout: 10 * time.Second},
		lastState: map[string]string{},
	}
}

// Tick fetches the current statuses and dispatches restarts for
// monitors that just transitioned into DOWN and are mapped to a
// monitored stable id.
func (p *Poller) Tick(ctx context.Context) {
	cfg := p.store.GetConfig()
	uc := cfg.Uptime
	if !uc.Enabled {
		return
	}

	statuses, err := p.fetchStatuses(ctx, uc)
	if err != nil {
		slog.ErrorContext(ctx, "uptime integration: failed to fetch statuses", "error", err)
		_ = p.store.AppendEvent(domain.Event{
			Type:    domain.EventHealthCheckFailed,
			Status:  domain.StatusFailure,
			Message: "uptime integration fetch failed: " + err.Error(),
		})
		return
	}

	for _, st := range statuses {
		stableID, mapped := uc.Mapping[st.FriendlyName]
		if !mapped {
			continue
		}

		if !p.transitionedToDown(st.FriendlyName, st.Status) {
			continue
		}

		if !uc.AutoRestartDown {
			continue
		}

		p.injectFailure(ctx, cfg, stableID, st.FriendlyName)
	}
}

// transitionedToDown reports whether friendlyName just moved into DOWN
// from any other state, and records the new state either way.
func (p *Poller) transitionedToDown(friendlyName, status string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.lastState[friendlyName]
	p.lastState[friendlyName] = status
	return status == statusDown && prev != statusDown
}

func (p *Poller) injectFailure(ctx context.Context, cfg domain.PolicyConfig, stableID, friendlyName string) {
	now := p.clock.Now()

	snap := domain.Snapshot{
		RuntimeID: stableID,
		Name:      stableID,
		Status:    domain.StatusRunning,
		Health:    domain.HealthUnhealthy,
	}

	decision := policy.Decide(policy.Input{
		Snapshot:    snap,
		StableID:    stableID,
		Maintenance: p.store.GetMaintenance().Active,
		Quarantined: p.store.IsQuarantined(stableID),
		Monitored:   cfg.Monitor.IsMonitored(stableID, nil),
		Policy:      cfg.Restart,
		RecentCount: p.store.CountRecent(stableID, time.Duration(cfg.Restart.MaxRestartsWindowSecond)*time.Second, now),
		LastRestart: p.store.MostRecentRestart(stableID),
		Now:         now,
	})

	if decision.Kind != domain.DecisionRestart {
		slog.InfoContext(ctx, "uptime integration: down episode observed but not restarting", "monitor", friendlyName, "stable_id", stableID, "decision", decision.Kind)
		return
	}

	stopTimeout := time.Duration(cfg.Restart.StopTimeoutSeconds) * time.Second
	_ = p.executor.Restart(ctx, stableID, stableID, stableID, stopTimeout)
}

func (p *Poller) fetchStatuses(ctx context.Context, uc domain.UptimeConfig) ([]MonitorStatus, error) {
	var statuses []MonitorStatus
	op := func() ([]MonitorStatus, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uc.BaseURL, nil)
		if err != nil {
			return nil, err
		}
		if uc.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+uc.APIKey)
		} else if uc.BasicUser != "" {
			req.SetBasicAuth(uc.BasicUser, uc.BasicPass)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("uptime monitor returned status %d", resp.StatusCode)
		}

		var body []MonitorStatus
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, err
		}
		return body, nil
	}

	result, err := backoff.Retry(ctx, op, backoff.WithMaxTries(3))
	if err != nil {
		return nil, err
	}
	statuses = result
	return statuses, nil
}
