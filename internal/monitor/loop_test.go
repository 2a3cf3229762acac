package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/containerwarden/warden/internal/domain"
)

type fakeRuntime struct {
	snapshots []domain.Snapshot
	err       error
}

func (f *fakeRuntime) List(ctx context.Context, includeStopped bool) ([]domain.Snapshot, error) {
	return f.snapshots, f.err
}

type fakeExecutor struct {
	mu       sync.Mutex
	restarts []string
}

func (f *fakeExecutor) Restart(ctx context.Context, stableID, name, runtimeID string, stopTimeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarts = append(f.restarts, stableID)
	return nil
}

type fakeStore struct {
	mu          sync.Mutex
	cfg         domain.PolicyConfig
	maintenance domain.MaintenanceFlag
	quarantined map[string]bool
	events      []domain.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cfg: domain.PolicyConfig{
			Restart: domain.RestartPolicy{
				Mode:                    domain.ModeBoth,
				CooldownSeconds:         30,
				MaxRestarts:             3,
				MaxRestartsWindowSecond: 120,
				RespectManualStop:       true,
				StopTimeoutSeconds:      10,
			},
			Monitor: domain.MonitorPolicy{IntervalSeconds: 15, IncludeAll: true},
		},
		quarantined: map[string]bool{},
	}
}

func (f *fakeStore) GetConfig() domain.PolicyConfig                { return f.cfg }
func (f *fakeStore) GetMaintenance() domain.MaintenanceFlag        { return f.maintenance }
func (f *fakeStore) IsQuarantined(stableID string) bool            { return f.quarantined[stableID] }
func (f *fakeStore) CountRecent(string, time.Duration, time.Time) int { return 0 }
func (f *fakeStore) MostRecentRestart(string) time.Time            { return time.Time{} }
func (f *fakeStore) Quarantine(stableID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quarantined[stableID] = true
	return nil
}
func (f *fakeStore) AppendEvent(e domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func unhealthySnapshot(name string) domain.Snapshot {
	return domain.Snapshot{
		RuntimeID: "rt-" + name,
		Name:      name,
		Status:    domain.StatusRunning,
		Health:    domain.HealthUnhealthy,
		Labels:    map[string]string{},
	}
}

func TestTick_DispatchesRestartForUnhealthyContainer(t *testing.T) {
	rt := &fakeRuntime{snapshots: []domain.Snapshot{unhealthySnapshot("web")}}
	st := newFakeStore()
	ex := &fakeExecutor{}
	l := New(rt, st, ex, fixedClock{t: time.Unix(1000, 0)})

	l.Tick(context.Background())

	require.Equal(t, []string{"web"}, ex.restarts)
}

func TestTick_SkipsDuringMaintenance(t *testing.T) {
	rt := &fakeRuntime{snapshots: []domain.Snapshot{unhealthySnapshot("web")}}
	st := newFakeStore()
	st.maintenance = domain.MaintenanceFlag{Active: true}
	ex := &fakeExecutor{}
	l := New(rt, st, ex, fixedClock{t: time.Unix(1000, 0)})

	l.Tick(context.Background())

	require.Empty(t, ex.restarts)
}

func TestTick_RuntimeListFailureAppendsErrorEvent(t *testing.T) {
	rt := &fakeRuntime{err: require.AnError}
	st := newFakeStore()
	ex := &fakeExecutor{}
	l := New(rt, st, ex, fixedClock{t: time.Unix(1000, 0)})

	l.Tick(context.Background())

	require.Len(t, st.events, 1)
	require.Equal(t, domain.StatusFailure, st.events[0].Status)
	require.Empty(t, ex.restarts)
}

func TestTick_HealthyContainerIsObservedNotRestarted(t *testing.T) {
	rt := &fakeRuntime{snapshots: []domain.Snapshot{{
		RuntimeID: "rt-web",
		Name:      "web",
		Status:    domain.StatusRunning,
		Health:    domain.HealthHealthy,
	}}}
	st := newFakeStore()
	ex := &fakeExecutor{}
	l := New(rt, st, ex, fixedClock{t: time.Unix(1000, 0)})

	l.Tick(context.Background())

	require.Empty(t, ex.restarts)
}
