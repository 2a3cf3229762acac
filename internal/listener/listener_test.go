package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/runtime"
)

type fakeRuntime struct {
	events    chan runtime.RuntimeEvent
	errs      chan error
	snapshots map[string]domain.Snapshot
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		events:    make(chan runtime.RuntimeEvent, 4),
		errs:      make(chan error, 1),
		snapshots: map[string]domain.Snapshot{},
	}
}

func (f *fakeRuntime) Events(ctx context.Context) (<-chan runtime.RuntimeEvent, <-chan error) {
	return f.events, f.errs
}

func (f *fakeRuntime) Inspect(ctx context.Context, runtimeID string) (domain.Snapshot, error) {
	return f.snapshots[runtimeID], nil
}

type fakeStore struct {
	mu       sync.Mutex
	cfg      domain.PolicyConfig
	selected []string
	events   []domain.Event
}

func (f *fakeStore) GetConfig() domain.PolicyConfig { return f.cfg }

func (f *fakeStore) Select(stableID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, stableID)
	return nil
}

func (f *fakeStore) AppendEvent(e domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func TestHandleEvent_EnrollsOnLabelMatch(t *testing.T) {
	rt := newFakeRuntime()
	rt.snapshots["c1"] = domain.Snapshot{
		RuntimeID: "c1",
		Name:      "web",
		Labels:    map[string]string{"autoheal": "true"},
	}
	st := &fakeStore{cfg: domain.PolicyConfig{Monitor: domain.MonitorPolicy{
		LabelKey: "autoheal", LabelValue: "true", Excluded: map[string]bool{},
	}}}
	l := New(rt, st)

	l.handleEvent(context.Background(), runtime.RuntimeEvent{Action: actionStart, ActorID: "c1"})

	require.Equal(t, []string{"web"}, st.selected)
	require.Len(t, st.events, 1)
	require.Equal(t, domain.EventAutoMonitor, st.events[0].Type)
}

func TestHandleEvent_IgnoresNonStartActions(t *testing.T) {
	rt := newFakeRuntime()
	st := &fakeStore{cfg: domain.PolicyConfig{Monitor: domain.MonitorPolicy{LabelKey: "autoheal", LabelValue: "true"}}}
	l := New(rt, st)

	l.handleEvent(context.Background(), runtime.RuntimeEvent{Action: "stop", ActorID: "c1"})

	require.Empty(t, st.selected)
}

func TestHandleEvent_SkipsWithoutLabelMatch(t *testing.T) {
	rt := newFakeRuntime()
	rt.snapshots["c1"] = domain.Snapshot{RuntimeID: "c1", Name: "web", Labels: map[string]string{}}
	st := &fakeStore{cfg: domain.PolicyConfig{Monitor: domain.MonitorPolicy{LabelKey: "autoheal", LabelValue: "true"}}}
	l := New(rt, st)

	l.handleEvent(context.Background(), runtime.RuntimeEvent{Action: actionStart, ActorID: "c1"})

	require.Empty(t, st.selected)
}

func TestHandleEvent_SkipsExcludedStableID(t *testing.T) {
	rt := newFakeRuntime()
	rt.snapshots["c1"] = domain.Snapshot{RuntimeID: "c1", Name: "web", Labels: map[string]string{"autoheal": "true"}}
	st := &fakeStore{cfg: domain.PolicyConfig{Monitor: domain.MonitorPolicy{
		LabelKey: "autoheal", LabelValue: "true", Excluded: map[string]bool{"web": true},
	}}}
	l := New(rt, st)

	l.handleEvent(context.Background(), runtime.RuntimeEvent{Action: actionStart, ActorID: "c1"})

	require.Empty(t, st.selected)
}

func TestConsumeOnce_ReturnsOnChannelClose(t *testing.T) {
	rt := newFakeRuntime()
	close(rt.events)
	st := &fakeStore{}
	l := New(rt, st)

	done := make(chan struct{})
	go func() {
		l.consumeOnce(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumeOnce did not return on channel close")
	}
}
