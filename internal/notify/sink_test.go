package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []Event
	err    error
}

func (r *recordingSink) Publish(ctx context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestMulti_FansOutToAllSinks(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := NewMulti(a, b)

	err := m.Publish(context.Background(), Event{StableID: "svc"})
	require.NoError(t, err)
	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
}

func TestMulti_ContinuesAfterOneSinkFails(t *testing.T) {
	failing := &recordingSink{err: errors.New("boom")}
	ok := &recordingSink{}
	m := NewMulti(failing, ok)

	err := m.Publish(context.Background(), Event{StableID: "svc"})
	require.Error(t, err)
	require.Len(t, ok.events, 1)
}

func TestMetricsSink_IncrementsRestartCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewMetricsSink(reg)

	require.NoError(t, s.Publish(context.Background(), Event{StableID: "svc_a", Type: "restart", Status: "success"}))

	metrics := gather(t, reg, "warden_restarts_total")
	require.Len(t, metrics, 1)
	require.Equal(t, 1.0, metrics[0].GetCounter().GetValue())
}

func TestMetricsSink_IncrementsQuarantineCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewMetricsSink(reg)

	require.NoError(t, s.Publish(context.Background(), Event{StableID: "svc_a", Type: "quarantine"}))

	metrics := gather(t, reg, "warden_quarantines_total")
	require.Len(t, metrics, 1)
}

func gather(t *testing.T, reg *prometheus.Registry, name string) []*dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()
		}
	}
	return nil
}
