package notify

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink is a second Publish(Event) implementation that increments
// Prometheus counters instead of sending a message, per the spec's
// framing of metrics as out-of-core-scope but still a duck-typed sink
// like any other.
type MetricsSink struct {
	restarts    *prometheus.CounterVec
	quarantines *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewMetricsSink builds a MetricsSink and registers its collectors
// against reg.
func NewMetricsSink(reg prometheus.Registerer) *MetricsSink {
	s := &MetricsSink{
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "restarts_total",
			Help:      "Total restart attempts by stable id and outcome.",
		}, []string{"stable_id", "status"}),
		quarantines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "quarantines_total",
			Help:      "Total times a stable id entered quarantine.",
		}, []string{"stable_id"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warden",
			Name:      "event_failures_total",
			Help:      "Total failure-status events by type.",
		}, []string{"event_type"}),
	}

	reg.MustRegister(s.restarts, s.quarantines, s.failures)
	return s
}

func (s *MetricsSink) Publish(ctx context.Context, e Event) error {
	switch e.Type {
	case "restart":
		s.restarts.WithLabelValues(e.StableID, e.Status).Inc()
		if e.Status == "failure" {
			s.failures.WithLabelValues(e.Type).Inc()
		}
	case "quarantine":
		s.quarantines.WithLabelValues(e.StableID).Inc()
	case "health_check_failed":
		s.failures.WithLabelValues(e.Type).Inc()
	}
	return nil
}
