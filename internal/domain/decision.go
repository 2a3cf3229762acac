package domain

import "time"

// SkipReason names why the Policy Engine declined to act.
type SkipReason string

const (
	SkipMaintenance SkipReason = "maintenance"
	SkipNotMonitored SkipReason = "not-monitored"
	SkipQuarantined SkipReason = "quarantined"
	SkipManualStop  SkipReason = "manual-stop"
	SkipCooldown    SkipReason = "cooldown"
)

// QuarantineReason names why the Policy Engine quarantined a stable id.
type QuarantineReason string

const (
	QuarantineRateExceeded QuarantineReason = "rate-exceeded"
)

// DecisionKind distinguishes the four possible Policy Engine outcomes.
type DecisionKind string

const (
	DecisionSkip       DecisionKind = "skip"
	DecisionObserve    DecisionKind = "observe"
	DecisionRestart    DecisionKind = "restart"
	DecisionQuarantine DecisionKind = "quarantine"
)

// Decision is the pure output of the Policy Engine for one stable id on
// one tick. At most one of SkipReason/QuarantineReason is meaningful,
// selected by Kind (SkipReason for skip, QuarantineReason for
// quarantine, neither for observe or restart).
type Decision struct {
	Kind             DecisionKind
	SkipReason       SkipReason
	QuarantineReason QuarantineReason
	DelaySeconds     float64
	CooldownRemain   float64
}

func Skip(reason SkipReason) Decision { return Decision{Kind: DecisionSkip, SkipReason: reason} }

func SkipWithCooldown(remaining float64) Decision {
	return Decision{Kind: DecisionSkip, SkipReason: SkipCooldown, CooldownRemain: remaining}
}

func Observe() Decision { return Decision{Kind: DecisionObserve} }

func Restart(delaySeconds float64) Decision {
	return Decision{Kind: DecisionRestart, DelaySeconds: delaySeconds}
}

func Quarantine(reason QuarantineReason) Decision {
	return Decision{Kind: DecisionQuarantine, QuarantineReason: reason}
}

// EventType names the kind of durable event recorded in the event ring.
type EventType string

const (
	EventRestart            EventType = "restart"
	EventQuarantine         EventType = "quarantine"
	EventUnquarantine       EventType = "unquarantine"
	EventHealthCheckFailed  EventType = "health_check_failed"
	EventAutoMonitor        EventType = "auto_monitor"
)

// EventStatus names the outcome of the event being recorded.
type EventStatus string

const (
	StatusSuccess    EventStatus = "success"
	StatusFailure    EventStatus = "failure"
	StatusQuarantined EventStatus = "quarantined"
	StatusEnabled    EventStatus = "enabled"
)

// Event is a single durable record in the bounded event ring.
type Event struct {
	ID            string      `json:"id"`
	Timestamp     time.Time   `json:"timestamp"`
	StableID      string      `json:"stable_id"`
	Name          string      `json:"name"`
	Type          EventType   `json:"event_type"`
	Status        EventStatus `json:"status"`
	RestartCount  int         `json:"restart_count"`
	Message       string      `json:"message"`
}
