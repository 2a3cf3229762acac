// Package policy implements the Policy Engine (C4): a pure function from
// container state, restart history, and configuration to a Decision. It
// has no knowledge of the runtime SDK, the store's file format, or wall
// clock — every temporal value is passed in, which is what makes the
// whole engine unit-testable without real sleeps.
package policy

import (
	"time"

	"github.com/containerwarden/warden/internal/domain"
)

// Input bundles everything the Policy Engine needs to decide on one
// stable id for one tick. Constructing it is the caller's job (Monitor
// Loop, Uptime Integration); Decide itself touches
// nothing but these fields.
type Input struct {
	Snapshot     domain.Snapshot
	StableID     string
	Maintenance  bool
	Quarantined  bool
	Monitored    bool
	Policy       domain.RestartPolicy
	RecentCount  int       // count_recent(stable_id, max_restarts_window_seconds)
	LastRestart  time.Time // zero value means "never restarted"
	Now          time.Time
}

// Decide runs the decision procedure in section 4.4 of the engine's
// design: maintenance, monitored-set membership, quarantine, health
// classification, then rate/cooldown gating — first match wins.
func Decide(in Input) domain.Decision {
	if in.Maintenance {
		return domain.Skip(domain.SkipMaintenance)
	}
	if !in.Monitored {
		return domain.Skip(domain.SkipNotMonitored)
	}
	if in.Quarantined {
		return domain.Skip(domain.SkipQuarantined)
	}

	terminal, isCandidate := classify(in.Snapshot, in.Policy)
	if !isCandidate {
		return terminal
	}

	if in.RecentCount >= in.Policy.MaxRestarts {
		return domain.Quarantine(domain.QuarantineRateExceeded)
	}

	spacing := requiredSpacing(in.Policy, in.RecentCount)
	if !in.LastRestart.IsZero() {
		elapsed := in.Now.Sub(in.LastRestart).Seconds()
		if elapsed < spacing {
			return domain.SkipWithCooldown(spacing - elapsed)
		}
	}

	return domain.Restart(0)
}

// requiredSpacing computes the minimum wall-clock gap required before
// the next restart: cooldown plus, when backoff is enabled, an additive
// term keyed off how many restarts have already landed in the window.
func requiredSpacing(p domain.RestartPolicy, recent int) float64 {
	return p.CooldownSeconds + p.Backoff.Term(recent)
}

// classify maps container state to either a terminal Decision (Observe
// or Skip(manual-stop)) or signals that the snapshot is a restart
// candidate via the second return value, meaning "proceed to
// rate/cooldown gating". Health failure takes precedence over exit-code
// failure when both could apply, since a Snapshot in practice only
// reports one active signal at a time but the ordering below makes that
// precedence explicit regardless.
func classify(s domain.Snapshot, p domain.RestartPolicy) (terminal domain.Decision, isCandidate bool) {
	switch {
	case s.Status == domain.StatusRunning && s.Health == domain.HealthHealthy:
		return domain.Observe(), false
	case s.Status == domain.StatusRunning && s.Health == domain.HealthNone:
		return domain.Observe(), false
	case s.Status == domain.StatusRunning && s.Health == domain.HealthStarting:
		return domain.Observe(), false
	case s.Status == domain.StatusRunning && s.Health == domain.HealthUnhealthy:
		if p.Mode == domain.ModeHealth || p.Mode == domain.ModeBoth {
			return domain.Decision{}, true
		}
		return domain.Observe(), false
	case s.Status == domain.StatusExited && s.ExitCode != nil && *s.ExitCode == 0:
		if p.RespectManualStop {
			return domain.Skip(domain.SkipManualStop), false
		}
		return domain.Observe(), false
	case s.Status == domain.StatusExited && s.ExitCode != nil && *s.ExitCode != 0:
		if p.Mode == domain.ModeOnFailure || p.Mode == domain.ModeBoth {
			return domain.Decision{}, true
		}
		return domain.Observe(), false
	case s.Status == domain.StatusPaused, s.Status == domain.StatusCreated,
		s.Status == domain.StatusRestarting, s.Status == domain.StatusDead:
		return domain.Observe(), false
	default:
		return domain.Observe(), false
	}
}
