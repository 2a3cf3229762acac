package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/containerwarden/warden/internal/domain"
)

func exitCode(n int) *int { return &n }

func basePolicy() domain.RestartPolicy {
	return domain.RestartPolicy{
		Mode:                    domain.ModeHealth,
		CooldownSeconds:         10,
		MaxRestarts:             3,
		MaxRestartsWindowSecond: 60,
		RespectManualStop:       true,
	}
}

// Scenario 1: simple unhealthy restart.
func TestDecide_SimpleUnhealthyRestart(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	in := Input{
		Snapshot:    domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthUnhealthy},
		StableID:    "svc_a",
		Monitored:   true,
		Policy:      basePolicy(),
		RecentCount: 0,
		Now:         now,
	}
	d := Decide(in)
	require.Equal(t, domain.DecisionRestart, d.Kind)
}

// Scenario 2: cooldown block.
func TestDecide_CooldownBlock(t *testing.T) {
	t0 := time.Unix(0, 0).UTC()
	t5 := t0.Add(5 * time.Second)
	in := Input{
		Snapshot:    domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthUnhealthy},
		StableID:    "svc_a",
		Monitored:   true,
		Policy:      basePolicy(),
		RecentCount: 1,
		LastRestart: t0,
		Now:         t5,
	}
	d := Decide(in)
	require.Equal(t, domain.DecisionSkip, d.Kind)
	require.Equal(t, domain.SkipCooldown, d.SkipReason)
	require.InDelta(t, 5.0, d.CooldownRemain, 0.001)
}

// Scenario 3: quarantine after burst.
func TestDecide_QuarantineAfterBurst(t *testing.T) {
	p := domain.RestartPolicy{
		Mode:                    domain.ModeHealth,
		CooldownSeconds:         1,
		MaxRestarts:             3,
		MaxRestartsWindowSecond: 60,
	}
	base := time.Unix(0, 0).UTC()
	// at t=6, recent_count=3 (restarts at 0,2,4) >= max_restarts=3 -> quarantine
	in := Input{
		Snapshot:    domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthUnhealthy},
		StableID:    "svc_a",
		Monitored:   true,
		Policy:      p,
		RecentCount: 3,
		LastRestart: base.Add(4 * time.Second),
		Now:         base.Add(6 * time.Second),
	}
	d := Decide(in)
	require.Equal(t, domain.DecisionQuarantine, d.Kind)
	require.Equal(t, domain.QuarantineRateExceeded, d.QuarantineReason)
}

// Scenario 4: manual stop respected.
func TestDecide_ManualStopRespected(t *testing.T) {
	p := domain.RestartPolicy{Mode: domain.ModeOnFailure, RespectManualStop: true, MaxRestarts: 3, MaxRestartsWindowSecond: 60}
	in := Input{
		Snapshot:  domain.Snapshot{Status: domain.StatusExited, ExitCode: exitCode(0)},
		StableID:  "svc_a",
		Monitored: true,
		Policy:    p,
		Now:       time.Unix(0, 0).UTC(),
	}
	d := Decide(in)
	require.Equal(t, domain.DecisionSkip, d.Kind)
	require.Equal(t, domain.SkipManualStop, d.SkipReason)
}

func TestDecide_MaintenanceSuppressesEverything(t *testing.T) {
	in := Input{
		Snapshot:    domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthUnhealthy},
		Maintenance: true,
		Monitored:   true,
		Policy:      basePolicy(),
	}
	d := Decide(in)
	require.Equal(t, domain.DecisionSkip, d.Kind)
	require.Equal(t, domain.SkipMaintenance, d.SkipReason)
}

func TestDecide_NotMonitoredSkipped(t *testing.T) {
	in := Input{
		Snapshot:  domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthUnhealthy},
		Monitored: false,
		Policy:    basePolicy(),
	}
	d := Decide(in)
	require.Equal(t, domain.SkipNotMonitored, d.SkipReason)
}

func TestDecide_QuarantinedSkipped(t *testing.T) {
	in := Input{
		Snapshot:    domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthUnhealthy},
		Monitored:   true,
		Quarantined: true,
		Policy:      basePolicy(),
	}
	d := Decide(in)
	require.Equal(t, domain.SkipQuarantined, d.SkipReason)
}

func TestDecide_HealthyIsObserve(t *testing.T) {
	in := Input{
		Snapshot:  domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthHealthy},
		Monitored: true,
		Policy:    basePolicy(),
	}
	require.Equal(t, domain.DecisionObserve, Decide(in).Kind)
}

func TestDecide_OnFailureModeIgnoresHealthFailure(t *testing.T) {
	p := basePolicy()
	p.Mode = domain.ModeOnFailure
	in := Input{
		Snapshot:  domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthUnhealthy},
		Monitored: true,
		Policy:    p,
	}
	require.Equal(t, domain.DecisionObserve, Decide(in).Kind)
}

func TestDecide_ExitNonZeroRestartsUnderOnFailure(t *testing.T) {
	p := domain.RestartPolicy{Mode: domain.ModeOnFailure, MaxRestarts: 3, MaxRestartsWindowSecond: 60}
	in := Input{
		Snapshot:  domain.Snapshot{Status: domain.StatusExited, ExitCode: exitCode(137)},
		Monitored: true,
		Policy:    p,
	}
	require.Equal(t, domain.DecisionRestart, Decide(in).Kind)
}

func TestDecide_BackoffAddsToSpacing(t *testing.T) {
	p := domain.RestartPolicy{
		Mode:                    domain.ModeHealth,
		CooldownSeconds:         1,
		MaxRestarts:             5,
		MaxRestartsWindowSecond: 300,
		Backoff: domain.BackoffConfig{
			Enabled:        true,
			InitialSeconds: 10,
			Multiplier:     2,
			MaxSeconds:     300,
		},
	}
	base := time.Unix(0, 0).UTC()
	// recent=2 restarts already -> backoff term = 10*2^2=40, spacing=41s
	in := Input{
		Snapshot:    domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthUnhealthy},
		Monitored:   true,
		Policy:      p,
		RecentCount: 2,
		LastRestart: base,
		Now:         base.Add(30 * time.Second),
	}
	d := Decide(in)
	require.Equal(t, domain.DecisionSkip, d.Kind)
	require.Equal(t, domain.SkipCooldown, d.SkipReason)
	require.InDelta(t, 11.0, d.CooldownRemain, 0.001)
}

func TestDecide_IsPureFunction(t *testing.T) {
	in := Input{
		Snapshot:    domain.Snapshot{Status: domain.StatusRunning, Health: domain.HealthUnhealthy},
		Monitored:   true,
		Policy:      basePolicy(),
		RecentCount: 0,
		Now:         time.Unix(100, 0).UTC(),
	}
	require.Equal(t, Decide(in), Decide(in))
}

func TestRestartPolicy_Validate_RejectsUnreachableQuarantine(t *testing.T) {
	p := domain.RestartPolicy{
		Mode:                    domain.ModeHealth,
		CooldownSeconds:         30,
		MaxRestarts:             3,
		MaxRestartsWindowSecond: 60, // needs >= 90 given cooldown=30, interval<=30
	}
	err := p.Validate(10)
	require.Error(t, err)
}

func TestRestartPolicy_Validate_AcceptsReachableQuarantine(t *testing.T) {
	p := domain.RestartPolicy{
		Mode:                    domain.ModeHealth,
		CooldownSeconds:         10,
		MaxRestarts:             3,
		MaxRestartsWindowSecond: 60,
	}
	require.NoError(t, p.Validate(5))
}

func TestRestartPolicy_Validate_RejectsUnreachableWithBackoff(t *testing.T) {
	p := domain.RestartPolicy{
		Mode:                    domain.ModeHealth,
		CooldownSeconds:         5,
		MaxRestarts:             5,
		MaxRestartsWindowSecond: 60,
		Backoff: domain.BackoffConfig{
			Enabled:        true,
			InitialSeconds: 20,
			Multiplier:     3,
			MaxSeconds:     1000,
		},
	}
	require.Error(t, p.Validate(5))
}
