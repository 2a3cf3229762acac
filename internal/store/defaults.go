package store

import "github.com/containerwarden/warden/internal/domain"

func defaultPolicyConfig() domain.PolicyConfig {
	return domain.PolicyConfig{
		Restart: domain.RestartPolicy{
			Mode:                    domain.ModeHealth,
			CooldownSeconds:         30,
			MaxRestarts:             5,
			MaxRestartsWindowSecond: 300,
			RespectManualStop:       true,
			StopTimeoutSeconds:      10,
		},
		Monitor: domain.MonitorPolicy{
			IntervalSeconds: 15,
			LabelKey:        "autoheal",
			LabelValue:      "true",
			IncludeAll:      false,
			Selected:        map[string]bool{},
			Excluded:        map[string]bool{},
		},
		Uptime: domain.UptimeConfig{
			Mapping: map[string]string{},
		},
		Observability: domain.ObservabilityConfig{},
	}
}
