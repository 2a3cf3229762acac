// Package domain holds the core types shared across the engine: the
// ephemeral Container Snapshot, the durable policy/history/event shapes,
// and the Decision the Policy Engine produces. No package in this module
// depends on the container runtime SDK or the storage format directly
// through these types — they are the contract between components.
package domain

import "time"

// Status mirrors the container lifecycle states the runtime reports.
type Status string

const (
	StatusRunning    Status = "running"
	StatusExited     Status = "exited"
	StatusPaused     Status = "paused"
	StatusRestarting Status = "restarting"
	StatusCreated    Status = "created"
	StatusDead       Status = "dead"
)

// Health mirrors the runtime healthcheck status.
type Health string

const (
	HealthNone      Health = "none"
	HealthHealthy   Health = "healthy"
	HealthUnhealthy Health = "unhealthy"
	HealthStarting  Health = "starting"
)

// Snapshot is the ephemeral, point-in-time view of a single container.
// It is produced on demand by the Runtime Adapter and never persisted.
type Snapshot struct {
	RuntimeID string
	Name      string
	Image     string
	Status    Status
	ExitCode  *int
	Health    Health
	Labels    map[string]string
	StartedAt time.Time
}
