// Package api exposes the thin management router (C9): a gin surface
// over the engine's read models and mutation operations with no
// session or auth layer, matching the "interfaces only" framing of the
// system's external collaborators. Handlers call straight into the
// Durable Store, Runtime Adapter, and Restart Executor; no business
// logic lives here. Grounded on the teacher's handler-per-resource
// layout (NewXHandler(group, services...) registering its own
// sub-group), stripped of auth middleware and the huma/OpenAPI layer.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/containerwarden/warden/internal/domain"
)

// Runtime is the capability the router needs from the Runtime Adapter.
type Runtime interface {
	List(ctx context.Context, includeStopped bool) ([]domain.Snapshot, error)
	Inspect(ctx context.Context, runtimeID string) (domain.Snapshot, error)
}

// Executor is the capability the router needs from the Restart Executor.
type Executor interface {
	Restart(ctx context.Context, stableID, name, runtimeID string, stopTimeout time.Duration) error
}

// Store is the capability the router needs from the Durable Store.
type Store interface {
	GetConfig() domain.PolicyConfig
	PutRestartPolicy(p domain.RestartPolicy) error
	PutMonitorPolicy(m domain.MonitorPolicy) error
	PutUptimeConfig(u domain.UptimeConfig) error
	PutObservabilityConfig(o domain.ObservabilityConfig) error
	Select(stableID string) error
	Deselect(stableID string) error
	IsQuarantined(stableID string) bool
	Unquarantine(stableID string) error
	CountTotal(stableID string) int
	CountRecent(stableID string, window time.Duration, now time.Time) int
	RecentEvents(n int) []domain.Event
	ClearEvents() error
	GetMaintenance() domain.MaintenanceFlag
	SetMaintenance(active bool) error
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface{ Now() time.Time }

// Server bundles the engine capabilities the handlers dispatch to.
type Server struct {
	runtime  Runtime
	store    Store
	executor Executor
	clock    Clock
}

// NewRouter builds a ready-to-serve gin.Engine for the management
// surface.
func NewRouter(rt Runtime, st Store, ex Executor, clock Clock) *gin.Engine {
	s := &Server{runtime: rt, store: st, executor: ex, clock: clock}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sloggin.NewWithFilters(slog.Default(), sloggin.IgnorePath("/api/health")))
	router.Use(cors.Default())

	group := router.Group("/api")
	s.registerSystemRoutes(group)
	s.registerContainerRoutes(group)
	s.registerConfigRoutes(group)
	s.registerEventRoutes(group)

	return router
}
