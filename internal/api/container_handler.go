package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/containerwarden/warden/internal/identity"
)

type containerSummary struct {
	StableID           string            `json:"stable_id"`
	RuntimeID          string            `json:"runtime_id"`
	Name               string            `json:"name"`
	Status             string            `json:"status"`
	Health             string            `json:"health"`
	Monitored          bool              `json:"monitored"`
	Quarantined        bool              `json:"quarantined"`
	TotalRestartCount  int               `json:"total_restart_count"`
	RecentRestartCount int               `json:"recent_restart_count"`
	Labels             map[string]string `json:"labels"`
}

func (s *Server) registerContainerRoutes(group *gin.RouterGroup) {
	containers := group.Group("/containers")
	containers.GET("", s.listContainers)
	containers.GET("/:id", s.getContainer)
	containers.POST("/:id/select", s.selectContainer)
	containers.POST("/:id/deselect", s.deselectContainer)
	containers.POST("/:id/restart", s.restartContainer)
	containers.POST("/:id/unquarantine", s.unquarantineContainer)
}

func (s *Server) listContainers(c *gin.Context) {
	snapshots, err := s.runtime.List(c.Request.Context(), true)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}

	cfg := s.store.GetConfig()
	window := time.Duration(cfg.Restart.MaxRestartsWindowSecond) * time.Second
	now := s.clock.Now()

	out := make([]containerSummary, 0, len(snapshots))
	for _, snap := range snapshots {
		stableID := identity.Resolve(snap)
		out = append(out, containerSummary{
			StableID:           stableID,
			RuntimeID:          snap.RuntimeID,
			Name:               snap.Name,
			Status:             string(snap.Status),
			Health:             string(snap.Health),
			Monitored:          cfg.Monitor.IsMonitored(stableID, snap.Labels),
			Quarantined:        s.store.IsQuarantined(stableID),
			TotalRestartCount:  s.store.CountTotal(stableID),
			RecentRestartCount: s.store.CountRecent(stableID, window, now),
			Labels:             snap.Labels,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

func (s *Server) getContainer(c *gin.Context) {
	runtimeID := c.Param("id")
	snap, err := s.runtime.Inspect(c.Request.Context(), runtimeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}

	cfg := s.store.GetConfig()
	stableID := identity.Resolve(snap)
	window := time.Duration(cfg.Restart.MaxRestartsWindowSecond) * time.Second

	c.JSON(http.StatusOK, gin.H{"success": true, "data": containerSummary{
		StableID:           stableID,
		RuntimeID:          snap.RuntimeID,
		Name:               snap.Name,
		Status:             string(snap.Status),
		Health:             string(snap.Health),
		Monitored:          cfg.Monitor.IsMonitored(stableID, snap.Labels),
		Quarantined:        s.store.IsQuarantined(stableID),
		TotalRestartCount:  s.store.CountTotal(stableID),
		RecentRestartCount: s.store.CountRecent(stableID, window, s.clock.Now()),
		Labels:             snap.Labels,
	}})
}

func (s *Server) selectContainer(c *gin.Context) {
	if err := s.store.Select(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deselectContainer(c *gin.Context) {
	if err := s.store.Deselect(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) unquarantineContainer(c *gin.Context) {
	if err := s.store.Unquarantine(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) restartContainer(c *gin.Context) {
	runtimeID := c.Param("id")
	snap, err := s.runtime.Inspect(c.Request.Context(), runtimeID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}

	stableID := identity.Resolve(snap)
	cfg := s.store.GetConfig()
	stopTimeout := time.Duration(cfg.Restart.StopTimeoutSeconds) * time.Second

	if err := s.executor.Restart(c.Request.Context(), stableID, snap.Name, runtimeID, stopTimeout); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
