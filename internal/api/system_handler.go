package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/containerwarden/warden/internal/identity"
)

func (s *Server) registerSystemRoutes(group *gin.RouterGroup) {
	group.GET("/health", s.getHealth)
	group.GET("/system/status", s.getSystemStatus)
	group.POST("/system/maintenance", s.setMaintenance)
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"status": "ok"}})
}

func (s *Server) getSystemStatus(c *gin.Context) {
	snapshots, err := s.runtime.List(c.Request.Context(), true)
	runtimeConnected := err == nil

	cfg := s.store.GetConfig()
	total := len(snapshots)
	monitored := 0
	quarantined := 0
	for _, snap := range snapshots {
		stableID := identity.Resolve(snap)
		if cfg.Monitor.IsMonitored(stableID, snap.Labels) {
			monitored++
		}
		if s.store.IsQuarantined(stableID) {
			quarantined++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_containers":     total,
			"monitored_containers": monitored,
			"quarantined_count":    quarantined,
			"maintenance":          s.store.GetMaintenance(),
			"runtime_connected":    runtimeConnected,
		},
	})
}

func (s *Server) setMaintenance(c *gin.Context) {
	var body struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}

	if err := s.store.SetMaintenance(body.Active); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.store.GetMaintenance()})
}
