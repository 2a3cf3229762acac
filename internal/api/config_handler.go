package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/containerwarden/warden/internal/domain"
	"github.com/containerwarden/warden/internal/storeerr"
)

func (s *Server) registerConfigRoutes(group *gin.RouterGroup) {
	cfg := group.Group("/config")
	cfg.GET("", s.getConfig)
	cfg.PUT("/restart", s.putRestartPolicy)
	cfg.PUT("/monitor", s.putMonitorPolicy)
	cfg.PUT("/uptime", s.putUptimeConfig)
	cfg.PUT("/observability", s.putObservabilityConfig)
}

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.store.GetConfig()})
}

func (s *Server) putRestartPolicy(c *gin.Context) {
	var p domain.RestartPolicy
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}
	if err := s.store.PutRestartPolicy(p); err != nil {
		writePolicyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.store.GetConfig().Restart})
}

func (s *Server) putMonitorPolicy(c *gin.Context) {
	var m domain.MonitorPolicy
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}
	if err := s.store.PutMonitorPolicy(m); err != nil {
		writePolicyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.store.GetConfig().Monitor})
}

func (s *Server) putUptimeConfig(c *gin.Context) {
	var u domain.UptimeConfig
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}
	if err := s.store.PutUptimeConfig(u); err != nil {
		writePolicyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.store.GetConfig().Uptime})
}

func (s *Server) putObservabilityConfig(c *gin.Context) {
	var o domain.ObservabilityConfig
	if err := c.ShouldBindJSON(&o); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}
	if err := s.store.PutObservabilityConfig(o); err != nil {
		writePolicyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.store.GetConfig().Observability})
}

func writePolicyError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if storeerr.IsPolicyViolation(err) {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
}
