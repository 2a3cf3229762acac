package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerEventRoutes(group *gin.RouterGroup) {
	events := group.Group("/events")
	events.GET("", s.listEvents)
	events.DELETE("", s.clearEvents)
}

func (s *Server) listEvents(c *gin.Context) {
	n := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": s.store.RecentEvents(n)})
}

func (s *Server) clearEvents(c *gin.Context) {
	if err := s.store.ClearEvents(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "data": gin.H{"error": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
