package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// healthHandler reports process health: the database connection (when
// wired) and the kill-switch flag, which a monitoring dashboard needs to
// surface even when everything else is healthy.
func (s *Server) healthHandler(c *gin.Context) {
	resp := healthResponse{
		Status:     "healthy",
		KillSwitch: s.orch.KillSwitch.IsActive(),
	}

	if s.dbClient != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		status, err := s.dbClient.Health(ctx)
		if err != nil {
			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = status.Status
	}

	c.JSON(http.StatusOK, resp)
}
