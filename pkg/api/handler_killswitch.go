package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// killSwitchStatusHandler reports the current halt flag; unauthenticated,
// since read-only status is safe to expose to the dashboard.
func (s *Server) killSwitchStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, killSwitchResponse{Active: s.orch.KillSwitch.IsActive()})
}

type killSwitchRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// activateKillSwitchHandler halts the process: every queued plan is
// dropped, every session revoked, every pending/ready withdrawal
// cancelled, and an alert published on the bus — gated behind
// requireOperator in setupRoutes.
func (s *Server) activateKillSwitchHandler(c *gin.Context) {
	var req killSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}
	actor := extractActor(c)
	if err := s.orch.KillSwitch.Activate(c.Request.Context(), actor, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, actionResponse{OK: true, Actor: actor, Reason: req.Reason})
}

// deactivateKillSwitchHandler clears the halt flag. Sessions and queued
// plans stay cleared — resuming requires creating fresh sessions and
// re-approving any plan, matching Deactivate's own contract.
func (s *Server) deactivateKillSwitchHandler(c *gin.Context) {
	var req killSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}
	actor := extractActor(c)
	s.orch.KillSwitch.Deactivate(actor, req.Reason)
	c.JSON(http.StatusOK, actionResponse{OK: true, Actor: actor, Reason: req.Reason})
}
