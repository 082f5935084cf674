package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getSessionHandler reports one session key's decrypted status —
// spend-to-date, remaining budget, and lifecycle state — never the
// session's public key material beyond what Retrieve already exposes.
func (s *Server) getSessionHandler(c *gin.Context) {
	session, err := s.orch.Sessions.Retrieve(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
