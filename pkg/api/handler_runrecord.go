package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// listRunsHandler paginates run records newest-first, via ?limit=&offset=.
func (s *Server) listRunsHandler(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	records, err := s.orch.Records.List(limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": records, "limit": limit, "offset": offset})
}

// getRunHandler fetches one run record by its correlation ID.
func (s *Server) getRunHandler(c *gin.Context) {
	record, err := s.orch.Records.Load(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// verifyRunHandler recomputes a run record's input checksum and reports
// whether it still matches the stored one, catching tampering or a
// corrupted write.
func (s *Server) verifyRunHandler(c *gin.Context) {
	ok, err := s.orch.Records.Verify(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "checksumValid": ok})
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
