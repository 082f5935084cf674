package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Muhammed5500/neuro-core/pkg/treasury"
)

// treasurySnapshotHandler reports the current bucket balances and total.
func (s *Server) treasurySnapshotHandler(c *gin.Context) {
	buckets, total := s.orch.Ledger.Snapshot()
	c.JSON(http.StatusOK, gin.H{"buckets": buckets, "totalWei": total})
}

// treasuryEventsHandler lists the append-only PnL event log in full —
// callers filter/paginate client-side since the ledger keeps every
// event in memory for one process's lifetime.
func (s *Server) treasuryEventsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": s.orch.Ledger.Events()})
}

// treasuryReportHandler builds a monthly rollup over ?start=&end= (RFC3339),
// defaulting to the trailing 30 days ending now.
func (s *Server) treasuryReportHandler(c *gin.Context) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now

	if v := c.Query("start"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start timestamp"})
			return
		}
		start = parsed
	}
	if v := c.Query("end"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end timestamp"})
			return
		}
		end = parsed
	}

	all := s.orch.Ledger.Events()
	_, closingTotal := s.orch.Ledger.Snapshot()
	opening := closingTotal

	var inPeriod []treasury.PnLEvent
	for _, ev := range all {
		if ev.CreatedAt.Before(start) {
			continue
		}
		if !ev.CreatedAt.Before(end) {
			opening = opening.Sub(ev.NetAmountWei)
			continue
		}
		inPeriod = append(inPeriod, ev)
		opening = opening.Sub(ev.NetAmountWei)
	}

	// Withdrawal activity is reported empty here: the withdrawal queue
	// keeps no list-all accessor, only per-ID lookups, so this report
	// omits WithdrawalActivity rather than approximating it.
	report := treasury.BuildMonthlyReport(start, end, inPeriod, nil, opening, closingTotal, 0)
	c.JSON(http.StatusOK, report)
}
