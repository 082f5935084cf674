package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Muhammed5500/neuro-core/pkg/apperr"
)

// writeError maps a component error to an HTTP status and writes the
// JSON error envelope. apperr.Code carries its own classification;
// anything else is logged and surfaced as a 500 without detail.
func writeError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(statusForCode(appErr.Code), gin.H{"error": appErr.Code, "message": appErr.Message})
		return
	}
	slog.Error("unexpected api error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "internal server error"})
}

func statusForCode(code apperr.Code) int {
	switch code {
	case apperr.CodeUnknownRequest, apperr.CodeUnknownSession:
		return http.StatusNotFound
	case apperr.CodeMalformedMessage, apperr.CodeInvalidSignature:
		return http.StatusBadRequest
	case apperr.CodeKillSwitchActive, apperr.CodeSessionRevoked, apperr.CodeSessionExpired,
		apperr.CodeTimelockNotExpired, apperr.CodePolicyViolation:
		return http.StatusConflict
	case apperr.CodeBudgetExceeded, apperr.CodeVelocityExceeded, apperr.CodeTargetNotAllowed,
		apperr.CodeMethodNotAllowed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
