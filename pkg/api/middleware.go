package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// securityHeaders sets standard security response headers on every
// response, including the dashboard-facing read endpoints.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Next()
	}
}

// requestLogger logs one structured line per request after it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
}

// requireOperator gates the kill-switch mutation endpoints behind a
// shared operator secret passed in the X-Operator-Key header. An empty
// configured key disables the check — acceptable for local development,
// never for a deployed instance.
func requireOperator(operatorKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if operatorKey == "" {
			c.Next()
			return
		}
		if c.Request.Header.Get("X-Operator-Key") != operatorKey {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing or invalid operator key"})
			return
		}
		c.Next()
	}
}
