package api

import "github.com/gin-gonic/gin"

// extractActor identifies the caller for kill-switch audit trails.
// Priority: X-Forwarded-User > X-Forwarded-Email > "api-client", matching
// an oauth2-proxy-fronted deployment where those headers are trusted.
func extractActor(c *gin.Context) string {
	if user := c.Request.Header.Get("X-Forwarded-User"); user != "" {
		return user
	}
	if email := c.Request.Header.Get("X-Forwarded-Email"); email != "" {
		return email
	}
	return "api-client"
}
