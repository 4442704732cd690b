package middleware

import "github.com/gin-gonic/gin"

// CacheControlMiddleware sets Cache-Control on every response, e.g. "no-store"
// for endpoints returning personal data.
func CacheControlMiddleware(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
