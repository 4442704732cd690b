package middleware

import (
	"net/http"

	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimiter caps request bodies at maxSize bytes.
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.TrackError("oversized_request")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, &utils.Response{
				Status: http.StatusRequestEntityTooLarge,
				Error:  "request body too large",
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// SecurityHeaders sets conservative defaults for a JSON API.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		c.Next()
	}
}
