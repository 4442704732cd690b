package middleware

import (
	"time"

	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDKey = "request_id"

// RequestTracingMiddleware tags every request with an id, reusing a valid
// incoming X-Request-ID.
func RequestTracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// RequestLogger writes one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString(RequestIDKey)),
		}
		if email, ok := CurrentEmail(c); ok {
			fields = append(fields, zap.String("email", email))
		}

		switch {
		case status >= 500:
			utils.Logger().Error("request", fields...)
		case status >= 400:
			utils.Logger().Warn("request", fields...)
		default:
			utils.Logger().Info("request", fields...)
		}
	}
}
