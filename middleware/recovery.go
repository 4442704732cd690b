package middleware

import (
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns a panic into a logged 500 with the usual error body.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				utils.TrackError("panic")
				utils.Logger().Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(RequestIDKey)),
					zap.Stack("stack"))
				utils.InternalError(c, "internal server error")
			}
		}()
		c.Next()
	}
}
