package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/services"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys under which the authenticated identity is stored on the request.
const (
	ContextEmailKey     = "auth_email"
	ContextSessionIDKey = "auth_session_id"
)

// Authenticator resolves a bearer token; usecase.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Claims, error)
}

// AuthMiddleware requires a valid bearer token whose session is still open and
// makes the caller's email available through CurrentEmail.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.Unauthorized(c, "Missing or invalid token")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			utils.Logger().Debug("token rejected", zap.String("path", c.FullPath()), zap.Error(err))
			switch {
			case errors.Is(err, model.ErrSessionNotFound):
				utils.Unauthorized(c, "Session expired or revoked")
			case errors.Is(err, model.ErrNotAuthenticated):
				utils.Unauthorized(c, "Invalid token")
			default:
				utils.RespondError(c, err)
			}
			return
		}

		c.Set(ContextEmailKey, claims.Email())
		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Next()
	}
}

// CurrentEmail returns the authenticated caller. ok is false outside AuthMiddleware.
func CurrentEmail(c *gin.Context) (string, bool) {
	email := c.GetString(ContextEmailKey)
	return email, email != ""
}

func CurrentSessionID(c *gin.Context) string {
	return c.GetString(ContextSessionIDKey)
}
