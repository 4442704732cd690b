package handler

import (
	"github.com/dododo1295/studyroute/middleware"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
)

// Logout closes the session behind the caller's token.
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, ok := caller(c); !ok {
		return
	}

	if err := h.auth.Logout(c.Request.Context(), middleware.CurrentSessionID(c)); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.TrackAuthAttempt("success", "logout")
	utils.Success(c, gin.H{"message": "Successfully logged out"})
}
