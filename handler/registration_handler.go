package handler

import (
	"github.com/dododo1295/studyroute/dto"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
)

// Register creates the account and logs the new user in right away.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		utils.TrackAuthAttempt("invalid", "register")
		return
	}

	ctx := c.Request.Context()
	user, err := h.auth.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	session, err := h.auth.StartSession(ctx, user, clientInfo(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, dto.ToAuthResponse(session.User, session.Token, session.ExpiresAt))
}
