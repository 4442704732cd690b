package handler

import (
	"github.com/dododo1295/studyroute/dto"
	"github.com/dododo1295/studyroute/usecase"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth *usecase.AuthService
}

func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login answers 404 for an unknown email and 401 for a wrong password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		utils.TrackAuthAttempt("failure", "validation")
		return
	}

	ctx := c.Request.Context()
	user, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	session, err := h.auth.StartSession(ctx, user, clientInfo(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Logger().Info("login",
		zap.String("email", user.Email),
		zap.String("session", session.Session.DisplayName))
	utils.Success(c, dto.ToAuthResponse(session.User, session.Token, session.ExpiresAt))
}
