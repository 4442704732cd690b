package handler

import (
	"github.com/dododo1295/studyroute/middleware"
	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/usecase"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
)

// bindJSON binds the body into req and answers 400 with a readable message on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.TrackError("validation")
		utils.BadRequest(c, utils.ValidationMessage(err))
		return false
	}
	return true
}

// caller returns the authenticated email or answers 401.
func caller(c *gin.Context) (string, bool) {
	email, ok := middleware.CurrentEmail(c)
	if !ok {
		utils.Unauthorized(c, "Missing or invalid token")
		return "", false
	}
	return email, true
}

// callerOwns checks that the email named in a request body is the caller's own.
func callerOwns(c *gin.Context, requested string) (string, bool) {
	email, ok := caller(c)
	if !ok {
		return "", false
	}
	if model.NormalizeEmail(requested) != email {
		utils.Forbidden(c, "You can only modify your own data")
		return "", false
	}
	return email, true
}

func clientInfo(c *gin.Context) usecase.ClientInfo {
	return usecase.ClientInfo{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
}
