package handler

import (
	"net/http"

	"github.com/dododo1295/studyroute/dto"
	"github.com/dododo1295/studyroute/usecase"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
)

// ProgressHandler serves the endpoints that read or change a user's record.
type ProgressHandler struct {
	progress *usecase.ProgressService
}

func NewProgressHandler(progress *usecase.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// Me returns the caller's record and dashboard figures.
func (h *ProgressHandler) Me(c *gin.Context) {
	email, ok := caller(c)
	if !ok {
		return
	}

	user, err := h.progress.Get(c.Request.Context(), email)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, dto.ProfileResponse{
		User:     user.Summary(),
		UserData: user.Public(),
		Stats:    usecase.Summarize(user),
		Links: map[string]dto.Link{
			"self":          {Href: "/api/me", Method: http.MethodGet},
			"update-points": {Href: "/api/update-points", Method: http.MethodPost},
			"save-data":     {Href: "/api/save-user-data", Method: http.MethodPost},
			"routes":        {Href: "/api/routes", Method: http.MethodPost},
			"notes":         {Href: "/api/notes", Method: http.MethodGet},
		},
	})
}

// UpdatePoints adds the points delta from the body to the caller's total.
func (h *ProgressHandler) UpdatePoints(c *gin.Context) {
	var req dto.UpdatePointsRequest
	if !bindJSON(c, &req) {
		return
	}
	email, ok := callerOwns(c, req.Email)
	if !ok {
		return
	}

	user, err := h.progress.AddPoints(c.Request.Context(), email, *req.Points)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, user.Public())
}

// SaveUserData applies newData as a field-level patch and returns the merged record.
func (h *ProgressHandler) SaveUserData(c *gin.Context) {
	var req dto.SaveUserDataRequest
	if !bindJSON(c, &req) {
		return
	}
	email, ok := callerOwns(c, req.Email)
	if !ok {
		return
	}

	patch, err := req.Patch()
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	user, err := h.progress.ApplyPatch(c.Request.Context(), email, patch)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, user.Public())
}
