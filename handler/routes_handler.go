package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/dododo1295/studyroute/dto"
	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
)

// CreateRoute stores a route produced by the content generator.
func (h *ProgressHandler) CreateRoute(c *gin.Context) {
	email, ok := caller(c)
	if !ok {
		return
	}

	var route model.Route
	if !bindJSON(c, &route) {
		return
	}

	created, err := h.progress.AddRoute(c.Request.Context(), email, route)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, dto.ToRouteResponse(*created))
}

func (h *ProgressHandler) GetRoute(c *gin.Context) {
	email, ok := caller(c)
	if !ok {
		return
	}

	rp, err := h.progress.GetRoute(c.Request.Context(), email, c.Param("routeId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, dto.ToRouteResponse(rp.Route))
}

func (h *ProgressHandler) DeleteRoute(c *gin.Context) {
	email, ok := caller(c)
	if !ok {
		return
	}

	user, err := h.progress.DeleteRoute(c.Request.Context(), email, c.Param("routeId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, user.Public())
}

// ToggleActivity flips an activity. The body is optional; studyMinutes feeds
// the focus bonus.
func (h *ProgressHandler) ToggleActivity(c *gin.Context) {
	email, ok := caller(c)
	if !ok {
		return
	}

	activityID, ok := activityParam(c)
	if !ok {
		return
	}

	var req dto.ToggleActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, utils.ValidationMessage(err))
		return
	}

	res, err := h.progress.ToggleActivity(c.Request.Context(), email, c.Param("routeId"), activityID, req.StudyMinutes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.Success(c, dto.ToggleActivityResponse{
		User:     res.User.Summary(),
		Route:    res.Route,
		Activity: res.Activity,
		Delta:    res.Delta,
		Progress: res.Route.ProgressPercentage(),
	})
}

func activityParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("activityId"))
	if err != nil || id <= 0 {
		utils.BadRequest(c, "activityId must be a positive integer")
		return 0, false
	}
	return id, true
}
