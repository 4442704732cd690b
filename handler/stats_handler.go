package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dododo1295/studyroute/repository"
	"github.com/dododo1295/studyroute/usecase"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatsHandler struct {
	stats    *usecase.StatsService
	store    repository.UserStore
	sessions repository.SessionStore
	driver   string
}

func NewStatsHandler(stats *usecase.StatsService, store repository.UserStore, sessions repository.SessionStore, driver string) *StatsHandler {
	return &StatsHandler{stats: stats, store: store, sessions: sessions, driver: driver}
}

// GetUserStats returns the dashboard figures for the caller.
func (h *StatsHandler) GetUserStats(c *gin.Context) {
	email, ok := caller(c)
	if !ok {
		return
	}

	stats, err := h.stats.Dashboard(c.Request.Context(), email)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, stats)
}

// Health pings the user and session stores and reports host load. Any
// unreachable dependency answers 503.
func (h *StatsHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "ok"
	storeState, sessionState := "ok", "ok"
	if err := h.store.Ping(ctx); err != nil {
		utils.Logger().Warn("health check: store unreachable", zap.String("driver", h.driver), zap.Error(err))
		storeState = "unavailable"
	}
	if err := h.sessions.Ping(ctx); err != nil {
		utils.Logger().Warn("health check: session store unreachable", zap.Error(err))
		sessionState = "unavailable"
	}
	if storeState != "ok" || sessionState != "ok" {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	body := gin.H{
		"status":   overall,
		"store":    gin.H{"driver": h.driver, "status": storeState},
		"sessions": gin.H{"status": sessionState},
	}
	if c.Query("system") != "false" {
		body["system"] = utils.GetSystemStats(ctx)
	}

	c.JSON(status, &utils.Response{Status: status, Data: body})
}
