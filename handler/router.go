package handler

import (
	"github.com/dododo1295/studyroute/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBodyBytes bounds request bodies; a full save-user-data payload stays well below it.
const MaxBodyBytes = 5 << 20

type RouterConfig struct {
	Auth     *AuthHandler
	Progress *ProgressHandler
	Notes    *NotesHandler
	Stats    *StatsHandler

	// Authenticator backs the bearer-token check on protected routes.
	Authenticator middleware.Authenticator
	CORSOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.RequestTracingMiddleware())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimiter(MaxBodyBytes))

	router.GET("/health", cfg.Stats.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		public.POST("/register", cfg.Auth.Register)
		public.POST("/login", cfg.Auth.Login)
	}

	// Protected routes (authentication required)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.Authenticator))
	protected.Use(middleware.CacheControlMiddleware("no-store"))
	{
		protected.POST("/logout", cfg.Auth.Logout)
		protected.GET("/me", cfg.Progress.Me)
		protected.GET("/stats", cfg.Stats.GetUserStats)

		protected.POST("/update-points", cfg.Progress.UpdatePoints)
		protected.POST("/save-user-data", cfg.Progress.SaveUserData)

		routes := protected.Group("/routes")
		{
			routes.POST("", cfg.Progress.CreateRoute)
			routes.GET("/:routeId", cfg.Progress.GetRoute)
			routes.DELETE("/:routeId", cfg.Progress.DeleteRoute)
			routes.POST("/:routeId/activities/:activityId/toggle", cfg.Progress.ToggleActivity)
		}

		notes := protected.Group("/notes")
		{
			notes.GET("", cfg.Notes.ListNotes)
			notes.PUT("/:routeId/:activityId", cfg.Notes.SaveNote)
			notes.DELETE("/:routeId/:activityId", cfg.Notes.DeleteNote)
		}
	}

	return router
}
