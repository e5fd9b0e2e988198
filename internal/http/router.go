package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	httpH "github.com/stoalearn/stoa-backend/internal/http/handlers"
	httpMW "github.com/stoalearn/stoa-backend/internal/http/middleware"
	"github.com/stoalearn/stoa-backend/internal/observability"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	AuthHandler         *httpH.AuthHandler
	UserHandler         *httpH.UserHandler
	RealtimeHandler     *httpH.RealtimeHandler
	LectureHandler      *httpH.LectureHandler
	PrerequisiteHandler *httpH.PrerequisiteHandler
	ProgressHandler     *httpH.ProgressHandler
	CurriculumHandler   *httpH.CurriculumHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("stoa-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.CORS())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readycheck", cfg.HealthHandler.ReadyCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public). Refresh is public: the access token it replaces
		// is usually already expired.
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
			protected.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
			protected.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/user/name", cfg.UserHandler.ChangeName)
		}

		// Lectures (read)
		if cfg.LectureHandler != nil {
			protected.GET("/lectures", cfg.LectureHandler.ListLectures)
			protected.GET("/lectures/:id", cfg.LectureHandler.GetLecture)
		}

		// Prerequisites and readiness (read)
		if cfg.PrerequisiteHandler != nil {
			protected.GET("/lectures/:id/prerequisites", cfg.PrerequisiteHandler.ListPrerequisites)
			protected.GET("/lectures/:id/readiness", cfg.PrerequisiteHandler.CheckReadiness)
			protected.GET("/lectures/availability", cfg.PrerequisiteHandler.ListAvailability)
			protected.GET("/lectures/suggestions", cfg.PrerequisiteHandler.SuggestNextLectures)
		}

		// Progress
		if cfg.ProgressHandler != nil {
			protected.GET("/progress", cfg.ProgressHandler.ListProgress)
			protected.GET("/lectures/:id/progress", cfg.ProgressHandler.GetProgress)
			protected.PUT("/lectures/:id/progress", cfg.ProgressHandler.UpdateProgress)
		}
	}

	admin := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireAuth())
			admin.Use(cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
		}

		// Lectures (write)
		if cfg.LectureHandler != nil {
			admin.POST("/lectures", cfg.LectureHandler.CreateLecture)
			admin.PATCH("/lectures/:id", cfg.LectureHandler.UpdateLecture)
			admin.DELETE("/lectures/:id", cfg.LectureHandler.DeleteLecture)
		}

		// Prerequisite graph (write)
		if cfg.PrerequisiteHandler != nil {
			admin.POST("/prerequisites", cfg.PrerequisiteHandler.AddPrerequisite)
			admin.PATCH("/prerequisites/:id", cfg.PrerequisiteHandler.UpdatePrerequisite)
			admin.DELETE("/prerequisites/:id", cfg.PrerequisiteHandler.RemovePrerequisite)
		}

		// Curriculum seeding
		if cfg.CurriculumHandler != nil {
			admin.POST("/curriculum/seed", cfg.CurriculumHandler.Seed)
		}
	}

	return r
}
