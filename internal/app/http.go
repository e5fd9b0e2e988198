package app

import (
	"gorm.io/gorm"

	"github.com/stoalearn/stoa-backend/internal/http"
	httpH "github.com/stoalearn/stoa-backend/internal/http/handlers"
	httpMW "github.com/stoalearn/stoa-backend/internal/http/middleware"
	"github.com/stoalearn/stoa-backend/internal/observability"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	User         *httpH.UserHandler
	Realtime     *httpH.RealtimeHandler
	Lecture      *httpH.LectureHandler
	Prerequisite *httpH.PrerequisiteHandler
	Progress     *httpH.ProgressHandler
	Curriculum   *httpH.CurriculumHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(db),
		Auth:         httpH.NewAuthHandler(services.Auth),
		User:         httpH.NewUserHandler(services.User),
		Realtime:     httpH.NewRealtimeHandler(log, sseHub),
		Lecture:      httpH.NewLectureHandler(services.Lecture),
		Prerequisite: httpH.NewPrerequisiteHandler(services.Prerequisite, services.Emitter),
		Progress:     httpH.NewProgressHandler(services.Progress, services.Emitter),
		Curriculum:   httpH.NewCurriculumHandler(services.Curriculum, cfg.SeedPath, services.Emitter),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:     log,
		Metrics: metrics,

		AuthMiddleware: middleware.Auth,

		HealthHandler:       handlers.Health,
		AuthHandler:         handlers.Auth,
		UserHandler:         handlers.User,
		RealtimeHandler:     handlers.Realtime,
		LectureHandler:      handlers.Lecture,
		PrerequisiteHandler: handlers.Prerequisite,
		ProgressHandler:     handlers.Progress,
		CurriculumHandler:   handlers.Curriculum,
	})
}
