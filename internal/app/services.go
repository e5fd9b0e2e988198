package app

import (
	"gorm.io/gorm"

	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/realtime"
	"github.com/stoalearn/stoa-backend/internal/realtime/bus"
	"github.com/stoalearn/stoa-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Lecture      services.LectureService
	Prerequisite services.PrerequisiteService
	Progress     services.ProgressService
	Curriculum   services.CurriculumService

	// Shared graph machinery, exposed so tests and tooling can reach it.
	CycleDetector *services.CycleDetector
	Readiness     *services.ReadinessCalculator

	// Emitter is where handlers flush realtime messages: the local hub on
	// a single instance, the Redis bus when one is configured.
	Emitter services.SSEEmitter

	// Keep bus here for convenience/compat
	SSEBus bus.Bus
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, sseHub *realtime.SSEHub, clients Clients) Services {
	log.Info("Wiring services...")

	runner := services.NewGormTxRunner(db)

	loader := services.NewRepoEdgeLoader(repos.LecturePrerequisite)
	detector := services.NewCycleDetector(loader, log)
	readiness := services.NewReadinessCalculator(
		repos.LecturePrerequisite,
		repos.LectureProgress,
		services.DefaultWeights(),
		log,
	)

	authService := services.NewAuthService(
		runner,
		repos.User,
		repos.UserToken,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.AdminEmails,
		log,
	)
	userService := services.NewUserService(runner, repos.User, log)

	lectureService := services.NewLectureService(
		runner,
		repos.Lecture,
		repos.LecturePrerequisite,
		clients.Graph,
		log,
	)
	prerequisiteService := services.NewPrerequisiteService(
		runner,
		repos.Lecture,
		repos.LecturePrerequisite,
		repos.LectureProgress,
		detector,
		readiness,
		clients.Graph,
		log,
	)
	progressService := services.NewProgressService(
		runner,
		repos.Lecture,
		repos.LecturePrerequisite,
		repos.LectureProgress,
		readiness,
		log,
	)
	curriculumService := services.NewCurriculumService(
		lectureService,
		prerequisiteService,
		repos.Lecture,
		log,
	)

	var emitter services.SSEEmitter = &services.HubEmitter{Hub: sseHub}
	if clients.SSEBus != nil {
		emitter = &services.RedisEmitter{Bus: clients.SSEBus, Log: log}
	}

	return Services{
		Auth:          authService,
		User:          userService,
		Lecture:       lectureService,
		Prerequisite:  prerequisiteService,
		Progress:      progressService,
		Curriculum:    curriculumService,
		CycleDetector: detector,
		Readiness:     readiness,
		Emitter:       emitter,
		SSEBus:        clients.SSEBus,
	}
}
