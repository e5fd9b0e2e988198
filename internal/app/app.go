package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/stoalearn/stoa-backend/internal/data/db"
	"github.com/stoalearn/stoa-backend/internal/http"
	"github.com/stoalearn/stoa-backend/internal/observability"
	"github.com/stoalearn/stoa-backend/internal/platform/dbctx"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/realtime"
)

// Expired session rows stay one retention period past their refresh
// window before the hourly sweep hard-deletes them.
const (
	sessionSweepInterval = time.Hour
	sessionRetention     = 24 * time.Hour
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Handlers Handlers
	Server   *http.Server
	SSEHub   *realtime.SSEHub
	Clients  Clients
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "stoa-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})

	sseHub := realtime.NewSSEHub(log)

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, sseHub, clients)
	handlerset := wireHandlers(log, theDB, cfg, serviceset, sseHub)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Handlers:     handlerset,
		Server:       server,
		SSEHub:       sseHub,
		Clients:      clients,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background work: the bus forwarder that feeds Redis
// messages back into the local hub, metrics collectors, the expired
// session sweep, and the one-shot curriculum seed when SEED_PATH is set.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.SSEBus != nil && a.SSEHub != nil {
		if err := a.Services.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			a.Log.Error("SSE bus forwarder failed to start", "error", err)
		}
	}

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
			a.Metrics.StartRedisCollector(ctx, a.Log, addr)
		}
	}

	if a.Repos.UserToken != nil {
		go a.sweepSessions(ctx)
	}

	if a.Cfg.SeedPath != "" && a.Services.Curriculum != nil {
		report, err := a.Services.Curriculum.SeedFromFile(ctx, a.Cfg.SeedPath)
		if err != nil {
			a.Log.Error("Curriculum seed failed", "error", err, "path", a.Cfg.SeedPath)
		} else {
			a.Log.Info("Curriculum seed finished",
				"path", a.Cfg.SeedPath,
				"lectures_created", report.LecturesCreated,
				"lectures_existing", report.LecturesExisting,
				"edges_created", report.EdgesCreated,
				"edges_existing", report.EdgesExisting,
				"errors", len(report.Errors),
			)
		}
	}
}

func (a *App) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-sessionRetention)
			n, err := a.Repos.UserToken.DeleteExpired(dbctx.Context{Ctx: ctx}, cutoff)
			if err != nil {
				a.Log.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				a.Log.Info("session sweep removed expired rows", "count", n)
			}
		}
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(":" + a.Cfg.Port)
}

// Shutdown drains in-flight requests. SSE streams never finish on their
// own, so the server force-closes whatever outlives ctx.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
