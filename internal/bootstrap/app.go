package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"recruit-assistant/internal/analyses"
	"recruit-assistant/internal/candidates"
	"recruit-assistant/internal/llm"
	"recruit-assistant/internal/llm/mock"
	"recruit-assistant/internal/llm/openai"
	"recruit-assistant/internal/pipeline"
	"recruit-assistant/internal/services/health"
	"recruit-assistant/internal/shared/config"
	"recruit-assistant/internal/shared/server"
	"recruit-assistant/internal/shared/storage/db"
	"recruit-assistant/internal/shared/storage/object"
	localstore "recruit-assistant/internal/shared/storage/object/local"
	s3store "recruit-assistant/internal/shared/storage/object/s3"
	"recruit-assistant/internal/shared/telemetry"
)

// AI modes reported by the health endpoint.
const (
	AIModeMock = "mock"
	AIModeLive = "live"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	LLM               llm.Completer
	AIMode            string
	Pipeline          *pipeline.Orchestrator
	CandidatesRepo    candidates.Repo
	AnalysesRepo      analyses.Repo
	CandidatesService *candidates.Service
	AnalysesService   *analyses.Service
	Health            *health.Service
}

// Build prepares repositories, services, handlers and the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	completer, mode, err := NewCompleter(cfg)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		LLM:    completer,
		AIMode: mode,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		ProcessPerMin:   cfg.RateLimitProcessPerMin,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		Health:          app.Health.Handler(),
		Routes: []server.Registrar{
			candidates.NewHandler(app.CandidatesService, cfg.MaxUploadBytes),
			analyses.NewHandler(app.AnalysesService),
			analyses.NewReportHandler(app.AnalysesService),
		},
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"ai_mode":      mode,
		"object_store": cfg.ObjectStoreType,
		"database":     sqlDB != nil,
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// NewCompleter picks the canned mock client or the chat-completions client
// and wraps it with call instrumentation.
func NewCompleter(cfg config.Config) (llm.Completer, string, error) {
	if cfg.UseMockAI {
		return llm.Instrumented{Next: mock.New(), Provider: AIModeMock}, AIModeMock, nil
	}
	client, err := openai.NewClient(openai.Options{
		APIKey:    cfg.LLMAPIKey,
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	})
	if err != nil {
		return nil, "", fmt.Errorf("build llm client: %w", err)
	}
	return llm.Instrumented{Next: client, Provider: cfg.LLMModel}, AIModeLive, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsDevLike() || cfg.Env == "test" {
			telemetry.Warn("bootstrap.database_url_empty", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	if cfg.DBConnectMax > 0 {
		opts.ConnectMaxElapsed = cfg.DBConnectMax
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{
				"fallback": "memory",
				"error":    err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		closeDB(sqlDB)
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.CandidatesRepo = &candidates.PGRepo{DB: app.DB}
		app.AnalysesRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		app.CandidatesRepo = candidates.NewMemoryRepo()
		app.AnalysesRepo = analyses.NewMemoryRepo()
	}

	app.Pipeline = pipeline.New(app.LLM)
	if app.Config.PipelineWorkers > 0 {
		app.Pipeline.Workers = app.Config.PipelineWorkers
	}

	app.CandidatesService = candidates.NewService(app.Store, app.CandidatesRepo)
	app.AnalysesService = analyses.NewService(app.AnalysesRepo, app.CandidatesService, app.Pipeline)

	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}
	app.Health = health.NewService(pinger, app.AIMode)
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB == nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		telemetry.Warn("bootstrap.database_close_failed", map[string]any{"error": err.Error()})
	}
}

// ShutdownTimeout returns the configured grace period for in-flight requests.
func (a *App) ShutdownTimeout() time.Duration {
	if a.Config.ShutdownTimeout <= 0 {
		return 30 * time.Second
	}
	return a.Config.ShutdownTimeout
}
