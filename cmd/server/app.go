package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkessler/worklog-api/internal/analysis"
	"github.com/mkessler/worklog-api/internal/api"
	"github.com/mkessler/worklog-api/internal/cache"
	"github.com/mkessler/worklog-api/internal/config"
	"github.com/mkessler/worklog-api/internal/githubapi"
	"github.com/mkessler/worklog-api/internal/gitlog"
	"github.com/mkessler/worklog-api/internal/job"
	"github.com/mkessler/worklog-api/internal/mirror"
	"github.com/mkessler/worklog-api/internal/platform/agentcli"
	"github.com/mkessler/worklog-api/internal/platform/gemini"
	"github.com/mkessler/worklog-api/internal/platform/ollama"
	"github.com/mkessler/worklog-api/internal/platform/postgres"
	"github.com/mkessler/worklog-api/internal/service"
	"github.com/mkessler/worklog-api/internal/service/auth"
	"github.com/mkessler/worklog-api/internal/store"
)

// application holds the wired dependencies shared by the HTTP handlers.
type application struct {
	config *config.Config
	logger *slog.Logger

	users      store.UserStore
	oauth      api.OAuthProvider
	jwtService auth.JWTService
	registry   *auth.TokenRegistry

	github      api.RepoLister
	activity    api.ActivityFetcher
	summarize   api.Summarizer
	backendName string
}

// newApplication builds every service from configuration. The analysis
// backend is selected here; everything downstream sees only the
// analysis.Backend interface.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	backend, mirrors, history, resultCache, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("analysis backend selected",
		slog.String("backend", backend.Name()),
		slog.Bool("requires_mirror", backend.RequiresMirror()))

	githubClient := githubapi.NewClient(logger, cfg.GitHub.APIBase)
	summaryStore := postgres.NewPostgresSummaryStore(db, logger)

	summarizeService := service.NewSummarizeService(
		logger,
		job.NewRegistry(),
		githubClient,
		mirrors,
		history,
		resultCache,
		backend,
		summaryStore,
		service.SummarizeConfig{
			GitLogMaxChars: cfg.Backend.GitLogMaxChars,
			GitLogTimeout:  time.Duration(cfg.Backend.GitLogTimeoutSeconds) * time.Second,
		},
	)

	return &application{
		config:     cfg,
		logger:     logger,
		users:      postgres.NewPostgresUserStore(db, logger),
		oauth:      auth.NewGitHubOAuth(logger, cfg.Auth),
		jwtService: jwtService,
		registry:   auth.NewTokenRegistry(),
		github:      githubClient,
		activity:    githubClient,
		summarize:   summarizeService,
		backendName: backend.Name(),
	}, nil
}

// buildBackend constructs the configured analysis backend along with the
// mirror, history, and cache plumbing the agent backend needs. Hosted
// backends return nil for all three: the pipeline skips those stages.
func buildBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (
	analysis.Backend,
	service.MirrorProvider,
	service.HistoryExtractor,
	service.ResultCache,
	error,
) {
	switch cfg.Backend.Kind {
	case "agent":
		backend := agentcli.New(logger, agentcli.Config{
			Timeout: time.Duration(cfg.Backend.AgentTimeoutSeconds) * time.Second,
			APIKey:  cfg.Backend.CursorAPIKey,
		})
		// The CLI may appear later (e.g. container sidecar), so a failed
		// version check logs instead of aborting startup.
		if version, err := backend.Verify(ctx); err != nil {
			logger.Warn("agent CLI not reachable at startup", slog.String("error", err.Error()))
		} else {
			logger.Info("agent CLI verified", slog.String("version", version))
		}

		mirrors, err := mirror.NewManager(logger, cfg.Backend.ReposCacheDir)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to create mirror manager: %w", err)
		}
		resultCache, err := cache.NewStore(cfg.Backend.SummaryCacheDir, logger)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to create summary cache: %w", err)
		}
		return backend, mirrors, gitlog.NewExtractor(logger), resultCache, nil

	case "gemini":
		backend, err := gemini.New(ctx, logger, gemini.Config{
			APIKey:            cfg.Backend.GeminiAPIKey,
			Model:             cfg.Backend.GeminiModel,
			MaxRetries:        cfg.Backend.MaxRetries,
			RetryDelaySeconds: cfg.Backend.RetryDelaySeconds,
		})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to create gemini backend: %w", err)
		}
		return backend, nil, nil, nil, nil

	case "ollama":
		backend, err := ollama.New(logger, ollama.Config{
			Host:        cfg.Backend.OllamaHost,
			Model:       cfg.Backend.OllamaModel,
			Temperature: cfg.Backend.OllamaTemperature,
		})
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to create ollama backend: %w", err)
		}
		return backend, nil, nil, nil, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown backend kind %q", cfg.Backend.Kind)
	}
}
