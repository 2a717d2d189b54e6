package app

import (
	"fmt"
	"net/http"

	"github.com/strideline/gridiron-live/external/espn"
	"github.com/strideline/gridiron-live/internal/config"
	"github.com/strideline/gridiron-live/internal/domain/gameupdate"
	"github.com/strideline/gridiron-live/internal/infrastructure/repository/memory"
	"github.com/strideline/gridiron-live/internal/infrastructure/repository/postgres"
	"github.com/strideline/gridiron-live/internal/interfaces/httpapi"
	"github.com/strideline/gridiron-live/internal/platform/logging"
	"github.com/strideline/gridiron-live/internal/platform/resilience"
	"github.com/strideline/gridiron-live/internal/usecase"
)

// App bundles the wired components of the service. Close releases the
// database handle when one was opened.
type App struct {
	Server *http.Server
	Poller *usecase.PollerService

	closers []func() error
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{}

	var repo gameupdate.Repository
	if cfg.DBEnabled {
		db, err := openDatabase(cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		repo = postgres.NewGameUpdateRepository(db)
		logger.Info("game update store", "backend", "postgres")
	} else {
		repo = memory.NewGameUpdateRepository()
		logger.Info("game update store", "backend", "memory")
	}

	feedClient := espn.NewClient(espn.ClientConfig{
		ScoreboardURL:   cfg.ESPNScoreboardURL,
		SummaryURL:      cfg.ESPNSummaryURL,
		Timeout:         cfg.ESPNTimeout,
		MaxRetries:      cfg.ESPNMaxRetries,
		LiveStatusNames: cfg.ESPNLiveStatusNames,
		Logger:          logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ESPNCircuitEnabled,
			FailureThreshold: cfg.ESPNCircuitFailureCount,
			OpenTimeout:      cfg.ESPNCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ESPNCircuitHalfOpenMaxReq,
		},
	})

	poller, err := usecase.NewPollerService(feedClient, repo, usecase.PollerConfig{
		PollInterval:      cfg.PollInterval,
		BackoffInitial:    cfg.BackoffInitial,
		BackoffMultiplier: cfg.BackoffMultiplier,
		BackoffMax:        cfg.BackoffMax,
		MaxRecentPlays:    cfg.MaxRecentPlays,
		Workers:           cfg.PollerWorkers,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build poller: %w", err)
	}
	a.Poller = poller

	querySvc, err := usecase.NewQueryService(repo, usecase.QueryConfig{
		LiveStatuses: cfg.LiveStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("build query service: %w", err)
	}

	handler := httpapi.NewHandler(querySvc, poller, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalToken)

	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a, nil
}

func (a *App) Close() error {
	var firstErr error
	for _, close := range a.closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
