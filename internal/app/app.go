package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/frc-sh/scores-api/external/frcevents"
	"github.com/frc-sh/scores-api/external/tba"
	"github.com/frc-sh/scores-api/internal/config"
	"github.com/frc-sh/scores-api/internal/infrastructure/repository/postgres"
	"github.com/frc-sh/scores-api/internal/interfaces/httpapi"
	"github.com/frc-sh/scores-api/internal/platform/logging"
	"github.com/frc-sh/scores-api/internal/platform/resilience"
	"github.com/frc-sh/scores-api/internal/usecase"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// App owns the wired service graph: database, sync scheduler, and HTTP
// server.
type App struct {
	cfg       config.Config
	logger    *logging.Logger
	db        *sqlx.DB
	server    *http.Server
	scheduler *usecase.SyncScheduler
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	db, err := openDB(cfg.DBURL)
	if err != nil {
		return nil, err
	}

	eventRepo := postgres.NewEventRepository(db)
	matchRepo := postgres.NewMatchRepository(db)

	catalog := tba.NewClient(tba.ClientConfig{
		BaseURL:    cfg.TBABaseURL,
		AuthKey:    cfg.TBAAuthKey,
		Timeout:    cfg.TBATimeout,
		MaxRetries: cfg.TBAMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.TBACircuitEnabled,
			FailureThreshold: cfg.TBACircuitFailureCount,
			OpenTimeout:      cfg.TBACircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.TBACircuitHalfOpenMaxReq,
		},
	})
	source := frcevents.NewClient(frcevents.ClientConfig{
		BaseURL:    cfg.FRCBaseURL,
		Username:   cfg.FRCUsername,
		APIKey:     cfg.FRCAPIKey,
		Timeout:    cfg.FRCTimeout,
		MaxRetries: cfg.FRCMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FRCCircuitEnabled,
			FailureThreshold: cfg.FRCCircuitFailureCount,
			OpenTimeout:      cfg.FRCCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FRCCircuitHalfOpenMaxReq,
		},
	})

	eventSync := usecase.NewEventSyncService(catalog, eventRepo, logger)
	matchSync := usecase.NewMatchSyncService(source, matchRepo, cfg.MatchSyncWorkers, logger)
	highScores := usecase.NewHighScoreService(eventRepo, matchRepo)

	scheduler := usecase.NewSyncScheduler(eventSync, matchSync, cfg.EventSyncInterval, cfg.MatchSyncInterval, logger)

	handler := httpapi.NewHandler(highScores, logger)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		server:    server,
		scheduler: scheduler,
	}, nil
}

// Run serves HTTP and drives the sync scheduler until ctx is cancelled,
// then shuts both down.
func (a *App) Run(ctx context.Context) error {
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		a.scheduler.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var shutdownErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		shutdownErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
	}

	if err := a.db.Close(); err != nil && shutdownErr == nil {
		shutdownErr = fmt.Errorf("close database: %w", err)
	}

	a.logger.Info("http server stopped")
	return shutdownErr
}

func openDB(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
