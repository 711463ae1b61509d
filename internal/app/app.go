package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"RankTracker/internal/config"
	"RankTracker/internal/httpapi"
	"RankTracker/internal/infrastructure/scheduler"
	"RankTracker/internal/infrastructure/scraper"
	"RankTracker/internal/infrastructure/storage"
	"RankTracker/internal/logging"
	"RankTracker/internal/parser"
	"RankTracker/internal/ports"
	"RankTracker/internal/scanner"
	"RankTracker/internal/usecase"
)

// Application wires config to the tracker core, the HTTP surface and the
// optional background scraper.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	tracker *usecase.Tracker
	repo    *storage.Repository
	server  *http.Server
	source  ports.RankingSource
	sched   ports.Scheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	tracker := usecase.NewTracker(usecase.TrackerDeps{
		Ledger:   repo,
		Sessions: repo,
		Audit:    repo,
		Parser:   parser.New(cfg.Tracker.SiteLabel, cfg.Tracker.BrandLabel),
		Logger:   baseLogger.With("component", "tracker"),
	})

	app := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		tracker: tracker,
		repo:    repo,
		server: &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: httpapi.New(tracker, baseLogger.With("component", "httpapi")),
		},
	}

	if cfg.Scraper.Enabled {
		registry := scanner.NewRegistry()
		registry.Register(scraper.NewWconceptScanner(nil, cfg.Tracker.BrandLabel, cfg.Scraper.RenderURL))

		app.source = scraper.NewStrategySource(registry, cfg.Scraper.Sites,
			baseLogger.With("component", "source"))
		app.sched = scheduler.NewIntervalScheduler(cfg.Scraper.IntervalDuration())
	}

	return app, nil
}

// Run serves HTTP until the context is cancelled, running the scrape loop in
// the background when enabled.
func (a *Application) Run(ctx context.Context) error {
	if a.sched != nil {
		if err := a.sched.Start(ctx, a.scrapeJob(ctx)); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() { _ = a.sched.Stop(context.Background()) }()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases the storage handle.
func (a *Application) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

func (a *Application) scrapeJob(ctx context.Context) func(time.Time) {
	return func(at time.Time) {
		records, err := a.source.FetchRankings(ctx)
		if err != nil {
			a.logger.Error("scrape failed", "error", err)
			return
		}
		if len(records) == 0 {
			a.logger.Info("scrape found no tracked products")
			return
		}

		result, err := a.tracker.IngestRecords(ctx, records, at)
		if err != nil {
			a.logger.Error("scrape ingest failed", "error", err)
			return
		}
		a.logger.Info("scrape ingested",
			"session_id", result.SessionID, "records", result.RecordCount)
	}
}
