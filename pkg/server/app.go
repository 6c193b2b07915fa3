package server

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"UnslugCity/internal/domain/repository"
	"UnslugCity/internal/usecase"
	pkgch "UnslugCity/pkg/clickhouse"
	"UnslugCity/pkg/config"
	xhttp "UnslugCity/pkg/http"
	applogger "UnslugCity/pkg/logger"
)

// App encapsulates the entire application lifecycle: startup backfill,
// the periodic scoring loop, and the HTTP API.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	backfill   *usecase.BackfillUseCase
	batch      *usecase.BatchScorer
	pub        repository.Publisher
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	backfill *usecase.BackfillUseCase,
	batch *usecase.BatchScorer,
	pub repository.Publisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		l:        l,
		handler:  handler,
		backfill: backfill,
		batch:    batch,
		pub:      pub,
		chClient: chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.cfg.Scoring.BackfillOnStart && a.backfill != nil {
		go a.runBackfill(ctx)
	}
	go a.scoringLoop(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("symbols", strings.Join(a.cfg.Scoring.Symbols, ",")),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

func (a *App) runBackfill(ctx context.Context) {
	stored, err := a.backfill.Backfill(ctx, a.cfg.Scoring.Symbols)
	if err != nil {
		a.l.Error("backfill failed", applogger.Error(err))
		return
	}
	total := 0
	for _, n := range stored {
		total += n
	}
	a.l.Info("backfill complete",
		applogger.Int("symbols", len(stored)),
		applogger.Int("bars", total),
	)
}

// scoringLoop re-scores every configured symbol on a fixed interval.
func (a *App) scoringLoop(ctx context.Context) {
	if a.batch == nil {
		return
	}
	interval := a.cfg.Scoring.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := a.batch.ScoreSymbols(ctx, a.cfg.Scoring.Symbols)
			if err != nil {
				a.l.Error("batch scoring failed", applogger.Error(err))
				continue
			}
			a.l.Info("batch scoring complete",
				applogger.Int("scored", res.Scored),
				applogger.Int("published", res.Published),
				applogger.Int("failed", len(res.Failed)),
				applogger.Duration("elapsed", res.Elapsed),
			)
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
