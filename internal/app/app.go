package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"bloggers-platform/internal/config"
	"bloggers-platform/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime

	stopBackground func()
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime, stopBackground func()) *App {
	return &App{
		Config:         cfg,
		Logger:         logger,
		Server:         server,
		Observability:  runtime,
		stopBackground: stopBackground,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests, stops
// background tasks and flushes the observability pipeline.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutdown requested")

		drainCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(drainCtx); err != nil {
			a.Logger.Error("http drain failed", "error", err)
		}
		a.StopBackgroundTasks()
		if a.Observability != nil {
			if err := a.Observability.Shutdown(drainCtx); err != nil {
				a.Logger.Error("observability shutdown failed", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}

func (a *App) StopBackgroundTasks() {
	if a.stopBackground != nil {
		a.stopBackground()
	}
}
