// Package server initializes and runs the fieldlog server: it assembles the
// storage adapter from configuration, wires the diagnostics scanner, and
// serves the REST API with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldops/fieldlog/internal/adapter"
	"github.com/fieldops/fieldlog/internal/config"
	"github.com/fieldops/fieldlog/internal/diagnostics"
	"github.com/fieldops/fieldlog/internal/logging"
	"github.com/fieldops/fieldlog/internal/server/api"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	adapter *adapter.Adapter
	scanner *diagnostics.Scanner
	closer  func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	a, closer, err := adapter.Build(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	var probers []diagnostics.RemoteProber
	for _, u := range a.Uploaders() {
		if p, ok := u.(diagnostics.RemoteProber); ok {
			probers = append(probers, p)
		}
	}
	scanner := diagnostics.NewScanner(a.ActiveStore(), probers, logger)

	return &App{
		config:  cfg,
		logger:  logger,
		adapter: a,
		scanner: scanner,
		closer:  closer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.Server.Addr)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.Server.Addr,
		Handler: api.NewRouter(app.adapter, app.scanner, app.logger),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "server error", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err)
	}
	if err := app.closer(); err != nil {
		app.logger.Error(shutdownCtx, "backend close error", "error", err)
	}
}
