package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/tweetclassifier/config"
	"github.com/spacesedan/tweetclassifier/internal/app"
	"github.com/spacesedan/tweetclassifier/internal/dataset"
	"github.com/spacesedan/tweetclassifier/internal/logging"
	"github.com/spacesedan/tweetclassifier/internal/monitoring"
	"github.com/spacesedan/tweetclassifier/internal/web"
)

const SHUTDOWN_TIMEOUT = 15 * time.Second

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.App.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("[Main] Invalid config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Sinks: true})
	if err != nil {
		slog.Error("[Main] Failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()
	a.Start(ctx)

	data, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		slog.Warn("[Main] Dataset pages disabled", slog.String("error", err.Error()))
		data = nil
	} else {
		slog.Info("[Main] Dataset loaded",
			slog.Int("rows", data.Len()),
			slog.Int("skipped", data.Skipped()))
	}

	health := monitoring.NewModelHealth(a.Registry, monitoring.HEALTHCHECK_TIMER)
	go health.Run(ctx)

	handler, err := web.NewHandler(a.Service, data, health, cfg.Dataset.PageSize)
	if err != nil {
		slog.Error("[Main] Failed to build handler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	mux := http.NewServeMux()
	web.RegisterRoutes(mux, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.App.ServerPort,
		Handler:           web.LogRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.App.HTTPTimeout + 5*time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("[Main] Listening", slog.String("addr", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] Server stopped", slog.String("error", err.Error()))
		}
		stop()
	case <-ctx.Done():
		slog.Info("[Main] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("[Main] Graceful shutdown failed", slog.String("error", err.Error()))
		}
	}
}
