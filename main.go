package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/prescription-api/analyzer"
	"github.com/giygas/prescription-api/app"
	"github.com/giygas/prescription-api/config"
	"github.com/giygas/prescription-api/data"
	"github.com/giygas/prescription-api/handlers"
	"github.com/giygas/prescription-api/health"
	"github.com/giygas/prescription-api/logging"
	"github.com/giygas/prescription-api/metrics"
	"github.com/giygas/prescription-api/scheduler"
	"github.com/giygas/prescription-api/server"
	"github.com/giygas/prescription-api/validation"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithRetentionAndSize(cfg.LogDir, cfg.Env, cfg.LogLevel, cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	defer logging.Close()

	logging.Info("Configuration loaded",
		"env", cfg.Env,
		"model", cfg.GeminiModel,
		"request_timeout", cfg.RequestTimeout.String(),
		"probe_interval", cfg.ProbeInterval.String(),
	)

	statusStore := data.NewStatusContainer()
	statusStore.SetServerStartTime(time.Now())

	components, err := app.Build(cfg, analyzer.WithObserver(metrics.ObservePipeline))
	if err != nil {
		logging.Error("Failed to build the analysis pipeline", "error", err)
		os.Exit(1)
	}

	probeScheduler := scheduler.NewScheduler(statusStore, components.Completer, cfg.ProbeInterval)
	if err := probeScheduler.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer probeScheduler.Stop()

	httpHandler := handlers.NewHTTPHandler(
		components.Pipeline,
		validation.NewInputValidator(cfg.MaxQueryNames, handlers.MaxUploadSize(cfg.MaxRequestBody)),
		health.NewHealthChecker(statusStore, cfg.ProbeInterval),
		cfg.RequestTimeout,
		cfg.MaxRequestBody,
	)
	srv := server.NewServer(cfg, httpHandler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	case err := <-serverErr:
		logging.Error("Server failed to start", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
}
