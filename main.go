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

	"scholar-score/config"
	"scholar-score/internal/api"
	"scholar-score/internal/app"
	"scholar-score/observability"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger(false)
		observability.Fatal("failed to load configuration", "error", err)
	}

	observability.InitLoggerWithLevel(cfg.Log.Production, observability.ParseLevel(cfg.Log.Level))
	if envErr != nil {
		observability.Debug("No .env file found, using environment variables")
	}
	observability.InitMetrics()

	if err := observability.InitTracing(cfg.Tracing.Enabled, cfg.Tracing.ServiceName); err != nil {
		observability.Fatal("failed to initialize tracing", "error", err)
	}

	ctx := context.Background()

	application := app.New(cfg, app.NewTextChain(ctx, cfg))

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	// Start server in goroutine
	go func() {
		observability.Info("starting scholar score server",
			"port", cfg.Server.Port,
			"url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port),
			"extraction_provider", cfg.Extraction.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.WithError(err).Error("server forced to shutdown")
	}
	if err := observability.ShutdownTracing(shutdownCtx); err != nil {
		observability.WithError(err).Warn("failed to flush traces")
	}

	observability.Info("server stopped")
}
