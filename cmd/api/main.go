package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edurag/edurag/internal/bootstrap"
	"github.com/edurag/edurag/internal/config"
	"github.com/edurag/edurag/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger("edurag-api", "info").Error("configuration error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("edurag-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		// no WriteTimeout: progress streams stay open for the whole
		// ingestion run
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.APIPort)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown incomplete", "error", err)
	}
	if err := app.Close(shutdownCtx); err != nil {
		logger.Error("background drain incomplete", "error", err)
	}
	logger.Info("stopped")
}
