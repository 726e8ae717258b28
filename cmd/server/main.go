// Package main is the entry point for the summonpredict API server.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bidon15/summonpredict/internal/app"
	"github.com/Bidon15/summonpredict/internal/config"
	"github.com/Bidon15/summonpredict/internal/handler"
	"github.com/Bidon15/summonpredict/internal/jsonrpc"
	"github.com/Bidon15/summonpredict/internal/middleware"
	"github.com/Bidon15/summonpredict/internal/pkg/response"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("Starting summonpredict API",
		slog.String("version", version),
		slog.String("environment", cfg.Server.Environment),
		slog.Int("port", cfg.Server.Port),
		slog.Int64("chain_id", cfg.Chain.ChainID),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newRouter(cfg, a, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	go func() {
		logger.Info("Server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server", slog.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
		return
	}

	logger.Info("Server stopped gracefully")
}

func newRouter(cfg *config.Config, a *app.App, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.Metrics())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route")
	})

	health := handler.NewHealthHandler(a.Components())
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	rpc := jsonrpc.NewServer(jsonrpc.ServerConfig{Service: a.Service, Logger: logger})

	r.Group(func(r chi.Router) {
		if cfg.RateLimit.Enabled && a.Redis != nil {
			r.Use(middleware.RateLimit(a.Redis, middleware.RateLimitConfig{
				Requests: cfg.RateLimit.Requests,
				Window:   cfg.RateLimit.Window,
			}, logger))
		}

		r.Mount("/v1", handler.NewPredictHandler(a.Service).Routes())
		r.Handle("/rpc", rpc)
	})

	return r
}
