package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	appLogger "github.com/FACorreiaa/go-travel-concierge/app/logger"
	"github.com/FACorreiaa/go-travel-concierge/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-concierge/app/tracer"
	"github.com/FACorreiaa/go-travel-concierge/config"
	"github.com/FACorreiaa/go-travel-concierge/internal/container"
	"github.com/FACorreiaa/go-travel-concierge/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = cfg.Mode
	}
	logger := appLogger.SetupLogger(env)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	metricsHandler, shutdownTelemetry, err := tracer.InitTracingAndMetrics()
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.InitAppMetrics()

	// --- Dependencies ---
	c, err := container.NewContainer(ctx, &cfg, logger)
	if err != nil {
		logger.Error("Failed to build application container", slog.Any("error", err))
		os.Exit(1)
	}
	defer c.Close()

	timeout := cfg.Server.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// --- HTTP Servers ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      otelhttp.NewHandler(newHandler(c, &cfg, env, timeout, logger), "concierge"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metricsHandler)
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Handlers.Prometheus.Port),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting metrics server", slog.String("address", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel() // Trigger shutdown if server fails unexpectedly
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.Any("error", err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("Telemetry shutdown failed", slog.Any("error", err))
	}

	logger.Info("Application shut down complete.")
}

// newHandler wraps the API routes in the server-wide middleware stack.
func newHandler(c *container.Container, cfg *config.Config, env string, timeout time.Duration, logger *slog.Logger) http.Handler {
	apiRouter := router.SetupRouter(&router.Config{
		ChatHandler:       c.ChatHandler,
		ImagesHandler:     c.ImagesHandler,
		BookingHandler:    c.BookingHandler,
		ZonesHandler:      c.ZonesHandler,
		Environment:       env,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
		Burst:             cfg.Server.RateLimit.Burst,
		Logger:            logger,
	})

	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Mount("/", apiRouter)
	return r
}
