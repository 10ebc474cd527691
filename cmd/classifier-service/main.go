// classifier-service is the HTTP API server for batch text classification.
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

	"classifier/internal/api"
	"classifier/internal/classify"
	"classifier/internal/config"
	"classifier/internal/health"
	"classifier/internal/job"
	"classifier/internal/observability"
	"classifier/internal/pool"
	"classifier/internal/shutdown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	svcCfg := config.LoadServiceConfig()
	poolCfg := pool.LoadConfigFromEnv()
	jobCfg := job.LoadConfigFromEnv()

	// Setup metrics
	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	// Classification backend, loaded lazily on first use
	backend := classify.NewLoader(func(ctx context.Context) (classify.Backend, error) {
		return classify.NewLexical(), nil
	}, classify.LoaderConfig{})

	// Execution pool
	workerPool := pool.New(poolCfg, metrics)

	// Job orchestrator (owns the registry and the background reaper)
	jobCfg.Backend = backend
	jobCfg.Pool = workerPool
	jobCfg.Metrics = metrics
	orchestrator, err := job.NewOrchestrator(jobCfg)
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	// Create job service
	jobService := job.NewService(orchestrator, metrics)

	// Create health checker
	healthChecker := health.NewChecker(backend, jobService)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		JobService:    jobService,
		Metrics:       metrics,
		HealthChecker: healthChecker,
		APIKey:        svcCfg.APIKey,
	})

	if svcCfg.APIKey != "" {
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled - no API_KEY configured")
	}

	// Create API server
	apiServer := &http.Server{
		Addr:         ":" + svcCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Create metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + svcCfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Channel to capture server errors
	serverErr := make(chan error, 1)

	// Start API server
	go func() {
		slog.Info("Starting API server", "port", svcCfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start metrics server
	go func() {
		slog.Info("Starting metrics server", "port", svcCfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// shutdownServers closes both servers gracefully
	shutdownServers := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	coordinator := shutdown.New(orchestrator, workerPool, svcCfg.ShutdownGrace, svcCfg.TerminateGrace)

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		shutdownServers(5 * time.Second)
		return err
	}

	// Phase 1: Mark service as unhealthy for load balancer draining
	healthChecker.SetShuttingDown()

	// Wait for load balancers to stop sending traffic
	if svcCfg.ShutdownDrainWait > 0 {
		slog.Info("Waiting for traffic to drain", "duration", svcCfg.ShutdownDrainWait)
		time.Sleep(svcCfg.ShutdownDrainWait)
	}

	// Phase 2: Abort outstanding jobs and drain the pool. Status queries keep
	// working during the drain; submissions already get 503.
	coordinator.Run()

	// Phase 3: Graceful server shutdown - finish in-flight requests
	slog.Info("Starting graceful shutdown")
	shutdownServers(25 * time.Second)

	slog.Info("Shutdown complete")
	return nil
}
