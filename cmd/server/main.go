package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"kycore/internal/kyc/handler"
	kycmetrics "kycore/internal/kyc/metrics"
	"kycore/internal/kyc/service"
	"kycore/internal/kyc/validation"
	"kycore/internal/platform/config"
	"kycore/internal/platform/httpserver"
	"kycore/internal/platform/logger"
	"kycore/internal/platform/metrics"
	"kycore/internal/platform/middleware"
)

// main wires dependencies, exposes the HTTP router and keeps the server lifecycle
// small. Business logic lives in internal/kyc.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("kycore stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	infra := &infrastructure{log: log}
	defer infra.close()

	recordStore, err := infra.openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	locker, err := infra.openLocker(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	notifier, err := infra.openNotifier(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(kycmetrics.New()),
		service.WithLocker(locker),
		service.WithNotifier(notifier),
	}
	validator := validation.New(validation.Settings{
		RequireEmailVerification: cfg.KYC.RequireEmailVerification,
		MaxAttempts:              cfg.KYC.MaxAttempts,
		SupportedCountries:       cfg.KYC.SupportedCountries,
		RestrictedCountries:      cfg.KYC.RestrictedCountries,
	}, recordStore)
	status := service.NewStatusService(recordStore, cfg.KYC, opts...)
	manager := service.NewManager(cfg.KYC, registry, recordStore, status, validator, opts...)

	httpMetrics := metrics.New(prometheus.DefaultRegisterer)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log))
	r.Use(httpMetrics.Middleware)
	handler.New(manager, log).Register(r)
	r.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))

	srv := httpserver.New(cfg.Server.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting kycore",
			"addr", cfg.Server.Addr,
			"environment", cfg.Server.Environment,
			"default_driver", registry.Default(),
			"enabled_drivers", registry.EnabledNames(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	log.Info("shutting down kycore")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
