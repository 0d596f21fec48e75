// Command bridgeauth-server serves the bridgeAuth HTTP routes over a Postgres primary
// store, a SQLite secondary store and Redis sessions.
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

	"github.com/MrEthical07/bridgeAuth"
	"github.com/MrEthical07/bridgeAuth/httpapi"
	"github.com/MrEthical07/bridgeAuth/internal/config"
	"github.com/MrEthical07/bridgeAuth/internal/logging"
	"github.com/MrEthical07/bridgeAuth/metrics/export/prometheus"
	"github.com/MrEthical07/bridgeAuth/store/primary"
	"github.com/MrEthical07/bridgeAuth/store/secondary"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bridgeauth-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	primaryStore, err := primary.Open(ctx, cfg.PrimaryDSN)
	if err != nil {
		return fmt.Errorf("primary store: %w", err)
	}
	defer primaryStore.Close()

	secondaryStore, err := secondary.Open(ctx, cfg.SecondaryPath)
	if err != nil {
		return fmt.Errorf("secondary store: %w", err)
	}
	defer secondaryStore.Close()

	builder := bridgeAuth.New().
		WithConfig(cfg.Engine()).
		WithLogger(logger).
		WithRedis(rdb).
		WithPrimaryUsers(primaryStore).
		WithMultiUserMode(primaryStore).
		WithAPIKeys(primaryStore).
		WithSecondaryUsers(secondaryStore)
	if cfg.AuditLog {
		builder = builder.WithAuditSink(bridgeAuth.NewSlogSink(logger.With("component", "audit")))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	mux, handler := httpapi.NewRouter(engine, httpapi.Options{
		Registration: httpapi.NewRegistrationGate(cfg.Registration),
		TrustProxy:   cfg.TrustProxy,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	mux.Handle("GET /healthz", healthHandler(map[string]func(context.Context) error{
		"redis":     func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"primary":   primaryStore.Ping,
		"secondary": secondaryStore.Ping,
	}))
	mux.Handle("GET /metrics", prometheus.NewExporter(engine).Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Addr),
			slog.Bool("production", cfg.ProductionMode),
			slog.Bool("registration", cfg.Registration))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
