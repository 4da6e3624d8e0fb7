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

	"github.com/accordsai/eventledger/pkg/db"
	"github.com/accordsai/eventledger/pkg/gateway"
	"github.com/accordsai/eventledger/pkg/gateway/fabric"
	platformotel "github.com/accordsai/eventledger/pkg/otel"
	"github.com/accordsai/eventledger/pkg/ratelimit"
	"github.com/accordsai/eventledger/pkg/wallet"
	"github.com/accordsai/eventledger/services/gateway/internal/config"
	"github.com/accordsai/eventledger/services/gateway/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

const serviceName = "eventledger-gateway"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("gateway exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := platformotel.Setup(ctx, serviceName, platformotel.Options{Endpoint: cfg.OTelEndpoint, Enabled: cfg.OTelEnabled})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	store, closeStore, err := openWallet(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	resolver := &fabric.Resolver{
		Wallet:      store,
		ProfilePath: cfg.ConnectionProfile,
		AsLocalhost: cfg.AsLocalhost,
		Timeouts:    cfg.Timeouts(),
		Logger:      logger,
	}
	dispatcher := &gateway.Dispatcher{
		AllowEmptyResult: cfg.AllowEmptyResult,
		Metrics:          gateway.NewMetrics(reg),
		Logger:           logger,
		Tracer:           otel.Tracer(serviceName),
	}
	gw := gateway.New(resolver, cfg.Scope(), dispatcher, logger)

	r := server.NewRouter(server.Deps{
		Caller:    gw,
		Logger:    logger,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Limiter:   ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
		StaticDir: cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening",
			"port", cfg.Port,
			"identity", cfg.Identity,
			"channel", cfg.Channel,
			"contract", cfg.Contract,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// openWallet prefers the postgres wallet when a database url is configured.
func openWallet(ctx context.Context, cfg config.Config) (wallet.Store, func(), error) {
	if cfg.WalletDatabaseURL == "" {
		return wallet.NewFileSystemStore(cfg.WalletPath), func() {}, nil
	}
	pool, err := db.Connect(ctx, cfg.WalletDatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect wallet database: %w", err)
	}
	st := wallet.NewPostgresStore(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("wallet schema: %w", err)
	}
	return st, pool.Close, nil
}
