package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/efreitasn/notary/internal/config"
	"github.com/efreitasn/notary/internal/domain"
	"github.com/efreitasn/notary/internal/engine"
	"github.com/efreitasn/notary/internal/handler"
	"github.com/efreitasn/notary/internal/metrics"
	"github.com/efreitasn/notary/internal/registry"
	"github.com/efreitasn/notary/internal/service"
	"github.com/efreitasn/notary/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Asset registries, all minted by the owner account.
	registries := registry.NewDirectory()
	for _, addr := range cfg.Registries {
		registries.Add(registry.New(addr, cfg.OwnerAccount, cfg.MetadataBaseURI))
		logger.Info("registry deployed",
			slog.String("address", addr.String()),
			slog.String("minter", cfg.OwnerAccount.String()),
			slog.String("base_uri", cfg.MetadataBaseURI),
		)
	}

	// Ledger and notary. The full supply is minted to the owner here and
	// never again.
	ledger, err := engine.NewLedger(store.NewAccountStore(), cfg.OwnerAccount, cfg.TotalSupply)
	if err != nil {
		logger.Error("failed to create ledger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	notary := engine.NewNotary(
		cfg.NotaryAccount,
		ledger,
		registries,
		store.NewOrderStore(),
		store.NewSettlementStore(),
	)
	logger.Info("notary deployed",
		slog.String("address", notary.Address().String()),
		slog.String("owner", cfg.OwnerAccount.String()),
		slog.String("total_supply", domain.FromBaseUnits(cfg.TotalSupply, cfg.TokenDecimals)),
	)

	m := metrics.NewDefault()

	webhookSvc := service.NewWebhookService(store.NewWebhookStore(), cfg.WebhookTimeout, cfg.TokenDecimals)
	notarySvc := service.NewNotaryService(notary, webhookSvc, m, logger, cfg.TokenDecimals)
	accountSvc := service.NewAccountService(ledger, m, logger, cfg.TokenDecimals)
	registrySvc := service.NewRegistryService(registries, m, logger)

	router := handler.NewRouter(notarySvc, accountSvc, registrySvc, webhookSvc, m.Handler(), logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, srv, cfg.ShutdownTimeout, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped",
		slog.Int64("total_supply", notary.TotalSupply()),
		slog.Int64("sum_of_balances", notary.SumBalances()),
	)
}

// run serves until ctx is cancelled, then shuts srv down within
// shutdownTimeout.
func run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
