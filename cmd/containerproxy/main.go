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

	postgresadapter "github.com/ericfisherdev/containerproxy/internal/adapter/driven/postgres"
	"github.com/ericfisherdev/containerproxy/internal/adapter/driven/registry"
	sqliteadapter "github.com/ericfisherdev/containerproxy/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/containerproxy/internal/adapter/driving/http"
	"github.com/ericfisherdev/containerproxy/internal/apiauth"
	"github.com/ericfisherdev/containerproxy/internal/application"
	"github.com/ericfisherdev/containerproxy/internal/config"
	"github.com/ericfisherdev/containerproxy/internal/domain/model"
	"github.com/ericfisherdev/containerproxy/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store", cfg.Store,
		"registry_path", cfg.RegistryPath,
		"auth_enabled", cfg.AuthEnabled(),
		"default_container", cfg.DefaultContainerID,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the configuration store and run migrations.
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()

	// 4. Seed the container registry.
	var containers []model.Container
	if cfg.RegistryPath != "" {
		containers, err = registry.LoadFile(cfg.RegistryPath)
		if err != nil {
			return err
		}
		slog.Info("container registry loaded", "path", cfg.RegistryPath, "containers", len(containers))
	}
	containerRegistry := registry.NewMemory(containers)

	// 5. Wire services. A failed initial load is not fatal: requests go
	// direct until the store recovers.
	events := httphandler.NewEventHub(logger)
	defer events.Close()

	proxySvc := application.NewProxyService(store, events, logger)
	if err := proxySvc.Init(ctx); err != nil {
		slog.Warn("serving with an empty mapping until the store recovers", "error", err)
	}

	resolver := application.NewResolver(proxySvc, cfg.DefaultContainerID, logger)
	authResponder := application.NewAuthResponder(proxySvc, logger)
	transferSvc := application.NewTransferService(proxySvc, containerRegistry, logger)
	tester := application.NewProxyTester(logger)

	// 6. Create HTTP handler and apply middleware.
	var tokens httphandler.TokenVerifier
	if cfg.AuthEnabled() {
		tokens = apiauth.NewVerifier([]byte(cfg.APISecret))
	}

	apiHandler := httphandler.NewHandler(proxySvc, resolver, authResponder, transferSvc, tester, containerRegistry, events, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, logger, tokens),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	slog.Info("containerproxy started", "listen_addr", cfg.ListenAddr, "proxies", len(proxySvc.Snapshot()))

	// 7. Wait for shutdown signal or server failure.
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	slog.Info("shutting down")

	// 8. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	events.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openStore opens the configured mapping store and applies its migrations.
func openStore(ctx context.Context, cfg *config.Config) (driven.MappingStore, func() error, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgresadapter.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgresadapter.RunMigrations(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("postgres store ready")
		return postgresadapter.NewMappingRepo(db), db.Close, nil

	default:
		// Dual reader/writer with WAL mode.
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("sqlite store ready", "path", db.Path())
		return sqliteadapter.NewMappingRepo(db), db.Close, nil
	}
}
