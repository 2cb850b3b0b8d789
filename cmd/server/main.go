package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quotekit/quotekit/internal/api"
	"github.com/quotekit/quotekit/internal/config"
	"github.com/quotekit/quotekit/internal/database"
	"github.com/quotekit/quotekit/internal/founding"
	"github.com/quotekit/quotekit/internal/pricing"
	"github.com/quotekit/quotekit/internal/quotelock"
	"github.com/quotekit/quotekit/internal/servicekey"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(startCtx, cfg.DatabaseURL, database.WithApplicationName("quotekit"))
	if err != nil {
		startCancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(startCtx); err != nil {
			startCancel()
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrations applied")
	}
	startCancel()

	deps := api.RouterDeps{
		DBPinger: db,
		Version:  cfg.Version,
		Pricing:  pricing.NewEngine(pricing.NewPostgresRepository(db.Pool())),
		Founding: founding.NewService(founding.NewPostgresRepository(db.Pool())),
	}

	if cfg.RedisEnabled() {
		client := quotelock.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = client.Close() }()
		store := quotelock.NewStore(client, time.Now)
		deps.Ceilings = store
		deps.RedisPinger = store
	} else {
		slog.Warn("REDIS_ADDR not set; ceiling quotes will not be locked")
	}

	if cfg.ServiceKeyHash != "" {
		verifier, err := servicekey.NewVerifier(cfg.ServiceKeyHash)
		if err != nil {
			slog.Error("invalid SERVICE_KEY_HASH", "error", err)
			os.Exit(1)
		}
		deps.KeyVerifier = verifier
	} else {
		slog.Warn("SERVICE_KEY_HASH not set; founding routes are unauthenticated")
	}

	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting quotekit server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
