// Package main is the entry point for the Foodgram API server. It loads
// configuration, connects to MariaDB and Redis, applies migrations, wires
// the plugins, and serves HTTP until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/foodgram/foodgram/internal/app"
	"github.com/foodgram/foodgram/internal/config"
	"github.com/foodgram/foodgram/internal/database"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting Foodgram",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	// --- Connect to MariaDB ---
	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		slog.Error("failed to connect to MariaDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to MariaDB")

	if err := database.RunMigrations(db, cfg.MigrationsPath); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Connect to Redis ---
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	// --- Create Application ---
	application := app.New(cfg, db, rdb)
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation. LOG_LEVEL overrides the default level.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
