package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/gogo/coach/api"
	"github.com/xiaot623/gogo/coach/coach"
	"github.com/xiaot623/gogo/coach/config"
	"github.com/xiaot623/gogo/coach/insights"
	"github.com/xiaot623/gogo/coach/llm"
	"github.com/xiaot623/gogo/coach/policy"
	"github.com/xiaot623/gogo/coach/profile"
	"github.com/xiaot623/gogo/coach/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting coaching service",
		"port", cfg.HTTPPort,
		"database", cfg.DatabaseURL,
		"llm_url", cfg.LLMURL,
		"model", cfg.Model,
		"mode", cfg.Mode,
	)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		slog.Error("Failed to initialize policy engine", "error", err)
		os.Exit(1)
	}

	streamer := llm.NewStreamer(cfg.Mode, cfg.LLMURL, cfg.LLMAPIKey, cfg.LLMTimeout, cfg.LLMParams())
	registry := coach.NewRegistry(
		profile.NewStore(db),
		streamer,
		insights.NewGenerator(policyEngine),
		coach.Options{FallbackMessages: cfg.Fallbacks},
	)

	h := api.NewHandler(registry, cfg)

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Coaching API started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down coaching service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shutdown server gracefully", "error", err)
	}

	slog.Info("Coaching service stopped")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
