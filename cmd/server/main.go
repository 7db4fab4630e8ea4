/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the commission tracker server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and environment configuration, apply flag overrides
  2. Initialize SQLite store (runs migrations)
  3. Load the compensation plan (built-in default or PLAN_PATH)
  4. Create API handler, router, and session sweeper
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: PORT or 8080)
  -db      SQLite database path (default: DB_PATH or ./data/commission.db)
           Use ":memory:" for in-memory database
  -plan    Compensation plan JSON file (default: PLAN_PATH or built-in)

ENVIRONMENT:
  PORT                    HTTP server port
  DB_PATH                 SQLite database path
  TEAM_PASSWORD           Shared signup password
  SESSION_TTL             Session lifetime (Go duration, default 720h)
  SESSION_SWEEP_INTERVAL  Expired-session cleanup cadence (default 1h)
  PLAN_PATH               Compensation plan JSON file
  LOG_LEVEL               debug | info | warn | error
  A .env file in the working directory is loaded if present.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the session sweeper and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/commission.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run with a custom compensation plan
  ./server -plan="./plans/2026.json"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Environment configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/commission-tracker/api"
	"github.com/warp/commission-tracker/compensation"
	"github.com/warp/commission-tracker/config"
	"github.com/warp/commission-tracker/factory"
	"github.com/warp/commission-tracker/store/sqlite"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	// Flags override the environment
	port := flag.String("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	planPath := flag.String("plan", cfg.PlanPath, "compensation plan JSON file (empty = built-in default)")
	flag.Parse()
	cfg.Port = *port
	cfg.DBPath = *dbPath
	cfg.PlanPath = *planPath

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	plan, err := loadPlan(cfg.PlanPath)
	if err != nil {
		logger.Fatal("failed to load compensation plan",
			zap.String("path", cfg.PlanPath), zap.Error(err))
	}

	// Initialize handler
	handler := api.NewHandler(store, plan, cfg.TeamPassword, logger)
	handler.SessionTTL = cfg.SessionTTL

	// Background session cleanup
	sweeper := api.NewSessionSweeper(store, logger)
	sweeper.Interval = cfg.SweepInterval
	sweeper.Start()
	defer sweeper.Stop()

	// Create router
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.String("url", "http://localhost:"+cfg.Port),
			zap.String("db", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// buildLogger builds a production zap logger at the configured level.
func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// loadPlan reads a plan file, falling back to the built-in plan when no
// path is configured.
func loadPlan(path string) (*compensation.Plan, error) {
	if path == "" {
		return compensation.DefaultPlan(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return factory.NewPlanFactory().ParsePlan(string(raw))
}
