// Harrier - Transaction risk and categorization engine.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

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

	"github.com/opensource-finance/harrier/internal/alerts"
	"github.com/opensource-finance/harrier/internal/api"
	"github.com/opensource-finance/harrier/internal/bus"
	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/catalog"
	"github.com/opensource-finance/harrier/internal/categorize"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/engine"
	"github.com/opensource-finance/harrier/internal/fraud"
	"github.com/opensource-finance/harrier/internal/history"
	"github.com/opensource-finance/harrier/internal/merchant"
	"github.com/opensource-finance/harrier/internal/repository"
	"github.com/opensource-finance/harrier/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("HARRIER_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting harrier",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("HARRIER_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize catalogs and merchant directory from the database, falling
	// back to the built-in seed data.
	fraudRules := catalog.NewFraudCatalog(loadFraudRules(ctx, repo))
	catRules := catalog.NewCategoryCatalog(loadCategoryRules(ctx, repo))
	directory := merchant.NewDirectory(loadMerchants(ctx, repo))
	slog.Info("catalogs initialized",
		"fraud_rules", fraudRules.Count(),
		"category_rules", catRules.Count(),
		"merchants", directory.Count(),
	)

	// Initialize history service
	historySvc := history.NewService(repo, cacheImpl, logger, cfg.Engine.HistoryDays)
	slog.Info("history service initialized", "window_days", cfg.Engine.HistoryDays)

	// Initialize alert manager
	alertMgr := alerts.NewManager(repo, logger, cfg.Engine.ManualReviewThreshold)

	// Initialize Engine
	eng := engine.New(engine.Options{
		Config:     cfg.Engine,
		Directory:  directory,
		FraudRules: fraudRules,
		CatRules:   catRules,
		Learning:   categorize.NewLearningStore(),
		Detector:   fraud.DefaultOptions(),
		Alerts:     alertMgr,
		History:    historySvc,
		Repo:       repo,
		Bus:        busImpl,
		Logger:     logger,
	})
	slog.Info("engine initialized",
		"alert_threshold", cfg.Engine.AlertThreshold,
		"home_country", cfg.Engine.HomeCountry,
	)

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("HARRIER_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, eng, logger)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started")
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, eng, repo, cacheImpl, busImpl, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("harrier is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("harrier shutdown complete")
}

// loadFraudRules prefers database rules; the seed catalog is used when the
// database holds none.
func loadFraudRules(ctx context.Context, repo domain.Repository) []*domain.FraudRule {
	stored, err := repo.ListFraudRules(ctx)
	if err != nil {
		slog.Warn("failed to list fraud rules from database", "error", err)
		return catalog.DefaultFraudRules()
	}
	if len(stored) > 0 {
		slog.Info("loading fraud rules from database", "count", len(stored))
		return stored
	}
	return catalog.DefaultFraudRules()
}

// loadCategoryRules prefers database rules over the seed catalog.
func loadCategoryRules(ctx context.Context, repo domain.Repository) []*domain.CategoryRule {
	stored, err := repo.ListCategoryRules(ctx)
	if err != nil {
		slog.Warn("failed to list category rules from database", "error", err)
		return catalog.DefaultCategoryRules()
	}
	if len(stored) > 0 {
		slog.Info("loading category rules from database", "count", len(stored))
		return stored
	}
	return catalog.DefaultCategoryRules()
}

// loadMerchants merges learned merchants from the database over the seed
// directory.
func loadMerchants(ctx context.Context, repo domain.Repository) []domain.MerchantRecord {
	records := merchant.DefaultMerchants()

	stored, err := repo.ListMerchants(ctx)
	if err != nil {
		slog.Warn("failed to list merchants from database", "error", err)
		return records
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		seen[rec.Name] = true
	}
	for _, rec := range stored {
		if !seen[rec.Name] {
			records = append(records, *rec)
		}
	}
	return records
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🦅 HARRIER                  ║")
	fmt.Println("  ║   Transaction Risk & Categorization       ║")
	fmt.Println("  ║      Every rand accounted for.            ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST  /transactions/analyze     - Score a transaction")
	fmt.Println("    POST  /transactions/categorize  - Categorize a transaction")
	fmt.Println("    POST  /transactions/suggestions - Category suggestions")
	fmt.Println("    POST  /corrections              - Record a category correction")
	fmt.Println("    GET   /alerts/account/{id}      - Alerts for an account")
	fmt.Println("    GET   /alerts/user/{id}/count   - Open alert count for a user")
	fmt.Println("    POST  /alerts/{id}/resolve      - Resolve an alert")
	fmt.Println("    GET   /fraud-rules              - List fraud rules")
	fmt.Println("    PATCH /fraud-rules/{id}         - Update a fraud rule")
	fmt.Println("    POST  /fraud-rules/reload       - Hot-reload fraud rules")
	fmt.Println("    GET   /stats                    - Categorization statistics")
	fmt.Println("    GET   /health                   - Health check")
	fmt.Println()
}
