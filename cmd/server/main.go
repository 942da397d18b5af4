package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Daniyal2108/Stock-App/internal/advisor"
	"github.com/Daniyal2108/Stock-App/internal/alert"
	"github.com/Daniyal2108/Stock-App/internal/api"
	"github.com/Daniyal2108/Stock-App/internal/config"
	"github.com/Daniyal2108/Stock-App/internal/database"
	"github.com/Daniyal2108/Stock-App/internal/engine"
	"github.com/Daniyal2108/Stock-App/internal/feed"
	"github.com/Daniyal2108/Stock-App/internal/logger"
	"github.com/Daniyal2108/Stock-App/internal/market"
	"github.com/Daniyal2108/Stock-App/internal/notify"
	"github.com/Daniyal2108/Stock-App/internal/portfolio"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize the market-data feed client. No base URL means a fully
	// simulated session.
	var feedClient feed.ClientInterface
	if cfg.Feed.BaseURL != "" && !cfg.Market.OfflineMode {
		feedClient = feed.NewClient(&cfg.Feed, log)
	} else {
		log.Info("No feed configured, running in offline mode")
	}

	// Assemble the session engine and its collaborators.
	book := market.NewAssetBook()
	sim := market.NewSimulator(time.Now().UnixNano(), cfg.Market.VolatilityFactor, cfg.Market.RollProbability)
	notes := notify.NewQueue(log, notify.RealClock(), time.Duration(cfg.Market.NotificationTTLMs)*time.Millisecond)
	alerts := alert.NewEngine(log, alert.NewGormStore(db), notes)
	if err := alerts.Load(); err != nil {
		log.Warn("Failed to load persisted alerts", zap.Error(err))
	}
	ledger := portfolio.NewLedger(log, portfolio.NewGormRecorder(db), cfg.Market.StartingCash)

	eng := engine.NewEngine(log, cfg.Market, feedClient, book, sim, alerts, notes, ledger)
	defer eng.Close()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Feed refreshes run on their own schedule, decoupled from the
	// per-second tick loop.
	scheduler := cron.New()
	if feedClient != nil {
		spec := fmt.Sprintf("@every %ds", cfg.Market.RefreshInterval)
		if _, err := scheduler.AddFunc(spec, func() { eng.Refresh(ctx) }); err != nil {
			log.Fatal("Failed to schedule feed refresh", zap.Error(err))
		}
		scheduler.Start()
		log.Info("Feed refresh scheduled", zap.String("spec", spec))
	}

	advisorClient := advisor.NewClient(&cfg.Advisor, log)

	apiServer := api.NewServer(cfg.Server.Port, eng, advisorClient, db, log)
	apiServer.Start()

	// Run the tick loop until the shutdown signal arrives.
	eng.Run(ctx)

	scheduler.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("API server shutdown failed", zap.Error(err))
	}

	log.Info("Dashboard has been shut down.")
}
