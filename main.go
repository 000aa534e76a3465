package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"backtestLab/config"
	"backtestLab/internal/adapters/binanceclient"
	"backtestLab/internal/adapters/logger"
	"backtestLab/internal/adapters/sqlite"
	"backtestLab/internal/app"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": string(cfg.LogFormat)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 4. Initialize Market Data Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		BaseURL:    cfg.BinanceURL,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := binanceClient.Ping(ctx); err != nil {
		appLogger.Warn(ctx, "Binance ping failed, refreshes will retry on schedule", map[string]interface{}{"error": err.Error()})
	}

	// 5. Initialize Application Service
	service, err := app.NewAnalysisService(app.ServiceConfig{
		CandleInterval: cfg.CandleInterval,
		CandleLimit:    cfg.CandleLimit,
		RSIPeriod:      cfg.RSIPeriod,
		Thresholds:     cfg.Thresholds,
		RefreshTimeout: cfg.RefreshTimeout,
	}, binanceClient, repo, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize analysis service")
		log.Fatalf("FATAL: Failed to initialize analysis service: %v", err)
	}

	var targets []app.Target
	for _, symbol := range cfg.Symbols {
		for _, p := range cfg.Profiles {
			targets = append(targets, app.Target{Symbol: symbol, Profile: p.Name, Strategy: p.Strategy})
		}
	}

	// 6. Schedule refreshes; run once immediately
	scheduler := app.NewScheduler(ctx, service, targets, appLogger)
	if err := scheduler.Register(cfg.RefreshSchedule); err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to schedule refreshes")
		log.Fatalf("FATAL: Failed to schedule refreshes: %v", err)
	}
	scheduler.RunNow()
	scheduler.Start()

	<-ctx.Done()
	appLogger.Info(context.Background(), "Shutdown signal received, waiting for running refreshes...")

	select {
	case <-scheduler.Stop().Done():
	case <-time.After(cfg.RefreshTimeout):
		appLogger.Warn(context.Background(), "Timeout waiting for running refreshes")
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
