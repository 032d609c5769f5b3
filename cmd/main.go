package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pradeep8949yadav/Live-Quant-Analytics/api"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/alerts"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/analytics"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/config"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/core"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/data"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/feed"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/mock"
	"github.com/pradeep8949yadav/Live-Quant-Analytics/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal, stopping services")
		cancel()
	}()

	// 1. Persistence sink (sqlite)
	storage, err := data.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Error("failed to open storage", "path", cfg.Storage.DBPath, "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	// 2. Analytics engine with bounded per-symbol histories
	engine := analytics.NewEngine(analytics.Config{
		MaxHistory:       cfg.Analytics.MaxHistory,
		ZScoreWindow:     cfg.Analytics.ZScoreWindow,
		MAPeriod:         cfg.Analytics.MAPeriod,
		RSIPeriod:        cfg.Analytics.RSIPeriod,
		GarchAlpha:       cfg.Analytics.GarchAlpha,
		GarchBeta:        cfg.Analytics.GarchBeta,
		MinCorrelation:   cfg.Analytics.MinCorrelation,
		CorrelationPeers: cfg.Analytics.CorrelationPeers,
		BacktestPeriod:   cfg.Backtest.Period,
		EntryThreshold:   cfg.Backtest.EntryThreshold,
		ExitThreshold:    cfg.Backtest.ExitThreshold,
	})

	// 3. Alert rules, restored from the previous run
	alertStore := alerts.NewStore(cfg.Alerts.MaxHistory)
	if rules, err := storage.LoadRules(); err != nil {
		logger.Warn("failed to load persisted alert rules", "error", err)
	} else if len(rules) > 0 {
		alertStore.RestoreRules(rules)
		logger.Info("restored alert rules", "count", len(rules))
	}

	// 4. Ingestion pipeline: trade channel -> aggregator -> flush
	ingestion := core.NewIngestionService(engine, alertStore, storage,
		cfg.Aggregator.FlushInterval, cfg.Feed.BufferSize)
	ingestion.Start(ctx)

	// 5. Trade source: live websocket feed or simulated generator
	var feedClient *feed.Client
	switch cfg.Feed.Mode {
	case "live":
		feedClient = feed.NewClient(feed.Config{
			WSURL:         cfg.Feed.WSURL,
			Symbols:       cfg.Feed.Symbols,
			BaseBackoff:   cfg.Feed.BaseBackoff,
			MaxBackoff:    cfg.Feed.MaxBackoff,
			MaxReconnects: cfg.Feed.MaxReconnects,
		}, ingestion.TradeChannel())
		go func() {
			if err := feedClient.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("feed client stopped", "error", err)
				cancel()
			}
		}()
	case "sim":
		genConfig := mock.DefaultGeneratorConfig()
		genConfig.Symbols = cfg.Feed.Symbols
		genConfig.BasePrices = make(map[string]float64, len(cfg.Feed.Symbols))
		for _, symbol := range cfg.Feed.Symbols {
			if price, ok := mock.DefaultGeneratorConfig().BasePrices[symbol]; ok {
				genConfig.BasePrices[symbol] = price
			} else {
				genConfig.BasePrices[symbol] = 100.0
			}
		}
		generator := mock.NewTradeDataGeneratorWithConfig(ingestion.TradeChannel(), genConfig)
		generator.Start(ctx)
	}

	// 6. Periodic retention cleanup
	go runCleanup(ctx, storage, cfg.Storage, logger)

	// 7. Service layer and HTTP API
	var statusProvider service.StatusProvider
	if feedClient != nil {
		statusProvider = feedClient
	}
	analyticsService := service.NewAnalyticsService(engine, statusProvider, alertStore, storage)
	apiHandler := api.NewAPIHandler(analyticsService, logger)

	logger.Info("analytics service starting",
		"port", cfg.Server.Port,
		"mode", cfg.Feed.Mode,
		"symbols", cfg.Feed.Symbols)

	if err := apiHandler.StartServer(ctx, cfg.Server.Port); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// setupLogger builds the process-wide slog logger from config
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// runCleanup deletes rows older than the retention window on a fixed interval
func runCleanup(ctx context.Context, storage *data.Storage, cfg config.StorageConfig, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := storage.CleanupOlderThan(cfg.RetentionDays); err != nil {
				logger.Error("retention cleanup failed", "error", err)
			} else {
				logger.Debug("retention cleanup completed", "retention_days", cfg.RetentionDays)
			}
		case <-ctx.Done():
			return
		}
	}
}
