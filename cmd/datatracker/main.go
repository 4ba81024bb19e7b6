package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"datatracker/internal/amqp"
	"datatracker/internal/backend"
	"datatracker/internal/cache"
	"datatracker/internal/config"
	"datatracker/internal/core"
	"datatracker/internal/export"
	apphttp "datatracker/internal/http"
	"datatracker/internal/log"
	"datatracker/internal/scheduler"
	"datatracker/internal/services"
)

func main() {
	// A missing .env file is fine, the environment wins anyway.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}
	core.SetDefaultLocale(cfg.LanguageTag())

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.Open(backendCfg, logger)
	if err != nil {
		logger.Error("Failed to open data backend", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()
	store := result.Store

	// AMQP is optional: without a URL, change events are simply dropped.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		events = client
		logger.Info("AMQP change events enabled", "exchange", cfg.AMQPExchange)
	}

	stats := services.NewStatsService(store, services.StatsOptions{
		Scale: core.ScaleOptions{
			RatioThreshold: cfg.ChartScaleRatio,
			RangeThreshold: cfg.ChartScaleRange,
		},
		ExcludeAutoGenerated: cfg.TrendExcludeAutoGenerated,
		CacheSize:            cfg.DashboardCacheSize,
		CacheTTL:             cfg.DashboardCacheTTL,
	}, logger)

	categories := services.NewCategoryService(store, events, stats, logger)
	entries := services.NewEntryService(store, events, stats, logger)
	auto := services.NewAutoCreator(store, stats, logger)

	cacheManager := cache.NewManager()
	cacheManager.Register(stats.Cache())
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	sched := scheduler.New(auto, logger)
	if err := sched.Schedule(cfg.AutoCreateSpec); err != nil {
		logger.Error("Failed to schedule auto-create", log.FieldError, err)
		os.Exit(1)
	}

	// The sheets mirror needs a spreadsheet id plus service account
	// credentials in the environment.
	var sheets *export.Sheets
	if cfg.SheetsSpreadsheetID != "" {
		sheets, err = export.NewSheets(context.Background(), store, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize sheets mirror", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Sheets mirror enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Categories: categories,
		Entries:    entries,
		Stats:      stats,
		Auto:       auto,
		Excel:      export.NewExcel(store, logger),
		Sheets:     sheets,
		Logger:     logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)
	defer sched.Stop()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting datatracker server",
		"port", cfg.Port,
		"backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
