package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"streeteasy-monitor/config"
	"streeteasy-monitor/monitor"
	"streeteasy-monitor/notify"
	"streeteasy-monitor/scraper/streeteasy"
	"streeteasy-monitor/services"
	"streeteasy-monitor/storage"
	"streeteasy-monitor/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := utils.NewLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration error: %v", err)
		return 1
	}
	if _, err := streeteasy.BuildQuery(cfg.Search); err != nil {
		logger.Error("Configuration error: %v", err)
		return 1
	}

	logger.Info("=== StreetEasy Monitor starting ===")
	logger.Info("Search: $%d-$%d | beds %d-%d | baths %d+ | areas %v | no fee: %t",
		cfg.Search.MinPrice, cfg.Search.MaxPrice, cfg.Search.MinBeds, cfg.Search.MaxBeds,
		cfg.Search.Baths, cfg.Search.Areas, cfg.Search.NoFee)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.StoreBackend, cfg.DSN(), logger)
	if err != nil {
		logger.Error("Failed to open listing store: %v", err)
		if cfg.StoreBackend == storage.BackendPostgres {
			logger.Error("Make sure Docker is running: docker compose up -d")
		}
		return 1
	}
	defer store.Close()

	s := streeteasy.New(cfg, logger, store)

	if cfg.CSVOutputPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
		if err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
			return 1
		}
		defer csvWriter.Close()
		s.SetRawWriter(csvWriter)
	}

	var notifier notify.Notifier = notify.NewEmailNotifier(cfg.SMTP, logger)
	if cfg.DryRun {
		logger.Info("Dry run: notifications will be logged, not emailed")
		notifier = notify.NewLogNotifier(logger)
	}

	m := monitor.New(s, store, notifier, logger, cfg.Search, cfg.Exclude)
	report, err := m.Run(ctx)
	if err != nil {
		return 1
	}

	stored, err := store.List(ctx, 0)
	if err != nil {
		logger.Warn("Failed to load stored listings for the summary: %v", err)
		return 0
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(stored))

	fmt.Printf("  Run %s: %d new | notified: %t | saved %d | duplicate %d | failed %d\n\n",
		report.RunID, report.Found, report.Notified, report.Persisted, report.Duplicates, report.Failed)
	return 0
}
