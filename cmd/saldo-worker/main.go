package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/ledger"
	applog "saldo/internal/log"
	"saldo/internal/sheets"
	gsheet "saldo/internal/sheets/google"
	"saldo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting saldo-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is private to each process; the worker only sees its own seed data")
	}

	store, closeStore := cli.InitStore(context.Background(), logger, cfg)
	defer closeStore()

	ledgerStore := ledger.New(store, ledger.WithDefaultCurrency(cfg.DefaultCurrency))

	// Google Sheets export is optional
	var exporter sheets.LedgerExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	alerts := worker.NewAlertWorker(ledgerStore, worker.LogNotifier{}, exporter)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Evaluate once at start-up so an existing red day is announced.
	if err := alerts.Check(ctx); err != nil {
		logger.Error("Startup ledger check failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if client := cli.InitAMQP(logger, cfg); client != nil {
		defer client.Close()
		g.Go(func() error {
			return client.ConsumeLedgerChanged(gctx, alerts.HandleLedgerChanged)
		})
	} else {
		logger.Info("Skipping AMQP consumption, relying on the periodic check", "interval", cfg.AlertInterval)
	}

	g.Go(func() error {
		return alerts.Run(gctx, cfg.AlertInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
