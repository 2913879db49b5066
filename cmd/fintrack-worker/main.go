package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The spreadsheet mirror is optional. Without it the worker only drains
	// the queue so messages do not pile up.
	var sheetsClient *gsheet.Client
	if cfg.GoogleSpreadsheetID != "" {
		var err error
		sheetsClient, err = gsheet.NewClient(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets disabled, no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var syncWorker *worker.SyncWorker
	if sheetsClient != nil {
		syncWorker = worker.NewSyncWorker(repo, sheetsClient, sheetsClient, cfg.SyncBatchSize)

		logger.Info("Performing startup sync check",
			log.NewFields().WithOperation(log.OpStartup).ToSlice()...)
		if err := syncWorker.StartupSyncCheck(ctx); err != nil {
			// Keep running. The periodic sweep retries what startup missed.
			logger.Error("Startup sync check failed", "error", err)
		}
	} else {
		logger.Info("Skipping sync operations, no sheets client available")
	}

	if syncWorker != nil {
		go func() {
			syncHandler := func(msg *amqp.Message) error {
				return syncWorker.HandleSyncMessage(ctx, msg)
			}
			deleteHandler := func(msg *amqp.Message) error {
				return syncWorker.HandleDeleteMessage(ctx, msg)
			}
			if err := amqpClient.ConsumeMessages(ctx, syncHandler, deleteHandler); err != nil {
				if err != context.Canceled {
					logger.Error("Message consumption failed", "error", err)
				}
				cancel()
			}
		}()

		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := syncWorker.ProcessPending(ctx); err != nil {
						logger.Error("Periodic sync failed", "error", err)
					}
				}
			}
		}()
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		cancel()
	})
	cli.WaitForShutdown(shutdownCtx, done)
}
