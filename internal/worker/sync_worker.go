// Package worker mirrors persisted transactions to the spreadsheet. Events
// arrive over AMQP; a periodic sweep of rows still marked pending covers
// lost deliveries.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.TransactionWriter
	deleter   sheets.TransactionDeleter
	batchSize int
}

func NewSyncWorker(repo *storage.SQLiteRepository, writer sheets.TransactionWriter, deleter sheets.TransactionDeleter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   repo,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage mirrors one transaction to the sheet. The message only
// names the ID; the row is re-read so the freshest state wins.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.Message) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	tx, err := w.storage.GetTransaction(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted between publish and delivery. Nothing to mirror.
		slog.WarnContext(ctx, "Transaction gone before sync, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	return w.mirror(ctx, tx.ID, tx)
}

// HandleDeleteMessage removes the transaction's row from the sheet.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.Message) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.deleter == nil {
		slog.WarnContext(ctx, "No deleter configured, skipping sheet deletion", "id", msg.ID)
		return nil
	}

	if err := w.deleter.Delete(ctx, msg.ID); err != nil {
		return fmt.Errorf("delete from sheet: %w", err)
	}
	return nil
}

// ProcessPending sweeps rows still marked pending and mirrors them. Covers
// the case where an AMQP message was lost or the worker was down.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		tx, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending transaction", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}
		if err := w.mirror(ctx, p.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending transaction", "id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup, using
// a larger batch than the periodic sweep.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup", "count", len(pending))

	synced := 0
	failed := 0
	for _, p := range pending {
		tx, err := w.storage.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load transaction for startup sync", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			failed++
			continue
		}
		if err := w.mirror(ctx, p.ID, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror during startup", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending), "synced", synced, "errors", failed)

	return nil
}

func (w *SyncWorker) mirror(ctx context.Context, id string, tx core.Transaction) error {
	ref, err := w.writer.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The mirror itself succeeded. Leave the row pending and let the
		// sweep retry the bookkeeping.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Transaction mirrored",
		"id", id, "sheet_ref", ref, "amount", tx.Amount.String())

	return nil
}
