// Package services orchestrates ingestion, storage and event publishing.
// Writes land in the store first; the AMQP announcement is best effort and
// never fails the request, the pending sweep covers the gap.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/csvio"
	"fintrack/internal/ingest"
	"fintrack/internal/report"
	"fintrack/internal/storage"
)

type TransactionService struct {
	store      storage.Store
	amqpClient *amqp.Client
	pipeline   *ingest.Pipeline
}

func NewTransactionService(store storage.Store, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		store:      store,
		amqpClient: amqpClient,
		pipeline:   ingest.NewPipeline(),
	}
}

// Create records a single manually entered transaction.
func (s *TransactionService) Create(ctx context.Context, ownerID string, entry ingest.ManualEntry) (core.Transaction, error) {
	res, err := s.pipeline.Ingest(ctx, ownerID, []ingest.RawInput{entry})
	if err != nil {
		return core.Transaction{}, err
	}
	if len(res.Rejected) > 0 {
		return core.Transaction{}, res.Rejected[0].Err
	}
	if len(res.Accepted) == 0 {
		return core.Transaction{}, core.ErrInvalidAmount
	}

	tx := res.Accepted[0]
	if _, err := s.store.SaveTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, tx.ID)
	return tx, nil
}

// ImportCSV ingests a bulk upload. Dirty rows are reported per row, not
// fatal; only an unreadable file or an empty owner fails the whole batch.
func (s *TransactionService) ImportCSV(ctx context.Context, ownerID string, r io.Reader) (ingest.Result, error) {
	rows, err := csvio.ReadRows(r)
	if err != nil {
		return ingest.Result{}, fmt.Errorf("read csv: %w", err)
	}

	inputs := make([]ingest.RawInput, len(rows))
	for i, row := range rows {
		inputs[i] = row
	}

	res, err := s.pipeline.Ingest(ctx, ownerID, inputs)
	if err != nil {
		return ingest.Result{}, err
	}

	if err := s.store.SaveMany(ctx, res.Accepted); err != nil {
		return ingest.Result{}, fmt.Errorf("save batch: %w", err)
	}

	for _, tx := range res.Accepted {
		s.publishSync(ctx, tx.ID)
	}

	slog.InfoContext(ctx, "CSV import finished",
		"owner", ownerID,
		"accepted", len(res.Accepted),
		"rejected", len(res.Rejected),
		"skipped", res.Skipped)

	return res, nil
}

// ScanReceipt ingests the text extracted from a receipt image.
func (s *TransactionService) ScanReceipt(ctx context.Context, ownerID string, extract ingest.OcrExtract) (core.Transaction, error) {
	res, err := s.pipeline.Ingest(ctx, ownerID, []ingest.RawInput{extract})
	if err != nil {
		return core.Transaction{}, err
	}
	if len(res.Rejected) > 0 {
		return core.Transaction{}, res.Rejected[0].Err
	}
	if len(res.Accepted) == 0 {
		return core.Transaction{}, core.ErrNoAmountFound
	}

	tx := res.Accepted[0]
	if _, err := s.store.SaveTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishSync(ctx, tx.ID)
	return tx, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	return s.store.FindByOwner(ctx, ownerID)
}

// Report aggregates the owner's transactions on the fly. Nothing is cached;
// the numbers always reflect the store at call time.
func (s *TransactionService) Report(ctx context.Context, ownerID string, q report.Query) (report.Report, error) {
	txs, err := s.store.FindByOwner(ctx, ownerID)
	if err != nil {
		return report.Report{}, fmt.Errorf("load transactions: %w", err)
	}
	return report.Aggregate(txs, q), nil
}

// UpdateRequest carries the editable fields. Empty strings mean untouched.
// A new amount is re-normalized against Type, or against the stored type
// when Type is empty.
type UpdateRequest struct {
	Type     string
	Category string
	Amount   string
	Date     string
}

func (s *TransactionService) Update(ctx context.Context, id string, req UpdateRequest) (core.Transaction, error) {
	var patch storage.Patch

	if req.Category != "" {
		patch.Category = &req.Category
	}

	if req.Date != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			return core.Transaction{}, err
		}
		patch.OccurredOn = &d
	}

	if req.Amount != "" {
		declared, err := core.ParseTransactionType(req.Type)
		if err != nil {
			return core.Transaction{}, err
		}
		if declared == "" {
			current, err := s.store.GetTransaction(ctx, id)
			if err != nil {
				return core.Transaction{}, err
			}
			declared = current.Type()
		}
		v, err := ingest.CleanAmount(req.Amount)
		if err != nil {
			return core.Transaction{}, err
		}
		normalized, err := ingest.Normalize(declared, v)
		if err != nil {
			return core.Transaction{}, err
		}
		patch.Amount = &normalized
	}

	tx, err := s.store.UpdateByID(ctx, id, patch)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publishSync(ctx, id)
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}

	if s.amqpClient == nil {
		return nil
	}
	if err := s.amqpClient.PublishTransactionDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
	return nil
}

func (s *TransactionService) publishSync(ctx context.Context, id string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishTransactionSync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
