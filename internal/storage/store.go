package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var ErrNotFound = errors.New("transaction not found")

type (
	// Patch carries the updatable fields of a transaction. Nil fields are
	// left untouched. Amount must already be sign-normalized by the caller;
	// the store never interprets amounts.
	Patch struct {
		Category   *string
		Amount     *decimal.Decimal
		OccurredOn *core.Date
	}

	// Store is the persistence collaborator. The ingestion and reporting
	// engines never touch a database directly; they only see this contract.
	Store interface {
		SaveTransaction(ctx context.Context, tx core.Transaction) (string, error)
		SaveMany(ctx context.Context, txs []core.Transaction) error
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		FindByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error)
		DeleteByID(ctx context.Context, id string) error
		UpdateByID(ctx context.Context, id string, p Patch) (core.Transaction, error)
		Close() error
	}
)
