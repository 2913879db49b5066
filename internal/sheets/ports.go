package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for the outbound spreadsheet mirror.
type (
	TransactionWriter interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	TransactionDeleter interface {
		Delete(ctx context.Context, id string) error
	}
)
