package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// Sync states for the background mirror worker.
const (
	syncPending = 0
	syncDone    = 1
	syncFailed  = 2
)

// SQLiteRepository implements Store on a local SQLite database. Amounts are
// stored as decimal text, never as floats, so the signed value round-trips
// exactly.
type SQLiteRepository struct {
	db *sql.DB
}

// PendingSync is a lightweight row reference for the sync sweep.
type PendingSync struct {
	ID string
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) SaveTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validate transaction: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, category, amount, occurred_on, created_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, tx.Category, tx.Amount.String(),
		tx.OccurredOn.String(), tx.CreatedAt.UTC().Format(time.RFC3339), syncPending,
	)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"owner", tx.OwnerID,
		"category", tx.Category,
		"amount", tx.Amount.String())

	return tx.ID, nil
}

// SaveMany inserts a batch atomically: either every accepted row lands or
// none does, so a re-run of the same upload cannot half-apply.
func (r *SQLiteRepository) SaveMany(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions (id, owner_id, category, amount, occurred_on, created_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("validate transaction %s: %w", tx.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			tx.ID, tx.OwnerID, tx.Category, tx.Amount.String(),
			tx.OccurredOn.String(), tx.CreatedAt.UTC().Format(time.RFC3339), syncPending,
		); err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}

	slog.InfoContext(ctx, "Transaction batch saved", "count", len(txs))
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, category, amount, occurred_on, created_at
		FROM transactions
		WHERE id = ? AND deleted_at IS NULL`, id)
	return scanTransaction(row)
}

func (r *SQLiteRepository) FindByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, category, amount, occurred_on, created_at
		FROM transactions
		WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY occurred_on, created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// DeleteByID soft-deletes so the sync worker can still propagate the
// removal downstream.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) UpdateByID(ctx context.Context, id string, p Patch) (core.Transaction, error) {
	current, err := r.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if p.Category != nil {
		current.Category = *p.Category
	}
	if p.Amount != nil {
		current.Amount = *p.Amount
	}
	if p.OccurredOn != nil {
		current.OccurredOn = *p.OccurredOn
	}
	if err := current.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate patched transaction: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, amount = ?, occurred_on = ?, sync_status = ?
		WHERE id = ? AND deleted_at IS NULL`,
		current.Category, current.Amount.String(), current.OccurredOn.String(), syncPending, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if affected == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return current, nil
}

// GetPendingSync returns transactions not yet mirrored downstream, oldest
// first, capped at limit.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE sync_status = ? AND deleted_at IS NULL
		ORDER BY created_at, id
		LIMIT ?`, syncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending sync: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var p PendingSync
		if err := rows.Scan(&p.ID); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, syncDone)
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, syncFailed)
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id string, status int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx         core.Transaction
		amount     string
		occurredOn string
		createdAt  string
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &tx.Category, &amount, &occurredOn, &createdAt)
	if err == sql.ErrNoRows {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	if tx.OccurredOn, err = core.ParseDate(occurredOn); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", occurredOn, err)
	}
	if tx.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored timestamp %q: %w", createdAt, err)
	}
	return tx, nil
}
