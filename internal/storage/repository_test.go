package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample(id, owner, category, amount string, d core.Date) core.Transaction {
	v, err := decimal.NewFromString(amount)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:         id,
		OwnerID:    owner,
		Category:   category,
		Amount:     v,
		OccurredOn: d,
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndGetTransaction(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	in := sample("tx-1", "owner-1", "Groceries", "-42.50", core.NewDate(2024, 3, 5))
	id, err := repo.SaveTransaction(ctx, in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != "tx-1" {
		t.Fatalf("id = %q", id)
	}

	got, err := repo.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(in.Amount) {
		t.Fatalf("amount = %s, want %s", got.Amount, in.Amount)
	}
	if got.OccurredOn.String() != "2024-03-05" {
		t.Fatalf("occurred_on = %s", got.OccurredOn)
	}
	if got.Category != "Groceries" || got.OwnerID != "owner-1" {
		t.Fatalf("got = %+v", got)
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	repo := testRepo(t)
	if _, err := repo.GetTransaction(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSaveManyAtomic(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	good := sample("tx-1", "owner-1", "Food", "-10", core.NewDate(2024, 1, 1))
	bad := sample("tx-2", "owner-1", "", "-10", core.NewDate(2024, 1, 2))

	if err := repo.SaveMany(ctx, []core.Transaction{good, bad}); err == nil {
		t.Fatalf("batch with invalid row should fail")
	}
	if _, err := repo.GetTransaction(ctx, "tx-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed batch must not leave partial rows, got %v", err)
	}

	if err := repo.SaveMany(ctx, []core.Transaction{good}); err != nil {
		t.Fatalf("save many: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("get after batch: %v", err)
	}
}

func TestFindByOwner(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		sample("tx-1", "alice", "Food", "-10", core.NewDate(2024, 2, 1)),
		sample("tx-2", "bob", "Food", "-20", core.NewDate(2024, 2, 1)),
		sample("tx-3", "alice", "Rent", "-900", core.NewDate(2024, 1, 1)),
	} {
		if _, err := repo.SaveTransaction(ctx, tx); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := repo.FindByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "tx-3" || got[1].ID != "tx-1" {
		t.Fatalf("expected date order, got %s then %s", got[0].ID, got[1].ID)
	}
}

func TestDeleteByID(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.SaveTransaction(ctx, sample("tx-1", "alice", "Food", "-10", core.NewDate(2024, 2, 1))); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.DeleteByID(ctx, "tx-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "tx-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted row still visible: %v", err)
	}
	if err := repo.DeleteByID(ctx, "tx-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete should report not found, got %v", err)
	}
}

func TestUpdateByID(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if _, err := repo.SaveTransaction(ctx, sample("tx-1", "alice", "Food", "-10", core.NewDate(2024, 2, 1))); err != nil {
		t.Fatalf("save: %v", err)
	}

	newCat := "Dining"
	newAmount := decimal.RequireFromString("-25.50")
	got, err := repo.UpdateByID(ctx, "tx-1", Patch{Category: &newCat, Amount: &newAmount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Category != "Dining" || !got.Amount.Equal(newAmount) {
		t.Fatalf("got = %+v", got)
	}
	if got.OccurredOn.String() != "2024-02-01" {
		t.Fatalf("untouched field changed: %s", got.OccurredOn)
	}

	if _, err := repo.UpdateByID(ctx, "missing", Patch{Category: &newCat}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSyncBookkeeping(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		if _, err := repo.SaveTransaction(ctx, sample(id, "alice", "Food", "-10", core.NewDate(2024, 2, 1))); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}

	if err := repo.MarkSynced(ctx, "tx-1"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, "tx-2"); err != nil {
		t.Fatalf("mark error: %v", err)
	}

	pending, err = repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "tx-3" {
		t.Fatalf("pending = %+v, want tx-3 only", pending)
	}

	// An update re-queues the row for sync.
	cat := "Dining"
	if _, err := repo.UpdateByID(ctx, "tx-1", Patch{Category: &cat}); err != nil {
		t.Fatalf("update: %v", err)
	}
	pending, err = repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %+v, update should re-queue", pending)
	}
}
