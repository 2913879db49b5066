package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

func testRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seed(t *testing.T, repo *storage.SQLiteRepository, id string) {
	t.Helper()
	_, err := repo.SaveTransaction(context.Background(), core.Transaction{
		ID:         id,
		OwnerID:    "alice",
		Category:   "Food",
		Amount:     decimal.NewFromInt(-10),
		OccurredOn: core.NewDate(2024, 3, 5),
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestHandleSyncMessage(t *testing.T) {
	repo := testRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 10)
	ctx := context.Background()

	seed(t, repo, "tx-1")

	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage("tx-1")); err != nil {
		t.Fatalf("handle sync: %v", err)
	}
	items := mirror.Items()
	if len(items) != 1 || items[0].ID != "tx-1" {
		t.Fatalf("mirrored = %+v", items)
	}

	pending, err := repo.GetPendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("row should be marked synced, pending = %+v", pending)
	}
}

func TestHandleSyncMessageGoneRow(t *testing.T) {
	repo := testRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 10)

	// A row deleted before delivery must not requeue forever.
	if err := w.HandleSyncMessage(context.Background(), amqp.NewSyncMessage("ghost")); err != nil {
		t.Fatalf("gone row should be skipped, got %v", err)
	}
	if len(mirror.Items()) != 0 {
		t.Fatalf("nothing should be mirrored")
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	repo := testRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 10)
	ctx := context.Background()

	seed(t, repo, "tx-1")
	if err := w.HandleSyncMessage(ctx, amqp.NewSyncMessage("tx-1")); err != nil {
		t.Fatalf("handle sync: %v", err)
	}
	if err := w.HandleDeleteMessage(ctx, amqp.NewDeleteMessage("tx-1")); err != nil {
		t.Fatalf("handle delete: %v", err)
	}
	if len(mirror.Items()) != 0 {
		t.Fatalf("row should be gone from the mirror")
	}
}

func TestProcessPending(t *testing.T) {
	repo := testRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 10)
	ctx := context.Background()

	seed(t, repo, "tx-1")
	seed(t, repo, "tx-2")

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(mirror.Items()) != 2 {
		t.Fatalf("mirrored = %+v", mirror.Items())
	}

	// Second sweep finds nothing left to do.
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(mirror.Items()) != 2 {
		t.Fatalf("sweep must not duplicate rows: %+v", mirror.Items())
	}
}

func TestStartupSyncCheck(t *testing.T) {
	repo := testRepo(t)
	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, mirror, 1)
	ctx := context.Background()

	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		seed(t, repo, id)
	}

	// Startup check uses a widened batch, so all three fit despite batchSize 1.
	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if len(mirror.Items()) != 3 {
		t.Fatalf("mirrored = %d, want 3", len(mirror.Items()))
	}
}
