package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ingest"
	"fintrack/internal/report"
	"fintrack/internal/storage"
)

func testService() *TransactionService {
	return NewTransactionService(storage.NewMemoryStore(), nil)
}

func TestCreateManualEntry(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	tx, err := svc.Create(ctx, "alice", ingest.ManualEntry{
		Type:     "expense",
		Category: "Groceries",
		Amount:   "42.50",
		Date:     "2024-03-05",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("-42.50")) {
		t.Fatalf("amount = %s, want -42.50", tx.Amount)
	}

	stored, err := svc.Get(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Category != "Groceries" || stored.OwnerID != "alice" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "alice", ingest.ManualEntry{
		Type: "expense", Category: "", Amount: "10", Date: "2024-03-05",
	}); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("got %v, want ErrEmptyCategory", err)
	}

	if _, err := svc.Create(ctx, "", ingest.ManualEntry{
		Type: "expense", Category: "Food", Amount: "10", Date: "2024-03-05",
	}); !errors.Is(err, core.ErrEmptyOwner) {
		t.Fatalf("got %v, want ErrEmptyOwner", err)
	}
}

func TestImportCSV(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	csv := "Date,Description,Category,Amount\n" +
		"2024-03-05,salary,Salary,2500.00\n" +
		"2024-03-20,groceries,Food,-40.00\n" +
		"2024-03-21,,," + "\n" +
		"not-a-date,bad,Food,-5\n"

	res, err := svc.ImportCSV(ctx, "alice", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(res.Accepted) != 2 || len(res.Rejected) != 1 || res.Skipped != 1 {
		t.Fatalf("result = accepted %d, rejected %d, skipped %d",
			len(res.Accepted), len(res.Rejected), res.Skipped)
	}

	txs, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("stored = %d, want 2", len(txs))
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("2500")) {
		t.Fatalf("csv sign is the truth: %s", txs[0].Amount)
	}
}

func TestImportCSVUnreadable(t *testing.T) {
	svc := testService()
	if _, err := svc.ImportCSV(context.Background(), "alice", strings.NewReader("")); err == nil {
		t.Fatal("unreadable batch should fail as a whole")
	}
}

func TestScanReceipt(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	tx, err := svc.ScanReceipt(ctx, "alice", ingest.OcrExtract{
		Text:            "Total: 23.99 thank you for shopping",
		DefaultCategory: "Shopping",
		DefaultDate:     core.NewDate(2024, 3, 5),
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("-23.99")) {
		t.Fatalf("amount = %s, want -23.99", tx.Amount)
	}
	if tx.Category != "Shopping" {
		t.Fatalf("category = %q", tx.Category)
	}

	if _, err := svc.ScanReceipt(ctx, "alice", ingest.OcrExtract{
		Text: "no numbers here",
	}); !errors.Is(err, core.ErrNoAmountFound) {
		t.Fatalf("got %v, want ErrNoAmountFound", err)
	}
}

func TestReport(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	seed := []ingest.ManualEntry{
		{Type: "income", Category: "Salary", Amount: "2500", Date: "2024-03-01"},
		{Type: "expense", Category: "Rent", Amount: "900", Date: "2024-03-02"},
		{Type: "expense", Category: "Food", Amount: "100", Date: "2024-03-10"},
	}
	for _, entry := range seed {
		if _, err := svc.Create(ctx, "alice", entry); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rep, err := svc.Report(ctx, "alice", report.Query{Granularity: report.Month})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rep.PeriodSeries) != 1 || rep.PeriodSeries[0].Period != "2024-3" {
		t.Fatalf("series = %+v", rep.PeriodSeries)
	}
	if !rep.PeriodSeries[0].Income.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("income = %s", rep.PeriodSeries[0].Income)
	}
	if !rep.PeriodSeries[0].Expense.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expense = %s", rep.PeriodSeries[0].Expense)
	}

	// Reports for another owner see nothing.
	rep, err = svc.Report(ctx, "bob", report.Query{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rep.PeriodSeries) != 0 {
		t.Fatalf("bob's series = %+v", rep.PeriodSeries)
	}
}

func TestUpdateRenormalizesAmount(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	tx, err := svc.Create(ctx, "alice", ingest.ManualEntry{
		Type: "expense", Category: "Food", Amount: "10", Date: "2024-03-05",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Amount edit without a type keeps the stored direction.
	got, err := svc.Update(ctx, tx.ID, UpdateRequest{Amount: "25"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(-25)) {
		t.Fatalf("amount = %s, want -25", got.Amount)
	}

	// Flipping the type flips the sign.
	got, err = svc.Update(ctx, tx.ID, UpdateRequest{Type: "income", Amount: "25"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("amount = %s, want 25", got.Amount)
	}

	if _, err := svc.Update(ctx, tx.ID, UpdateRequest{Date: "2024-13-01"}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("got %v, want ErrInvalidDate", err)
	}
}

func TestDelete(t *testing.T) {
	svc := testService()
	ctx := context.Background()

	tx, err := svc.Create(ctx, "alice", ingest.ManualEntry{
		Type: "expense", Category: "Food", Amount: "10", Date: "2024-03-05",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, tx.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
