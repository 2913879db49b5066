package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"fintrack/internal/core"
)

// ocrAmountPattern finds the first monetary-looking token in free text:
// an integer with an optional fraction of up to two digits.
var ocrAmountPattern = regexp.MustCompile(`\d+(\.\d{1,2})?`)

// Parse converts one raw input into a Draft. A nil draft with a nil error
// means the row carried nothing to ingest (blank-amount CSV rows) and should
// be skipped, not rejected. today supplies the ingestion date for OCR inputs
// without one.
func Parse(in RawInput, today core.Date) (*Draft, error) {
	switch v := in.(type) {
	case ManualEntry:
		return parseManual(v)
	case CsvRow:
		return parseCsvRow(v)
	case OcrExtract:
		return parseOcr(v, today)
	default:
		return nil, fmt.Errorf("unsupported input %T", in)
	}
}

func parseManual(e ManualEntry) (*Draft, error) {
	declared, err := core.ParseTransactionType(e.Type)
	if err != nil {
		return nil, err
	}
	if declared == "" {
		return nil, fmt.Errorf("missing transaction type")
	}
	if strings.TrimSpace(e.Category) == "" {
		return nil, core.ErrEmptyCategory
	}
	magnitude, err := CleanAmount(e.Amount)
	if err != nil {
		return nil, err
	}
	// The declared type alone decides the sign; a stray minus in the form
	// field must not flip an Income into an Expense.
	amount, err := Normalize(declared, magnitude)
	if err != nil {
		return nil, err
	}
	date, err := core.ParseDate(e.Date)
	if err != nil {
		return nil, err
	}
	return &Draft{Category: strings.TrimSpace(e.Category), Amount: amount, OccurredOn: date}, nil
}

func parseCsvRow(r CsvRow) (*Draft, error) {
	// Blank amount means "nothing here", not "bad row". Trailing filler rows
	// are normal in exported CSVs.
	if strings.TrimSpace(r.Amount) == "" {
		return nil, nil
	}
	value, err := CleanAmount(r.Amount)
	if err != nil {
		return nil, err
	}
	// No type column: the sign of the amount is the source of truth.
	amount, err := Normalize("", value)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(r.Category)
	if category == "" {
		category = DefaultCategory
	}
	// A date-less transaction is not auditable; reject rather than default.
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	return &Draft{Category: category, Amount: amount, OccurredOn: date}, nil
}

func parseOcr(o OcrExtract, today core.Date) (*Draft, error) {
	token := ocrAmountPattern.FindString(o.Text)
	if token == "" {
		return nil, fmt.Errorf("%w in receipt text", core.ErrNoAmountFound)
	}
	magnitude, err := CleanAmount(token)
	if err != nil {
		return nil, err
	}
	declared := core.TypeExpense
	if strings.Contains(strings.ToLower(o.Text), "income") {
		declared = core.TypeIncome
	}
	amount, err := Normalize(declared, magnitude)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(o.DefaultCategory)
	if category == "" {
		category = DefaultCategory
	}
	// Receipts rarely carry a parseable transaction date; using the
	// ingestion date is a documented precision loss, not an accident.
	date := o.DefaultDate
	if date.IsZero() {
		date = today
	}
	return &Draft{Category: category, Amount: amount, OccurredOn: date}, nil
}
