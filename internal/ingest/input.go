package ingest

import (
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// DefaultCategory is the one documented default: CSV and OCR inputs carry no
// reliable category signal, so blanks become this label instead of being
// rejected. Manual entries never default.
const DefaultCategory = "Uncategorized"

type (
	// RawInput is one transaction record as it arrived from a source, before
	// any normalization. It is transient: parsed into a Draft or attached to
	// a rejection, then discarded.
	RawInput interface {
		// Source names the input channel for rejection reporting.
		Source() string
	}

	// ManualEntry is a single form submission. Amount is an unsigned
	// magnitude; the declared type alone decides the sign.
	ManualEntry struct {
		Type     string
		Category string
		Amount   string
		Date     string
	}

	// CsvRow is one header-decoded row of a bulk CSV upload. Amount may be
	// signed or unsigned text; its sign classifies the row.
	CsvRow struct {
		Date        string
		Description string
		Category    string
		Amount      string
	}

	// OcrExtract is the free text an OCR collaborator produced from one
	// receipt image, plus fallbacks for the fields receipts rarely carry.
	OcrExtract struct {
		Text            string
		DefaultCategory string
		DefaultDate     core.Date
	}

	// Draft is a parsed-but-not-yet-validated transaction candidate.
	Draft struct {
		Category   string
		Amount     decimal.Decimal
		OccurredOn core.Date
	}
)

func (ManualEntry) Source() string { return "manual" }
func (CsvRow) Source() string      { return "csv" }
func (OcrExtract) Source() string  { return "ocr" }

// Validate is the gate between a draft and a canonical transaction. Parsers
// should already enforce these rules; the gate is the backstop that keeps a
// buggy parser path from leaking bad records into storage.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Category) == "" {
		return core.ErrEmptyCategory
	}
	if d.Amount.IsZero() {
		return core.ErrInvalidAmount
	}
	return d.OccurredOn.Validate()
}
