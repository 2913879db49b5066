package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome  TransactionType = "Income"
	TypeExpense TransactionType = "Expense"
)

type (
	// TransactionType is the declared direction of a transaction. The zero
	// value means "not declared": the sign of the amount is the truth.
	TransactionType string

	// Date is a calendar date; the time-of-day portion is always midnight UTC.
	Date struct {
		time.Time
	}

	// Transaction is the canonical persisted record. The sign of Amount alone
	// encodes direction: positive is income, negative is expense. No separate
	// type column exists downstream.
	Transaction struct {
		ID         string
		OwnerID    string
		Category   string
		Amount     decimal.Decimal
		OccurredOn Date
		CreatedAt  time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrNoAmountFound = errors.New("no amount found")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyOwner    = errors.New("empty owner")
)

// ParseTransactionType accepts "Income"/"Expense" in any casing. An empty
// string maps to the undeclared zero value.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return TypeIncome, nil
	case "expense":
		return TypeExpense, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// dateLayouts are tried in order when parsing free-form date fields.
// time.Parse rejects impossible calendar dates (month 13, day 32, Feb 30),
// which is the strictness we want: no silent clamping.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date string against the supported layouts. Components
// that would roll over (2024-13-01, 2024-01-32) are rejected, not normalized.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty date", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is zero", ErrInvalidDate)
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month, 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// Type derives the direction from the amount sign.
func (t Transaction) Type() TransactionType {
	if t.Amount.IsNegative() {
		return TypeExpense
	}
	return TypeIncome
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// Magnitude returns the absolute transacted value.
func (t Transaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("%w: amount is zero", ErrInvalidAmount)
	}
	return t.OccurredOn.Validate()
}
