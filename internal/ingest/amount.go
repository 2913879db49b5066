package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// amountJunk matches everything that is not a digit, a decimal point or a
// minus sign: currency symbols, thousands separators, surrounding prose.
var amountJunk = regexp.MustCompile(`[^0-9.\-]+`)

// CleanAmount strips currency symbols and thousands separators from a raw
// amount field and parses the remainder as a decimal. "₹1,500.50" and
// "$ -42.00" are fine; anything with no usable digits is ErrInvalidAmount.
func CleanAmount(raw string) (decimal.Decimal, error) {
	cleaned := amountJunk.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" || cleaned == "-" || cleaned == "." || cleaned == "-." {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, raw)
	}
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, raw)
	}
	return v, nil
}

// Normalize converts a value into the canonical signed amount.
//
// Rule table:
//   - declared Income:  result is +abs(v)
//   - declared Expense: result is -abs(v)
//   - no declared type: the sign of v is the truth and passes through
//     unchanged; non-negative means income, negative means expense.
//
// Zero is never a valid transaction amount, whatever the declared type.
func Normalize(declared core.TransactionType, v decimal.Decimal) (decimal.Decimal, error) {
	if v.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("%w: amount is zero", core.ErrInvalidAmount)
	}
	switch declared {
	case core.TypeIncome:
		return v.Abs(), nil
	case core.TypeExpense:
		return v.Abs().Neg(), nil
	default:
		return v, nil
	}
}
