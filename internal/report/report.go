// Package report derives chart-ready aggregates from canonical transactions.
// Aggregation is pure and recomputed on every query: volumes are small and a
// cached report going stale after an edit would be a correctness bug.
package report

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
	All   Granularity = "all"

	IncomeOnly  TypeFilter = "income"
	ExpenseOnly TypeFilter = "expense"
	Both        TypeFilter = "both"

	// AllTimeKey is the single bucket key used by the All granularity.
	AllTimeKey = "All Time"

	// OtherCategory receives the folded long-tail slices.
	OtherCategory = "Other"
)

// foldShare is the long-tail threshold: categories holding strictly less
// than this share of total expenses are folded into OtherCategory. The 3%
// figure is inherited charting policy, not a domain requirement.
var foldShare = decimal.NewFromFloat(0.03)

type (
	Granularity string
	TypeFilter  string

	// Query selects the reporting view.
	Query struct {
		Granularity Granularity
		Filter      TypeFilter
	}

	// PeriodBucket holds sign-correct totals for one period. Expense is an
	// absolute value, ready for charting without further flips.
	PeriodBucket struct {
		Period  string
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// CategoryAmount is one slice of the expense distribution.
	CategoryAmount struct {
		Category string
		Amount   decimal.Decimal
	}

	// TrendPoint maps categories to absolute expense totals within one
	// period. Categories with no spend in the period are omitted.
	TrendPoint struct {
		Period     string
		ByCategory map[string]decimal.Decimal
	}

	Report struct {
		PeriodSeries         []PeriodBucket
		CategoryDistribution []CategoryAmount
		CategoryTrend        []TrendPoint
	}
)

// ParseGranularity maps a user-supplied string to a Granularity. Empty
// input selects the Month default.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Week, Month, Year, All:
		return Granularity(s), nil
	case "":
		return Month, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (want week, month, year or all)", s)
	}
}

// ParseTypeFilter maps a user-supplied string to a TypeFilter. Empty input
// selects Both.
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch TypeFilter(s) {
	case IncomeOnly, ExpenseOnly, Both:
		return TypeFilter(s), nil
	case "":
		return Both, nil
	default:
		return "", fmt.Errorf("unknown type filter %q (want income, expense or both)", s)
	}
}

// PeriodKey derives the deterministic bucket key for a date. Week is a
// week-of-month (ceil(day/7), 1-indexed), deliberately not an ISO week.
func PeriodKey(d core.Date, g Granularity) string {
	switch g {
	case Week:
		return fmt.Sprintf("%d-%d-W%d", d.Year(), d.Month(), (d.Day()+6)/7)
	case Month:
		return fmt.Sprintf("%d-%d", d.Year(), d.Month())
	case Year:
		return strconv.Itoa(d.Year())
	default:
		return AllTimeKey
	}
}

// Aggregate computes all three report views over the given transactions.
// Buckets are emitted in first-seen order of their key; callers wanting
// chronological output must supply pre-sorted input.
func Aggregate(txs []core.Transaction, q Query) Report {
	if q.Granularity == "" {
		q.Granularity = Month
	}
	if q.Filter == "" {
		q.Filter = Both
	}
	return Report{
		PeriodSeries:         periodSeries(txs, q),
		CategoryDistribution: categoryDistribution(txs),
		CategoryTrend:        categoryTrend(txs, q.Granularity),
	}
}

func (f TypeFilter) matches(tx core.Transaction) bool {
	switch f {
	case IncomeOnly:
		return !tx.IsExpense()
	case ExpenseOnly:
		return tx.IsExpense()
	default:
		return true
	}
}

func periodSeries(txs []core.Transaction, q Query) []PeriodBucket {
	var (
		order   []string
		buckets = map[string]*PeriodBucket{}
	)
	for _, tx := range txs {
		if !q.Filter.matches(tx) {
			continue
		}
		key := PeriodKey(tx.OccurredOn, q.Granularity)
		b, ok := buckets[key]
		if !ok {
			b = &PeriodBucket{Period: key}
			buckets[key] = b
			order = append(order, key)
		}
		if tx.IsExpense() {
			b.Expense = b.Expense.Add(tx.Magnitude())
		} else {
			b.Income = b.Income.Add(tx.Amount)
		}
	}
	out := make([]PeriodBucket, 0, len(order))
	for _, key := range order {
		out = append(out, *buckets[key])
	}
	return out
}

// categoryDistribution sums absolute expense amounts per category and folds
// the long tail: any category below foldShare of the total moves into a
// single "Other" slice appended at the end. The type filter is deliberately
// ignored here; the distribution is an expenses-only view.
func categoryDistribution(txs []core.Transaction) []CategoryAmount {
	var (
		order []string
		sums  = map[string]decimal.Decimal{}
		total decimal.Decimal
	)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		m := tx.Magnitude()
		if _, ok := sums[tx.Category]; !ok {
			order = append(order, tx.Category)
		}
		sums[tx.Category] = sums[tx.Category].Add(m)
		total = total.Add(m)
	}
	if total.IsZero() {
		// No expenses: empty distribution, and no division below.
		return nil
	}

	var (
		out   []CategoryAmount
		other decimal.Decimal
	)
	for _, cat := range order {
		amount := sums[cat]
		if amount.Div(total).LessThan(foldShare) {
			other = other.Add(amount)
			continue
		}
		out = append(out, CategoryAmount{Category: cat, Amount: amount})
	}
	if other.IsPositive() {
		out = append(out, CategoryAmount{Category: OtherCategory, Amount: other})
	}
	return out
}

func categoryTrend(txs []core.Transaction, g Granularity) []TrendPoint {
	// The trend view only supports month/year/all buckets; weekly stacks are
	// too noisy to chart, so Week collapses to the single all-time bucket.
	if g != Month && g != Year {
		g = All
	}
	var (
		order   []string
		periods = map[string]map[string]decimal.Decimal{}
	)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		key := PeriodKey(tx.OccurredOn, g)
		byCat, ok := periods[key]
		if !ok {
			byCat = map[string]decimal.Decimal{}
			periods[key] = byCat
			order = append(order, key)
		}
		byCat[tx.Category] = byCat[tx.Category].Add(tx.Magnitude())
	}
	out := make([]TrendPoint, 0, len(order))
	for _, key := range order {
		out = append(out, TrendPoint{Period: key, ByCategory: periods[key]})
	}
	return out
}
