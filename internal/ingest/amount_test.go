package ingest

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCleanAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1500.50", "1500.50", true},
		{"₹1,500.50", "1500.50", true},
		{"$ -42.00", "-42.00", true},
		{"1,234,567.89", "1234567.89", true},
		{"  12 ", "12", true},
		{"-0.01", "-0.01", true},
		{"", "", false},
		{"EUR", "", false},
		{"-", "", false},
		{".", "", false},
		{"NaN", "", false},
	}
	for _, tc := range cases {
		got, err := CleanAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("CleanAmount(%q) unexpected error: %v", tc.in, err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("CleanAmount(%q) = %s, want %s", tc.in, got, tc.want)
			}
			continue
		}
		if !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("CleanAmount(%q) error = %v, want ErrInvalidAmount", tc.in, err)
		}
	}
}

func TestNormalizeDeclaredType(t *testing.T) {
	cases := []struct {
		declared core.TransactionType
		in       string
		want     string
	}{
		{core.TypeIncome, "100", "100"},
		{core.TypeIncome, "-100", "100"}, // declared type wins over a stray sign
		{core.TypeExpense, "100", "-100"},
		{core.TypeExpense, "-100", "-100"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.declared, dec(tc.in))
		if err != nil {
			t.Fatalf("Normalize(%s, %s) unexpected error: %v", tc.declared, tc.in, err)
		}
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("Normalize(%s, %s) = %s, want %s", tc.declared, tc.in, got, tc.want)
		}
	}
}

func TestNormalizeSignIsTruth(t *testing.T) {
	for _, in := range []string{"250.75", "-250.75", "0.01", "-0.01"} {
		got, err := Normalize("", dec(in))
		if err != nil {
			t.Fatalf("Normalize(none, %s) unexpected error: %v", in, err)
		}
		if !got.Equal(dec(in)) {
			t.Fatalf("Normalize(none, %s) = %s, want value unchanged", in, got)
		}
	}
}

func TestNormalizeRejectsZero(t *testing.T) {
	for _, declared := range []core.TransactionType{core.TypeIncome, core.TypeExpense, ""} {
		if _, err := Normalize(declared, decimal.Zero); !errors.Is(err, core.ErrInvalidAmount) {
			t.Fatalf("Normalize(%q, 0) error = %v, want ErrInvalidAmount", declared, err)
		}
	}
}
