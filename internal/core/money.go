// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents; decimal text is converted through
// shopspring/decimal so that rounding is exact.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// MaxCents bounds any single amount or balance (ten trillion units), far
// enough below the int64 range that sums of many amounts stay exact.
const MaxCents int64 = 1e15

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(MaxCents)
)

// ParseDecimalToCents converts a positive decimal string to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero, negative and non-numeric
// values are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	cents, err := parseSignedCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseBalance parses a balance, which unlike a movement amount may be
// zero or negative.
func ParseBalance(s string) (Money, error) {
	cents, err := parseSignedCents(strings.TrimSpace(s))
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

func parseSignedCents(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	// decimal accepts exponents; amounts typed by people never carry one.
	if strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Mul(hundred).Round(0)
	if d.Abs().GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return d.IntPart(), nil
}

// MoneyFromDecimal rounds d to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Fixed formats the amount with exactly two decimals, e.g. "-12.50".
func (m Money) Fixed() string {
	return m.Decimal().StringFixed(2)
}

// Format renders the amount the way the views show it: sign, two
// decimals, then the currency symbol ("-12.50 €").
func (m Money) Format(symbol string) string {
	if symbol == "" {
		symbol = DefaultCurrency
	}
	return m.Fixed() + " " + symbol
}

// Add returns m+o. The sum saturates at the int64 bounds rather than
// wrapping, so its sign is always right.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

func (m Money) IsNegative() bool { return m.Cents < 0 }

// MarshalJSON writes the amount as a plain JSON number with no trailing
// zeros (150, 12.5).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. Anything else,
// zero and negative amounts included, is ErrInvalidAmount.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}
