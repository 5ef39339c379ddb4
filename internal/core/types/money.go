// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Rate is a percentage (e.g. 12 means 12%).
type Rate = decimal.Decimal

// MoneyScale is the number of decimal places shown to users.
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round2 rounds half away from zero to two decimal places.
func Round2(m Money) Money {
	return m.Round(MoneyScale)
}

// Format renders m with exactly two decimals ("851.49").
func Format(m Money) string {
	return m.StringFixed(MoneyScale)
}

// PercentOf returns base × rate / 100 without rounding.
func PercentOf(base Money, rate Rate) Money {
	return base.Mul(rate).Div(hundred)
}

// ValidPercent reports whether r lies in [0, 100].
func ValidPercent(r Rate) bool {
	return !r.IsNegative() && r.LessThanOrEqual(hundred)
}
