// Package core provides money parsing and handling utilities.
//
// Amounts are decimal.Decimal values; rounding to cents happens only when
// formatting for display.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied amount to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is
// allowed; negative values, signs and thousands separators are not.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,345") -> 12.345, nil
//	ParseAmount("-1") -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders d rounded to cents with a dot separator.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Percent returns amount * pct / 100 without intermediate rounding.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100))
}
