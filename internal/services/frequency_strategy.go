// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for converting a recurring
// expense's base amount into the total owed for one calendar month. Each
// frequency has its own strategy.
package services

import (
	"fmt"

	"casaconti/internal/core"

	"github.com/shopspring/decimal"
)

// FrequencyStrategy converts a base amount into a monthly total.
type FrequencyStrategy interface {
	MonthlyTotal(base decimal.Decimal, p core.Period) decimal.Decimal
}

// MonthlyStrategy charges the base amount once.
type MonthlyStrategy struct{}

func (MonthlyStrategy) MonthlyTotal(base decimal.Decimal, _ core.Period) decimal.Decimal {
	return base
}

// WeeklyStrategy charges the base amount for every week starting in the month.
type WeeklyStrategy struct{}

func (WeeklyStrategy) MonthlyTotal(base decimal.Decimal, p core.Period) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(int64(core.CountWeeksStartingInMonth(p))))
}

// BiweeklyStrategy charges the base amount twice.
type BiweeklyStrategy struct{}

func (BiweeklyStrategy) MonthlyTotal(base decimal.Decimal, _ core.Period) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(2))
}

// YearlyStrategy spreads the base amount over twelve months.
type YearlyStrategy struct{}

func (YearlyStrategy) MonthlyTotal(base decimal.Decimal, _ core.Period) decimal.Decimal {
	return base.Div(decimal.NewFromInt(12))
}

var frequencyStrategies = map[core.Frequency]FrequencyStrategy{
	core.Monthly:  MonthlyStrategy{},
	core.Weekly:   WeeklyStrategy{},
	core.Biweekly: BiweeklyStrategy{},
	core.Yearly:   YearlyStrategy{},
}

// GetFrequencyStrategy returns the strategy for a frequency.
func GetFrequencyStrategy(f core.Frequency) (FrequencyStrategy, error) {
	s, ok := frequencyStrategies[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFrequency, string(f))
	}
	return s, nil
}

// MonthlyTotal resolves base for period p. No rounding is applied.
func MonthlyTotal(base decimal.Decimal, f core.Frequency, p core.Period) (decimal.Decimal, error) {
	if base.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: base amount %s", core.ErrInvalidAmount, base)
	}
	s, err := GetFrequencyStrategy(f)
	if err != nil {
		return decimal.Zero, err
	}
	return s.MonthlyTotal(base, p), nil
}
