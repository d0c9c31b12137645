package services

import (
	"fmt"

	"casaconti/internal/core"

	"github.com/shopspring/decimal"
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}

// Split divides total between A and B according to d. The second share is
// always derived as total minus the first, so A + B == total exactly and
// neither share is negative.
func Split(d core.Distribution, total decimal.Decimal) (core.Shares, error) {
	if total.IsNegative() {
		return core.Shares{}, fmt.Errorf("%w: total %s", core.ErrInvalidAmount, total)
	}

	switch s := d.(type) {
	case core.EqualSplit:
		a := total.Div(two)
		return core.Shares{A: a, B: total.Sub(a)}, nil

	case core.FixedSplit:
		// A fixed contribution larger than the total covers the whole total.
		fixed := clamp(s.Amount, decimal.Zero, total)
		rest := total.Sub(fixed)
		if s.Payer == core.PayerB {
			return core.Shares{A: rest, B: fixed}, nil
		}
		return core.Shares{A: fixed, B: rest}, nil

	case core.PercentageSplit:
		a := core.Percent(total, clamp(s.PercentA, decimal.Zero, hundred))
		return core.Shares{A: a, B: total.Sub(a)}, nil

	case core.GroupedSplit:
		return core.Shares{}, fmt.Errorf("%w: expense is split by group %d", core.ErrInvalidArgument, s.GroupID)

	default:
		return core.Shares{}, fmt.Errorf("%w: missing distribution", core.ErrInvalidArgument)
	}
}
