package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type DistributionKind string

const (
	KindEqual      DistributionKind = "equal"
	KindFixedA     DistributionKind = "fixed_a"
	KindFixedB     DistributionKind = "fixed_b"
	KindPercentage DistributionKind = "percentage"
	KindGrouped    DistributionKind = "grouped"
)

// DefaultPercentA is the share of person A when a percentage split was
// stored without its percentage.
var DefaultPercentA = decimal.NewFromInt(50)

var ErrMissingSplitParameter = fmt.Errorf("%w: missing split parameter", ErrInvalidArgument)

// Distribution is the closed set of split rules an expense can carry:
// EqualSplit, FixedSplit, PercentageSplit or GroupedSplit.
type Distribution interface {
	Kind() DistributionKind
	Validate() error
	isDistribution()
}

type EqualSplit struct{}

// FixedSplit makes Payer contribute Amount; the other person covers the rest.
type FixedSplit struct {
	Payer  Payer
	Amount decimal.Decimal
}

// PercentageSplit assigns PercentA percent of the total to person A.
type PercentageSplit struct {
	PercentA decimal.Decimal
}

// GroupedSplit hands the split over to an expense group.
type GroupedSplit struct {
	GroupID int64
}

func (EqualSplit) Kind() DistributionKind      { return KindEqual }
func (PercentageSplit) Kind() DistributionKind { return KindPercentage }
func (GroupedSplit) Kind() DistributionKind    { return KindGrouped }

func (s FixedSplit) Kind() DistributionKind {
	if s.Payer == PayerB {
		return KindFixedB
	}
	return KindFixedA
}

func (EqualSplit) Validate() error { return nil }

func (s FixedSplit) Validate() error {
	if err := s.Payer.Validate(); err != nil {
		return err
	}
	if s.Amount.IsNegative() {
		return fmt.Errorf("%w: fixed contribution %s", ErrInvalidAmount, s.Amount)
	}
	return nil
}

func (s PercentageSplit) Validate() error {
	if s.PercentA.IsNegative() || s.PercentA.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: percentage %s outside 0..100", ErrInvalidArgument, s.PercentA)
	}
	return nil
}

func (s GroupedSplit) Validate() error {
	if s.GroupID <= 0 {
		return fmt.Errorf("%w: group id %d", ErrInvalidArgument, s.GroupID)
	}
	return nil
}

func (EqualSplit) isDistribution()      {}
func (FixedSplit) isDistribution()      {}
func (PercentageSplit) isDistribution() {}
func (GroupedSplit) isDistribution()    {}

// DistributionFields is the flat form of a Distribution used at the storage
// and transport boundaries.
type DistributionFields struct {
	Kind     DistributionKind `json:"kind"`
	FixedA   *decimal.Decimal `json:"fixed_a,omitempty"`
	FixedB   *decimal.Decimal `json:"fixed_b,omitempty"`
	PercentA *decimal.Decimal `json:"percent_a,omitempty"`
	GroupID  int64            `json:"group_id,omitempty"`
}

// FieldsOf flattens d. Only the parameter matching the kind is set.
func FieldsOf(d Distribution) DistributionFields {
	switch s := d.(type) {
	case FixedSplit:
		amount := s.Amount
		if s.Payer == PayerB {
			return DistributionFields{Kind: KindFixedB, FixedB: &amount}
		}
		return DistributionFields{Kind: KindFixedA, FixedA: &amount}
	case PercentageSplit:
		pct := s.PercentA
		return DistributionFields{Kind: KindPercentage, PercentA: &pct}
	case GroupedSplit:
		return DistributionFields{Kind: KindGrouped, GroupID: s.GroupID}
	default:
		return DistributionFields{Kind: KindEqual}
	}
}

// Distribution builds the rule, failing with ErrMissingSplitParameter when
// the parameter required by the kind is absent.
func (f DistributionFields) Distribution() (Distribution, error) {
	var d Distribution
	switch f.Kind {
	case KindEqual, "":
		d = EqualSplit{}
	case KindFixedA:
		if f.FixedA == nil {
			return nil, fmt.Errorf("%w: fixed_a", ErrMissingSplitParameter)
		}
		d = FixedSplit{Payer: PayerA, Amount: *f.FixedA}
	case KindFixedB:
		if f.FixedB == nil {
			return nil, fmt.Errorf("%w: fixed_b", ErrMissingSplitParameter)
		}
		d = FixedSplit{Payer: PayerB, Amount: *f.FixedB}
	case KindPercentage:
		if f.PercentA == nil {
			return nil, fmt.Errorf("%w: percent_a", ErrMissingSplitParameter)
		}
		d = PercentageSplit{PercentA: *f.PercentA}
	case KindGrouped:
		d = GroupedSplit{GroupID: f.GroupID}
	default:
		return nil, fmt.Errorf("%w: unknown distribution kind %q", ErrInvalidArgument, string(f.Kind))
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// DistributionOrDefault is the lenient variant for stored rows: a missing
// fixed contribution becomes 0 and a missing percentage becomes
// DefaultPercentA. defaulted reports whether a fallback was applied.
func (f DistributionFields) DistributionOrDefault() (d Distribution, defaulted bool, err error) {
	switch f.Kind {
	case KindFixedA:
		if f.FixedA == nil {
			return FixedSplit{Payer: PayerA, Amount: decimal.Zero}, true, nil
		}
	case KindFixedB:
		if f.FixedB == nil {
			return FixedSplit{Payer: PayerB, Amount: decimal.Zero}, true, nil
		}
	case KindPercentage:
		if f.PercentA == nil {
			return PercentageSplit{PercentA: DefaultPercentA}, true, nil
		}
	}
	d, err = f.Distribution()
	return d, false, err
}

// Tag is a short human label for the rule, used in statements.
func Tag(d Distribution) string {
	switch s := d.(type) {
	case FixedSplit:
		return fmt.Sprintf("fixed %s %s", s.Payer, s.Amount.StringFixed(2))
	case PercentageSplit:
		return fmt.Sprintf("%s%%/%s%%", s.PercentA.String(), decimal.NewFromInt(100).Sub(s.PercentA).String())
	case GroupedSplit:
		return "grouped"
	default:
		return "50/50"
	}
}
