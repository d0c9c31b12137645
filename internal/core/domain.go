package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
	// Biweekly means twice a month, not every other week.
	Biweekly Frequency = "biweekly"
	Yearly   Frequency = "yearly"
)

const (
	FixedAmount    AmountKind = "fixed"
	VariableAmount AmountKind = "variable"
)

const (
	PayerA Payer = "A"
	PayerB Payer = "B"
)

type (
	Frequency  string
	AmountKind string
	Payer      string

	// Period identifies a calendar month.
	Period struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}

	RecurringExpense struct {
		ID           int64
		Label        string
		BaseAmount   decimal.Decimal
		Frequency    Frequency
		AmountKind   AmountKind
		Distribution Distribution
		Active       bool
		CreatedAt    time.Time
	}

	// MonthlyAmountOverride replaces the base amount of a variable expense
	// for a single period.
	MonthlyAmountOverride struct {
		ExpenseID int64
		Period    Period
		Amount    decimal.Decimal
	}

	Payment struct {
		ID        int64
		ExpenseID int64
		Period    Period
		Payer     Payer
		Amount    decimal.Decimal
		PaidOn    time.Time
		// Week is set only for weekly expenses (1-based).
		Week *int
		// ExpenseLabel is filled by listings that join the expense.
		ExpenseLabel string
	}

	ExpenseGroup struct {
		ID          int64
		Name        string
		Description string
		FixedPayer  Payer
		FixedAmount decimal.Decimal
		Active      bool
		MemberIDs   []int64
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrInvalidArgument)
	ErrInvalidPeriod    = fmt.Errorf("%w: invalid period", ErrInvalidArgument)
	ErrInvalidPayer     = fmt.Errorf("%w: payer must be A or B", ErrInvalidArgument)
	ErrInvalidFrequency = fmt.Errorf("%w: unknown frequency", ErrInvalidArgument)
	ErrInvalidWeek      = fmt.Errorf("%w: week out of range", ErrInvalidArgument)
	ErrEmptyLabel       = fmt.Errorf("%w: empty label", ErrInvalidArgument)
)

// NewPeriod returns the period containing t.
func NewPeriod(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// FirstDay returns midnight UTC of the first day of the month.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns midnight UTC of the last day of the month.
func (p Period) LastDay() time.Time {
	return p.FirstDay().AddDate(0, 1, -1)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func (p Payer) Validate() error {
	switch p {
	case PayerA, PayerB:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidPayer, string(p))
}

// Other returns the counterpart payer.
func (p Payer) Other() Payer {
	if p == PayerA {
		return PayerB
	}
	return PayerA
}

func (f Frequency) Validate() error {
	switch f {
	case Monthly, Weekly, Biweekly, Yearly:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidFrequency, string(f))
}

func (k AmountKind) Validate() error {
	switch k {
	case FixedAmount, VariableAmount:
		return nil
	}
	return fmt.Errorf("%w: unknown amount kind %q", ErrInvalidArgument, string(k))
}

func (e RecurringExpense) Validate() error {
	label := strings.TrimSpace(e.Label)
	if label == "" {
		return ErrEmptyLabel
	}
	if len(label) > 200 {
		return fmt.Errorf("%w: label too long (max 200 characters)", ErrInvalidArgument)
	}
	if e.BaseAmount.IsNegative() {
		return fmt.Errorf("%w: base amount %s", ErrInvalidAmount, e.BaseAmount)
	}
	if err := e.Frequency.Validate(); err != nil {
		return err
	}
	if err := e.AmountKind.Validate(); err != nil {
		return err
	}
	if e.Distribution == nil {
		return fmt.Errorf("%w: missing distribution", ErrInvalidArgument)
	}
	return e.Distribution.Validate()
}

// IsGrouped reports whether an expense group owns the split.
func (e RecurringExpense) IsGrouped() bool {
	_, ok := e.Distribution.(GroupedSplit)
	return ok
}

func (p Payment) Validate() error {
	if p.ExpenseID <= 0 {
		return fmt.Errorf("%w: expense id %d", ErrInvalidArgument, p.ExpenseID)
	}
	if err := p.Period.Validate(); err != nil {
		return err
	}
	if err := p.Payer.Validate(); err != nil {
		return err
	}
	if p.Amount.IsNegative() {
		return fmt.Errorf("%w: payment amount %s", ErrInvalidAmount, p.Amount)
	}
	if p.Week != nil && *p.Week < 1 {
		return fmt.Errorf("%w: week %d", ErrInvalidWeek, *p.Week)
	}
	return nil
}

func (g ExpenseGroup) Validate() error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return fmt.Errorf("%w: empty group name", ErrInvalidArgument)
	}
	if err := g.FixedPayer.Validate(); err != nil {
		return err
	}
	if g.FixedAmount.IsNegative() {
		return fmt.Errorf("%w: group fixed amount %s", ErrInvalidAmount, g.FixedAmount)
	}
	return nil
}

// Split returns the distribution rule the group applies to its total.
func (g ExpenseGroup) Split() FixedSplit {
	return FixedSplit{Payer: g.FixedPayer, Amount: g.FixedAmount}
}

// Person is one of the two people sharing the household.
type Person struct {
	Name  string
	Email string
}

// Household names the people behind PayerA and PayerB.
type Household struct {
	A Person
	B Person
}

func (h Household) Person(p Payer) Person {
	if p == PayerB {
		return h.B
	}
	return h.A
}
