package core

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Shares is what each person owes for a total. A + B always equals the total.
type Shares struct {
	A decimal.Decimal `json:"a"`
	B decimal.Decimal `json:"b"`
}

func (s Shares) Total() decimal.Decimal { return s.A.Add(s.B) }

// Of returns the share of p.
func (s Shares) Of(p Payer) decimal.Decimal {
	if p == PayerB {
		return s.B
	}
	return s.A
}

// PaidStatus tells whether each person settled a statement row.
type PaidStatus struct {
	A bool `json:"a"`
	B bool `json:"b"`
}

// StatementRow is either an IndividualRow or a GroupRow.
type StatementRow interface {
	RowLabel() string
	RowTotal() decimal.Decimal
	RowShares() Shares
	RowPaid() PaidStatus
	isStatementRow()
}

// WeekProgress tracks a weekly expense within a month.
type WeekProgress struct {
	Weeks int   `json:"weeks"`
	PaidA []int `json:"paid_a"`
	PaidB []int `json:"paid_b"`
}

type IndividualRow struct {
	ExpenseID    int64
	Label        string
	Frequency    Frequency
	AmountKind   AmountKind
	Distribution Distribution
	// Edited is true for variable expenses with an override this month.
	Edited bool
	Total  decimal.Decimal
	Shares Shares
	Paid   PaidStatus
	// Weeks is set for weekly expenses only.
	Weeks *WeekProgress
}

type GroupRow struct {
	GroupID      int64
	Name         string
	Label        string
	MemberIDs    []int64
	MemberLabels []string
	FixedPayer   Payer
	FixedAmount  decimal.Decimal
	Total        decimal.Decimal
	Shares       Shares
	Paid         PaidStatus
}

func (r IndividualRow) RowLabel() string          { return r.Label }
func (r IndividualRow) RowTotal() decimal.Decimal { return r.Total }
func (r IndividualRow) RowShares() Shares         { return r.Shares }
func (r IndividualRow) RowPaid() PaidStatus       { return r.Paid }
func (IndividualRow) isStatementRow()             {}

func (r GroupRow) RowLabel() string          { return r.Label }
func (r GroupRow) RowTotal() decimal.Decimal { return r.Total }
func (r GroupRow) RowShares() Shares         { return r.Shares }
func (r GroupRow) RowPaid() PaidStatus       { return r.Paid }
func (GroupRow) isStatementRow()             {}

func (r IndividualRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string          `json:"type"`
		ExpenseID    int64           `json:"expense_id"`
		Label        string          `json:"label"`
		Frequency    Frequency       `json:"frequency"`
		AmountKind   AmountKind      `json:"amount_kind"`
		Distribution string          `json:"distribution"`
		Edited       bool            `json:"edited"`
		Total        decimal.Decimal `json:"total"`
		Shares       Shares          `json:"shares"`
		Paid         PaidStatus      `json:"paid"`
		Weeks        *WeekProgress   `json:"weeks,omitempty"`
	}{"individual", r.ExpenseID, r.Label, r.Frequency, r.AmountKind, Tag(r.Distribution), r.Edited, r.Total, r.Shares, r.Paid, r.Weeks})
}

func (r GroupRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type        string          `json:"type"`
		GroupID     int64           `json:"group_id"`
		Name        string          `json:"name"`
		Label       string          `json:"label"`
		MemberIDs   []int64         `json:"member_ids"`
		FixedPayer  Payer           `json:"fixed_payer"`
		FixedAmount decimal.Decimal `json:"fixed_amount"`
		Total       decimal.Decimal `json:"total"`
		Shares      Shares          `json:"shares"`
		Paid        PaidStatus      `json:"paid"`
	}{"group", r.GroupID, r.Name, r.Label, r.MemberIDs, r.FixedPayer, r.FixedAmount, r.Total, r.Shares, r.Paid})
}

// Balance summarises a month for both people. Pending may be negative when
// someone paid more than owed.
type Balance struct {
	Owed    Shares `json:"owed"`
	Paid    Shares `json:"paid"`
	Pending Shares `json:"pending"`
}

// settleTolerance ignores sub-cent leftovers when deciding who still owes.
var settleTolerance = decimal.RequireFromString("0.01")

// Debtor returns the person with the largest outstanding amount above one
// cent, or false when the month is settled.
func (b Balance) Debtor() (Payer, decimal.Decimal, bool) {
	a, bb := b.Pending.A, b.Pending.B
	switch {
	case a.GreaterThan(settleTolerance) && a.GreaterThanOrEqual(bb):
		return PayerA, a, true
	case bb.GreaterThan(settleTolerance):
		return PayerB, bb, true
	}
	return "", decimal.Zero, false
}

type Statement struct {
	Period  Period         `json:"period"`
	Rows    []StatementRow `json:"rows"`
	Balance Balance        `json:"balance"`
}

// MonthlyTotal is one point of the payment history.
type MonthlyTotal struct {
	Period Period `json:"period"`
	Paid   Shares `json:"paid"`
}

// Settlement describes who still owes what, in words.
func (b Balance) Settlement(h Household) string {
	payer, amount, ok := b.Debtor()
	if !ok {
		return "Settled"
	}
	return fmt.Sprintf("%s owes %s", h.Person(payer).Name, FormatAmount(amount))
}
