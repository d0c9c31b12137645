package http

import (
	"fmt"
	"strings"
	"time"

	"casaconti/internal/core"

	"github.com/shopspring/decimal"
)

type expenseRequest struct {
	Label        string                   `json:"label"`
	BaseAmount   decimal.Decimal          `json:"base_amount"`
	Frequency    string                   `json:"frequency"`
	AmountKind   string                   `json:"amount_kind"`
	Distribution *core.DistributionFields `json:"distribution"`
}

// expense converts the request. A missing distribution stays nil.
func (req expenseRequest) expense() (core.RecurringExpense, error) {
	e := core.RecurringExpense{
		Label:      sanitizeInput(req.Label),
		BaseAmount: req.BaseAmount,
		Frequency:  core.Frequency(strings.ToLower(strings.TrimSpace(req.Frequency))),
		AmountKind: core.AmountKind(strings.ToLower(strings.TrimSpace(req.AmountKind))),
	}
	if req.Distribution != nil {
		d, err := req.Distribution.Distribution()
		if err != nil {
			return e, err
		}
		e.Distribution = d
	}
	return e, nil
}

type expenseResponse struct {
	ID           int64                   `json:"id"`
	Label        string                  `json:"label"`
	BaseAmount   decimal.Decimal         `json:"base_amount"`
	Frequency    core.Frequency          `json:"frequency"`
	AmountKind   core.AmountKind         `json:"amount_kind"`
	Distribution core.DistributionFields `json:"distribution"`
	Split        string                  `json:"split"`
	Active       bool                    `json:"active"`
	CreatedAt    time.Time               `json:"created_at"`
}

func newExpenseResponse(e core.RecurringExpense) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		Label:        e.Label,
		BaseAmount:   e.BaseAmount,
		Frequency:    e.Frequency,
		AmountKind:   e.AmountKind,
		Distribution: core.FieldsOf(e.Distribution),
		Split:        core.Tag(e.Distribution),
		Active:       e.Active,
		CreatedAt:    e.CreatedAt,
	}
}

type amountRequest struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

type amountResponse struct {
	ExpenseID int64           `json:"expense_id"`
	Period    core.Period     `json:"period"`
	Amount    decimal.Decimal `json:"amount"`
}

type paymentRequest struct {
	ExpenseID int64           `json:"expense_id"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	Payer     string          `json:"payer"`
	Amount    decimal.Decimal `json:"amount"`
	Week      *int            `json:"week,omitempty"`
	PaidOn    *time.Time      `json:"paid_on,omitempty"`
}

type paymentResponse struct {
	ID           int64           `json:"id"`
	ExpenseID    int64           `json:"expense_id"`
	ExpenseLabel string          `json:"expense_label"`
	Period       core.Period     `json:"period"`
	Payer        core.Payer      `json:"payer"`
	Amount       decimal.Decimal `json:"amount"`
	Week         *int            `json:"week,omitempty"`
	PaidOn       time.Time       `json:"paid_on"`
}

func newPaymentResponse(p core.Payment) paymentResponse {
	return paymentResponse{
		ID:           p.ID,
		ExpenseID:    p.ExpenseID,
		ExpenseLabel: p.ExpenseLabel,
		Period:       p.Period,
		Payer:        p.Payer,
		Amount:       p.Amount,
		Week:         p.Week,
		PaidOn:       p.PaidOn,
	}
}

type paymentsResponse struct {
	Period    core.Period       `json:"period"`
	Payments  []paymentResponse `json:"payments"`
	TotalPaid core.Shares       `json:"total_paid"`
}

type purgeRequest struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Token string `json:"token,omitempty"`
}

type deletedResponse struct {
	Deleted int `json:"deleted"`
}

type groupRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	FixedPayer  string          `json:"fixed_payer"`
	FixedAmount decimal.Decimal `json:"fixed_amount"`
	MemberIDs   []int64         `json:"member_ids,omitempty"`
}

func (req groupRequest) group() (core.ExpenseGroup, error) {
	payer, err := parsePayer(req.FixedPayer)
	if err != nil {
		return core.ExpenseGroup{}, err
	}
	return core.ExpenseGroup{
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		FixedPayer:  payer,
		FixedAmount: req.FixedAmount,
		MemberIDs:   req.MemberIDs,
	}, nil
}

type groupResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	FixedPayer  core.Payer      `json:"fixed_payer"`
	FixedAmount decimal.Decimal `json:"fixed_amount"`
	Split       string          `json:"split"`
	Active      bool            `json:"active"`
	MemberIDs   []int64         `json:"member_ids"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newGroupResponse(g core.ExpenseGroup) groupResponse {
	members := g.MemberIDs
	if members == nil {
		members = []int64{}
	}
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		FixedPayer:  g.FixedPayer,
		FixedAmount: g.FixedAmount,
		Split:       core.Tag(g.Split()),
		Active:      g.Active,
		MemberIDs:   members,
		CreatedAt:   g.CreatedAt,
	}
}

type memberRequest struct {
	ExpenseID int64 `json:"expense_id"`
}

type statementResponse struct {
	core.Statement
	People     map[core.Payer]string `json:"people"`
	Settlement string                `json:"settlement"`
}

type exportResponse struct {
	Period core.Period `json:"period"`
	Ref    string      `json:"ref,omitempty"`
	Queued bool        `json:"queued"`
}

func mustPositive(name string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s must be positive", core.ErrInvalidArgument, name)
	}
	return nil
}
