package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"casaconti/internal/core"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testStatement() core.Statement {
	return core.Statement{
		Period: core.Period{Year: 2025, Month: 3},
		Rows: []core.StatementRow{
			core.IndividualRow{Label: "Rent", Total: d("800"), Shares: core.Shares{A: d("400"), B: d("400")}, Paid: core.PaidStatus{A: true}},
			core.IndividualRow{Label: "Gym", Total: d("30"), Shares: core.Shares{A: d("30"), B: d("0")}},
		},
		Balance: core.Balance{
			Owed:    core.Shares{A: d("430"), B: d("400")},
			Paid:    core.Shares{A: d("400"), B: d("0")},
			Pending: core.Shares{A: d("30"), B: d("400")},
		},
	}
}

func TestSummaryEmail(t *testing.T) {
	h := core.Household{A: core.Person{Name: "Anna"}, B: core.Person{Name: "Bruno"}}

	e := summaryEmail(testStatement(), h, core.PayerB)
	body := string(e.Text)

	if e.Subject != "Household expenses 2025-03: Bruno owes 400.00" {
		t.Errorf("Subject = %q", e.Subject)
	}
	for _, want := range []string{"Hi Bruno", "Owed:    400.00", "Pending: 400.00", "- Rent: 400.00"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "Gym") {
		t.Errorf("body lists a row with a zero share:\n%s", body)
	}

	bodyA := string(summaryEmail(testStatement(), h, core.PayerA).Text)
	if strings.Contains(bodyA, "- Rent") || !strings.Contains(bodyA, "- Gym: 30.00") {
		t.Errorf("A body:\n%s", bodyA)
	}
}

func TestSender_SendMonthlySummary(t *testing.T) {
	h := core.Household{
		A: core.Person{Name: "Anna", Email: "anna@example.com"},
		B: core.Person{Name: "Bruno"},
	}
	s := NewSender(SMTPConfig{Host: "localhost", Port: 25, From: "casa@example.com"}, h)

	var sent []*email.Email
	s.send = func(e *email.Email) error {
		sent = append(sent, e)
		return nil
	}
	if err := s.SendMonthlySummary(context.Background(), testStatement()); err != nil {
		t.Fatalf("SendMonthlySummary() error = %v", err)
	}
	if len(sent) != 1 || sent[0].To[0] != "anna@example.com" || sent[0].From != "casa@example.com" {
		t.Fatalf("sent = %+v, want one mail to Anna", sent)
	}

	boom := errors.New("smtp down")
	s.send = func(*email.Email) error { return boom }
	if err := s.SendMonthlySummary(context.Background(), testStatement()); !errors.Is(err, boom) {
		t.Errorf("SendMonthlySummary() error = %v, want wrapped smtp error", err)
	}
}
