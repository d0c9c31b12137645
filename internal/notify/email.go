// Package notify mails each person their share of a monthly statement.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"

	"casaconti/internal/core"

	"github.com/jordan-wright/email"
)

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender sends monthly summaries via SMTP.
type Sender struct {
	cfg       SMTPConfig
	household core.Household
	send      func(*email.Email) error
}

func NewSender(cfg SMTPConfig, household core.Household) *Sender {
	s := &Sender{cfg: cfg, household: household}
	s.send = s.smtpSend
	return s
}

func (s *Sender) smtpSend(e *email.Email) error {
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return e.Send(addr, auth)
}

// SendMonthlySummary mails every person with an address their owed, paid
// and pending totals. People without an address are skipped.
func (s *Sender) SendMonthlySummary(ctx context.Context, stmt core.Statement) error {
	var errs []error
	for _, payer := range []core.Payer{core.PayerA, core.PayerB} {
		person := s.household.Person(payer)
		if person.Email == "" {
			continue
		}
		e := summaryEmail(stmt, s.household, payer)
		e.From = s.cfg.From
		e.To = []string{person.Email}

		if err := s.send(e); err != nil {
			slog.ErrorContext(ctx, "Failed to send monthly summary",
				"to", person.Email,
				"period", stmt.Period.String(),
				"error", err)
			errs = append(errs, fmt.Errorf("send summary to %s: %w", person.Email, err))
			continue
		}
		slog.InfoContext(ctx, "Monthly summary sent", "to", person.Email, "period", stmt.Period.String())
	}
	return errors.Join(errs...)
}

// summaryEmail renders the message for one person, without sender or
// recipient.
func summaryEmail(stmt core.Statement, h core.Household, payer core.Payer) *email.Email {
	person := h.Person(payer)
	bal := stmt.Balance

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", person.Name)
	fmt.Fprintf(&b, "here is your summary for %s.\n\n", stmt.Period)
	fmt.Fprintf(&b, "Owed:    %s\n", core.FormatAmount(bal.Owed.Of(payer)))
	fmt.Fprintf(&b, "Paid:    %s\n", core.FormatAmount(bal.Paid.Of(payer)))
	fmt.Fprintf(&b, "Pending: %s\n\n", core.FormatAmount(bal.Pending.Of(payer)))

	var unpaid []string
	for _, row := range stmt.Rows {
		if paid := row.RowPaid(); (payer == core.PayerA && paid.A) || (payer == core.PayerB && paid.B) {
			continue
		}
		share := row.RowShares().Of(payer)
		if share.IsZero() {
			continue
		}
		unpaid = append(unpaid, fmt.Sprintf("- %s: %s", row.RowLabel(), core.FormatAmount(share)))
	}
	if len(unpaid) > 0 {
		b.WriteString("Still open:\n")
		b.WriteString(strings.Join(unpaid, "\n"))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "%s.\n", bal.Settlement(h))

	e := email.NewEmail()
	e.Subject = fmt.Sprintf("Household expenses %s: %s", stmt.Period, bal.Settlement(h))
	e.Text = []byte(b.String())
	return e
}
