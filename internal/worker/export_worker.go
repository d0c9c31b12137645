package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"casaconti/internal/amqp"
	"casaconti/internal/core"
	"casaconti/internal/metrics"
	"casaconti/internal/services"
	"casaconti/internal/sheets"
)

// Export triggers, also used as metric labels.
const (
	TriggerMessage  = "message"
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
	TriggerStartup  = "startup"
)

// StatementSource builds the statement of a month.
type StatementSource interface {
	Build(ctx context.Context, p core.Period) (core.Statement, error)
}

// Notifier delivers the monthly summary to the household.
type Notifier interface {
	SendMonthlySummary(ctx context.Context, stmt core.Statement) error
}

// ExportWorker rebuilds a month's statement and writes it to the
// spreadsheet. Exports run one at a time so two triggers never interleave
// writes to the same tab.
type ExportWorker struct {
	statements StatementSource
	sheets     sheets.StatementWriter
	notifier   Notifier
	now        func() time.Time
	mu         sync.Mutex
}

// NewExportWorker wires the worker. notifier may be nil.
func NewExportWorker(statements StatementSource, writer sheets.StatementWriter, notifier Notifier) *ExportWorker {
	return &ExportWorker{
		statements: statements,
		sheets:     writer,
		notifier:   notifier,
		now:        time.Now,
	}
}

// ExportStatement exports p and returns the written range. Scheduled and
// explicit exports also mail the summary; message driven ones do not, since
// every write produces one.
func (w *ExportWorker) ExportStatement(ctx context.Context, p core.Period, trigger string) (ref string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() { metrics.StatementExports.WithLabelValues(trigger, metrics.Result(err)).Inc() }()

	stmt, err := w.statements.Build(ctx, p)
	if err != nil {
		return "", fmt.Errorf("build statement: %w", err)
	}
	ref, err = w.sheets.WriteStatement(ctx, stmt)
	if err != nil {
		return "", fmt.Errorf("write statement: %w", err)
	}

	slog.InfoContext(ctx, "Statement exported",
		"period", p.String(),
		"trigger", trigger,
		"rows", len(stmt.Rows),
		"sheets_ref", ref)

	if w.notifier != nil && trigger != TriggerMessage {
		if err := w.notifier.SendMonthlySummary(ctx, stmt); err != nil {
			// The export itself succeeded.
			slog.WarnContext(ctx, "Monthly summary not delivered", "period", p.String(), "error", err)
		}
	}
	return ref, nil
}

// HandleExportMessage processes a single export request from AMQP
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.StatementExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"message_id", msg.ID,
		"period", msg.Period().String(),
		"reason", msg.Reason)

	_, err := w.ExportStatement(ctx, msg.Period(), TriggerMessage)
	return err
}

// ExportCurrentMonth is the scheduled job.
func (w *ExportWorker) ExportCurrentMonth(ctx context.Context) error {
	_, err := w.ExportStatement(ctx, core.NewPeriod(w.now()), TriggerSchedule)
	return err
}

// StartupExport refreshes the current month once at worker start, to
// recover from requests missed while the worker was down.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	p := core.NewPeriod(w.now())
	if _, err := w.ExportStatement(ctx, p, TriggerStartup); err != nil {
		return fmt.Errorf("startup export of %s: %w", p, err)
	}
	return nil
}

// Enqueue hands explicit export requests to the broker, for processes that
// hold no spreadsheet credentials themselves.
type Enqueue struct {
	Publisher services.ExportPublisher
}

func (q Enqueue) ExportStatement(ctx context.Context, p core.Period, trigger string) (string, error) {
	return "", q.Publisher.PublishStatementExport(ctx, p, trigger)
}
