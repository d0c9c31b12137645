package services

import (
	"context"
	"log/slog"

	"casaconti/internal/core"
)

// ExportPublisher announces that the statement of a period changed and
// should be exported again.
type ExportPublisher interface {
	PublishStatementExport(ctx context.Context, p core.Period, reason string) error
}

// requestExport never fails the caller: the write already succeeded and
// the scheduled export will catch up.
func requestExport(ctx context.Context, pub ExportPublisher, p core.Period, reason string) {
	if pub == nil {
		slog.DebugContext(ctx, "Export publisher not available, skipping export request", "period", p.String())
		return
	}
	if err := pub.PublishStatementExport(ctx, p, reason); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export request",
			"period", p.String(),
			"reason", reason,
			"error", err)
	}
}
