package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// RunSchedule runs job on a standard five field cron spec until ctx is done.
// A run still in progress when the next tick fires is skipped.
func RunSchedule(ctx context.Context, spec string, job func(context.Context) error) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(spec, func() {
		if err := job(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled export failed", "schedule", spec, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	c.Start()
	slog.InfoContext(ctx, "Export schedule started", "schedule", spec)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "Export schedule stopped")
	return nil
}
