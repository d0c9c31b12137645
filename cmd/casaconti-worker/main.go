package main

import (
	"context"
	"errors"
	"os"

	"casaconti/internal/cli"
	"casaconti/internal/log"
	"casaconti/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}

	logger, err := cli.SetupLogger(cfg, log.ComponentWorker)
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Invalid log configuration", err)
	}
	logger.Info("Starting casaconti-worker")

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize application", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", "error", err)
		}
	}()

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	writer, err := app.Factory.CreateStatementWriter(ctx, app.Config)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize statement exporter", err)
	}
	notifier := cli.Notifier(cfg, app.Household)
	if notifier == nil {
		logger.Info("Monthly summary email disabled, no SMTP server configured")
	}
	exportWorker := worker.NewExportWorker(app.Statements, writer, notifier)

	// Catch up on requests published while the worker was down.
	if err := exportWorker.StartupExport(ctx); err != nil {
		logger.Error("Startup export failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if app.Broker != nil {
		g.Go(func() error {
			err := app.Broker.ConsumeStatementExports(gctx, exportWorker.HandleExportMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP message consumption, no broker configured")
	}
	if cfg.ExportSchedule != "" {
		g.Go(func() error {
			return worker.RunSchedule(gctx, cfg.ExportSchedule, exportWorker.ExportCurrentMonth)
		})
	} else {
		logger.Info("Skipping scheduled exports, EXPORT_SCHEDULE is empty")
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		_ = app.Close()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
