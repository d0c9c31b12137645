package main

import (
	"context"
	"os"
	"time"

	"casaconti/internal/cache"
	"casaconti/internal/cli"
	apphttp "casaconti/internal/http"
	"casaconti/internal/log"
	"casaconti/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}

	logger, err := cli.SetupLogger(cfg, log.ComponentApp)
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Invalid log configuration", err)
	}

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

	// With a broker the worker process owns the spreadsheet; without one,
	// explicit exports run in-process when a spreadsheet is configured.
	var exporter apphttp.StatementExporter
	switch {
	case app.Broker != nil:
		exporter = worker.Enqueue{Publisher: app.Broker}
	case cfg.SheetsEnabled():
		writer, err := app.Factory.CreateStatementWriter(ctx, app.Config)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize statement exporter", err)
		}
		exporter = worker.NewExportWorker(app.Statements, writer, cli.Notifier(cfg, app.Household))
	default:
		logger.Info("Statement export disabled, no broker or spreadsheet configured")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:   app.Expenses,
		Amounts:    app.Amounts,
		Ledger:     app.Ledger,
		Groups:     app.Groups,
		Statements: app.Statements,
		Exporter:   exporter,
		Store:      app.Store,
		Household:  app.Household,
		Logger:     logger.WithComponent(log.ComponentHTTP),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting casaconti server", "port", cfg.Port, "backend", cfg.DataBackend)
		return srv.ListenAndServe()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return cache.NewJanitor(app.Ledger.Confirmations()).Run(gctx, time.Minute)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = app.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
