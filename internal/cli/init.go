// Package cli provides the start-up steps shared by cmd/casaconti and
// cmd/casaconti-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"casaconti/internal/amqp"
	"casaconti/internal/backend"
	"casaconti/internal/config"
	"casaconti/internal/core"
	"casaconti/internal/log"
	"casaconti/internal/notify"
	"casaconti/internal/services"
	"casaconti/internal/storage"
	"casaconti/internal/worker"
)

// LoadAndValidateConfig loads the environment (and .env) and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from configuration and installs it
// as the slog default.
func SetupLogger(cfg *config.Config, component string) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return logger, nil
}

// Fatal logs err and exits the process.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// App is the wired domain: store, optional broker and the services on top.
type App struct {
	Config    backend.Config
	Factory   *backend.Factory
	Store     storage.Store
	Broker    *amqp.Client
	Household core.Household

	Expenses   *services.ExpenseService
	Amounts    *services.AmountService
	Ledger     *services.PaymentLedger
	Groups     *services.GroupService
	Statements *services.StatementBuilder

	cleanup []func() error
}

// NewApp opens the configured store, connects to the broker when AMQP_URL
// is set and builds the services. Close releases everything it opened.
func NewApp(cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	store, closeStore, err := factory.CreateStore(bcfg)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:    bcfg,
		Factory:   factory,
		Store:     store,
		Household: bcfg.Household,
		cleanup:   []func() error{closeStore},
	}

	// Left as a nil interface without a broker: services check for nil.
	var events services.ExportPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("connect to AMQP: %w", err)
		}
		logger.Info("Connected to AMQP broker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		app.Broker = client
		app.cleanup = append(app.cleanup, client.Close)
		events = client
	} else {
		logger.Info("AMQP disabled, statement exports are not queued")
	}

	app.Expenses = services.NewExpenseService(store, events)
	app.Amounts = services.NewAmountService(store, store, events)
	app.Ledger = services.NewPaymentLedger(store, store, events, cfg.PurgeConfirmTTL)
	app.Groups = services.NewGroupService(store, events)
	app.Statements = services.NewStatementBuilder(store, store, store, app.Ledger)
	return app, nil
}

// Close releases the broker connection and the store, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	return errors.Join(errs...)
}

// Notifier returns the monthly summary mailer, or nil when SMTP is not
// configured.
func Notifier(cfg *config.Config, household core.Household) worker.Notifier {
	if !cfg.EmailEnabled() {
		return nil
	}
	return notify.NewSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, household)
}
