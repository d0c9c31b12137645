// Package http serves the household ledger as a JSON API.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"casaconti/internal/core"
	"casaconti/internal/log"
	"casaconti/internal/metrics"
	"casaconti/internal/middleware/ratelimit"
	"casaconti/internal/middleware/security"
	"casaconti/internal/services"

	"github.com/gorilla/mux"
)

// StatementExporter writes a month's statement to its external target.
// It returns a reference to what was written, or "" when the export was
// only queued.
type StatementExporter interface {
	ExportStatement(ctx context.Context, p core.Period, trigger string) (string, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API exposes. Exporter may be nil.
type Deps struct {
	Expenses   *services.ExpenseService
	Amounts    *services.AmountService
	Ledger     *services.PaymentLedger
	Groups     *services.GroupService
	Statements *services.StatementBuilder
	Exporter   StatementExporter
	Store      Pinger
	Household  core.Household
	Logger     *log.Logger
}

type Server struct {
	http.Server
	deps    Deps
	limiter *ratelimit.Limiter
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentHTTP})
	}

	s := &Server{
		deps:    deps,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		now:     time.Now,
	}

	detector := security.NewDetector()
	router := mux.NewRouter()
	router.NotFoundHandler = log.AccessLog(routeTemplate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "no such route").Write(w)
	}))
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	router.Use(log.AccessLog(routeTemplate), instrument, s.limiter.Middleware(detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	}))

	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id:[0-9]+}", s.handleGetExpense).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id:[0-9]+}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id:[0-9]+}", s.handleDeleteExpense).Methods(http.MethodDelete)
	api.HandleFunc("/expenses/{id:[0-9]+}/amount", s.handleGetAmount).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id:[0-9]+}/amount", s.handleSetAmount).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id:[0-9]+}/weeks", s.handleWeeks).Methods(http.MethodGet)
	api.HandleFunc("/amounts", s.handleListAmounts).Methods(http.MethodGet)

	api.HandleFunc("/payments", s.handleListPayments).Methods(http.MethodGet)
	api.HandleFunc("/payments", s.handleRecordPayment).Methods(http.MethodPost)
	api.HandleFunc("/payments", s.handleDeletePaymentsByKey).Methods(http.MethodDelete)
	api.HandleFunc("/payments/history", s.handlePaymentHistory).Methods(http.MethodGet)
	api.HandleFunc("/payments/purge", s.handleRequestPurge).Methods(http.MethodPost)
	api.HandleFunc("/payments/purge/confirm", s.handleConfirmPurge).Methods(http.MethodPost)
	api.HandleFunc("/payments/{id:[0-9]+}", s.handleDeletePayment).Methods(http.MethodDelete)

	api.HandleFunc("/groups", s.handleListGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups", s.handleCreateGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id:[0-9]+}", s.handleGetGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id:[0-9]+}", s.handleUpdateGroup).Methods(http.MethodPut)
	api.HandleFunc("/groups/{id:[0-9]+}", s.handleDeleteGroup).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{id:[0-9]+}/members", s.handleAddMember).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id:[0-9]+}/members/{expenseID:[0-9]+}", s.handleRemoveMember).Methods(http.MethodDelete)

	api.HandleFunc("/statement", s.handleStatement).Methods(http.MethodGet)
	api.HandleFunc("/statement/export", s.handleExportStatement).Methods(http.MethodPost)

	var handler http.Handler = router
	handler = detector.Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = log.RequestIDMiddleware(deps.Logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs until Shutdown; a clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
