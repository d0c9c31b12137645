package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"casaconti/internal/core"
	"casaconti/internal/log"
)

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	p, err := parseYearMonth(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := s.deps.Ledger.List(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := paymentsResponse{Period: p, Payments: make([]paymentResponse, 0, len(payments))}
	for _, pay := range payments {
		resp.Payments = append(resp.Payments, newPaymentResponse(pay))
	}
	if resp.TotalPaid.A, err = s.deps.Ledger.TotalPaid(r.Context(), p, core.PayerA); err != nil {
		writeError(w, r, err)
		return
	}
	if resp.TotalPaid.B, err = s.deps.Ledger.TotalPaid(r.Context(), p, core.PayerB); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := bodyPeriod(req.Year, req.Month, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	payer, err := parsePayer(req.Payer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pay := core.Payment{
		ExpenseID: req.ExpenseID,
		Period:    p,
		Payer:     payer,
		Amount:    req.Amount,
		Week:      req.Week,
	}
	if req.PaidOn != nil {
		pay.PaidOn = *req.PaidOn
	}

	recorded, err := s.deps.Ledger.Record(r.Context(), pay)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Payment recorded", log.NewFields().WithPayment(recorded).ToSlice()...)
	writeJSON(w, http.StatusCreated, newPaymentResponse(recorded))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Ledger.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Payment deleted", "payment_id", id)
	writeNoContent(w)
}

// handleDeletePaymentsByKey removes every payment of one person for one
// expense and month.
func (s *Server) handleDeletePaymentsByKey(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("year") == "" || q.Get("month") == "" {
		ErrorResponse(http.StatusBadRequest, "year and month are required").Write(w)
		return
	}
	p, err := parseYearMonth(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenseID, err := strconv.ParseInt(strings.TrimSpace(q.Get("expense_id")), 10, 64)
	if err != nil {
		ErrorResponse(http.StatusBadRequest, "expense_id is required").Write(w)
		return
	}
	payer, err := parsePayer(q.Get("payer"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	n, err := s.deps.Ledger.DeleteByKey(r.Context(), expenseID, p, payer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Payments deleted",
		"expense_id", expenseID,
		"period", p.String(),
		"payer", payer,
		"count", n)
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.deps.Ledger.History(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if history == nil {
		history = []core.MonthlyTotal{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleRequestPurge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := bodyPeriod(req.Year, req.Month, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	confirmation, err := s.deps.Ledger.RequestDeleteAll(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, confirmation)
}

func (s *Server) handleConfirmPurge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		ErrorResponse(http.StatusBadRequest, "token is required").Write(w)
		return
	}
	p, err := bodyPeriod(req.Year, req.Month, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.deps.Ledger.ConfirmDeleteAll(r.Context(), p, req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}
