package http

import (
	"log/slog"
	"net/http"

	"casaconti/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	items, err := s.deps.Expenses.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]expenseResponse, 0, len(items))
	for _, e := range items {
		out = append(out, newExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := req.expense()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if e.Distribution == nil {
		e.Distribution = core.EqualSplit{}
	}

	created, err := s.deps.Expenses.Create(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Expense created",
		"expense_id", created.ID,
		"label", created.Label,
		"frequency", created.Frequency,
		"split", core.Tag(created.Distribution))
	writeJSON(w, http.StatusCreated, newExpenseResponse(created))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.deps.Expenses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseResponse(e))
}

// handleUpdateExpense replaces the expense. Omitting the distribution keeps
// the current one.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := req.expense()
	if err != nil {
		writeError(w, r, err)
		return
	}
	e.ID = id
	if e.Distribution == nil {
		current, err := s.deps.Expenses.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		e.Distribution = current.Distribution
	}

	updated, err := s.deps.Expenses.Update(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Expense updated", "expense_id", id)
	writeJSON(w, http.StatusOK, newExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Expenses.Deactivate(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Expense deactivated", "expense_id", id)
	writeNoContent(w)
}

func (s *Server) handleGetAmount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := parseYearMonth(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := s.deps.Amounts.Get(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{ExpenseID: id, Period: p, Amount: amount})
}

func (s *Server) handleSetAmount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := bodyPeriod(req.Year, req.Month, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Amounts.Set(r.Context(), id, p, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Monthly amount set",
		"expense_id", id,
		"period", p.String(),
		"amount", core.FormatAmount(req.Amount))
	writeJSON(w, http.StatusOK, amountResponse{ExpenseID: id, Period: p, Amount: req.Amount})
}

func (s *Server) handleWeeks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := parseYearMonth(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	status, err := s.deps.Ledger.Weeks(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListAmounts(w http.ResponseWriter, r *http.Request) {
	p, err := parseYearMonth(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	amounts, err := s.deps.Amounts.List(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amounts)
}
