package http

import (
	"log/slog"
	"net/http"

	"casaconti/internal/core"
	"casaconti/internal/worker"
)

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	p, err := parseYearMonth(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	stmt, err := s.deps.Statements.Build(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if stmt.Rows == nil {
		stmt.Rows = []core.StatementRow{}
	}
	h := s.deps.Household
	writeJSON(w, http.StatusOK, statementResponse{
		Statement:  stmt,
		People:     map[core.Payer]string{core.PayerA: h.A.Name, core.PayerB: h.B.Name},
		Settlement: stmt.Balance.Settlement(h),
	})
}

func (s *Server) handleExportStatement(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		ErrorResponse(http.StatusServiceUnavailable, "statement export is not configured").Write(w)
		return
	}
	p, err := parseYearMonth(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := s.deps.Exporter.ExportStatement(r.Context(), p, worker.TriggerAPI)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Statement export requested", "period", p.String(), "ref", ref)
	writeJSON(w, http.StatusAccepted, exportResponse{Period: p, Ref: ref, Queued: ref == ""})
}
