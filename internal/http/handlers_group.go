package http

import (
	"log/slog"
	"net/http"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.Groups.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, newGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := req.group()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.deps.Groups.Create(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Expense group created",
		"group_id", created.ID,
		"name", created.Name,
		"members", len(created.MemberIDs))
	writeJSON(w, http.StatusCreated, newGroupResponse(created))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.deps.Groups.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupResponse(g))
}

// handleUpdateGroup changes the group's own fields. Membership has its own
// routes, so member_ids is rejected here.
func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req groupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.MemberIDs) > 0 {
		ErrorResponse(http.StatusBadRequest, "use the members routes to change membership").Write(w)
		return
	}
	g, err := req.group()
	if err != nil {
		writeError(w, r, err)
		return
	}
	g.ID = id

	updated, err := s.deps.Groups.Update(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupResponse(updated))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Groups.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.InfoContext(r.Context(), "Expense group deleted", "group_id", id)
	writeNoContent(w)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req memberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := mustPositive("expense_id", req.ExpenseID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Groups.AddMember(r.Context(), groupID, req.ExpenseID); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenseID, err := pathID(r, "expenseID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Groups.RemoveMember(r.Context(), groupID, expenseID); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
