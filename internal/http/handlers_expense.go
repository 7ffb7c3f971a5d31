package http

import (
	"net/http"

	"financas/internal/core"
	applog "financas/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, status, err := parseExpenseFilter(r.URL.Query(), s.finance.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := readContext(r)
	defer cancel()

	list, err := s.finance.ListExpenses(ctx, filter, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":    filter.Month.String(),
		"expenses": newExpenseDTOs(list),
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	in, err := parseExpenseInput(p)
	if err == nil {
		var e core.Expense
		e, err = s.finance.CreateExpense(r.Context(), in)
		if err == nil {
			applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created via HTTP",
				applog.NewFields().WithExpense(e).ToSlice()...)
			if fromBrowserForm(r) {
				redirectToDashboard(w, r, core.MonthKeyOf(e.DueDate))
				return
			}
			writeJSON(w, http.StatusCreated, newExpenseDTO(e))
			return
		}
	}
	s.failForm(w, r, err)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := readContext(r)
	defer cancel()

	e, err := s.finance.GetExpense(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseDTO(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	patch, err := parseExpensePatch(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.finance.UpdateExpense(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseDTO(e))
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	e, err := s.finance.MarkPaid(r.Context(), r.PathValue("id"))
	if err != nil {
		s.failForm(w, r, err)
		return
	}
	if fromBrowserForm(r) {
		redirectToDashboard(w, r, core.MonthKeyOf(e.DueDate))
		return
	}
	writeJSON(w, http.StatusOK, newExpenseDTO(e))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
