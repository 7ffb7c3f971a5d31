package http

import (
	"net/http"

	"financas/internal/core"
	applog "financas/internal/log"
)

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	filter, err := parseIncomeFilter(r.URL.Query(), s.finance.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := readContext(r)
	defer cancel()

	list, err := s.finance.ListIncomes(ctx, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":   filter.Month.String(),
		"incomes": newIncomeDTOs(list),
	})
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	in, err := parseIncomeInput(p)
	if err == nil {
		var inc core.Income
		inc, err = s.finance.CreateIncome(r.Context(), in)
		if err == nil {
			applog.FromContext(r.Context()).InfoContext(r.Context(), "Income created via HTTP",
				applog.NewFields().WithIncome(inc).ToSlice()...)
			if fromBrowserForm(r) {
				redirectToDashboard(w, r, core.MonthKeyOf(inc.Date))
				return
			}
			writeJSON(w, http.StatusCreated, newIncomeDTO(inc))
			return
		}
	}
	s.failForm(w, r, err)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := readContext(r)
	defer cancel()

	inc, err := s.finance.GetIncome(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIncomeDTO(inc))
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	patch, err := parseIncomePatch(p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	inc, err := s.finance.UpdateIncome(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIncomeDTO(inc))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.finance.DeleteIncome(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
