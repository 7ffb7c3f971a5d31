package http

import (
	"fmt"
	"net/http"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/report"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParams(r.URL.Query(), s.finance.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := readContext(r)
	defer cancel()

	v, err := s.finance.MonthView(ctx, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryDTO(v.Summary, v.ByPerson))
}

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "xlsx", contentTypeXLSX, report.MonthlyXLSX)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "pdf", contentTypePDF, report.MonthlyPDF)
}

func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, ext, contentType string, render func(core.MonthView) ([]byte, error)) {
	month, err := ParseMonthParams(r.URL.Query(), s.finance.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := readContext(r)
	defer cancel()

	v, err := s.finance.MonthView(ctx, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := render(v)
	if err != nil {
		writeError(w, r, fmt.Errorf("render %s report: %w", ext, err))
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Report rendered",
		applog.FieldOperation, applog.OpRender,
		applog.FieldMonth, month.String(),
		"format", ext,
		"bytes", len(body))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="financas-%s.%s"`, month.String(), ext))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
