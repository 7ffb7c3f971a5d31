package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
	applog "financas/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.finance.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

type filterLink struct {
	Label  string
	URL    string
	Active bool
}

type dashboardPage struct {
	Month       core.MonthKey
	Label       string
	PrevURL     string
	NextURL     string
	XLSXURL     string
	PDFURL      string
	Summary     core.FinancialSummary
	ByPerson    []core.PersonTotals
	Expenses    []core.Expense
	Incomes     []core.Income
	Filters     []filterLink
	People      []core.Person
	DefaultDate string
	Error       string
	User        string
	AuthEnabled bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	now := s.finance.Now()
	month, err := ParseMonthParams(query, now)
	if err != nil {
		month = core.CurrentMonthKey(now)
	}

	ctx, cancel := readContext(r)
	defer cancel()

	v, err := s.finance.MonthView(ctx, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	active := query.Get("status")
	expenses := v.Expenses
	if st, err := core.ParseStatus(active); err == nil {
		expenses = core.FilterByStatus(expenses, st)
	} else {
		active = ""
	}

	defaultDate := month.First()
	if today := core.DateOf(now); month.Contains(today) {
		defaultDate = today
	}

	page := dashboardPage{
		Month:       month,
		Label:       core.FormatMonth(month),
		PrevURL:     dashboardURL(month.Prev()),
		NextURL:     dashboardURL(month.Next()),
		XLSXURL:     reportURL("xlsx", month),
		PDFURL:      reportURL("pdf", month),
		Summary:     v.Summary,
		ByPerson:    v.ByPerson,
		Expenses:    expenses,
		Incomes:     v.Incomes,
		Filters:     statusFilters(month, active),
		People:      core.People(),
		DefaultDate: defaultDate.String(),
		Error:       query.Get("error"),
		User:        auth.UserFromContext(r.Context()),
		AuthEnabled: s.gate.Enabled(),
	}
	s.render(w, r, http.StatusOK, "index.html", page)
}

func statusFilters(month core.MonthKey, active string) []filterLink {
	links := []filterLink{{Label: "All", URL: dashboardURL(month), Active: active == ""}}
	for _, st := range core.Statuses() {
		links = append(links, filterLink{
			Label:  st.Label(),
			URL:    dashboardURL(month) + "&status=" + string(st),
			Active: active == string(st),
		})
	}
	return links
}

func reportURL(ext string, month core.MonthKey) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(month.Year))
	q.Set("month", strconv.Itoa(month.Month))
	return "/reports/monthly." + ext + "?" + q.Encode()
}

// handleRefresh runs a status refresh pass immediately.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.refresher.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Manual status refresh",
		applog.FieldOperation, applog.OpRefresh,
		"checked", res.Checked,
		"updated", res.Updated)

	if fromBrowserForm(r) {
		redirectToDashboard(w, r, core.CurrentMonthKey(s.finance.Now()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"checked": res.Checked,
		"updated": res.Updated,
		"at":      res.At.UTC().Format(time.RFC3339),
	})
}
