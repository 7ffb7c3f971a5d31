package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
)

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// fromBrowserForm reports a plain HTML form submission, which gets a redirect
// back to the dashboard instead of a JSON body.
func fromBrowserForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// dashboardURL points at the dashboard for month.
func dashboardURL(month core.MonthKey) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(month.Year))
	q.Set("month", strconv.Itoa(month.Month))
	return "/?" + q.Encode()
}

func redirectToDashboard(w http.ResponseWriter, r *http.Request, month core.MonthKey) {
	http.Redirect(w, r, dashboardURL(month), http.StatusSeeOther)
}

const storeReadTimeout = 7 * time.Second

// readContext bounds store reads made while serving r.
func readContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), storeReadTimeout)
}
