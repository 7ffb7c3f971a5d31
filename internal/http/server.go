package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"sync"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/services"
	appweb "financas/web"
)

// Deps are the collaborators a Server needs. Finance is required; a nil
// Gate disables the login gate and a nil Refresher gets a default one.
type Deps struct {
	Finance            *services.FinanceService
	Refresher          *services.StatusRefresher
	Gate               *auth.Gate
	Logger             *applog.Logger
	TrustedProxies     []string
	RateLimitPerMinute int
	CookieSecure       bool
}

// Server serves the dashboard and the JSON API.
type Server struct {
	http.Server

	finance   *services.FinanceService
	refresher *services.StatusRefresher
	gate      *auth.Gate
	logger    *applog.Logger
	templates *template.Template

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	cookieSecure bool
	started      time.Time
	shutdownOnce sync.Once
}

// mutatingMethods are rate limited per client.
var mutatingMethods = []string{http.MethodPost, http.MethodPatch, http.MethodDelete}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Finance == nil {
		return nil, errors.New("finance service is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector, err := security.NewDetector(deps.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	limits := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = deps.RateLimitPerMinute
	}

	refresher := deps.Refresher
	if refresher == nil {
		refresher = services.NewStatusRefresher(deps.Finance, 0)
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		finance:      deps.Finance,
		refresher:    refresher,
		gate:         deps.Gate,
		logger:       logger,
		templates:    t,
		limiter:      ratelimit.NewLimiter(limits),
		detector:     detector,
		tracer:       trace.NewMiddleware(logger, detector.ExtractClientIP),
		cookieSecure: deps.CookieSecure,
		started:      time.Now(),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err == nil {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(static)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(fileServer))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)

	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", s.handleIndex)
	app.HandleFunc("GET /logout", s.handleLogout)
	app.HandleFunc("POST /logout", s.handleLogout)

	app.HandleFunc("GET /api/expenses", s.handleListExpenses)
	app.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	app.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	app.HandleFunc("PATCH /api/expenses/{id}", s.handleUpdateExpense)
	app.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	app.HandleFunc("POST /api/expenses/{id}/paid", s.handleMarkPaid)

	app.HandleFunc("GET /api/incomes", s.handleListIncomes)
	app.HandleFunc("POST /api/incomes", s.handleCreateIncome)
	app.HandleFunc("GET /api/incomes/{id}", s.handleGetIncome)
	app.HandleFunc("PATCH /api/incomes/{id}", s.handleUpdateIncome)
	app.HandleFunc("DELETE /api/incomes/{id}", s.handleDeleteIncome)

	app.HandleFunc("GET /api/summary", s.handleSummary)
	app.HandleFunc("POST /api/refresh", s.handleRefresh)
	app.HandleFunc("GET /reports/monthly.xlsx", s.handleReportXLSX)
	app.HandleFunc("GET /reports/monthly.pdf", s.handleReportPDF)

	mux.Handle("/", s.gate.Middleware(app))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, mutatingMethods...)

	var h http.Handler = mux
	h = limit(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = applog.Middleware(s.logger)(h)
	h = s.tracer.Middleware(h)
	return h
}

func parseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"brl":   core.FormatBRL,
		"date":  core.FormatDate,
		"month": core.FormatMonth,
	}
	return template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// render executes a template into a buffer first so a failure never leaves a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// failForm reports err as JSON, or for browser forms sends the user back to
// the dashboard with the message.
func (s *Server) failForm(w http.ResponseWriter, r *http.Request, err error) {
	if !fromBrowserForm(r) {
		writeError(w, r, err)
		return
	}
	status, _ := classifyError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Form submission failed", "error", err)
		msg = "erro interno"
	}
	target := dashboardURL(core.CurrentMonthKey(s.finance.Now())) + "&error=" + url.QueryEscape(msg)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics is a snapshot of the middleware counters.
type Metrics struct {
	Requests           int64
	ServerErrors       int64
	RateLimited        int64
	SuspiciousRequests int64
	BlockedRequests    int64
}

func (s *Server) Metrics() Metrics {
	t := s.tracer.GetMetrics()
	d := s.detector.GetMetrics()
	l := s.limiter.GetMetrics()
	return Metrics{
		Requests:           t.TotalRequests,
		ServerErrors:       t.ServerErrors,
		RateLimited:        l.TotalHits,
		SuspiciousRequests: d.SuspiciousRequests,
		BlockedRequests:    d.BlockedRequests,
	}
}
