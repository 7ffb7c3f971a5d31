package http

import (
	"errors"
	"net/http"
	"time"

	"financas/internal/auth"
	applog "financas/internal/log"
)

const loginFailedMessage = "Usuário ou senha incorretos"

type loginPage struct {
	Error    string
	Username string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if !s.gate.Enabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginPage{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.gate.Enabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	username := firstNonEmpty(p.Get("usuario"), p.Get("username"))
	password := p.Get("senha")
	if !p.Has("senha") {
		password = p.Get("password")
	}

	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth)
	token, expires, err := s.gate.Login(username, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, err)
			return
		}
		logger.WarnContext(r.Context(), "Login failed",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldUser, username,
			applog.FieldClientIP, s.detector.ExtractClientIP(r))
		if p.IsJSON() {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: loginFailedMessage, Kind: "unauthorized"})
			return
		}
		s.render(w, r, http.StatusUnauthorized, "login.html", loginPage{Error: loginFailedMessage, Username: username})
		return
	}

	logger.InfoContext(r.Context(), "Login succeeded", applog.FieldOperation, applog.OpLogin, applog.FieldUser, username)
	http.SetCookie(w, auth.SessionCookie(token, expires, s.cookieSecure))
	if p.IsJSON() {
		writeJSON(w, http.StatusOK, map[string]string{"expires_at": expires.UTC().Format(time.RFC3339)})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearCookie(s.cookieSecure))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
