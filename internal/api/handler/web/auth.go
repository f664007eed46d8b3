package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/newthinker/strategylab/internal/apiclient"
	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/session"
	"go.uber.org/zap"
)

// Page is the data every layout render needs.
type Page struct {
	Title string
	// Email of the signed-in user; empty when signed out.
	Email string
	// Refresh, when positive, reloads the page after that many seconds.
	Refresh int
}

func newPage(r *http.Request, title string) Page {
	p := Page{Title: title}
	if s, ok := session.FromContext(r.Context()); ok {
		p.Email = s.Email
	}
	return p
}

// AuthData holds data for the login and signup templates
type AuthData struct {
	Page
	Username string
	UserMail string
	Errors   map[string]string
	Error    string
}

const (
	msgLoginFailed  = "Failed to sign in"
	msgSignupFailed = "Failed to create account"
	msgSessionSave  = "Unable to start your session, please try again"
)

// Home renders the landing page, or sends signed-in users to their workspace.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/backtest", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "home.html", newPage(r, "Stock Strategy Backtester"))
}

// LoginPage renders the sign-in form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/backtest", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "login.html", AuthData{Page: newPage(r, "Sign In")})
}

// Login validates the credentials, signs in against the backend and starts
// a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	form := backtest.LoginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data := AuthData{Page: newPage(r, "Sign In"), UserMail: form.Email}

	if !form.Validate() {
		data.Errors = form.Errors
		h.render(w, http.StatusUnprocessableEntity, "login.html", data)
		return
	}

	resp, err := h.auth.Login(r.Context(), form.Email, form.Password)
	h.metrics.RecordAuth("login", err == nil)
	if err != nil {
		h.logger.Info("login rejected", zap.String("email", form.Email), zap.Error(err))
		data.Error = failureMessage(err, msgLoginFailed)
		h.render(w, failureStatus(err), "login.html", data)
		return
	}

	h.startSession(w, r, resp, "login.html", data)
}

// SignupPage renders the account creation form.
func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/backtest", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "signup.html", AuthData{Page: newPage(r, "Create Account")})
}

// Signup validates the form, creates the account and starts a session.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	form := backtest.SignupForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	data := AuthData{Page: newPage(r, "Create Account"), Username: form.Username, UserMail: form.Email}

	if !form.Validate() {
		data.Errors = form.Errors
		h.render(w, http.StatusUnprocessableEntity, "signup.html", data)
		return
	}

	resp, err := h.auth.Signup(r.Context(), form.Username, form.Email, form.Password)
	h.metrics.RecordAuth("signup", err == nil)
	if err != nil {
		h.logger.Info("signup rejected", zap.String("email", form.Email), zap.Error(err))
		data.Error = failureMessage(err, msgSignupFailed)
		h.render(w, failureStatus(err), "signup.html", data)
		return
	}

	h.startSession(w, r, resp, "signup.html", data)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, resp *apiclient.AuthResponse, page string, data AuthData) {
	s := session.Session{Email: resp.Email, AccessToken: resp.AccessToken}
	if _, err := h.sessions.Login(r.Context(), w, s); err != nil {
		h.logger.Error("session save failed", zap.Error(err))
		data.Error = msgSessionSave
		h.render(w, http.StatusInternalServerError, page, data)
		return
	}
	http.Redirect(w, r, "/backtest", http.StatusSeeOther)
}

// Logout ends the session and returns to the sign-in page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// failureMessage returns the backend's message, or fallback when there is
// none.
func failureMessage(err error, fallback string) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// failureStatus passes backend client errors through and reports anything
// else as a gateway failure.
func failureStatus(err error) int {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
