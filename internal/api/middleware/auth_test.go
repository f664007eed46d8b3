package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/strategylab/internal/api/response"
	"github.com/newthinker/strategylab/internal/session"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
})

func withSession(r *http.Request) *http.Request {
	s := session.Session{Email: "trader@example.com", AccessToken: "tok"}
	return r.WithContext(session.WithSession(r.Context(), "sid", s))
}

func TestRequireSession_Present(t *testing.T) {
	req := withSession(httptest.NewRequest("GET", "/backtest", nil))
	w := httptest.NewRecorder()

	RequireSession(okHandler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequireSession_RedirectsToLogin(t *testing.T) {
	req := httptest.NewRequest("GET", "/backtest", nil)
	w := httptest.NewRecorder()

	RequireSession(okHandler).ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Errorf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != LoginPath {
		t.Errorf("expected redirect to %s, got %s", LoginPath, loc)
	}
}

func TestRequireSessionJSON_Present(t *testing.T) {
	req := withSession(httptest.NewRequest("GET", "/api/v1/run", nil))
	w := httptest.NewRecorder()

	RequireSessionJSON(okHandler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequireSessionJSON_Unauthorized(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/run", nil)
	w := httptest.NewRecorder()

	RequireSessionJSON(okHandler).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}

	var resp response.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "UNAUTHENTICATED" {
		t.Errorf("expected UNAUTHENTICATED, got %s", resp.Error.Code)
	}
}
