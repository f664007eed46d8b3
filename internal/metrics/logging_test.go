package metrics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferedLogger(buf *bytes.Buffer) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(buf), zapcore.InfoLevel)
	return zap.New(core)
}

func serveLogged(t *testing.T, status int, req *http.Request) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	w := httptest.NewRecorder()
	LoggingMiddleware(newBufferedLogger(&buf))(handler).ServeHTTP(w, req)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log: %v, log: %s", err, buf.String())
	}
	return logEntry, w
}

func TestLoggingMiddleware(t *testing.T) {
	req := httptest.NewRequest("POST", "/backtest", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	logEntry, _ := serveLogged(t, http.StatusSeeOther, req)

	if logEntry["method"] != "POST" {
		t.Errorf("expected method POST, got %v", logEntry["method"])
	}
	if logEntry["path"] != "/backtest" {
		t.Errorf("expected path /backtest, got %v", logEntry["path"])
	}
	if logEntry["status"].(float64) != 303 {
		t.Errorf("expected status 303, got %v", logEntry["status"])
	}
	if _, ok := logEntry["duration_ms"]; !ok {
		t.Error("expected duration_ms in log entry")
	}
	if logEntry["client_ip"] != "192.168.1.1:12345" {
		t.Errorf("expected client_ip 192.168.1.1:12345, got %v", logEntry["client_ip"])
	}
}

func TestLoggingMiddleware_AddsRequestID(t *testing.T) {
	logEntry, w := serveLogged(t, http.StatusOK, httptest.NewRequest("GET", "/login", nil))

	requestID := w.Header().Get("X-Request-ID")
	if requestID == "" {
		t.Fatal("expected X-Request-ID header")
	}
	if logEntry["request_id"] != requestID {
		t.Errorf("expected request_id %s, got %v", requestID, logEntry["request_id"])
	}
}

func TestLoggingMiddleware_ReusesInboundRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/login", nil)
	req.Header.Set("X-Request-ID", "edge-42")

	logEntry, w := serveLogged(t, http.StatusOK, req)

	if w.Header().Get("X-Request-ID") != "edge-42" {
		t.Errorf("expected inbound id to be echoed, got %s", w.Header().Get("X-Request-ID"))
	}
	if logEntry["request_id"] != "edge-42" {
		t.Errorf("expected request_id edge-42, got %v", logEntry["request_id"])
	}
}

func TestLoggingMiddleware_RequestIDInContext(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})

	w := httptest.NewRecorder()
	LoggingMiddleware(zap.NewNop())(handler).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if seen == "" || seen != w.Header().Get("X-Request-ID") {
		t.Errorf("expected handler to see request id %q, got %q", w.Header().Get("X-Request-ID"), seen)
	}
}

func TestLoggingMiddleware_XForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.2")
	req.RemoteAddr = "10.0.0.1:54321"

	logEntry, _ := serveLogged(t, http.StatusOK, req)

	if logEntry["client_ip"] != "203.0.113.50" {
		t.Errorf("expected client_ip 203.0.113.50, got %v", logEntry["client_ip"])
	}
}

func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusUnprocessableEntity, "warn"},
		{http.StatusBadGateway, "error"},
	}

	for _, tt := range tests {
		logEntry, _ := serveLogged(t, tt.status, httptest.NewRequest("GET", "/backtest", nil))
		if logEntry["level"] != tt.level {
			t.Errorf("status %d: expected level %s, got %v", tt.status, tt.level, logEntry["level"])
		}
	}
}
