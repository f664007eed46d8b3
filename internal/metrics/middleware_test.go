package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPMiddleware_LabelsRoutePattern(t *testing.T) {
	reg := NewRegistry()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /backtest/export", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := HTTPMiddleware(reg)(mux)

	req := httptest.NewRequest("GET", "/backtest/export?format=csv", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	mf := gatherFamily(t, reg, "http_requests_total")
	if mf == nil {
		t.Fatal("expected http_requests_total to be recorded")
	}
	if got := labelValue(mf.GetMetric()[0], "path"); got != "GET /backtest/export" {
		t.Errorf("expected route pattern label, got %q", got)
	}
	if gatherFamily(t, reg, "http_request_duration_seconds") == nil {
		t.Error("expected http_request_duration_seconds to be recorded")
	}
}

func TestHTTPMiddleware_UnmatchedRoute(t *testing.T) {
	reg := NewRegistry()
	wrapped := HTTPMiddleware(reg)(http.NewServeMux())

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))

	mf := gatherFamily(t, reg, "http_requests_total")
	m := mf.GetMetric()[0]
	if labelValue(m, "path") != "unmatched" {
		t.Errorf("expected unmatched path label, got %q", labelValue(m, "path"))
	}
	if labelValue(m, "status") != "4xx" {
		t.Errorf("expected status label 4xx, got %s", labelValue(m, "status"))
	}
}

func TestHTTPMiddleware_TracksInFlight(t *testing.T) {
	reg := NewRegistry()

	inFlightDuringRequest := float64(-1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mf := gatherFamily(t, reg, "http_requests_in_flight")
		inFlightDuringRequest = mf.GetMetric()[0].GetGauge().GetValue()
		w.WriteHeader(http.StatusOK)
	})

	wrapped := HTTPMiddleware(reg)(handler)

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if inFlightDuringRequest != 1 {
		t.Errorf("expected in-flight to be 1 during request, got %v", inFlightDuringRequest)
	}

	mf := gatherFamily(t, reg, "http_requests_in_flight")
	if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 0 {
		t.Errorf("expected in-flight to be 0 after request, got %v", v)
	}
}

func TestHTTPMiddleware_FirstStatusWins(t *testing.T) {
	reg := NewRegistry()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	HTTPMiddleware(reg)(handler).ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/run", nil))

	mf := gatherFamily(t, reg, "http_requests_total")
	if got := labelValue(mf.GetMetric()[0], "status"); got != "4xx" {
		t.Errorf("expected status label 4xx, got %s", got)
	}
}
