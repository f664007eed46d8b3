package apiclient

import (
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/strategylab/internal/metrics"
	"go.uber.org/zap"
)

// roundTripperFunc adapts a function to http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// loggingTransport logs every outbound call. Sensitive headers are redacted.
func loggingTransport(logger *zap.Logger, next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		logger.Debug("backend request",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Strings("headers", headerSummary(req.Header)))

		start := time.Now()
		resp, err := next.RoundTrip(req)
		duration := time.Since(start)

		if err != nil {
			logger.Warn("backend request failed",
				zap.String("method", req.Method),
				zap.String("url", req.URL.String()),
				zap.Duration("duration", duration),
				zap.Error(err))
			return resp, err
		}

		level := zap.DebugLevel
		switch {
		case resp.StatusCode >= 500:
			level = zap.ErrorLevel
		case resp.StatusCode >= 400:
			level = zap.WarnLevel
		}
		logger.Check(level, "backend response").Write(
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration))

		return resp, nil
	})
}

// requestIDTransport forwards the inbound request id to the backend.
func requestIDTransport(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if id := metrics.RequestIDFromContext(req.Context()); id != "" && req.Header.Get("X-Request-ID") == "" {
			req = req.Clone(req.Context())
			req.Header.Set("X-Request-ID", id)
		}
		return next.RoundTrip(req)
	})
}

var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"x-api-key":     true,
}

func headerSummary(h http.Header) []string {
	out := make([]string, 0, len(h))
	for k, v := range h {
		if sensitiveHeaders[strings.ToLower(k)] {
			out = append(out, k+": [REDACTED]")
			continue
		}
		out = append(out, k+": "+strings.Join(v, ", "))
	}
	return out
}
