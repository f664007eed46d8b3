// Package apiclient talks to the backtest backend over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/strategylab/internal/backtest"
	"go.uber.org/zap"
)

// Backend endpoints
const (
	PathSignup   = "/api/v1/auth/signup"
	PathLogin    = "/api/v1/auth/login"
	PathBacktest = "/api/v1/backtest/"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 32 << 20

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email"`
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Logger    *zap.Logger
	Transport http.RoundTripper
}

// Client calls the backend. It keeps no per-call state, never retries and
// is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend at opts.BaseURL.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: requestIDTransport(loggingTransport(logger.Named("apiclient"), base)),
		},
	}
}

// Signup creates an account and returns its token.
func (c *Client) Signup(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, PathSignup, body, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, PathLogin, body, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunBacktest submits req, reshaped to the backend's wire form, with the raw
// token in the Authorization header.
func (c *Client) RunBacktest(ctx context.Context, req backtest.Request, token string) (*backtest.Result, error) {
	var out backtest.Result
	if err := c.do(ctx, PathBacktest, req.Wire(), token, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, path string, in any, token string, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &APIError{Message: MsgFallback, Cause: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &APIError{Message: MsgUnreachable, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: MsgUnreachable, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: MsgUnreachable, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: MsgBadResponse, Cause: err}
	}
	return nil
}
