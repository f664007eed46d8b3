package apiclient

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newthinker/strategylab/internal/core"
)

// Messages used when the backend gives nothing better.
const (
	MsgFallback    = "An error occurred"
	MsgUnreachable = "unable to reach backtest service"
	MsgBadResponse = "invalid response from backtest service"
)

// APIError is the single failure type returned by Client. Status is 0 when
// no HTTP response was received.
type APIError struct {
	Status  int
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is matches core.ErrBackendUnreachable when no response arrived and
// core.ErrBackendFailed otherwise.
func (e *APIError) Is(target error) bool {
	switch target {
	case core.ErrBackendUnreachable:
		return e.Status == 0
	case core.ErrBackendFailed:
		return e.Status != 0
	}
	return false
}

// errorMessage extracts a human-readable message from a non-2xx body.
// FastAPI sends detail as a string for handled errors and as a list of
// {loc, msg, type} objects for request validation errors.
func errorMessage(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return MsgFallback
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		if text == "" {
			return MsgFallback
		}
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return MsgFallback
}
