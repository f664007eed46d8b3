// Package workspace holds the backtest page state of each signed-in session
// and runs submitted backtests in the background.
package workspace

import (
	"context"
	"time"

	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/table"
)

// Phase is where a workspace is in the submit/result cycle.
type Phase string

const (
	PhaseForm    Phase = "form"
	PhaseRunning Phase = "running"
	PhaseResult  Phase = "result"
	PhaseFailed  Phase = "failed"
)

// Runner executes one backtest against the backend.
type Runner interface {
	RunBacktest(ctx context.Context, req backtest.Request, token string) (*backtest.Result, error)
}

// Recorder receives run metrics. *metrics.Registry satisfies it.
type Recorder interface {
	RunStarted()
	RecordBacktest(status string, duration float64)
	SetWorkspaces(count int)
}

type nopRecorder struct{}

func (nopRecorder) RunStarted()                    {}
func (nopRecorder) RecordBacktest(string, float64) {}
func (nopRecorder) SetWorkspaces(int)              {}

// Snapshot is a copy of a workspace, safe to read without locks.
type Snapshot struct {
	SessionID string           `json:"-"`
	Phase     Phase            `json:"phase"`
	RunID     string           `json:"run_id,omitempty"`
	Form      *backtest.Form   `json:"-"`
	Submitted backtest.Request `json:"request"`
	Result    *backtest.Result `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	Table     table.State      `json:"-"`
	StartedAt time.Time        `json:"started_at,omitzero"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Busy reports whether a run is awaiting the backend.
func (s Snapshot) Busy() bool {
	return s.Phase == PhaseRunning
}

// workspace is the mutable state behind a Snapshot.
type workspace struct {
	Snapshot
	cancel   context.CancelFunc
	lastSeen time.Time
}

func (w *workspace) snapshot() Snapshot {
	s := w.Snapshot
	s.Form = w.Form.Clone()
	s.Table = cloneTable(w.Table)
	return s
}

func cloneTable(s table.State) table.State {
	c := s
	c.Hidden = make(map[string]bool, len(s.Hidden))
	for k, v := range s.Hidden {
		c.Hidden[k] = v
	}
	c.Selected = make(map[int]bool, len(s.Selected))
	for k, v := range s.Selected {
		c.Selected[k] = v
	}
	return c
}
