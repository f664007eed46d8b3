// Package analytics forwards product events to an external collector.
package analytics

import "context"

// EventBacktestRun is captured for every accepted backtest submission.
const EventBacktestRun = "backtest_run"

// Collector receives identity and usage events. Implementations never fail
// the caller; delivery problems are logged.
type Collector interface {
	// Identify associates the distinct id with the given person properties
	Identify(ctx context.Context, distinctID string, props map[string]any)

	// Reset forgets the identity bound to the distinct id
	Reset(ctx context.Context, distinctID string)

	// Capture records a named event
	Capture(ctx context.Context, distinctID, event string, props map[string]any)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Identify(context.Context, string, map[string]any)        {}
func (Nop) Reset(context.Context, string)                           {}
func (Nop) Capture(context.Context, string, string, map[string]any) {}
