package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/strategylab/internal/analytics"
	"github.com/newthinker/strategylab/internal/apiclient"
	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/session"
	"github.com/newthinker/strategylab/internal/table"
	"go.uber.org/zap"
)

// Options bounds the store.
type Options struct {
	MaxSize    int
	TTL        time.Duration
	RunTimeout time.Duration
	PageSize   int
}

// Store keeps one workspace per session id.
type Store struct {
	runner    Runner
	collector analytics.Collector
	recorder  Recorder
	logger    *zap.Logger
	opts      Options
	now       func() time.Time

	mu    sync.Mutex
	items map[string]*workspace
	order []string // creation order for eviction
	runs  sync.WaitGroup
}

// NewStore creates a store. Nil collector and recorder are allowed.
func NewStore(runner Runner, opts Options, collector analytics.Collector, recorder Recorder, logger *zap.Logger) *Store {
	if collector == nil {
		collector = analytics.Nop{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxSize < 1 {
		opts.MaxSize = 1000
	}
	if opts.PageSize < 1 {
		opts.PageSize = 10
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 5 * time.Minute
	}
	return &Store{
		runner:    runner,
		collector: collector,
		recorder:  recorder,
		logger:    logger.Named("workspace"),
		opts:      opts,
		now:       time.Now,
		items:     make(map[string]*workspace),
	}
}

// getLocked returns the workspace for id, creating it if needed.
func (s *Store) getLocked(id string) *workspace {
	now := s.now()
	if w, ok := s.items[id]; ok {
		w.lastSeen = now
		return w
	}

	if len(s.items) >= s.opts.MaxSize && len(s.order) > 0 {
		s.removeLocked(s.order[0])
	}

	w := &workspace{
		Snapshot: Snapshot{
			SessionID: id,
			Phase:     PhaseForm,
			Form:      backtest.NewForm(),
			Table:     table.NewState(s.opts.PageSize),
			UpdatedAt: now,
		},
		lastSeen: now,
	}
	s.items[id] = w
	s.order = append(s.order, id)
	s.recorder.SetWorkspaces(len(s.items))
	return w
}

func (s *Store) removeLocked(id string) {
	w, ok := s.items[id]
	if !ok {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.recorder.SetWorkspaces(len(s.items))
}

// Get returns the workspace for id, creating a fresh one on first use.
func (s *Store) Get(id string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id).snapshot()
}

// SetField edits one form field. The field's error, if any, is cleared.
func (s *Store) SetField(id string, field backtest.Field, raw string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.getLocked(id)
	if err := w.Form.Set(field, raw); err != nil {
		return w.snapshot(), core.WrapError(core.ErrValidation, err)
	}
	w.UpdatedAt = s.now()
	return w.snapshot(), nil
}

// Submit validates the draft and, when valid, starts a run. Any earlier run
// is cancelled and its outcome will be discarded. The returned bool is false
// when validation blocked the submission. The run keeps the values of ctx,
// such as the request id, but not its cancellation.
func (s *Store) Submit(ctx context.Context, id string, sess session.Session) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.getLocked(id)
	req, ok := w.Form.Submit()
	if !ok {
		return w.snapshot(), false
	}

	if w.cancel != nil {
		w.cancel()
	}

	runID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.RunTimeout)
	now := s.now()

	w.cancel = cancel
	w.RunID = runID
	w.Phase = PhaseRunning
	w.Submitted = req
	w.Result = nil
	w.Error = ""
	w.Table = table.NewState(s.opts.PageSize)
	w.StartedAt = now
	w.UpdatedAt = now

	s.collector.Capture(ctx, sess.Email, analytics.EventBacktestRun, map[string]any{
		"ticker":     req.Ticker,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"user_email": sess.Email,
	})

	s.recorder.RunStarted()
	s.runs.Add(1)
	go s.run(ctx, cancel, id, runID, req, sess.AccessToken)

	s.logger.Info("backtest started",
		zap.String("run_id", runID),
		zap.String("ticker", req.Ticker))

	return w.snapshot(), true
}

func (s *Store) run(ctx context.Context, cancel context.CancelFunc, id, runID string, req backtest.Request, token string) {
	defer s.runs.Done()
	defer cancel()

	start := time.Now()
	result, err := s.runner.RunBacktest(ctx, req, token)
	duration := time.Since(start).Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.items[id]
	if !ok || w.RunID != runID {
		s.recorder.RecordBacktest("discarded", duration)
		s.logger.Debug("discarding superseded run", zap.String("run_id", runID))
		return
	}

	w.cancel = nil
	w.UpdatedAt = s.now()
	if err != nil {
		w.Phase = PhaseFailed
		w.Error = errorMessage(err)
		s.recorder.RecordBacktest("failed", duration)
		s.logger.Warn("backtest failed",
			zap.String("run_id", runID),
			zap.Error(err))
		return
	}

	w.Phase = PhaseResult
	w.Result = result
	s.recorder.RecordBacktest("success", duration)
	s.logger.Info("backtest finished",
		zap.String("run_id", runID),
		zap.Int("trades", len(result.TradeHistory)))
}

func errorMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Failed to run backtest"
}

// ApplyTable runs one table action against the current result.
func (s *Store) ApplyTable(id string, action table.Action) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.getLocked(id)
	if w.Result == nil {
		return w.snapshot(), core.ErrNoResult
	}
	w.Table = backtest.NewTradeTable(w.Result).Reduce(w.Table, action)
	w.UpdatedAt = s.now()
	return w.snapshot(), nil
}

// Export returns the trades to download: the selected trades passing the
// current filter, or all trades when there are none.
func (s *Store) Export(id string) ([]backtest.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.items[id]
	if !ok || w.Result == nil {
		return nil, core.ErrNoResult
	}
	return backtest.NewTradeTable(w.Result).Export(w.Table), nil
}

// Discard cancels any run and forgets the workspace. Its signature matches
// session.TeardownFunc.
func (s *Store) Discard(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// Sweep drops workspaces idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	if s.opts.TTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.opts.TTL)
	var stale []string
	for id, w := range s.items {
		if w.lastSeen.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		s.removeLocked(id)
	}
	return len(stale)
}

// Run sweeps periodically until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug("swept idle workspaces", zap.Int("count", n))
			}
		}
	}
}

// Len returns the number of live workspaces.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Wait blocks until all started runs have returned.
func (s *Store) Wait() {
	s.runs.Wait()
}

// Close cancels every run and waits for them.
func (s *Store) Close() {
	s.mu.Lock()
	for _, w := range s.items {
		if w.cancel != nil {
			w.cancel()
		}
	}
	s.mu.Unlock()
	s.Wait()
}
