package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unowned-ai/dermavision/pkg/journal"
)

// State is where a Task is in its life.
type State int

const (
	StateIdle State = iota
	StateInFlight
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInFlight:
		return "in-flight"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrTaskInFlight   = errors.New("an analysis is already in progress")
	ErrTaskNotStarted = errors.New("no analysis has been started")
)

// Task runs one analysis at a time and exposes its progress.
// A run cannot be cancelled once started; the context given to Start is handed
// to the transport as is.
type Task struct {
	analyzer Analyzer
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	result    journal.SkinAnalysis
	err       error
	requestID uuid.UUID
	done      chan struct{}
}

func NewTask(analyzer Analyzer, logger *zap.Logger) *Task {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Task{analyzer: analyzer, logger: logger}
}

// Start begins analysing img in the background.
// It returns ErrTaskInFlight while a previous run is still going.
func (t *Task) Start(ctx context.Context, img Image) error {
	t.mu.Lock()
	if t.state == StateInFlight {
		t.mu.Unlock()
		return ErrTaskInFlight
	}
	t.state = StateInFlight
	t.result = nil
	t.err = nil
	t.requestID = uuid.New()
	done := make(chan struct{})
	t.done = done
	requestID := t.requestID
	t.mu.Unlock()

	logger := t.logger.With(zap.String("request_id", requestID.String()))
	logger.Info("Analysis started", zap.String("mime_type", img.MIMEType), zap.Int("bytes", len(img.Data)))

	go func() {
		start := time.Now()
		result, err := t.analyzer.Analyze(ctx, img)

		t.mu.Lock()
		if err != nil {
			t.state = StateFailed
			t.err = err
		} else {
			t.state = StateResolved
			t.result = result
		}
		close(done)
		t.mu.Unlock()

		if err != nil {
			logger.Warn("Analysis failed", zap.Duration("took", time.Since(start)), zap.Error(err))
			return
		}
		logger.Info("Analysis finished", zap.Duration("took", time.Since(start)), zap.Int("issues", len(result)))
	}()
	return nil
}

// Wait blocks until the current run settles or ctx ends, then returns its outcome.
// Giving up on Wait does not stop the run.
func (t *Task) Wait(ctx context.Context) (journal.SkinAnalysis, error) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return nil, ErrTaskNotStarted
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return t.Result()
}

// Run starts an analysis and waits for it.
func (t *Task) Run(ctx context.Context, img Image) (journal.SkinAnalysis, error) {
	if err := t.Start(ctx, img); err != nil {
		return nil, err
	}
	return t.Wait(ctx)
}

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result returns the outcome of the last settled run.
func (t *Task) Result() (journal.SkinAnalysis, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateIdle:
		return nil, ErrTaskNotStarted
	case StateInFlight:
		return nil, ErrTaskInFlight
	}
	return t.result, t.err
}

// RequestID identifies the latest run in logs.
func (t *Task) RequestID() uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requestID
}
