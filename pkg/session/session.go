// Package session is the analyze-then-save workflow: one current image, its latest
// analysis, and whether that analysis has already been filed in the journal.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/unowned-ai/dermavision/pkg/analysis"
	"github.com/unowned-ai/dermavision/pkg/journal"
)

var (
	ErrNoImage       = errors.New("no image selected")
	ErrNothingToSave = errors.New("there is no analysis to save")
	ErrAlreadySaved  = errors.New("this analysis is already in the journal")
)

type Session struct {
	repo   *journal.Repository
	task   *analysis.Task
	logger *zap.Logger

	mu       sync.Mutex
	image    *analysis.Image
	analysis journal.SkinAnalysis
	err      error
	saved    bool
}

func New(repo *journal.Repository, analyzer analysis.Analyzer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		repo:   repo,
		task:   analysis.NewTask(analyzer, logger),
		logger: logger,
	}
}

// SetImage makes img the current photo and forgets everything about the previous one.
func (s *Session) SetImage(img analysis.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = &img
	s.analysis = nil
	s.err = nil
	s.saved = false
}

func (s *Session) ClearImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = nil
	s.analysis = nil
	s.err = nil
	s.saved = false
}

// Analyze runs the analysis for the current image and waits for it.
// A new result can be saved again even if an earlier one was.
func (s *Session) Analyze(ctx context.Context) (journal.SkinAnalysis, error) {
	s.mu.Lock()
	if s.image == nil {
		s.mu.Unlock()
		return nil, ErrNoImage
	}
	current := s.image
	s.mu.Unlock()

	result, err := s.task.Run(ctx, *current)
	if errors.Is(err, analysis.ErrTaskInFlight) {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image != current {
		// The image changed while the analysis ran; its result belongs to nobody.
		return result, err
	}
	s.err = err
	s.saved = false
	if err != nil {
		s.analysis = nil
		return nil, err
	}
	s.analysis = result
	return result, nil
}

// Save files the current analysis as a journal entry, at most once per analysis.
func (s *Session) Save(ctx context.Context) (journal.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil || s.analysis == nil {
		return journal.Entry{}, ErrNothingToSave
	}
	if s.saved {
		return journal.Entry{}, ErrAlreadySaved
	}

	entry, err := s.repo.Add(ctx, s.analysis, s.image.DataURL())
	if err != nil {
		return journal.Entry{}, fmt.Errorf("failed to save analysis: %w", err)
	}
	s.saved = true

	s.logger.Info("Analysis saved to journal", zap.Int64("id", entry.ID), zap.String("title", entry.Title))
	return entry, nil
}

func (s *Session) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// Analysis returns the latest successful analysis, or nil.
func (s *Session) Analysis() journal.SkinAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis
}

// Err returns the error of the latest analysis, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) State() analysis.State {
	return s.task.State()
}
