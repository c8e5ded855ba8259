package results

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/studygeni/study-gateway/internal/history"
	"github.com/studygeni/study-gateway/internal/logger"
	"github.com/studygeni/study-gateway/internal/metrics"
	"github.com/studygeni/study-gateway/internal/session"
	"github.com/studygeni/study-gateway/internal/studymaterial"
)

// ErrNoData means no source could supply a result for the results view.
var ErrNoData = errors.New("no study material available to display")

// Invoker is the generation backend surface the service needs.
type Invoker interface {
	Generate(ctx context.Context, req *studymaterial.GenerateRequest) (*studymaterial.Result, error)
	GenerateFromFile(ctx context.Context, req *studymaterial.FileRequest) (*studymaterial.Result, error)
}

// Service coordinates the study flow: it runs generations through the single
// invoker path for all three input variants, records history for signed-in
// users, and resolves what the results view should display.
type Service struct {
	invoker  Invoker
	history  *history.Service
	sessions *session.Store
	logger   *logger.Logger
}

// NewService creates a new results service.
func NewService(invoker Invoker, historyService *history.Service, sessions *session.Store, logger *logger.Logger) *Service {
	return &Service{
		invoker:  invoker,
		history:  historyService,
		sessions: sessions,
		logger:   logger,
	}
}

// Generate validates and runs a text/topic generation, appending to history
// when a user is signed in. History failure never fails the generation.
func (s *Service) Generate(ctx context.Context, userID string, req *studymaterial.GenerateRequest) (*ViewData, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	method := string(req.InputMethod)
	start := time.Now()

	result, err := s.invoker.Generate(ctx, req)
	metrics.GenerationDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(method, "error").Inc()
		return nil, err
	}
	metrics.GenerationsTotal.WithLabelValues(method, "success").Inc()

	view := &ViewData{
		Source: SourceGenerated,
		Result: result,
	}

	s.recordHistory(ctx, userID, &history.Entry{
		InputType:       req.InputMethod,
		InputDetail:     req.InputDetail(),
		Purpose:         req.Purpose,
		DifficultyLevel: req.DifficultyLevel,
		Summary:         result.Summary,
		Flashcards:      result.Flashcards,
		Quiz:            result.Quiz,
	}, view)

	return view, nil
}

// GenerateFromFile validates and runs a file generation through the same
// result-handling path as the text and topic variants.
func (s *Service) GenerateFromFile(ctx context.Context, userID string, req *studymaterial.FileRequest) (*ViewData, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	result, err := s.invoker.GenerateFromFile(ctx, req)
	metrics.GenerationDuration.WithLabelValues(string(studymaterial.InputMethodFile)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(string(studymaterial.InputMethodFile), "error").Inc()
		return nil, err
	}
	metrics.GenerationsTotal.WithLabelValues(string(studymaterial.InputMethodFile), "success").Inc()

	view := &ViewData{
		Source: SourceGenerated,
		Result: result,
	}

	s.recordHistory(ctx, userID, &history.Entry{
		InputType:       studymaterial.InputMethodFile,
		InputDetail:     req.Filename,
		Purpose:         req.Purpose,
		DifficultyLevel: req.DifficultyLevel,
		Summary:         result.Summary,
		Flashcards:      result.Flashcards,
		Quiz:            result.Quiz,
	}, view)

	return view, nil
}

// recordHistory appends the generation to the user's history log. Signed-out
// users are skipped silently; failures are reported on the view but leave the
// displayed result intact.
func (s *Service) recordHistory(ctx context.Context, userID string, entry *history.Entry, view *ViewData) {
	if userID == "" {
		return
	}

	log := s.logger.WithContext(ctx).WithComponent("results-service")

	id, err := s.history.Append(ctx, userID, entry)
	if err != nil {
		metrics.HistoryAppendsTotal.WithLabelValues("error").Inc()
		log.Error("failed to persist history entry", slog.String("error", err.Error()))
		view.HistoryError = "failed to save to history"
		return
	}

	metrics.HistoryAppendsTotal.WithLabelValues("success").Inc()
	view.HistoryID = id
}

// StagePending stores a validated text/topic submission for a later results
// view to pick up and run.
func (s *Service) StagePending(sessionID string, req *studymaterial.GenerateRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	return s.sessions.Put(sessionID, session.SlotPendingSubmission, req)
}

// StageResult stores a generation result into the session's cache slot,
// overwriting any prior value.
func (s *Service) StageResult(sessionID string, result *studymaterial.Result) error {
	return s.sessions.Put(sessionID, session.SlotGeneratedResult, result)
}

// Resolve decides what the results view displays, in fixed priority order:
// an explicitly selected history snapshot, then the cached generation result,
// then a pending submission (invoked now), else no data. Every slot read is
// consume-once: the value is removed whether or not it decodes.
func (s *Service) Resolve(ctx context.Context, sessionID, userID string) (*ViewData, error) {
	log := s.logger.WithContext(ctx).WithComponent("results-service")

	// 1. Selected history snapshot.
	var entry history.Entry
	err := s.sessions.TakeOnce(sessionID, session.SlotHistorySnapshot, &entry)
	switch {
	case err == nil:
		return &ViewData{
			Source: SourceHistory,
			Result: entry.Result(),
			Entry:  &entry,
		}, nil
	case errors.Is(err, session.ErrCorrupt):
		// Slot already removed; surface the parse failure rather than
		// silently falling through to an unrelated source.
		log.Error("corrupt history snapshot discarded", slog.String("error", err.Error()))
		return nil, &studymaterial.ParseError{Err: err}
	}

	// 2. Cached generation result.
	var result studymaterial.Result
	err = s.sessions.TakeOnce(sessionID, session.SlotGeneratedResult, &result)
	switch {
	case err == nil:
		return &ViewData{
			Source: SourceCache,
			Result: &result,
		}, nil
	case errors.Is(err, session.ErrCorrupt):
		log.Error("corrupt cached result discarded", slog.String("error", err.Error()))
		return nil, &studymaterial.ParseError{Err: err}
	}

	// 3. Pending form submission (text/topic only).
	var pending studymaterial.GenerateRequest
	err = s.sessions.TakeOnce(sessionID, session.SlotPendingSubmission, &pending)
	switch {
	case err == nil:
		return s.Generate(ctx, userID, &pending)
	case errors.Is(err, session.ErrCorrupt):
		log.Error("corrupt pending submission discarded", slog.String("error", err.Error()))
		return nil, &studymaterial.ParseError{Err: err}
	}

	// 4. Nothing to show.
	return nil, ErrNoData
}
