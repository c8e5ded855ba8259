package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studygeni/study-gateway/internal/logger"
)

// ErrNoOwner is returned when a history operation is attempted without a
// signed-in user. The backend is never contacted in that case.
var ErrNoOwner = errors.New("history requires a signed-in user")

// FetchError wraps a backend failure during listing. Previously loaded
// entries stay untouched when it occurs.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch history: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Backend is the persistence layer behind the history service.
type Backend interface {
	Append(ctx context.Context, ownerID string, entry *Entry) (string, error)
	List(ctx context.Context, ownerID string) ([]*Entry, error)
	Get(ctx context.Context, ownerID, entryID string) (*Entry, error)
}

// Service keeps a per-owner in-memory view of the history log. The view is a
// cache, not the source of truth: a fresh List replaces it wholesale with
// server-confirmed ordering, displacing any optimistic entries.
type Service struct {
	backend Backend
	logger  *logger.Logger

	mu     sync.Mutex
	owners map[string]*ownerState
}

type ownerState struct {
	state   FetchState
	entries []*Entry
	lastErr string
}

// NewService creates a new history service.
func NewService(backend Backend, logger *logger.Logger) *Service {
	return &Service{
		backend: backend,
		logger:  logger,
		owners:  make(map[string]*ownerState),
	}
}

func (s *Service) owner(ownerID string) *ownerState {
	state, ok := s.owners[ownerID]
	if !ok {
		state = &ownerState{state: StateIdle}
		s.owners[ownerID] = state
	}
	return state
}

// List fetches the owner's entries newest-first. On backend failure the
// previously loaded entries are returned alongside the recorded error.
func (s *Service) List(ctx context.Context, ownerID string) (*ListResponse, error) {
	log := s.logger.WithContext(ctx).WithComponent("history-service")

	if ownerID == "" {
		return &ListResponse{State: StateErrored, Error: ErrNoOwner.Error()}, ErrNoOwner
	}

	s.mu.Lock()
	state := s.owner(ownerID)
	state.state = StateLoading
	s.mu.Unlock()

	entries, err := s.backend.List(ctx, ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		log.Error("failed to list history",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID))
		state.state = StateErrored
		state.lastErr = err.Error()
		return &ListResponse{
			Entries: state.entries,
			State:   StateErrored,
			Error:   state.lastErr,
		}, &FetchError{Err: err}
	}

	state.state = StateReady
	state.lastErr = ""
	state.entries = entries

	log.Info("history listed",
		slog.String("owner_id", ownerID),
		slog.Int("count", len(entries)))

	return &ListResponse{Entries: entries, State: StateReady}, nil
}

// Append persists the entry and optimistically prepends a locally-stamped
// copy to the in-memory view before the server timestamp is confirmed. The
// returned ID identifies the persisted document; a failure here is non-fatal
// to the caller's flow.
func (s *Service) Append(ctx context.Context, ownerID string, entry *Entry) (string, error) {
	log := s.logger.WithContext(ctx).WithComponent("history-service")

	if ownerID == "" {
		return "", ErrNoOwner
	}

	id, err := s.backend.Append(ctx, ownerID, entry)
	if err != nil {
		log.Error("failed to append history entry",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID))
		return "", err
	}

	// Display-only approximation of the server timestamp. The next List
	// call is the authority and replaces this copy.
	optimistic := *entry
	optimistic.ID = id
	optimistic.OwnerID = ownerID
	optimistic.CreatedAt = time.Now()

	s.mu.Lock()
	state := s.owner(ownerID)
	state.entries = append([]*Entry{&optimistic}, state.entries...)
	s.mu.Unlock()

	log.Info("history entry appended",
		slog.String("owner_id", ownerID),
		slog.String("entry_id", id),
		slog.String("input_type", string(entry.InputType)))

	return id, nil
}

// Get retrieves a single entry for re-viewing.
func (s *Service) Get(ctx context.Context, ownerID, entryID string) (*Entry, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}

	return s.backend.Get(ctx, ownerID, entryID)
}

// State returns the owner's current fetch state.
func (s *Service) State(ownerID string) FetchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.owners[ownerID]
	if !ok {
		return StateIdle
	}
	return state.state
}
