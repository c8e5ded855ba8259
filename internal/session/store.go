package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Slot names the fixed hand-off keys a study session carries. They mirror the
// storage slots the web client used to pass data between views.
type Slot string

const (
	// SlotPendingSubmission holds a text/topic form submission awaiting generation.
	SlotPendingSubmission Slot = "pendingSubmission"
	// SlotGeneratedResult holds the most recent generation result.
	SlotGeneratedResult Slot = "generatedResult"
	// SlotHistorySnapshot holds a history entry selected for re-viewing.
	SlotHistorySnapshot Slot = "historySnapshot"
)

var (
	// ErrAbsent is returned when the slot holds no value.
	ErrAbsent = errors.New("session slot is empty")
	// ErrCorrupt is returned when the slot value cannot be decoded.
	// The value is removed regardless, so a reload cannot hit it again.
	ErrCorrupt = errors.New("session slot payload is corrupt")
)

// Store is an in-memory, per-session slot store. Each slot is written whole
// and consumed at most once: TakeOnce removes the value unconditionally,
// whether or not decoding succeeds.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
}

type sessionEntry struct {
	slots    map[Slot][]byte
	lastSeen time.Time
}

// NewStore creates a session store whose idle sessions expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
	}
}

// Put encodes v into the named slot, overwriting any prior value.
func (s *Store) Put(sessionID string, slot Slot, v interface{}) error {
	if sessionID == "" {
		return errors.New("sessionID must be non-empty")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode slot %s: %w", slot, err)
	}

	s.putRaw(sessionID, slot, data)
	return nil
}

// PutRaw stores pre-encoded bytes into the named slot without validation.
func (s *Store) PutRaw(sessionID string, slot Slot, data []byte) {
	s.putRaw(sessionID, slot, data)
}

func (s *Store) putRaw(sessionID string, slot Slot, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		entry = &sessionEntry{slots: make(map[Slot][]byte)}
		s.sessions[sessionID] = entry
	}

	entry.slots[slot] = data
	entry.lastSeen = time.Now()
}

// TakeOnce removes the slot value and decodes it into dst. The removal
// happens before decoding: a second call returns ErrAbsent no matter what
// the first call's consumer did with the value.
func (s *Store) TakeOnce(sessionID string, slot Slot, dst interface{}) error {
	s.mu.Lock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return ErrAbsent
	}

	data, ok := entry.slots[slot]
	delete(entry.slots, slot)
	entry.lastSeen = time.Now()
	s.mu.Unlock()

	if !ok {
		return ErrAbsent
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return nil
}

// Peek reports whether the slot currently holds a value, without consuming it.
func (s *Store) Peek(sessionID string, slot Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return false
	}

	_, ok = entry.slots[slot]
	return ok
}

// Sweep drops sessions idle longer than the store TTL and returns how many
// were removed. Wired to a cron schedule at startup.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for id, entry := range s.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed
}

// Size returns the number of live sessions.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
