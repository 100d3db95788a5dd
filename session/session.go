// Package session holds the process-wide mutable state for one
// capture -> record -> generate cycle.
//
// The store is the single schema for what the extension previously scattered
// across per-context globals. All mutation goes through Set, Reset, or
// Refresh; coordinators must treat a Snapshot as stale after any suspension
// point and re-read before acting on it.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/whispa-ai/whispad/internal/types"
)

// Partial describes a merge into the session state. Nil fields are left
// untouched.
type Partial struct {
	ActiveSurfaceID   *int
	CaptureArtifact   *string
	TranscriptText    *string
	RecordingState    *types.RecordingState
	RecorderSurfaceID *int
	RecorderWindowID  *int
}

// Store is the single writer domain for session state.
type Store struct {
	mu   sync.RWMutex
	snap types.Snapshot
}

// New creates an empty store with a fresh session id.
func New() *Store {
	return &Store{snap: emptySnapshot()}
}

func emptySnapshot() types.Snapshot {
	return types.Snapshot{
		SessionID:      uuid.NewString(),
		RecordingState: types.RecordingIdle,
	}
}

// Get returns the current snapshot.
func (s *Store) Get() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Set merges the non-nil fields of p into the session state.
func (s *Store) Set(p Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ActiveSurfaceID != nil {
		s.snap.ActiveSurfaceID = *p.ActiveSurfaceID
	}
	if p.CaptureArtifact != nil {
		s.snap.CaptureArtifact = *p.CaptureArtifact
	}
	if p.TranscriptText != nil {
		s.snap.TranscriptText = *p.TranscriptText
	}
	if p.RecordingState != nil {
		s.snap.RecordingState = *p.RecordingState
	}
	if p.RecorderSurfaceID != nil {
		s.snap.RecorderSurfaceID = *p.RecorderSurfaceID
	}
	if p.RecorderWindowID != nil {
		s.snap.RecorderWindowID = *p.RecorderWindowID
	}
}

// Reset restores every field to its absent form and starts a new session id.
// The cycle counter advances past the in-flight cycle, so late messages from
// an orphaned recorder fail the staleness check.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycle := s.snap.CycleID
	s.snap = emptySnapshot()
	s.snap.CycleID = cycle + 1
}

// Refresh clears the per-cycle fields but keeps the active surface, so the
// overlay stays attached while the user starts over. Like Reset it advances
// the cycle counter to orphan any in-flight recorder.
func (s *Store) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.snap.ActiveSurfaceID
	cycle := s.snap.CycleID
	s.snap = emptySnapshot()
	s.snap.ActiveSurfaceID = active
	s.snap.CycleID = cycle + 1
}

// BeginCycle advances the cycle counter and returns the new id. Every
// coordination message sent to a surface carries the id; replies with an
// older id are discarded.
func (s *Store) BeginCycle() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.CycleID++
	return s.snap.CycleID
}

// Stale reports whether cycle belongs to a superseded coordination cycle.
func (s *Store) Stale(cycle uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cycle < s.snap.CycleID
}

// Corrupted reports the invariant violation of being in the Recording state
// with no recorder surface recorded.
func (s *Store) Corrupted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.RecordingState == types.RecordingActive && s.snap.RecorderSurfaceID == 0
}

// Helpers for building Partial literals.

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Str returns a pointer to v.
func Str(v string) *string { return &v }

// State returns a pointer to v.
func State(v types.RecordingState) *types.RecordingState { return &v }
