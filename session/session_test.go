package session

import (
	"testing"

	"github.com/whispa-ai/whispad/internal/types"
)

func populate(s *Store) {
	s.Set(Partial{
		ActiveSurfaceID:   Int(7),
		CaptureArtifact:   Str("data:image/png;base64,xxxx"),
		TranscriptText:    Str("hello"),
		RecordingState:    State(types.RecordingActive),
		RecorderSurfaceID: Int(12),
		RecorderWindowID:  Int(13),
	})
}

func TestReset(t *testing.T) {
	tests := []struct {
		name string
		prep func(s *Store)
	}{
		{name: "empty store", prep: func(s *Store) {}},
		{name: "fully populated", prep: populate},
		{
			name: "populated twice with cycles in between",
			prep: func(s *Store) {
				populate(s)
				s.BeginCycle()
				populate(s)
				s.BeginCycle()
			},
		},
		{
			name: "reset then repopulated",
			prep: func(s *Store) {
				populate(s)
				s.Reset()
				populate(s)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			tt.prep(s)
			before := s.Get()
			s.Reset()
			snap := s.Get()

			if snap.ActiveSurfaceID != 0 || snap.CaptureArtifact != "" || snap.TranscriptText != "" {
				t.Errorf("reset left fields populated: %+v", snap)
			}
			if snap.RecordingState != types.RecordingIdle {
				t.Errorf("recording state = %q, want idle", snap.RecordingState)
			}
			if snap.RecorderSurfaceID != 0 || snap.RecorderWindowID != 0 {
				t.Errorf("recorder ids survived reset: %+v", snap)
			}
			if snap.SessionID == "" || snap.SessionID == before.SessionID {
				t.Errorf("reset must start a fresh session id")
			}
			if snap.CycleID <= before.CycleID {
				t.Errorf("reset must advance the cycle counter: got %d, had %d", snap.CycleID, before.CycleID)
			}
			if !s.Stale(before.CycleID) {
				t.Errorf("cycle %d still current after reset", before.CycleID)
			}
		})
	}
}

func TestRefreshKeepsActiveSurface(t *testing.T) {
	s := New()
	populate(s)
	cycle := s.BeginCycle()
	s.Refresh()

	snap := s.Get()
	if snap.ActiveSurfaceID != 7 {
		t.Errorf("active surface = %d, want 7", snap.ActiveSurfaceID)
	}
	if !s.Stale(cycle) {
		t.Errorf("cycle %d still current after refresh", cycle)
	}
	if snap.CaptureArtifact != "" || snap.TranscriptText != "" {
		t.Errorf("refresh left cycle fields populated: %+v", snap)
	}
	if snap.RecordingState != types.RecordingIdle {
		t.Errorf("recording state = %q, want idle", snap.RecordingState)
	}
}

func TestSetMergesOnlyProvidedFields(t *testing.T) {
	s := New()
	populate(s)

	s.Set(Partial{TranscriptText: Str("updated")})

	snap := s.Get()
	if snap.TranscriptText != "updated" {
		t.Errorf("transcript = %q, want %q", snap.TranscriptText, "updated")
	}
	if snap.CaptureArtifact == "" || snap.ActiveSurfaceID != 7 {
		t.Errorf("merge disturbed unrelated fields: %+v", snap)
	}
}

func TestCycleStaleness(t *testing.T) {
	s := New()

	first := s.BeginCycle()
	second := s.BeginCycle()

	if second <= first {
		t.Fatalf("cycle ids must increase: %d then %d", first, second)
	}
	if !s.Stale(first) {
		t.Errorf("cycle %d should be stale after %d began", first, second)
	}
	if s.Stale(second) {
		t.Errorf("current cycle %d reported stale", second)
	}
}

func TestCorrupted(t *testing.T) {
	s := New()
	if s.Corrupted() {
		t.Fatal("fresh store reported corrupted")
	}

	s.Set(Partial{RecordingState: State(types.RecordingActive)})
	if !s.Corrupted() {
		t.Error("recording without recorder surface must report corruption")
	}

	s.Set(Partial{RecorderSurfaceID: Int(42)})
	if s.Corrupted() {
		t.Error("recording with recorder surface is legal")
	}
}
