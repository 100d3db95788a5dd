// Package types provides shared type definitions for the application.
package types

// RecordingState models the recorder lifecycle.
type RecordingState string

const (
	RecordingIdle         RecordingState = "idle"
	RecordingAwaitingPerm RecordingState = "awaiting_permission"
	RecordingActive       RecordingState = "recording"
	RecordingStopping     RecordingState = "stopping"
)

// NoteMode selects the note-generation style requested from the remote model.
type NoteMode string

const (
	NoteModeGeneral NoteMode = "general"
	NoteModeBug     NoteMode = "bug"
	NoteModeUX      NoteMode = "ux"
	NoteModeFeature NoteMode = "feature"
)

// ValidNoteMode reports whether m is one of the supported modes.
func ValidNoteMode(m NoteMode) bool {
	switch m {
	case NoteModeGeneral, NoteModeBug, NoteModeUX, NoteModeFeature:
		return true
	}
	return false
}

// Snapshot is a point-in-time copy of the session state. Readers must treat
// a snapshot as stale once any concurrent mutation may have occurred.
type Snapshot struct {
	SessionID         string         `json:"sessionId"`
	CycleID           uint64         `json:"cycleId"`
	ActiveSurfaceID   int            `json:"activeSurfaceId"`
	CaptureArtifact   string         `json:"captureArtifact,omitempty"`
	TranscriptText    string         `json:"transcriptText,omitempty"`
	RecordingState    RecordingState `json:"recordingState"`
	RecorderSurfaceID int            `json:"recorderSurfaceId,omitempty"`
	RecorderWindowID  int            `json:"recorderWindowId,omitempty"`
}

// Profile holds the authenticated user's profile as returned by the API.
type Profile struct {
	FullName    string `json:"full_name"`
	PrivacyMode bool   `json:"privacy_mode"`
}

// TrackerSettings configures third-party issue tracker integration.
type TrackerSettings struct {
	APIKey   string   `json:"api_key,omitempty"`
	TeamID   string   `json:"team_id,omitempty"`
	LabelIDs []string `json:"label_ids,omitempty"`
}

// IssueFields describes an issue to file in the tracker.
type IssueFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	TeamID      string   `json:"team_id"`
	APIKey      string   `json:"linear_api_key"`
	LabelIDs    []string `json:"label_ids"`
}

// Note is one generated note kept in the per-cycle snapshot cache.
type Note struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
}
