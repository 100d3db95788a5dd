// Package protocol defines the closed message vocabulary exchanged between
// the coordination core and the browser surfaces. Messages are JSON envelopes
// with a kind tag and a cycle id; Decode yields the typed variant so the
// dispatcher's legal inputs are exhaustive.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/whispa-ai/whispad/internal/types"
)

// Kind tags one message variant.
type Kind string

// Overlay and popup -> host.
const (
	KindAttach              Kind = "attach"
	KindRequestCapture      Kind = "request_capture"
	KindRequestRecordToggle Kind = "request_record_toggle"
	KindGenerateNotes       Kind = "generate_notes"
	KindCreateIssue         Kind = "create_issue"
	KindGetCaptureData      Kind = "get_capture_data"
	KindGetLastNote         Kind = "get_last_note"
	KindRefresh             Kind = "refresh"
	KindDismiss             Kind = "dismiss"
	KindLogin               Kind = "login"
	KindRegister            Kind = "register"
	KindValidateToken       Kind = "validate_token"
)

// Recorder surface -> host.
const (
	KindRecordingStarted Kind = "recording_started"
	KindRecordingError   Kind = "recording_error"
	KindAudioReady       Kind = "audio_ready"
	KindStopAck          Kind = "stop_ack"
)

// Host -> recorder surface.
const (
	KindStopRecording Kind = "stop_recording"
)

// Envelope frames one message on the wire.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Cycle   uint64          `json:"cycle,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is implemented by every typed variant.
type Message interface {
	Kind() Kind
}

// Attach binds the session to the surface the overlay was activated on.
type Attach struct {
	SurfaceID int `json:"surfaceId"`
}

// RequestCapture asks the host to capture the active surface.
type RequestCapture struct{}

// RequestRecordToggle starts a recording, or stops the one in flight.
type RequestRecordToggle struct{}

// GenerateNotes asks for note generation in the given mode.
type GenerateNotes struct {
	Mode types.NoteMode `json:"mode"`
}

// CreateIssue files the generated note in the issue tracker.
type CreateIssue struct {
	Fields types.IssueFields `json:"fields"`
}

// GetCaptureData re-fetches the current cycle's inputs, falling back to the
// snapshot cache when the session is empty. The overlay uses it to restore
// its view after a reload.
type GetCaptureData struct{}

// GetLastNote fetches the most recent generated note from the snapshot
// cache. The popup uses it to re-show the last result.
type GetLastNote struct{}

// Refresh clears the per-cycle state but keeps the overlay attached.
type Refresh struct{}

// Dismiss tears down the overlay and resets the session.
type Dismiss struct{}

// Login exchanges credentials for a bearer token.
type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and logs in.
type Register struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// ValidateToken checks whether the stored token is still accepted.
type ValidateToken struct {
	Token string `json:"token"`
}

// RecordingStarted is sent by the recorder surface once the microphone
// stream is live.
type RecordingStarted struct {
	OwnerSurfaceID int `json:"originalTabId"`
}

// RecordingError is sent by the recorder surface when microphone acquisition
// fails. PermissionDenied distinguishes a user decline from other faults.
type RecordingError struct {
	Reason           string `json:"reason"`
	PermissionDenied bool   `json:"permissionDenied"`
}

// AudioReady relays the finalized recording. Base64 is a data URL
// ("data:audio/<ext>;base64,...") and Extension the recorder's negotiated
// container format.
type AudioReady struct {
	Base64    string `json:"audioBase64"`
	Extension string `json:"audioExtension"`
}

// StopAck acknowledges a StopRecording command. The audio payload follows as
// a separate AudioReady message.
type StopAck struct {
	OK bool `json:"ok"`
}

// StopRecording commands the recorder surface to finalize and relay.
type StopRecording struct{}

func (Attach) Kind() Kind              { return KindAttach }
func (RequestCapture) Kind() Kind      { return KindRequestCapture }
func (RequestRecordToggle) Kind() Kind { return KindRequestRecordToggle }
func (GenerateNotes) Kind() Kind       { return KindGenerateNotes }
func (CreateIssue) Kind() Kind         { return KindCreateIssue }
func (GetCaptureData) Kind() Kind      { return KindGetCaptureData }
func (GetLastNote) Kind() Kind         { return KindGetLastNote }
func (Refresh) Kind() Kind             { return KindRefresh }
func (Dismiss) Kind() Kind             { return KindDismiss }
func (Login) Kind() Kind               { return KindLogin }
func (Register) Kind() Kind            { return KindRegister }
func (ValidateToken) Kind() Kind       { return KindValidateToken }
func (RecordingStarted) Kind() Kind    { return KindRecordingStarted }
func (RecordingError) Kind() Kind      { return KindRecordingError }
func (AudioReady) Kind() Kind          { return KindAudioReady }
func (StopAck) Kind() Kind             { return KindStopAck }
func (StopRecording) Kind() Kind       { return KindStopRecording }

// Encode wraps msg in an envelope stamped with cycle.
func Encode(msg Message, cycle uint64) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{Kind: msg.Kind(), Cycle: cycle, Payload: payload}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// Decode parses one envelope and returns its typed variant.
func Decode(data []byte) (Message, uint64, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("unmarshal envelope: %w", err)
	}
	msg, err := decodePayload(env.Kind, env.Payload)
	if err != nil {
		return nil, 0, err
	}
	return msg, env.Cycle, nil
}

func decodePayload(kind Kind, payload json.RawMessage) (Message, error) {
	var msg Message
	switch kind {
	case KindAttach:
		msg = &Attach{}
	case KindRequestCapture:
		msg = &RequestCapture{}
	case KindRequestRecordToggle:
		msg = &RequestRecordToggle{}
	case KindGenerateNotes:
		msg = &GenerateNotes{}
	case KindCreateIssue:
		msg = &CreateIssue{}
	case KindGetCaptureData:
		msg = &GetCaptureData{}
	case KindGetLastNote:
		msg = &GetLastNote{}
	case KindRefresh:
		msg = &Refresh{}
	case KindDismiss:
		msg = &Dismiss{}
	case KindLogin:
		msg = &Login{}
	case KindRegister:
		msg = &Register{}
	case KindValidateToken:
		msg = &ValidateToken{}
	case KindRecordingStarted:
		msg = &RecordingStarted{}
	case KindRecordingError:
		msg = &RecordingError{}
	case KindAudioReady:
		msg = &AudioReady{}
	case KindStopAck:
		msg = &StopAck{}
	case KindStopRecording:
		msg = &StopRecording{}
	default:
		return nil, fmt.Errorf("unknown message kind %q", kind)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, msg); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
	}
	return msg, nil
}
