// Package relay is the one-way path for display updates. Every
// display-affecting side effect in the coordination core funnels through a
// Notifier; delivery failures are logged and swallowed because the display
// surface may legitimately be gone mid-flow.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/whispa-ai/whispad/surface"
)

// Event names understood by the overlay and popup.
const (
	EventUpdateStatus   = "updateStatus"
	EventUpdateProgress = "updateProgress"
	EventSetButtonState = "ui_setButtonState"
	EventToggleMicIcon  = "ui_toggleMicIcon"
	EventShowLoader     = "showLoader"
	EventHideLoader     = "hideLoader"
	EventStreamStart    = "stream_start"
	EventStreamChunk    = "stream_chunk"
	EventStreamEnd      = "stream_end"
	EventStreamError    = "stream_error"
)

// Progress element ids and statuses.
const (
	ElemCaptureProgress  = "captureProgress"
	ElemRecordProgress   = "recordProgress"
	ElemGenerateProgress = "generateProgress"

	ProgressStart   = "start"
	ProgressMid     = "mid"
	ProgressSuccess = "success"
	ProgressError   = "error"
)

// Button ids.
const (
	BtnRecord   = "recordBtn"
	BtnGenerate = "generateBtn"
	BtnCopy     = "copyBtn"
	BtnExport   = "exportBtn"
	BtnTracker  = "linearBtn"
)

// Notifier delivers display events. Implementations never return errors;
// orchestration must stay correct when nobody is listening.
type Notifier interface {
	Notify(event string, payload any)
}

// ActiveSurface resolves the surface currently displaying UI. Zero means
// none.
type ActiveSurface func() int

// Relay sends events to the active surface through a broker.
type Relay struct {
	broker surface.Broker
	active ActiveSurface
}

// New creates a Relay.
func New(broker surface.Broker, active ActiveSurface) *Relay {
	return &Relay{broker: broker, active: active}
}

type uiEvent struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

// Notify delivers one event to the active surface, if any.
func (r *Relay) Notify(event string, payload any) {
	id := r.active()
	if id == 0 {
		return
	}
	data, err := json.Marshal(uiEvent{Action: event, Payload: payload})
	if err != nil {
		slog.Error("marshal ui event", "event", event, "error", err)
		return
	}
	if _, err := r.broker.Send(context.Background(), id, data); err != nil {
		slog.Warn("ui delivery failed", "event", event, "surface", id, "error", err)
	}
}

// Status sends a human-readable status line.
func Status(n Notifier, message string) {
	n.Notify(EventUpdateStatus, map[string]string{"message": message})
}

// Progress updates one progress element.
func Progress(n Notifier, elementID, status string) {
	n.Notify(EventUpdateProgress, map[string]string{
		"elementId": elementID,
		"status":    status,
	})
}

// Button toggles a control's enablement.
func Button(n Notifier, buttonID string, disabled bool) {
	n.Notify(EventSetButtonState, map[string]any{
		"buttonId": buttonID,
		"disabled": disabled,
	})
}

// Loader shows or hides the overlay spinner.
func Loader(n Notifier, show bool) {
	if show {
		n.Notify(EventShowLoader, nil)
		return
	}
	n.Notify(EventHideLoader, nil)
}

// Discard is a Notifier that drops everything.
type Discard struct{}

func (Discard) Notify(string, any) {}
