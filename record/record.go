// Package record coordinates the ephemeral recorder surface: opening it,
// tracking its lifecycle, and turning its relayed audio into a transcript.
//
// Lifecycle: Idle -> AwaitingPermission -> Recording -> Stopping -> Idle.
// The recorder surface acts autonomously after creation; it reports
// recording_started or recording_error, and on stop it sends the stop ack and
// the audio payload as two independent messages before closing itself.
package record

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/whispa-ai/whispad/fault"
	"github.com/whispa-ai/whispad/internal/types"
	"github.com/whispa-ai/whispad/protocol"
	"github.com/whispa-ai/whispad/relay"
	"github.com/whispa-ai/whispad/session"
	"github.com/whispa-ai/whispad/surface"
)

// Recorder window geometry, positioned top-right of the owner window.
const (
	windowWidth  = 170
	windowHeight = 100
)

// Transcriber converts an audio clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, extension string) (string, error)
}

// Coordinator owns the recording lifecycle. Exactly one lifecycle may be in
// flight per session.
type Coordinator struct {
	store       *session.Store
	broker      surface.Broker
	notify      relay.Notifier
	transcriber Transcriber
}

// New creates a Coordinator.
func New(store *session.Store, broker surface.Broker, notify relay.Notifier, tr Transcriber) *Coordinator {
	return &Coordinator{store: store, broker: broker, notify: notify, transcriber: tr}
}

// Toggle routes to stop when a recording lifecycle is in flight, otherwise
// begins one. A second "start" while recording never spawns a second
// recorder.
func (c *Coordinator) Toggle(ctx context.Context) error {
	snap := c.store.Get()
	switch snap.RecordingState {
	case types.RecordingActive, types.RecordingAwaitingPerm:
		return c.End(ctx)
	default:
		return c.Begin(ctx, snap.ActiveSurfaceID)
	}
}

// Begin opens the recorder window adjacent to the owner surface and waits
// for the surface to report back. State moves to AwaitingPermission; the
// Recording transition happens in HandleRecordingStarted.
func (c *Coordinator) Begin(ctx context.Context, ownerSurfaceID int) error {
	relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressStart)
	relay.Loader(c.notify, true)
	defer relay.Loader(c.notify, false)

	if _, err := c.broker.Get(ctx, ownerSurfaceID); err != nil {
		relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressError)
		return fault.Wrap(fault.SurfaceUnavailable,
			fmt.Sprintf("the target tab (ID: %d) was closed or navigated away", ownerSurfaceID), err)
	}

	cycle := c.store.BeginCycle()
	win, err := c.broker.OpenRecorderWindow(ctx, surface.WindowOpts{
		URL:    fmt.Sprintf("capture_window.html?tabId=%d&cycle=%d", ownerSurfaceID, cycle),
		Width:  windowWidth,
		Height: windowHeight,
	})
	if err != nil {
		relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressError)
		relay.Button(c.notify, relay.BtnRecord, false)
		relay.Status(c.notify, "❌ Window failed to open.")
		return fault.Wrap(fault.WindowCreationFailed, "recorder window creation failed", err)
	}

	c.store.Set(session.Partial{
		RecordingState:    session.State(types.RecordingAwaitingPerm),
		RecorderSurfaceID: session.Int(win.SurfaceID),
		RecorderWindowID:  session.Int(win.ID),
	})
	slog.Info("recorder window opened", "window", win.ID, "surface", win.SurfaceID, "cycle", cycle)
	return nil
}

// HandleRecordingStarted is called when the recorder surface reports a live
// microphone stream. Stale cycles are discarded.
func (c *Coordinator) HandleRecordingStarted(msg protocol.RecordingStarted, cycle uint64) {
	if c.store.Stale(cycle) {
		slog.Debug("discarding stale recording_started", "cycle", cycle)
		return
	}

	c.store.Set(session.Partial{
		ActiveSurfaceID: session.Int(msg.OwnerSurfaceID),
		RecordingState:  session.State(types.RecordingActive),
	})
	slog.Info("recording started", "owner", msg.OwnerSurfaceID)

	relay.Status(c.notify, "🔴 Recording... Click again to stop.")
	relay.Button(c.notify, relay.BtnGenerate, true)
}

// HandleRecordingError is called when microphone acquisition fails inside
// the recorder surface. The lifecycle ends without recorder identifiers set.
func (c *Coordinator) HandleRecordingError(msg protocol.RecordingError, cycle uint64) error {
	if c.store.Stale(cycle) {
		slog.Debug("discarding stale recording_error", "cycle", cycle)
		return nil
	}

	c.resetToIdle()
	relay.Button(c.notify, relay.BtnRecord, false)
	relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressError)

	if msg.PermissionDenied {
		relay.Status(c.notify, "Audio permission denied or blocked. Refresh the extension and allow microphone access.")
		return fault.New(fault.PermissionDenied, "microphone permission denied")
	}
	relay.Status(c.notify, fmt.Sprintf("❌ Recorder failed: %s", msg.Reason))
	return fault.Newf(fault.WindowCreationFailed, "recorder failed: %s", msg.Reason)
}

// End commands the recorder surface to stop. Valid only while a recording is
// in flight; stale or missing recorder identifiers are treated as state
// corruption and force the session back to Idle.
func (c *Coordinator) End(ctx context.Context) error {
	snap := c.store.Get()
	if snap.RecorderSurfaceID == 0 {
		slog.Error("recording stop failed: recorder surface id missing")
		c.resetToIdle()
		relay.Button(c.notify, relay.BtnRecord, false)
		relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressError)
		return fault.New(fault.RecorderUnreachable, "recording state corrupted")
	}

	stop, err := protocol.Encode(&protocol.StopRecording{}, snap.CycleID)
	if err != nil {
		return fmt.Errorf("encode stop command: %w", err)
	}

	reply, err := c.broker.Send(ctx, snap.RecorderSurfaceID, stop)
	if err != nil {
		slog.Error("failed to reach recorder surface", "surface", snap.RecorderSurfaceID, "error", err)
		c.resetToIdle()
		relay.Button(c.notify, relay.BtnRecord, false)
		relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressError)
		return fault.Wrap(fault.RecorderUnreachable, "recorder window is no longer reachable", err)
	}

	// Revalidate: the session may have been reset while Send was suspended.
	if c.store.Get().RecordingState == types.RecordingIdle {
		slog.Debug("session reset during stop, dropping ack")
		return nil
	}

	c.store.Set(session.Partial{RecordingState: session.State(types.RecordingStopping)})
	c.notify.Notify(relay.EventToggleMicIcon, map[string]string{"icon": "assets/icons/mic-off.svg"})
	relay.Status(c.notify, "Stopping recording...")
	relay.Button(c.notify, relay.BtnRecord, true)

	if len(reply) > 0 {
		if msg, cycle, err := protocol.Decode(reply); err == nil {
			if ack, ok := msg.(*protocol.StopAck); ok && !ack.OK {
				slog.Warn("recorder rejected stop", "cycle", cycle)
			}
		}
	}
	return nil
}

// HandleAudioReady receives the relayed recording, transcodes it and runs
// transcription. The recorder surface has already closed itself by the time
// this arrives.
func (c *Coordinator) HandleAudioReady(ctx context.Context, msg protocol.AudioReady, cycle uint64) error {
	if c.store.Stale(cycle) {
		slog.Debug("discarding stale audio_ready", "cycle", cycle)
		return nil
	}

	clip, err := DecodeClip(msg.Base64, msg.Extension)
	if err != nil {
		c.resetToIdle()
		relay.Status(c.notify, "FATAL ERROR: Failed to process audio data.")
		relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressError)
		return err
	}
	slog.Info("audio relayed", "bytes", len(clip.Data), "format", clip.Extension)

	relay.Status(c.notify, "Processing audio for transcription...")
	relay.Status(c.notify, "Sending request to AI model (this may take 30-60 seconds)...")
	relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressMid)

	text, err := c.transcriber.Transcribe(ctx, clip.Data, clip.Extension)
	if err != nil {
		slog.Error("transcription failed", "error", err)
		c.resetToIdle()
		relay.Status(c.notify, fmt.Sprintf("Transcription Failed: %s", fault.UserMessage(err)))
		relay.Button(c.notify, relay.BtnRecord, false)
		relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressError)
		return err
	}

	c.resetToIdle()
	c.store.Set(session.Partial{TranscriptText: session.Str(text)})
	relay.Progress(c.notify, relay.ElemRecordProgress, relay.ProgressSuccess)
	relay.Status(c.notify, "Transcription Complete ✅")
	relay.Button(c.notify, relay.BtnGenerate, false)
	return nil
}

// resetToIdle clears the recorder lifecycle fields, recovering from both
// normal completion and corrupted state.
func (c *Coordinator) resetToIdle() {
	c.store.Set(session.Partial{
		RecordingState:    session.State(types.RecordingIdle),
		RecorderSurfaceID: session.Int(0),
		RecorderWindowID:  session.Int(0),
	})
}
