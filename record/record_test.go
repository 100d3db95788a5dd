package record

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/whispa-ai/whispad/fault"
	"github.com/whispa-ai/whispad/internal/types"
	"github.com/whispa-ai/whispad/protocol"
	"github.com/whispa-ai/whispad/relay"
	"github.com/whispa-ai/whispad/session"
	"github.com/whispa-ai/whispad/surface"
)

type fakeTranscriber struct {
	text string
	err  error

	gotAudio []byte
	gotExt   string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, ext string) (string, error) {
	f.gotAudio = audio
	f.gotExt = ext
	return f.text, f.err
}

func newCoordinator(t *testing.T) (*Coordinator, *session.Store, *surface.MemoryBroker, *fakeTranscriber) {
	t.Helper()
	store := session.New()
	broker := surface.NewMemoryBroker()
	tr := &fakeTranscriber{text: "hello world"}
	return New(store, broker, relay.Discard{}, tr), store, broker, tr
}

func audioDataURL(content string) string {
	return "data:audio/webm;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func TestBeginOpensRecorderWindow(t *testing.T) {
	c, store, broker, _ := newCoordinator(t)
	owner := broker.AddSurface(10, surface.StatusComplete)
	store.Set(session.Partial{ActiveSurfaceID: session.Int(owner)})

	if err := c.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}

	snap := store.Get()
	if snap.RecordingState != types.RecordingAwaitingPerm {
		t.Errorf("state = %q, want %q", snap.RecordingState, types.RecordingAwaitingPerm)
	}
	if snap.RecorderSurfaceID == 0 || snap.RecorderWindowID == 0 {
		t.Errorf("recorder ids not stored: surface=%d window=%d", snap.RecorderSurfaceID, snap.RecorderWindowID)
	}
	if snap.CycleID == 0 {
		t.Error("cycle not advanced")
	}
}

func TestBeginFailsWhenOwnerSurfaceGone(t *testing.T) {
	c, store, _, _ := newCoordinator(t)
	store.Set(session.Partial{ActiveSurfaceID: session.Int(42)})

	err := c.Begin(context.Background(), 42)
	if fault.KindOf(err) != fault.SurfaceUnavailable {
		t.Fatalf("error kind = %q, want %q (err: %v)", fault.KindOf(err), fault.SurfaceUnavailable, err)
	}
	if snap := store.Get(); snap.RecordingState != types.RecordingIdle {
		t.Errorf("state = %q, want idle untouched", snap.RecordingState)
	}
}

func TestToggleWhileRecordingStopsInsteadOfStartingSecond(t *testing.T) {
	c, store, broker, _ := newCoordinator(t)
	recorder := broker.AddSurface(99, surface.StatusComplete)
	store.BeginCycle()
	store.Set(session.Partial{
		RecordingState:    session.State(types.RecordingActive),
		RecorderSurfaceID: session.Int(recorder),
		RecorderWindowID:  session.Int(99),
	})

	if err := c.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}

	sent := broker.Sent(recorder)
	if len(sent) != 1 {
		t.Fatalf("messages to recorder = %d, want 1 stop command", len(sent))
	}
	msg, _, err := protocol.Decode(sent[0])
	if err != nil {
		t.Fatalf("decode stop command: %v", err)
	}
	if _, ok := msg.(*protocol.StopRecording); !ok {
		t.Fatalf("recorder received %T, want *protocol.StopRecording", msg)
	}
	if snap := store.Get(); snap.RecordingState != types.RecordingStopping {
		t.Errorf("state = %q, want %q", snap.RecordingState, types.RecordingStopping)
	}
}

func TestHandleRecordingStarted(t *testing.T) {
	c, store, _, _ := newCoordinator(t)
	cycle := store.BeginCycle()
	store.Set(session.Partial{RecordingState: session.State(types.RecordingAwaitingPerm)})

	c.HandleRecordingStarted(protocol.RecordingStarted{OwnerSurfaceID: 7}, cycle)

	snap := store.Get()
	if snap.RecordingState != types.RecordingActive {
		t.Errorf("state = %q, want %q", snap.RecordingState, types.RecordingActive)
	}
	if snap.ActiveSurfaceID != 7 {
		t.Errorf("active surface = %d, want 7", snap.ActiveSurfaceID)
	}
}

func TestHandleRecordingStartedDiscardsStaleCycle(t *testing.T) {
	c, store, _, _ := newCoordinator(t)
	stale := store.BeginCycle()
	store.BeginCycle()

	c.HandleRecordingStarted(protocol.RecordingStarted{OwnerSurfaceID: 7}, stale)

	if snap := store.Get(); snap.RecordingState != types.RecordingIdle {
		t.Errorf("stale message mutated state to %q", snap.RecordingState)
	}
}

func TestHandleRecordingErrorPermissionDenied(t *testing.T) {
	c, store, _, _ := newCoordinator(t)
	cycle := store.BeginCycle()
	store.Set(session.Partial{
		RecordingState:    session.State(types.RecordingAwaitingPerm),
		RecorderSurfaceID: session.Int(5),
		RecorderWindowID:  session.Int(6),
	})

	err := c.HandleRecordingError(protocol.RecordingError{PermissionDenied: true}, cycle)
	if fault.KindOf(err) != fault.PermissionDenied {
		t.Fatalf("error kind = %q, want %q", fault.KindOf(err), fault.PermissionDenied)
	}

	snap := store.Get()
	if snap.RecordingState != types.RecordingIdle {
		t.Errorf("state = %q, want idle", snap.RecordingState)
	}
	if snap.RecorderSurfaceID != 0 || snap.RecorderWindowID != 0 {
		t.Errorf("recorder ids not cleared: surface=%d window=%d", snap.RecorderSurfaceID, snap.RecorderWindowID)
	}
}

func TestEndWithMissingRecorderForcesIdle(t *testing.T) {
	c, store, _, _ := newCoordinator(t)
	store.Set(session.Partial{RecordingState: session.State(types.RecordingActive)})

	err := c.End(context.Background())
	if fault.KindOf(err) != fault.RecorderUnreachable {
		t.Fatalf("error kind = %q, want %q", fault.KindOf(err), fault.RecorderUnreachable)
	}
	if snap := store.Get(); snap.RecordingState != types.RecordingIdle {
		t.Errorf("state = %q, want forced idle", snap.RecordingState)
	}
}

func TestEndWhenRecorderSurfaceClosed(t *testing.T) {
	c, store, broker, _ := newCoordinator(t)
	recorder := broker.AddSurface(99, surface.StatusComplete)
	store.Set(session.Partial{
		RecordingState:    session.State(types.RecordingActive),
		RecorderSurfaceID: session.Int(recorder),
	})
	broker.RemoveSurface(recorder)

	err := c.End(context.Background())
	if fault.KindOf(err) != fault.RecorderUnreachable {
		t.Fatalf("error kind = %q, want %q", fault.KindOf(err), fault.RecorderUnreachable)
	}
	if snap := store.Get(); snap.RecordingState != types.RecordingIdle {
		t.Errorf("state = %q, want forced idle", snap.RecordingState)
	}
}

func TestEndDropsAckWhenSessionResetMidStop(t *testing.T) {
	c, store, broker, _ := newCoordinator(t)
	recorder := broker.AddSurface(99, surface.StatusComplete)
	store.Set(session.Partial{
		RecordingState:    session.State(types.RecordingActive),
		RecorderSurfaceID: session.Int(recorder),
	})
	broker.OnSend = func(int, []byte) ([]byte, error) {
		store.Reset()
		return nil, nil
	}

	if err := c.End(context.Background()); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if snap := store.Get(); snap.RecordingState != types.RecordingIdle {
		t.Errorf("state = %q, reset during stop must stand", snap.RecordingState)
	}
}

func TestHandleAudioReady(t *testing.T) {
	c, store, _, tr := newCoordinator(t)
	cycle := store.BeginCycle()
	store.Set(session.Partial{RecordingState: session.State(types.RecordingStopping)})

	err := c.HandleAudioReady(context.Background(), protocol.AudioReady{
		Base64:    audioDataURL("opus-frames"),
		Extension: "webm",
	}, cycle)
	if err != nil {
		t.Fatalf("HandleAudioReady() error = %v", err)
	}

	if string(tr.gotAudio) != "opus-frames" {
		t.Errorf("transcriber audio = %q, want decoded bytes", tr.gotAudio)
	}
	if tr.gotExt != "webm" {
		t.Errorf("transcriber extension = %q, want webm", tr.gotExt)
	}
	snap := store.Get()
	if snap.TranscriptText != "hello world" {
		t.Errorf("transcript = %q, want %q", snap.TranscriptText, "hello world")
	}
	if snap.RecordingState != types.RecordingIdle {
		t.Errorf("state = %q, want idle", snap.RecordingState)
	}
}

func TestHandleAudioReadyTranscriptionFailure(t *testing.T) {
	c, store, _, tr := newCoordinator(t)
	tr.err = errors.New("whisper backend down")
	cycle := store.BeginCycle()
	store.Set(session.Partial{RecordingState: session.State(types.RecordingStopping)})

	err := c.HandleAudioReady(context.Background(), protocol.AudioReady{
		Base64: audioDataURL("opus-frames"),
	}, cycle)
	if err == nil {
		t.Fatal("HandleAudioReady() returned nil, want transcription error")
	}

	snap := store.Get()
	if snap.TranscriptText != "" {
		t.Errorf("transcript = %q, want empty after failure", snap.TranscriptText)
	}
	if snap.RecordingState != types.RecordingIdle {
		t.Errorf("state = %q, want idle", snap.RecordingState)
	}
}

func TestHandleAudioReadyDiscardsStaleCycle(t *testing.T) {
	c, store, _, tr := newCoordinator(t)
	stale := store.BeginCycle()
	store.BeginCycle()

	if err := c.HandleAudioReady(context.Background(), protocol.AudioReady{
		Base64: audioDataURL("opus-frames"),
	}, stale); err != nil {
		t.Fatalf("HandleAudioReady() error = %v", err)
	}
	if tr.gotAudio != nil {
		t.Error("stale audio reached the transcriber")
	}
}
