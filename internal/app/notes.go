package app

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/whispa-ai/whispad/api"
	"github.com/whispa-ai/whispad/fault"
	"github.com/whispa-ai/whispad/internal/types"
	"github.com/whispa-ai/whispad/protocol"
	"github.com/whispa-ai/whispad/relay"
)

var titlePattern = regexp.MustCompile(`(?m)^#\s+(.+)`)

// noteTitle derives a display title from a generated markdown note: the
// first heading, or a truncated body prefix.
func noteTitle(markdown string) string {
	if m := titlePattern.FindStringSubmatch(markdown); m != nil {
		return strings.TrimSpace(m[1])
	}
	if len(markdown) > 80 {
		return markdown[:80] + "..."
	}
	return markdown
}

// handleGenerateNotes runs the streamed generation flow. Chunks are relayed
// as they arrive; a mid-stream failure leaves already-rendered content in
// place and the user decides whether to retry.
func (s *Service) handleGenerateNotes(ctx context.Context, m protocol.GenerateNotes) Reply {
	mode := m.Mode
	if mode == "" {
		mode = types.NoteModeGeneral
	}
	if !types.ValidNoteMode(mode) {
		return failMsg("unknown note mode " + string(mode))
	}

	snap := s.store.Get()
	if snap.CaptureArtifact == "" {
		return fail(fault.New(fault.PreconditionFailed, "no screen capture data available"))
	}
	if snap.TranscriptText == "" {
		return fail(fault.New(fault.PreconditionFailed, "no audio transcription available"))
	}

	privacyMode := true
	if s.cfg.Profile != nil {
		privacyMode = s.cfg.Profile.PrivacyMode
	}

	s.notify.Notify(relay.EventStreamStart, map[string]string{"status": "Generating notes..."})
	relay.Loader(s.notify, true)
	defer relay.Loader(s.notify, false)
	relay.Progress(s.notify, relay.ElemGenerateProgress, relay.ProgressStart)
	relay.Button(s.notify, relay.BtnGenerate, true)
	relay.Status(s.notify, "Sending request to AI model (this may take 30-60 seconds)...")

	full, err := s.client.GenerateNotes(ctx, api.GenerateRequest{
		ImageB64:    snap.CaptureArtifact,
		VoiceText:   snap.TranscriptText,
		PrivacyMode: privacyMode,
		Mode:        mode,
	}, func(chunk string) {
		s.notify.Notify(relay.EventStreamChunk, map[string]string{"chunk": chunk})
	})
	if err != nil {
		slog.Error("note generation failed", "error", err)
		relay.Progress(s.notify, relay.ElemGenerateProgress, relay.ProgressError)
		relay.Button(s.notify, relay.BtnGenerate, false)
		s.notify.Notify(relay.EventStreamError, map[string]string{"error": fault.UserMessage(err)})
		return fail(err)
	}

	s.notify.Notify(relay.EventStreamEnd, nil)
	relay.Button(s.notify, relay.BtnGenerate, true)
	relay.Button(s.notify, relay.BtnCopy, false)
	relay.Button(s.notify, relay.BtnExport, true)
	relay.Button(s.notify, relay.BtnTracker, true)
	relay.Status(s.notify, "Notes generation complete!")
	relay.Progress(s.notify, relay.ElemGenerateProgress, relay.ProgressSuccess)

	s.persistNote(ctx, snap.SessionID, snap.CaptureArtifact, snap.TranscriptText, full, privacyMode)
	return ok(full)
}

// persistNote caches the cycle locally and, when privacy mode is disabled,
// saves it server side. Neither failure reaches the user; generation already
// succeeded.
func (s *Service) persistNote(ctx context.Context, sessionID, imageB64, transcript, markdown string, privacyMode bool) {
	note := types.Note{
		Title:     noteTitle(markdown),
		Content:   markdown,
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
	}
	if s.cache != nil {
		if err := s.cache.StoreCycle(imageB64, transcript, note); err != nil {
			slog.Error("cache cycle", "error", err)
		}
	}

	if privacyMode {
		return
	}
	err := s.client.SaveNotes(ctx, api.SaveRequest{
		FinalMarkdown: markdown,
		VoiceText:     transcript,
		SessionID:     sessionID,
		PrivacyMode:   privacyMode,
	})
	if err != nil {
		slog.Error("save notes", "error", err)
	}
}
