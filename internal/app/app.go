// Package app hosts the background actor that owns the session and
// sequences every coordination flow. The bridge runs each HandleMessage
// turn in its own goroutine; mutations are serialized by the session
// store, and handlers revalidate state after every suspension point.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/whispa-ai/whispad/api"
	"github.com/whispa-ai/whispad/cache"
	"github.com/whispa-ai/whispad/capture"
	"github.com/whispa-ai/whispad/config"
	"github.com/whispa-ai/whispad/fault"
	"github.com/whispa-ai/whispad/internal/types"
	"github.com/whispa-ai/whispad/protocol"
	"github.com/whispa-ai/whispad/record"
	"github.com/whispa-ai/whispad/relay"
	"github.com/whispa-ai/whispad/session"
	"github.com/whispa-ai/whispad/surface"
)

// Service wires the session store, coordinators, remote client, and relay.
// This struct focuses on dispatch; flow logic lives in the coordinators.
type Service struct {
	cfg    *config.Config
	store  *session.Store
	broker surface.Broker
	cache  *cache.Cache // optional
	client *api.Client
	notify relay.Notifier

	capture *capture.Coordinator
	record  *record.Coordinator

	version string
}

// Options configures a Service.
type Options struct {
	Config  *config.Config
	Broker  surface.Broker
	Cache   *cache.Cache
	Client  *api.Client // optional, constructed from Config when nil
	Version string
}

// New creates a wired Service.
func New(opts Options) *Service {
	store := session.New()

	client := opts.Client
	if client == nil {
		client = api.New(api.Config{
			BaseURL: opts.Config.BaseURL(),
			Tokens:  opts.Config,
		})
	}

	notify := relay.New(opts.Broker, func() int {
		return store.Get().ActiveSurfaceID
	})

	return &Service{
		cfg:     opts.Config,
		store:   store,
		broker:  opts.Broker,
		cache:   opts.Cache,
		client:  client,
		notify:  notify,
		capture: capture.New(store, opts.Broker, notify),
		record:  record.New(store, opts.Broker, notify, client),
		version: opts.Version,
	}
}

// Store exposes the session store for the host loop and tests.
func (s *Service) Store() *session.Store { return s.store }

// Version returns the application version.
func (s *Service) Version() string { return s.version }

// Launch attaches the overlay session to a surface. Called when the user
// activates the extension on a tab.
func (s *Service) Launch(surfaceID int) {
	s.store.Set(session.Partial{ActiveSurfaceID: session.Int(surfaceID)})
	slog.Info("session attached", "surface", surfaceID)
}

// Shutdown releases resources.
func (s *Service) Shutdown() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Error("close cache", "error", err)
		}
	}
}

// Reply is the single-reply response to a request message.
type Reply struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func ok(message string) Reply  { return Reply{Success: true, Message: message} }
func fail(err error) Reply     { return Reply{Success: false, Error: fault.UserMessage(err)} }
func failMsg(msg string) Reply { return Reply{Success: false, Error: msg} }

func withData(v any) Reply {
	data, err := json.Marshal(v)
	if err != nil {
		return failMsg(fmt.Sprintf("encode reply: %v", err))
	}
	return Reply{Success: true, Data: data}
}

// HandleMessage decodes one envelope and dispatches it. The returned Reply
// is sent to the requesting surface; fire-and-forget messages get a reply
// too, the bridge simply drops it when nobody awaits one.
func (s *Service) HandleMessage(ctx context.Context, raw []byte) Reply {
	msg, cycle, err := protocol.Decode(raw)
	if err != nil {
		slog.Warn("undecodable message", "error", err)
		return failMsg(err.Error())
	}
	return s.dispatch(ctx, msg, cycle)
}

func (s *Service) dispatch(ctx context.Context, msg protocol.Message, cycle uint64) Reply {
	switch m := msg.(type) {
	case *protocol.Attach:
		s.Launch(m.SurfaceID)
		return ok("Session attached.")
	case *protocol.RequestCapture:
		return s.handleCapture(ctx)
	case *protocol.RequestRecordToggle:
		return s.handleRecordToggle(ctx)
	case *protocol.GenerateNotes:
		return s.handleGenerateNotes(ctx, *m)
	case *protocol.CreateIssue:
		return s.handleCreateIssue(ctx, *m)
	case *protocol.GetCaptureData:
		return s.handleGetCaptureData()
	case *protocol.GetLastNote:
		return s.handleGetLastNote()
	case *protocol.Refresh:
		s.store.Refresh()
		return ok("Data reset successfully.")
	case *protocol.Dismiss:
		s.store.Reset()
		return ok("Session dismissed.")
	case *protocol.Login:
		return s.handleLogin(ctx, *m)
	case *protocol.Register:
		return s.handleRegister(ctx, *m)
	case *protocol.ValidateToken:
		return s.handleValidateToken(ctx, *m)
	case *protocol.RecordingStarted:
		s.record.HandleRecordingStarted(*m, cycle)
		return ok("")
	case *protocol.RecordingError:
		if err := s.record.HandleRecordingError(*m, cycle); err != nil {
			return fail(err)
		}
		return ok("")
	case *protocol.AudioReady:
		if err := s.record.HandleAudioReady(ctx, *m, cycle); err != nil {
			return fail(err)
		}
		return ok("")
	case *protocol.StopAck:
		// The ack normally arrives as the Send reply; a stray copy here is
		// harmless.
		slog.Debug("stray stop ack", "cycle", cycle)
		return ok("")
	default:
		slog.Warn("unhandled message kind", "kind", msg.Kind())
		return failMsg(fmt.Sprintf("unhandled message kind %q", msg.Kind()))
	}
}

type captureData struct {
	ImageB64  string `json:"image_b64"`
	VoiceText string `json:"voice_text"`
}

// handleGetCaptureData returns the current cycle's inputs so a reloaded
// overlay can restore its view. An empty session falls back to the cached
// last cycle.
func (s *Service) handleGetCaptureData() Reply {
	snap := s.store.Get()
	data := captureData{ImageB64: snap.CaptureArtifact, VoiceText: snap.TranscriptText}
	if data.ImageB64 == "" && data.VoiceText == "" && s.cache != nil {
		image, transcript, err := s.cache.LastInputs()
		if err != nil {
			slog.Error("read cached inputs", "error", err)
		} else {
			data.ImageB64, data.VoiceText = image, transcript
		}
	}
	return withData(data)
}

func (s *Service) handleGetLastNote() Reply {
	if s.cache == nil {
		return failMsg("No generated note available.")
	}
	note, found, err := s.cache.LastNote()
	if err != nil {
		slog.Error("read cached note", "error", err)
		return failMsg("No generated note available.")
	}
	if !found {
		return failMsg("No generated note available.")
	}
	return withData(note)
}

func (s *Service) handleCapture(ctx context.Context) Reply {
	snap := s.store.Get()
	if snap.ActiveSurfaceID == 0 {
		return failMsg("Session tab ID is not set.")
	}
	if err := s.capture.CaptureSurface(ctx, snap.ActiveSurfaceID); err != nil {
		return fail(err)
	}
	return ok("Image captured and stored.")
}

func (s *Service) handleRecordToggle(ctx context.Context) Reply {
	if err := s.record.Toggle(ctx); err != nil {
		return fail(err)
	}
	return ok("Capture flow initiated.")
}

func (s *Service) handleCreateIssue(ctx context.Context, m protocol.CreateIssue) Reply {
	fields := m.Fields
	// Stored tracker settings back-fill what the overlay didn't send.
	if fields.APIKey == "" {
		fields.APIKey = s.cfg.Tracker.APIKey
	}
	if fields.TeamID == "" {
		fields.TeamID = s.cfg.Tracker.TeamID
	}
	if len(fields.LabelIDs) == 0 {
		fields.LabelIDs = s.cfg.Tracker.LabelIDs
	}

	relay.Loader(s.notify, true)
	defer relay.Loader(s.notify, false)

	res, err := s.client.CreateTrackerIssue(ctx, fields)
	if err != nil {
		slog.Error("create tracker issue", "error", err)
		return fail(err)
	}
	return withData(res)
}

func (s *Service) handleLogin(ctx context.Context, m protocol.Login) Reply {
	res, err := s.client.Login(ctx, m.Email, m.Password)
	if err != nil {
		slog.Error("login", "error", err)
		return fail(err)
	}
	return s.finishAuth(res)
}

func (s *Service) handleRegister(ctx context.Context, m protocol.Register) Reply {
	res, err := s.client.Register(ctx, m.Email, m.Password, m.Name)
	if err != nil {
		slog.Error("register", "error", err)
		return fail(err)
	}
	return s.finishAuth(res)
}

func (s *Service) handleValidateToken(ctx context.Context, m protocol.ValidateToken) Reply {
	token := m.Token
	if token == "" {
		token, _ = s.cfg.Token()
	}
	res, err := s.client.ValidateToken(ctx, token)
	if err != nil {
		slog.Error("validate token", "error", err)
		return fail(err)
	}
	if !res.OK {
		return failMsg(res.Message)
	}
	return withData(res.Profile)
}

// finishAuth persists the credential and profile only on success.
func (s *Service) finishAuth(res api.AuthResult) Reply {
	if !res.OK {
		return failMsg(res.Message)
	}
	s.cfg.Enabled = true
	s.cfg.Profile = &types.Profile{
		FullName:    res.Profile.FullName,
		PrivacyMode: res.Profile.PrivacyMode,
	}
	if err := s.cfg.StoreToken(res.Token); err != nil {
		slog.Error("store token", "error", err)
	}
	if err := s.cfg.Save(); err != nil {
		slog.Error("save config", "error", err)
	}
	return withData(res.Profile)
}
