// Package capture orchestrates taking a screenshot of a target surface and
// persisting it into the session store.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/whispa-ai/whispad/fault"
	"github.com/whispa-ai/whispad/relay"
	"github.com/whispa-ai/whispad/session"
	"github.com/whispa-ai/whispad/surface"
)

// Coordinator validates the target surface and stores the captured image.
type Coordinator struct {
	store  *session.Store
	broker surface.Broker
	notify relay.Notifier
}

// New creates a Coordinator.
func New(store *session.Store, broker surface.Broker, notify relay.Notifier) *Coordinator {
	return &Coordinator{store: store, broker: broker, notify: notify}
}

// CaptureSurface captures the visible region of surfaceID. The surface must
// exist and be fully loaded; otherwise no session mutation occurs and a
// SurfaceUnavailable fault is returned. Progress is relayed at start and at
// success or error.
func (c *Coordinator) CaptureSurface(ctx context.Context, surfaceID int) error {
	relay.Progress(c.notify, relay.ElemCaptureProgress, relay.ProgressStart)
	relay.Loader(c.notify, true)
	defer relay.Loader(c.notify, false)

	artifact, err := c.capture(ctx, surfaceID)
	if err != nil {
		slog.Error("capture surface", "surface", surfaceID, "error", err)
		relay.Progress(c.notify, relay.ElemCaptureProgress, relay.ProgressError)
		relay.Status(c.notify, fmt.Sprintf("❌ Error: %s. Please re-launch the extension.", fault.UserMessage(err)))
		return err
	}

	c.store.Set(session.Partial{CaptureArtifact: session.Str(artifact)})
	relay.Progress(c.notify, relay.ElemCaptureProgress, relay.ProgressSuccess)
	slog.Info("capture stored", "surface", surfaceID, "bytes", len(artifact))
	return nil
}

func (c *Coordinator) capture(ctx context.Context, surfaceID int) (string, error) {
	if surfaceID == 0 {
		return "", fault.New(fault.SurfaceUnavailable, "session surface id is not set")
	}

	info, err := c.broker.Get(ctx, surfaceID)
	if err != nil {
		if errors.Is(err, surface.ErrNoSurface) || errors.Is(err, surface.ErrNoWindow) {
			return "", fault.Wrap(fault.SurfaceUnavailable,
				fmt.Sprintf("the target tab (ID: %d) was closed or navigated away", surfaceID), err)
		}
		return "", fault.Wrap(fault.SurfaceUnavailable, err.Error(), err)
	}

	if info.Status != surface.StatusComplete {
		return "", fault.Newf(fault.SurfaceUnavailable, "target tab (ID: %d) is still loading", surfaceID)
	}

	artifact, err := c.broker.CaptureVisible(ctx, info.WindowID)
	if err != nil {
		if errors.Is(err, surface.ErrNoWindow) {
			return "", fault.Wrap(fault.SurfaceUnavailable,
				fmt.Sprintf("the target tab (ID: %d) was closed or navigated away", surfaceID), err)
		}
		return "", fault.Wrap(fault.SurfaceUnavailable, err.Error(), err)
	}
	return artifact, nil
}
