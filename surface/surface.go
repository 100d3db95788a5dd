// Package surface abstracts the browser surfaces (tabs and windows) the
// coordination core targets or creates. The real implementation lives on the
// extension side of the bridge; coordinators only see this port.
package surface

import (
	"context"
	"errors"
)

// Typed sentinels replace the original's substring matching on
// "No tab with id" / "No window with id".
var (
	// ErrNoSurface means the tab was closed or navigated away.
	ErrNoSurface = errors.New("surface does not exist")
	// ErrNoWindow means the window was closed.
	ErrNoWindow = errors.New("window does not exist")
)

// Status is a surface's load state.
type Status string

const (
	StatusLoading  Status = "loading"
	StatusComplete Status = "complete"
)

// Info describes one surface.
type Info struct {
	ID       int
	WindowID int
	Status   Status
}

// WindowOpts positions the recorder window adjacent to its owner surface.
type WindowOpts struct {
	URL    string
	Width  int
	Height int
	Top    int
	Left   int
}

// Window identifies a created window and its hosted surface.
type Window struct {
	ID        int
	SurfaceID int
}

// Broker performs surface operations. All methods may suspend the caller;
// session state read before a call must be revalidated after it returns.
type Broker interface {
	// Get returns info for an existing surface, or ErrNoSurface.
	Get(ctx context.Context, id int) (Info, error)
	// CaptureVisible captures the visible region of a window as a PNG data
	// URL.
	CaptureVisible(ctx context.Context, windowID int) (string, error)
	// OpenRecorderWindow creates the ephemeral recorder popup.
	OpenRecorderWindow(ctx context.Context, opts WindowOpts) (Window, error)
	// Send delivers an encoded message to a surface and waits for the
	// single reply, if any. ErrNoSurface when the target is gone.
	Send(ctx context.Context, surfaceID int, data []byte) ([]byte, error)
	// Close closes a window. Closing an already-gone window is not an error.
	Close(ctx context.Context, windowID int) error
}
