package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/whispa-ai/whispad/surface"
)

// Surface RPCs execute on the extension side, where the tabs and windows
// APIs live. Each request carries a correlation id; the extension answers
// with a surfaceResult envelope that the host loop routes back here.

const (
	opGet            = "get"
	opCaptureVisible = "capture_visible"
	opOpenRecorder   = "open_recorder"
	opSend           = "send"
	opClose          = "close"
)

// Error codes returned by the extension side.
const (
	codeNoSurface = "no_surface"
	codeNoWindow  = "no_window"
)

type surfaceRequest struct {
	SurfaceOp string              `json:"surfaceOp"`
	ID        uint64              `json:"id"`
	SurfaceID int                 `json:"surfaceId,omitempty"`
	WindowID  int                 `json:"windowId,omitempty"`
	Opts      *surface.WindowOpts `json:"opts,omitempty"`
	Data      json.RawMessage     `json:"data,omitempty"`
}

type surfaceResult struct {
	SurfaceResult bool            `json:"surfaceResult"`
	ID            uint64          `json:"id"`
	Code          string          `json:"code,omitempty"`
	Error         string          `json:"error,omitempty"`
	Info          *surfaceInfo    `json:"info,omitempty"`
	DataURL       string          `json:"dataUrl,omitempty"`
	Window        *surfaceWindow  `json:"window,omitempty"`
	Reply         json.RawMessage `json:"reply,omitempty"`
}

type surfaceInfo struct {
	ID       int            `json:"id"`
	WindowID int            `json:"windowId"`
	Status   surface.Status `json:"status"`
}

type surfaceWindow struct {
	ID        int `json:"id"`
	SurfaceID int `json:"surfaceId"`
}

// Broker implements surface.Broker over the native-messaging channel.
type Broker struct {
	mu      sync.Mutex
	write   func([]byte) error
	pending map[uint64]chan surfaceResult
	nextID  uint64
}

// NewBroker creates a Broker writing requests through write. Route must be
// installed on the host loop so results find their way back.
func NewBroker(write func([]byte) error) *Broker {
	return &Broker{
		write:   write,
		pending: make(map[uint64]chan surfaceResult),
	}
}

// Route delivers an incoming message to a pending call when it is a surface
// result. Returns true when consumed.
func (b *Broker) Route(raw []byte) bool {
	var res surfaceResult
	if err := json.Unmarshal(raw, &res); err != nil || !res.SurfaceResult {
		return false
	}
	b.mu.Lock()
	ch, ok := b.pending[res.ID]
	if ok {
		delete(b.pending, res.ID)
	}
	b.mu.Unlock()
	if ok {
		ch <- res
	}
	return true
}

func (b *Broker) call(ctx context.Context, req surfaceRequest) (surfaceResult, error) {
	ch := make(chan surfaceResult, 1)
	b.mu.Lock()
	b.nextID++
	req.ID = b.nextID
	b.pending[req.ID] = ch
	b.mu.Unlock()

	data, err := json.Marshal(req)
	if err != nil {
		b.drop(req.ID)
		return surfaceResult{}, fmt.Errorf("marshal surface request: %w", err)
	}
	if err := b.write(data); err != nil {
		b.drop(req.ID)
		return surfaceResult{}, fmt.Errorf("write surface request: %w", err)
	}

	select {
	case res := <-ch:
		if res.Code != "" || res.Error != "" {
			return surfaceResult{}, resultError(res)
		}
		return res, nil
	case <-ctx.Done():
		b.drop(req.ID)
		return surfaceResult{}, ctx.Err()
	}
}

func (b *Broker) drop(id uint64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

func resultError(res surfaceResult) error {
	switch res.Code {
	case codeNoSurface:
		return surface.ErrNoSurface
	case codeNoWindow:
		return surface.ErrNoWindow
	default:
		return fmt.Errorf("surface op failed: %s", res.Error)
	}
}

func (b *Broker) Get(ctx context.Context, id int) (surface.Info, error) {
	res, err := b.call(ctx, surfaceRequest{SurfaceOp: opGet, SurfaceID: id})
	if err != nil {
		return surface.Info{}, err
	}
	if res.Info == nil {
		return surface.Info{}, surface.ErrNoSurface
	}
	return surface.Info{ID: res.Info.ID, WindowID: res.Info.WindowID, Status: res.Info.Status}, nil
}

func (b *Broker) CaptureVisible(ctx context.Context, windowID int) (string, error) {
	res, err := b.call(ctx, surfaceRequest{SurfaceOp: opCaptureVisible, WindowID: windowID})
	if err != nil {
		return "", err
	}
	return res.DataURL, nil
}

func (b *Broker) OpenRecorderWindow(ctx context.Context, opts surface.WindowOpts) (surface.Window, error) {
	res, err := b.call(ctx, surfaceRequest{SurfaceOp: opOpenRecorder, Opts: &opts})
	if err != nil {
		return surface.Window{}, err
	}
	if res.Window == nil {
		return surface.Window{}, fmt.Errorf("surface op returned no window")
	}
	return surface.Window{ID: res.Window.ID, SurfaceID: res.Window.SurfaceID}, nil
}

func (b *Broker) Send(ctx context.Context, surfaceID int, data []byte) ([]byte, error) {
	res, err := b.call(ctx, surfaceRequest{SurfaceOp: opSend, SurfaceID: surfaceID, Data: data})
	if err != nil {
		return nil, err
	}
	return res.Reply, nil
}

func (b *Broker) Close(ctx context.Context, windowID int) error {
	_, err := b.call(ctx, surfaceRequest{SurfaceOp: opClose, WindowID: windowID})
	return err
}
