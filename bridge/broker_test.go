package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/whispa-ai/whispad/surface"
)

// respond answers each outgoing surface request by routing a scripted result
// back into the broker, the way the host loop does for real traffic.
func respond(b *Broker, script func(req surfaceRequest) surfaceResult) func([]byte) error {
	return func(data []byte) error {
		var req surfaceRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		res := script(req)
		res.SurfaceResult = true
		res.ID = req.ID
		out, err := json.Marshal(res)
		if err != nil {
			return err
		}
		go b.Route(out)
		return nil
	}
}

func TestBrokerGet(t *testing.T) {
	b := NewBroker(nil)
	b.write = respond(b, func(req surfaceRequest) surfaceResult {
		if req.SurfaceOp != opGet || req.SurfaceID != 42 {
			t.Errorf("request = %+v, want get surface 42", req)
		}
		return surfaceResult{Info: &surfaceInfo{ID: 42, WindowID: 10, Status: surface.StatusComplete}}
	})

	info, err := b.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if info.WindowID != 10 || info.Status != surface.StatusComplete {
		t.Errorf("info = %+v, want window 10 complete", info)
	}
}

func TestBrokerErrorCodes(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{codeNoSurface, surface.ErrNoSurface},
		{codeNoWindow, surface.ErrNoWindow},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			b := NewBroker(nil)
			b.write = respond(b, func(surfaceRequest) surfaceResult {
				return surfaceResult{Code: tt.code, Error: "gone"}
			})

			_, err := b.Get(context.Background(), 1)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBrokerSendRoundTrip(t *testing.T) {
	b := NewBroker(nil)
	b.write = respond(b, func(req surfaceRequest) surfaceResult {
		if req.SurfaceOp != opSend {
			t.Errorf("op = %q, want send", req.SurfaceOp)
		}
		return surfaceResult{Reply: json.RawMessage(`{"ok":true}`)}
	})

	reply, err := b.Send(context.Background(), 5, []byte(`{"kind":"stop_recording"}`))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(reply) != `{"ok":true}` {
		t.Errorf("reply = %s", reply)
	}
}

func TestBrokerContextCancellation(t *testing.T) {
	b := NewBroker(func([]byte) error { return nil }) // never answered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := b.Get(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	b.mu.Lock()
	pending := len(b.pending)
	b.mu.Unlock()
	if pending != 0 {
		t.Errorf("pending calls after cancellation = %d, want 0", pending)
	}
}

func TestRouteIgnoresNonSurfaceTraffic(t *testing.T) {
	b := NewBroker(nil)
	if b.Route([]byte(`{"kind":"request_capture"}`)) {
		t.Error("Route() consumed an application message")
	}
	if b.Route([]byte(`not json`)) {
		t.Error("Route() consumed malformed input")
	}
	// Surface results are consumed even when no call is waiting.
	if !b.Route([]byte(`{"surfaceResult":true,"id":99}`)) {
		t.Error("Route() rejected an unmatched surface result")
	}
}
