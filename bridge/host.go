package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// HandlerFunc processes one message and returns the reply to relay back.
// A nil reply suppresses the write.
type HandlerFunc func(ctx context.Context, raw []byte) any

// Router gives a first look at every incoming message; returning true
// consumes it. Used to deliver surface RPC results to their pending calls.
type Router func(raw []byte) bool

// Host runs the read-dispatch-write loop over a native-messaging stream.
// The read loop never blocks on a handler: each turn runs in its own
// goroutine, mirroring the event-driven model where a suspended handler
// lets other messages interleave. Handlers revalidate session state after
// every suspension point.
type Host struct {
	in      *bufio.Reader
	handler HandlerFunc
	router  Router

	writeMu sync.Mutex
	out     io.Writer
}

// NewHost creates a Host reading from in and writing replies to out.
func NewHost(in io.Reader, out io.Writer, handler HandlerFunc) *Host {
	return &Host{
		in:      bufio.NewReaderSize(in, 1<<16),
		out:     out,
		handler: handler,
	}
}

// SetRouter installs the pre-dispatch router.
func (h *Host) SetRouter(r Router) { h.router = r }

// Write sends one framed message; safe for concurrent use.
func (h *Host) Write(payload []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	return WriteMessage(h.out, payload)
}

// Run processes messages until the stream closes or ctx is canceled.
func (h *Host) Run(ctx context.Context) error {
	var turns sync.WaitGroup
	defer turns.Wait()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := ReadMessage(h.in)
		if errors.Is(err, io.EOF) {
			slog.Info("bridge closed")
			return nil
		}
		if err != nil {
			return err
		}

		if h.router != nil && h.router(raw) {
			continue
		}

		turns.Add(1)
		go func(raw []byte) {
			defer turns.Done()
			h.runTurn(ctx, raw)
		}(raw)
	}
}

func (h *Host) runTurn(ctx context.Context, raw []byte) {
	reply := h.handler(ctx, raw)
	if reply == nil {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		slog.Error("marshal reply", "error", err)
		return
	}
	if err := h.Write(data); err != nil {
		slog.Error("write reply", "error", err)
	}
}
