package surface

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process Broker. It backs the dry-run host and the
// coordinator tests; recorder behavior is scripted through OnSend.
type MemoryBroker struct {
	mu       sync.Mutex
	nextID   int
	surfaces map[int]Info
	captures map[int]string // windowID -> PNG data URL served by CaptureVisible
	inbox    map[int][][]byte

	// OnSend, when set, intercepts Send and produces the reply. It runs
	// without the broker lock held.
	OnSend func(surfaceID int, data []byte) ([]byte, error)
}

// NewMemoryBroker creates an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		nextID:   1,
		surfaces: make(map[int]Info),
		captures: make(map[int]string),
		inbox:    make(map[int][][]byte),
	}
}

// AddSurface registers a surface and returns its id.
func (b *MemoryBroker) AddSurface(windowID int, status Status) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.surfaces[id] = Info{ID: id, WindowID: windowID, Status: status}
	return id
}

// SetStatus updates a surface's load state.
func (b *MemoryBroker) SetStatus(id int, status Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if info, ok := b.surfaces[id]; ok {
		info.Status = status
		b.surfaces[id] = info
	}
}

// SetCapture sets the image CaptureVisible returns for a window.
func (b *MemoryBroker) SetCapture(windowID int, dataURL string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.captures[windowID] = dataURL
}

// RemoveSurface simulates the user closing a tab.
func (b *MemoryBroker) RemoveSurface(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.surfaces, id)
}

// Sent returns the messages delivered to a surface, oldest first.
func (b *MemoryBroker) Sent(surfaceID int) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := make([][]byte, len(b.inbox[surfaceID]))
	copy(msgs, b.inbox[surfaceID])
	return msgs
}

func (b *MemoryBroker) Get(_ context.Context, id int) (Info, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.surfaces[id]
	if !ok {
		return Info{}, ErrNoSurface
	}
	return info, nil
}

func (b *MemoryBroker) CaptureVisible(_ context.Context, windowID int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dataURL, ok := b.captures[windowID]
	if !ok {
		return "", ErrNoWindow
	}
	return dataURL, nil
}

func (b *MemoryBroker) OpenRecorderWindow(_ context.Context, _ WindowOpts) (Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	winID := b.nextID
	b.nextID++
	surfID := b.nextID
	b.nextID++
	b.surfaces[surfID] = Info{ID: surfID, WindowID: winID, Status: StatusComplete}
	return Window{ID: winID, SurfaceID: surfID}, nil
}

func (b *MemoryBroker) Send(_ context.Context, surfaceID int, data []byte) ([]byte, error) {
	b.mu.Lock()
	_, ok := b.surfaces[surfaceID]
	if !ok {
		b.mu.Unlock()
		return nil, ErrNoSurface
	}
	b.inbox[surfaceID] = append(b.inbox[surfaceID], data)
	onSend := b.OnSend
	b.mu.Unlock()

	if onSend != nil {
		return onSend(surfaceID, data)
	}
	return nil, nil
}

func (b *MemoryBroker) Close(_ context.Context, windowID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, info := range b.surfaces {
		if info.WindowID == windowID {
			delete(b.surfaces, id)
		}
	}
	delete(b.captures, windowID)
	return nil
}
