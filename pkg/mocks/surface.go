package mocks

import (
	"context"
	"image"
	"sync"

	"github.com/user/designstage/pkg/ports"
)

// OverlaySurface is a mock implementation of ports.OverlaySurface. Tests
// feed input through Send.
type OverlaySurface struct {
	ShowFunc  func(bounds image.Rectangle) error
	CloseFunc func(ctx context.Context) error

	origin ports.Origin
	events chan ports.PointerEvent
	once   sync.Once

	mu         sync.Mutex
	Bounds     image.Rectangle
	Shows      int
	Presents   []image.Image
	CloseCalls int
}

// NewOverlaySurface creates a mock surface with the given origin.
func NewOverlaySurface(origin ports.Origin) *OverlaySurface {
	return &OverlaySurface{
		origin: origin,
		events: make(chan ports.PointerEvent, 64),
	}
}

func (m *OverlaySurface) Show(bounds image.Rectangle) error {
	m.mu.Lock()
	m.Shows++
	m.Bounds = bounds
	m.mu.Unlock()
	if m.ShowFunc != nil {
		return m.ShowFunc(bounds)
	}
	return nil
}

func (m *OverlaySurface) Present(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Presents = append(m.Presents, img)
	return nil
}

func (m *OverlaySurface) Events() <-chan ports.PointerEvent {
	return m.events
}

func (m *OverlaySurface) Origin() ports.Origin {
	return m.origin
}

func (m *OverlaySurface) Close(ctx context.Context) error {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()
	m.once.Do(func() { close(m.events) })
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx)
	}
	return nil
}

// Send delivers an input event. It is a no-op once the surface is closed.
func (m *OverlaySurface) Send(kind ports.PointerEventKind, x, y int) {
	defer func() { _ = recover() }()
	m.events <- ports.PointerEvent{Kind: kind, Point: image.Pt(x, y)}
}

// Drag sends a down, a drag and an up event from a to b.
func (m *OverlaySurface) Drag(a, b image.Point) {
	m.Send(ports.PointerDown, a.X, a.Y)
	m.Send(ports.PointerDrag, (a.X+b.X)/2, (a.Y+b.Y)/2)
	m.Send(ports.PointerDrag, b.X, b.Y)
	m.Send(ports.PointerUp, b.X, b.Y)
}

// Counts returns the number of Show, Present and Close calls.
func (m *OverlaySurface) Counts() (shows, presents, closes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Shows, len(m.Presents), m.CloseCalls
}

var _ ports.OverlaySurface = (*OverlaySurface)(nil)
