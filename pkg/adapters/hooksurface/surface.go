// Package hooksurface provides a selection surface driven by global
// pointer and keyboard hooks from github.com/robotn/gohook.
//
// It is the fallback where no windowed surface exists. The surface has no
// window of its own, so the overlay is not visible and pointer input also
// reaches the applications underneath. Rendered overlay frames are kept for
// inspection and can be mirrored to a callback.
package hooksurface

import (
	"context"
	"errors"
	"image"
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/user/designstage/pkg/ports"
)

// ErrAlreadyShown is returned when Show is called twice.
var ErrAlreadyShown = errors.New("hooksurface: already shown")

// Surface implements ports.OverlaySurface.
type Surface struct {
	// OnPresent, if set, receives every presented frame.
	OnPresent func(img image.Image)

	start func() chan hook.Event
	end   func()

	mu      sync.Mutex
	bounds  image.Rectangle
	latest  image.Image
	shown   bool
	closed  bool
	events  chan ports.PointerEvent
	done    chan struct{}
	stopped chan struct{}
}

// New creates a surface backed by the process-wide gohook event loop.
func New() *Surface {
	return &Surface{
		start:  hook.Start,
		end:    hook.End,
		events: make(chan ports.PointerEvent, 64),
	}
}

// Show starts listening for global input.
func (s *Surface) Show(bounds image.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shown {
		return ErrAlreadyShown
	}
	s.shown = true
	s.bounds = bounds
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.loop(s.start(), s.done, s.stopped)
	return nil
}

// Present stores the latest overlay frame.
func (s *Surface) Present(img image.Image) error {
	s.mu.Lock()
	s.latest = img
	cb := s.OnPresent
	s.mu.Unlock()

	if cb != nil {
		cb(img)
	}
	return nil
}

// Latest returns the most recently presented frame.
func (s *Surface) Latest() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Events delivers translated input events.
func (s *Surface) Events() <-chan ports.PointerEvent {
	return s.events
}

// Origin reports top-left local coordinates.
func (s *Surface) Origin() ports.Origin {
	return ports.OriginTopLeft
}

// Close stops the hook and waits for the event loop to exit.
func (s *Surface) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	shown, done, stopped := s.shown, s.done, s.stopped
	s.mu.Unlock()

	if !shown {
		close(s.events)
		return nil
	}

	close(done)
	s.end()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Surface) loop(raw chan hook.Event, done, stopped chan struct{}) {
	defer close(stopped)
	defer close(s.events)

	tr := translator{}
	for {
		select {
		case <-done:
			return
		case ev, ok := <-raw:
			if !ok {
				return
			}
			s.mu.Lock()
			origin := s.bounds.Min
			s.mu.Unlock()

			pe, ok := tr.translate(ev, origin)
			if !ok {
				continue
			}
			select {
			case s.events <- pe:
			case <-done:
				return
			}
		}
	}
}

// translator maps gohook events to pointer events. gohook reports both a
// press (MouseHold) and a click (MouseDown) per button press; only the
// press starts a drag.
type translator struct {
	pressed bool
}

func (t *translator) translate(ev hook.Event, origin image.Point) (ports.PointerEvent, bool) {
	p := image.Pt(int(ev.X), int(ev.Y)).Sub(origin)

	switch ev.Kind {
	case hook.MouseHold:
		if t.pressed || ev.Button != hook.MouseMap["left"] {
			return ports.PointerEvent{}, false
		}
		t.pressed = true
		return ports.PointerEvent{Kind: ports.PointerDown, Point: p}, true

	case hook.MouseDrag:
		if !t.pressed {
			return ports.PointerEvent{}, false
		}
		return ports.PointerEvent{Kind: ports.PointerDrag, Point: p}, true

	case hook.MouseUp:
		if !t.pressed {
			return ports.PointerEvent{}, false
		}
		t.pressed = false
		return ports.PointerEvent{Kind: ports.PointerUp, Point: p}, true

	case hook.KeyDown:
		if ev.Keycode == hook.Keycode["esc"] {
			return ports.PointerEvent{Kind: ports.KeyEscape}, true
		}
	}
	return ports.PointerEvent{}, false
}

var _ ports.OverlaySurface = (*Surface)(nil)
