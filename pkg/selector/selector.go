// Package selector implements interactive region selection over a
// full-screen overlay surface.
package selector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/user/designstage/pkg/ports"
)

// ErrSelectionActive is returned by Begin while a selection is outstanding.
var ErrSelectionActive = errors.New("selector: selection already active")

// Result is the outcome of one selection.
type Result struct {
	Region    ports.Region
	Cancelled bool
}

// Options configures the selector.
type Options struct {
	MinSize      int           // Exclusive lower bound for both sides
	ReleaseDelay time.Duration // Wait between surface teardown and callback
	DimOpacity   float64       // Alpha of the dim layer, 0-1
	LabelOffset  int           // Gap between the label and the rectangle
	FontSize     float64
}

// DefaultOptions returns the standard selector options.
func DefaultOptions() Options {
	return Options{
		MinSize:      ports.MinRegionSize,
		ReleaseDelay: 100 * time.Millisecond,
		DimOpacity:   0.3,
		LabelOffset:  10,
		FontSize:     13,
	}
}

// Selector drives one region selection at a time.
type Selector struct {
	newSurface func() ports.OverlaySurface
	source     ports.ScreenSource
	renderer   ports.Renderer
	sink       ports.DebugSink
	logger     ports.Logger
	opts       Options

	mu       sync.Mutex
	surface  ports.OverlaySurface
	origin   ports.Origin
	bounds   image.Rectangle
	callback func(Result)
	anchor   image.Point
	dragging bool
	rect     ports.Region
	frames   int

	teardown sync.WaitGroup
}

// New creates a selector. newSurface is called once per selection.
func New(newSurface func() ports.OverlaySurface, source ports.ScreenSource, renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger, opts Options) *Selector {
	return &Selector{
		newSurface: newSurface,
		source:     source,
		renderer:   renderer,
		sink:       sink,
		logger:     logger.WithComponent("selector"),
		opts:       opts,
	}
}

// Begin shows the overlay across all displays and returns immediately.
// cb receives exactly one Result, after the overlay has been torn down.
func (s *Selector) Begin(ctx context.Context, cb func(Result)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.callback != nil {
		return ErrSelectionActive
	}

	displays, err := s.source.Displays()
	if err != nil {
		return fmt.Errorf("enumerate displays: %w", err)
	}
	if len(displays) == 0 {
		return ports.ErrNoDisplayFound
	}
	bounds := displays[0].Bounds
	for _, d := range displays[1:] {
		bounds = bounds.Union(d.Bounds)
	}

	surface := s.newSurface()
	if err := surface.Show(bounds); err != nil {
		return fmt.Errorf("show overlay: %w", err)
	}

	s.surface = surface
	s.origin = surface.Origin()
	s.bounds = bounds
	s.callback = cb
	s.dragging = false
	s.rect = ports.Region{}
	s.frames = 0

	s.logger.Debug("Overlay shown over %dx%d", bounds.Dx(), bounds.Dy())
	s.presentLocked()

	go s.pump(ctx, surface)
	return nil
}

// Active reports whether a selection is outstanding.
func (s *Selector) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callback != nil
}

// Cancel ends the selection as if Escape was pressed.
func (s *Selector) Cancel() {
	s.HandleEvent(ports.PointerEvent{Kind: ports.KeyEscape})
}

// Wait blocks until pending teardowns have delivered their results.
func (s *Selector) Wait() {
	s.teardown.Wait()
}

// HandleEvent applies one input event in surface-local coordinates.
func (s *Selector) HandleEvent(ev ports.PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.callback == nil {
		return
	}

	p := s.toScreen(ev.Point)
	switch ev.Kind {
	case ports.PointerDown:
		s.anchor = p
		s.dragging = true
		s.rect = ports.Region{X: p.X, Y: p.Y}
		s.presentLocked()

	case ports.PointerDrag:
		if !s.dragging {
			return
		}
		s.rect = ports.RegionFromPoints(s.anchor, p)
		s.presentLocked()

	case ports.PointerUp:
		if !s.dragging {
			return
		}
		s.rect = ports.RegionFromPoints(s.anchor, p)
		if s.rect.Valid(s.opts.MinSize) {
			s.finishLocked(Result{Region: s.rect})
		} else {
			s.logger.Debug("Region %s is too small, ignoring", s.rect)
			s.finishLocked(Result{Cancelled: true})
		}

	case ports.KeyEscape:
		s.finishLocked(Result{Cancelled: true})
	}
}

// toScreen converts a surface-local point to absolute screen coordinates.
func (s *Selector) toScreen(p image.Point) image.Point {
	if s.origin == ports.OriginBottomLeft {
		return image.Pt(s.bounds.Min.X+p.X, s.bounds.Min.Y+s.bounds.Dy()-p.Y)
	}
	return p.Add(s.bounds.Min)
}

// finishLocked detaches the callback and tears the surface down. The
// callback runs after the surface has acknowledged its close.
func (s *Selector) finishLocked(res Result) {
	cb := s.callback
	surface := s.surface
	s.callback = nil
	s.surface = nil
	s.dragging = false

	s.teardown.Add(1)
	go func() {
		defer s.teardown.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := surface.Close(ctx); err != nil {
			s.logger.Warn("Overlay close failed: %s", err.Error())
		}
		cancel()
		s.logger.Debug("Overlay closed")

		if s.opts.ReleaseDelay > 0 {
			time.Sleep(s.opts.ReleaseDelay)
		}
		cb(res)
	}()
}

// pump forwards surface input until the surface closes or ctx ends.
func (s *Selector) pump(ctx context.Context, surface ports.OverlaySurface) {
	events := surface.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ev)
		case <-ctx.Done():
			s.mu.Lock()
			if s.surface == surface {
				s.finishLocked(Result{Cancelled: true})
			}
			s.mu.Unlock()
			return
		}
	}
}
