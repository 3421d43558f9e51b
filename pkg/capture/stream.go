// Package capture delivers live frames of a screen region at a fixed rate.
package capture

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/image/draw"

	"github.com/user/designstage/pkg/ports"
)

// Options configures a capture stream.
type Options struct {
	FPS         float64
	PixelFormat ports.PixelFormat
}

// DefaultOptions returns 15 fps BGRA capture.
func DefaultOptions() Options {
	return Options{
		FPS:         15,
		PixelFormat: ports.PixelFormatBGRA32,
	}
}

// FrameHandler receives frames on the stream's worker goroutine.
type FrameHandler func(frame ports.Frame)

// Stats reports stream counters.
type Stats struct {
	Delivered int64
	Dropped   int64 // Frames with a non-increasing timestamp
	Errors    int64
}

// Stream grabs a region of one display and pushes frames to a handler.
type Stream struct {
	source   ports.ScreenSource
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger

	mu      sync.Mutex
	region  ports.Region
	opts    Options
	cancel  context.CancelFunc
	done    chan struct{}
	display int

	delivered atomic.Int64
	dropped   atomic.Int64
	errors    atomic.Int64
}

// New creates a stream. Configure must be called before Start.
func New(source ports.ScreenSource, renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger) *Stream {
	return &Stream{
		source:   source,
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("capture"),
		opts:     DefaultOptions(),
	}
}

// Configure sets the crop region and stream options. Output frames are
// region.Width x region.Height pixels.
func (s *Stream) Configure(region ports.Region, opts Options) {
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.region = region
	s.opts = opts
}

// Interval returns the minimum time between frames.
func (s *Stream) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(float64(time.Second) / s.opts.FPS)
}

// Start checks the region against the displays and launches delivery.
// The source crop is always the configured region.
func (s *Stream) Start(ctx context.Context, handler FrameHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return fmt.Errorf("%w: stream already started", ports.ErrRecordingFailed)
	}
	if s.region.Empty() {
		return fmt.Errorf("%w: %s", ports.ErrInvalidRegion, s.region)
	}

	displays, err := s.source.Displays()
	if err != nil {
		return fmt.Errorf("%w: enumerate displays: %v", ports.ErrRecordingFailed, err)
	}
	if len(displays) == 0 {
		return ports.ErrNoDisplayFound
	}

	// The source reads across the virtual screen, so a region straddling
	// two displays is grabbed whole.
	rect := s.region.Rect()
	if !onScreen(displays, rect) {
		return fmt.Errorf("%w: %s is outside every display", ports.ErrInvalidRegion, s.region)
	}
	display := pickDisplay(displays, s.region)

	s.display = display.Index
	s.delivered.Store(0)
	s.dropped.Store(0)
	s.errors.Store(0)

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	interval := time.Duration(float64(time.Second) / s.opts.FPS)
	s.logger.Debug("Capturing display %d at %.1f fps", display.Index, s.opts.FPS)

	go s.run(workerCtx, s.done, rect, s.region.Width, s.region.Height, s.opts.PixelFormat, interval, handler)
	return nil
}

// Stop ends delivery and waits for the worker to exit.
func (s *Stream) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return fmt.Errorf("%w: stream not started", ports.ErrRecordingFailed)
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for capture worker: %v", ports.ErrRecordingFailed, ctx.Err())
	}

	s.logger.Debug("Capture stream stopped after %d frames", s.delivered.Load())
	return nil
}

// Stats returns the stream counters.
func (s *Stream) Stats() Stats {
	return Stats{
		Delivered: s.delivered.Load(),
		Dropped:   s.dropped.Load(),
		Errors:    s.errors.Load(),
	}
}

// Display returns the index of the display being captured.
func (s *Stream) Display() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

func (s *Stream) run(ctx context.Context, done chan struct{}, rect image.Rectangle, width, height int, format ports.PixelFormat, interval time.Duration, handler FrameHandler) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last time.Duration
	first := true

	for {
		capture, err := s.source.Capture(ctx, rect)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			n := s.errors.Add(1)
			if n == 1 || n%30 == 0 {
				s.logger.Warn("Frame grab failed: %s", err.Error())
			}
		case !first && capture.Timestamp <= last:
			s.dropped.Add(1)
		default:
			first = false
			last = capture.Timestamp

			img := s.scale(capture.Image, width, height)
			frame := toFrame(img, format, capture.Timestamp)

			index := int(s.delivered.Add(1)) - 1
			if s.sink != nil && s.sink.Enabled() {
				if err := s.sink.SaveCapturedFrame(index, img); err != nil {
					s.logger.Warn("Debug sink write failed: %s", err.Error())
				}
			}
			handler(frame)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// scale resizes HiDPI captures to the output size.
func (s *Stream) scale(img *image.RGBA, width, height int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	resized := s.renderer.ResizeImage(img, width, height)
	if rgba, ok := resized.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), resized, resized.Bounds().Min, draw.Src)
	return dst
}

// onScreen reports whether rect overlaps any display.
func onScreen(displays []ports.Display, rect image.Rectangle) bool {
	for _, d := range displays {
		if rect.Overlaps(d.Bounds) {
			return true
		}
	}
	return false
}

// pickDisplay returns the display containing the region's centre, or the
// first display.
func pickDisplay(displays []ports.Display, region ports.Region) ports.Display {
	c := region.Center()
	for _, d := range displays {
		if c.In(d.Bounds) {
			return d
		}
	}
	return displays[0]
}
