package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/user/designstage/pkg/adapters/logger"
	"github.com/user/designstage/pkg/mocks"
	"github.com/user/designstage/pkg/ports"
)

type collector struct {
	mu     sync.Mutex
	frames []ports.Frame
	got    chan struct{}
}

func newCollector() *collector {
	return &collector{got: make(chan struct{}, 1024)}
}

func (c *collector) handle(f ports.Frame) {
	c.mu.Lock()
	c.frames = append(c.frames, f)
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *collector) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d frames", i, n)
		}
	}
}

func (c *collector) snapshot() []ports.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ports.Frame(nil), c.frames...)
}

func newStream(source ports.ScreenSource, renderer ports.Renderer) *Stream {
	return New(source, renderer, mocks.NewDebugSink(false), logger.NewNoop())
}

func TestStream_DeliversBGRAFrames(t *testing.T) {
	source := mocks.NewScreenSource()
	source.Fill = color.RGBA{R: 10, G: 20, B: 30, A: 255}
	s := newStream(source, &mocks.Renderer{})
	s.Configure(ports.Region{X: 50, Y: 50, Width: 400, Height: 300}, Options{FPS: 100})

	c := newCollector()
	if err := s.Start(context.Background(), c.handle); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.waitFor(t, 3)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	frames := c.snapshot()
	f := frames[0]
	if f.Width != 400 || f.Height != 300 || f.Stride != 1600 {
		t.Errorf("unexpected frame geometry %dx%d stride %d", f.Width, f.Height, f.Stride)
	}
	if f.Format != ports.PixelFormatBGRA32 {
		t.Errorf("expected BGRA frames, got %v", f.Format)
	}
	if f.Pix[0] != 30 || f.Pix[1] != 20 || f.Pix[2] != 10 || f.Pix[3] != 255 {
		t.Errorf("expected BGRA byte order, got %v", f.Pix[:4])
	}

	for i := 1; i < len(frames); i++ {
		if frames[i].Timestamp <= frames[i-1].Timestamp {
			t.Errorf("timestamps not increasing at %d", i)
		}
	}

	rect := source.Rects[0]
	if rect != image.Rect(50, 50, 450, 350) {
		t.Errorf("unexpected capture rect %v", rect)
	}
}

func TestStream_RespectsFrameRate(t *testing.T) {
	s := newStream(mocks.NewScreenSource(), &mocks.Renderer{})
	s.Configure(ports.Region{Width: 100, Height: 100}, Options{FPS: 20})

	if got := s.Interval(); got != 50*time.Millisecond {
		t.Fatalf("expected 50ms interval, got %v", got)
	}

	c := newCollector()
	if err := s.Start(context.Background(), c.handle); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(220 * time.Millisecond)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	// One immediate grab plus at most one per tick.
	if n := len(c.snapshot()); n > 6 {
		t.Errorf("expected at most 6 frames at 20fps over 220ms, got %d", n)
	}
}

func TestStream_ScalesHiDPICaptures(t *testing.T) {
	source := mocks.NewScreenSource()
	source.CaptureFunc = func(ctx context.Context, rect image.Rectangle) (ports.Capture, error) {
		img := image.NewRGBA(image.Rect(0, 0, rect.Dx()*2, rect.Dy()*2))
		return ports.Capture{Image: img, Timestamp: time.Duration(time.Now().UnixNano())}, nil
	}
	renderer := &mocks.Renderer{}
	s := newStream(source, renderer)
	s.Configure(ports.Region{Width: 200, Height: 100}, Options{FPS: 100})

	c := newCollector()
	if err := s.Start(context.Background(), c.handle); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.waitFor(t, 1)
	_ = s.Stop(context.Background())

	f := c.snapshot()[0]
	if f.Width != 200 || f.Height != 100 {
		t.Errorf("expected 200x100 output, got %dx%d", f.Width, f.Height)
	}
	if renderer.Resizes == 0 {
		t.Error("expected HiDPI capture to be resized")
	}
}

func TestStream_DropsNonIncreasingTimestamps(t *testing.T) {
	source := mocks.NewScreenSource()
	var mu sync.Mutex
	stamps := []time.Duration{100, 100, 90, 115, 130}
	var next time.Duration
	source.CaptureFunc = func(ctx context.Context, rect image.Rectangle) (ports.Capture, error) {
		mu.Lock()
		defer mu.Unlock()
		var ts time.Duration
		if len(stamps) > 0 {
			ts, stamps = stamps[0], stamps[1:]
		} else {
			next++
			ts = 1000 + next
		}
		return ports.Capture{Image: image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy())), Timestamp: ts * time.Millisecond}, nil
	}

	s := newStream(source, &mocks.Renderer{})
	s.Configure(ports.Region{Width: 20, Height: 20}, Options{FPS: 200})

	c := newCollector()
	if err := s.Start(context.Background(), c.handle); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.waitFor(t, 3)
	_ = s.Stop(context.Background())

	frames := c.snapshot()
	want := []time.Duration{100 * time.Millisecond, 115 * time.Millisecond, 130 * time.Millisecond}
	for i, w := range want {
		if frames[i].Timestamp != w {
			t.Errorf("frame %d: expected %v, got %v", i, w, frames[i].Timestamp)
		}
	}
	if s.Stats().Dropped < 2 {
		t.Errorf("expected at least 2 dropped frames, got %d", s.Stats().Dropped)
	}
}

func TestStream_GrabErrorsDoNotStopDelivery(t *testing.T) {
	source := mocks.NewScreenSource()
	var mu sync.Mutex
	calls := 0
	source.CaptureFunc = func(ctx context.Context, rect image.Rectangle) (ports.Capture, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls%2 == 1 {
			return ports.Capture{}, errors.New("grab failed")
		}
		return ports.Capture{Image: image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy())), Timestamp: time.Duration(calls) * time.Millisecond}, nil
	}

	s := newStream(source, &mocks.Renderer{})
	s.Configure(ports.Region{Width: 20, Height: 20}, Options{FPS: 200})

	c := newCollector()
	if err := s.Start(context.Background(), c.handle); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.waitFor(t, 2)
	_ = s.Stop(context.Background())

	if s.Stats().Errors == 0 {
		t.Error("expected grab errors to be counted")
	}
}

func TestStream_StartErrors(t *testing.T) {
	t.Run("no displays", func(t *testing.T) {
		source := &mocks.ScreenSource{DisplaysFunc: func() ([]ports.Display, error) { return nil, nil }}
		s := newStream(source, &mocks.Renderer{})
		s.Configure(ports.Region{Width: 100, Height: 100}, DefaultOptions())
		if err := s.Start(context.Background(), func(ports.Frame) {}); !errors.Is(err, ports.ErrNoDisplayFound) {
			t.Errorf("expected ErrNoDisplayFound, got %v", err)
		}
	})

	t.Run("empty region", func(t *testing.T) {
		s := newStream(mocks.NewScreenSource(), &mocks.Renderer{})
		s.Configure(ports.Region{Width: 0, Height: 100}, DefaultOptions())
		if err := s.Start(context.Background(), func(ports.Frame) {}); !errors.Is(err, ports.ErrInvalidRegion) {
			t.Errorf("expected ErrInvalidRegion, got %v", err)
		}
	})

	t.Run("outside every display", func(t *testing.T) {
		s := newStream(mocks.NewScreenSource(), &mocks.Renderer{})
		s.Configure(ports.Region{X: 5000, Y: 5000, Width: 100, Height: 100}, DefaultOptions())
		if err := s.Start(context.Background(), func(ports.Frame) {}); !errors.Is(err, ports.ErrInvalidRegion) {
			t.Errorf("expected ErrInvalidRegion, got %v", err)
		}
	})

	t.Run("already started", func(t *testing.T) {
		s := newStream(mocks.NewScreenSource(), &mocks.Renderer{})
		s.Configure(ports.Region{Width: 100, Height: 100}, DefaultOptions())
		if err := s.Start(context.Background(), func(ports.Frame) {}); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer s.Stop(context.Background())
		if err := s.Start(context.Background(), func(ports.Frame) {}); !errors.Is(err, ports.ErrRecordingFailed) {
			t.Errorf("expected ErrRecordingFailed, got %v", err)
		}
	})
}

func TestStream_RegionAcrossDisplaysIsNotClipped(t *testing.T) {
	source := mocks.NewScreenSource(
		ports.Display{Index: 0, Bounds: image.Rect(0, 0, 1920, 1080)},
		ports.Display{Index: 1, Bounds: image.Rect(1920, 0, 3840, 1080)},
	)
	renderer := &mocks.Renderer{}
	s := newStream(source, renderer)
	region := ports.Region{X: 1700, Y: 100, Width: 400, Height: 300}
	s.Configure(region, Options{FPS: 100})

	c := newCollector()
	if err := s.Start(context.Background(), c.handle); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.waitFor(t, 2)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := source.Rects[0]; got != region.Rect() {
		t.Errorf("expected capture rect %v, got %v", region.Rect(), got)
	}
	if renderer.Resizes != 0 {
		t.Errorf("expected no rescaling, got %d resizes", renderer.Resizes)
	}
	if f := c.snapshot()[0]; f.Width != 400 || f.Height != 300 {
		t.Errorf("expected 400x300 frame, got %dx%d", f.Width, f.Height)
	}
	// Centre (1900, 250) lies on the first display.
	if s.Display() != 0 {
		t.Errorf("expected display 0, got %d", s.Display())
	}
}

func TestStream_StopWithoutStart(t *testing.T) {
	s := newStream(mocks.NewScreenSource(), &mocks.Renderer{})
	if err := s.Stop(context.Background()); !errors.Is(err, ports.ErrRecordingFailed) {
		t.Errorf("expected ErrRecordingFailed, got %v", err)
	}
}

func TestPickDisplay(t *testing.T) {
	displays := []ports.Display{
		{Index: 0, Bounds: image.Rect(0, 0, 1920, 1080)},
		{Index: 1, Bounds: image.Rect(1920, 0, 3840, 1080)},
	}

	tests := []struct {
		name   string
		region ports.Region
		want   int
	}{
		{"primary", ports.Region{X: 100, Y: 100, Width: 200, Height: 200}, 0},
		{"secondary", ports.Region{X: 2000, Y: 100, Width: 200, Height: 200}, 1},
		{"straddling, centre on secondary", ports.Region{X: 1800, Y: 100, Width: 400, Height: 200}, 1},
		{"nowhere", ports.Region{X: -500, Y: -500, Width: 100, Height: 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickDisplay(displays, tt.region).Index; got != tt.want {
				t.Errorf("expected display %d, got %d", tt.want, got)
			}
		})
	}
}

func TestToFrame_RGBAPassthrough(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 4})

	f := toFrame(img, ports.PixelFormatRGBA32, time.Second)
	if f.Pix[0] != 1 || f.Pix[1] != 2 || f.Pix[2] != 3 || f.Pix[3] != 4 {
		t.Errorf("unexpected RGBA bytes %v", f.Pix[:4])
	}
	if &f.Pix[0] == &img.Pix[0] {
		t.Error("frame must not share the capture buffer")
	}
	if f.Timestamp != time.Second {
		t.Errorf("unexpected timestamp %v", f.Timestamp)
	}
}
