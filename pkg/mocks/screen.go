package mocks

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/user/designstage/pkg/ports"
)

// ScreenSource is a mock implementation of ports.ScreenSource. By default
// it reports one 1920x1080 display and returns solid frames stamped with
// the time since the mock was created.
type ScreenSource struct {
	DisplaysFunc func() ([]ports.Display, error)
	CaptureFunc  func(ctx context.Context, rect image.Rectangle) (ports.Capture, error)

	// Fill is the colour of captured frames.
	Fill color.RGBA

	mu      sync.Mutex
	epoch   time.Time
	Rects   []image.Rectangle
	Display []ports.Display
}

// NewScreenSource creates a mock with the given displays. With no displays,
// a single 1920x1080 display at the origin is used.
func NewScreenSource(displays ...ports.Display) *ScreenSource {
	if len(displays) == 0 {
		displays = []ports.Display{{Index: 0, Bounds: image.Rect(0, 0, 1920, 1080)}}
	}
	return &ScreenSource{
		Fill:    color.RGBA{R: 40, G: 80, B: 120, A: 255},
		epoch:   time.Now(),
		Display: displays,
	}
}

func (m *ScreenSource) Displays() ([]ports.Display, error) {
	if m.DisplaysFunc != nil {
		return m.DisplaysFunc()
	}
	return m.Display, nil
}

func (m *ScreenSource) Capture(ctx context.Context, rect image.Rectangle) (ports.Capture, error) {
	m.mu.Lock()
	m.Rects = append(m.Rects, rect)
	m.mu.Unlock()

	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, rect)
	}
	img := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = m.Fill.R
		img.Pix[i+1] = m.Fill.G
		img.Pix[i+2] = m.Fill.B
		img.Pix[i+3] = m.Fill.A
	}
	return ports.Capture{Image: img, Timestamp: time.Since(m.epoch)}, nil
}

// CaptureCount returns the number of Capture calls.
func (m *ScreenSource) CaptureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Rects)
}

var _ ports.ScreenSource = (*ScreenSource)(nil)
