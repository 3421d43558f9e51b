// Package kbscreen captures the screen with github.com/kbinani/screenshot.
package kbscreen

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/kbinani/screenshot"

	"github.com/user/designstage/pkg/ports"
)

// Source implements ports.ScreenSource. Capture timestamps are measured
// on the monotonic clock from the moment the source was created.
type Source struct {
	epoch time.Time
}

// New creates a screen source.
func New() *Source {
	return &Source{epoch: time.Now()}
}

// Displays enumerates the active displays.
func (s *Source) Displays() ([]ports.Display, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ports.ErrNoDisplayFound
	}

	displays := make([]ports.Display, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, ports.Display{
			Index:  i,
			Bounds: screenshot.GetDisplayBounds(i),
		})
	}
	return displays, nil
}

// Capture grabs rect. On HiDPI displays the image may be larger than rect.
func (s *Source) Capture(ctx context.Context, rect image.Rectangle) (ports.Capture, error) {
	if err := ctx.Err(); err != nil {
		return ports.Capture{}, err
	}

	img, err := screenshot.CaptureRect(rect)
	ts := time.Since(s.epoch)
	if err != nil {
		return ports.Capture{}, fmt.Errorf("capture %v: %w", rect, err)
	}
	return ports.Capture{Image: img, Timestamp: ts}, nil
}

var _ ports.ScreenSource = (*Source)(nil)
