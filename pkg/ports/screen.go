package ports

import (
	"context"
	"image"
	"time"
)

// Display describes one physical display.
type Display struct {
	Index  int
	Bounds image.Rectangle // Absolute screen coordinates
}

// Capture is a single grab returned by a ScreenSource.
type Capture struct {
	Image *image.RGBA

	// Timestamp is taken by the source at grab time on its own monotonic clock.
	Timestamp time.Duration
}

// ScreenSource abstracts the host display and capture subsystem.
type ScreenSource interface {
	// Displays enumerates the active displays.
	Displays() ([]Display, error)

	// Capture grabs the pixels inside rect (absolute screen coordinates).
	Capture(ctx context.Context, rect image.Rectangle) (Capture, error)
}
