package ports

import (
	"context"
	"image"
)

// Origin is the corner a surface measures its local coordinates from.
type Origin int

const (
	// OriginTopLeft means y grows downward, as screen coordinates do.
	OriginTopLeft Origin = iota
	// OriginBottomLeft means y grows upward and must be flipped.
	OriginBottomLeft
)

// PointerEventKind enumerates the input events a selection surface delivers.
type PointerEventKind int

const (
	PointerDown PointerEventKind = iota
	PointerDrag
	PointerUp
	KeyEscape
)

// PointerEvent is an input event in surface-local coordinates.
type PointerEvent struct {
	Kind  PointerEventKind
	Point image.Point
}

// OverlaySurface is the full-screen surface a region selection is drawn on.
type OverlaySurface interface {
	// Show opens the surface over bounds and starts delivering input.
	Show(bounds image.Rectangle) error

	// Present replaces what the surface displays.
	Present(img image.Image) error

	// Events delivers input until the surface is closed.
	Events() <-chan PointerEvent

	// Origin reports the local coordinate convention of delivered events.
	Origin() Origin

	// Close tears the surface down and returns once teardown is complete.
	Close(ctx context.Context) error
}
