// Package ports defines interfaces for external dependencies.
package ports

import (
	"fmt"
	"image"
)

// MinRegionSize is the exclusive lower bound for a usable region side.
const MinRegionSize = 10

// Region is an axis-aligned rectangle in absolute screen coordinates
// (top-left origin, y grows downward).
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RegionFromPoints returns the bounding box of two corner points.
func RegionFromPoints(a, b image.Point) Region {
	return Region{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  abs(b.X - a.X),
		Height: abs(b.Y - a.Y),
	}
}

// Valid reports whether both sides are strictly larger than minSize.
func (r Region) Valid(minSize int) bool {
	return r.Width > minSize && r.Height > minSize
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Center returns the midpoint of the region.
func (r Region) Center() image.Point {
	return image.Pt(r.X+r.Width/2, r.Y+r.Height/2)
}

// String formats the region as "WxH+X+Y".
func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
