package ports

import (
	"fmt"
	"time"
)

// PixelFormat identifies the byte layout of a frame buffer.
type PixelFormat int

const (
	// PixelFormatBGRA32 stores 4 bytes per pixel in B, G, R, A order.
	PixelFormatBGRA32 PixelFormat = iota
	// PixelFormatRGBA32 stores 4 bytes per pixel in R, G, B, A order.
	PixelFormatRGBA32
)

// String returns the ffmpeg-style name of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatBGRA32:
		return "bgra"
	case PixelFormatRGBA32:
		return "rgba"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// Frame is an immutable captured image with its presentation timestamp.
// Producers must not reuse Pix after handing a frame off.
type Frame struct {
	Pix       []byte
	Stride    int
	Width     int
	Height    int
	Format    PixelFormat
	Timestamp time.Duration
}

// Row returns the pixel bytes of row y without stride padding.
func (f Frame) Row(y int) []byte {
	start := y * f.Stride
	return f.Pix[start : start+f.Width*4]
}
