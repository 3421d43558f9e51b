package ports

import (
	"io"
	"time"
)

// VideoEncoder abstracts the host video-encode subsystem: one video track
// written into a container on w.
type VideoEncoder interface {
	// Begin starts a track with the specified dimensions and nominal frame rate.
	Begin(w io.Writer, width, height int, fps float64, opts EncoderOptions) error

	// EncodeFrame encodes a single frame at pts, relative to the track origin.
	EncodeFrame(frame Frame, pts time.Duration) error

	// End marks the track finished and flushes the container trailer.
	End() error

	// Abort releases encoder resources without completing the container.
	Abort()
}

// EncoderOptions configures video encoding parameters.
type EncoderOptions struct {
	Bitrate     int         // Target bitrate in kbps
	Quality     int         // CRF value: 0-51 (lower is higher quality)
	Realtime    bool        // Favour latency over compression
	PixelFormat PixelFormat // Layout of incoming frame buffers
}
