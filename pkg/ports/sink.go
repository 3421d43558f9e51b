package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSelectionFrame saves a rendered selection overlay.
	SaveSelectionFrame(index int, img image.Image) error

	// SaveCapturedFrame saves a frame as delivered by the capture stream.
	SaveCapturedFrame(index int, img image.Image) error

	// SaveSessionJSON saves the recording summary as JSON.
	SaveSessionJSON(data []byte) error
}
