// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/designstage/pkg/ports"
)

// capturedJPEGQuality keeps per-frame debug cost low on the capture goroutine.
const capturedJPEGQuality = 80

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSelectionFrame saves a rendered selection overlay as PNG.
func (s *Sink) SaveSelectionFrame(index int, img image.Image) error {
	return s.saveImage("selection", index, img, ports.FormatPNG, "png")
}

// SaveCapturedFrame saves a captured frame as JPEG.
func (s *Sink) SaveCapturedFrame(index int, img image.Image) error {
	return s.saveImage("captured", index, img, ports.FormatJPEG, "jpg")
}

// SaveSessionJSON saves the recording summary as JSON.
func (s *Sink) SaveSessionJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "session.json")
	return s.fs.WriteFile(path, data)
}

func (s *Sink) saveImage(kind string, index int, img image.Image, format ports.ImageFormat, ext string) error {
	dir := filepath.Join(s.baseDir, "frames", kind)
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, format, capturedJPEGQuality)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", kind, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.%s", index, ext))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
