package h264encoder

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/designstage/pkg/ports"
)

// testFrame creates a BGRA frame with a gradient that shifts per frame.
func testFrame(width, height, n int) ports.Frame {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width*4 + x*4
			pix[i+0] = uint8((x + y + n*3) % 256)
			pix[i+1] = uint8((y*255/height + n*5) % 256)
			pix[i+2] = uint8((x*255/width + n*10) % 256)
			pix[i+3] = 255
		}
	}
	return ports.Frame{
		Pix:    pix,
		Stride: width * 4,
		Width:  width,
		Height: height,
		Format: ports.PixelFormatBGRA32,
	}
}

func skipWithoutFFmpeg(t *testing.T) {
	t.Helper()
	if !IsFFmpegAvailable() {
		t.Skip("ffmpeg not available")
	}
}

func TestEncoder_NotInitialized(t *testing.T) {
	enc := New("")
	if err := enc.EncodeFrame(testFrame(4, 4, 0), 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if err := enc.End(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	enc.Abort()
}

func TestEncoder_RejectsTinyTrack(t *testing.T) {
	enc := New("")
	var buf bytes.Buffer
	if err := enc.Begin(&buf, 1, 1, 15, ports.EncoderOptions{}); !errors.Is(err, ErrFrameSize) {
		t.Errorf("expected ErrFrameSize, got %v", err)
	}
}

func TestEncoder_CustomPathMissing(t *testing.T) {
	enc := New("/nonexistent/ffmpeg")
	var buf bytes.Buffer
	err := enc.Begin(&buf, 64, 64, 15, ports.EncoderOptions{})
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestEncoder_PreservesTimestamps(t *testing.T) {
	skipWithoutFFmpeg(t)

	width, height := 160, 120
	enc := New("")
	var buf bytes.Buffer
	opts := ports.EncoderOptions{Bitrate: 1000, Realtime: true, PixelFormat: ports.PixelFormatBGRA32}
	if err := enc.Begin(&buf, width, height, 15, opts); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	// Irregular gaps, as produced by a capture loop under load.
	pts := []time.Duration{0, 66 * time.Millisecond, 133 * time.Millisecond, 300 * time.Millisecond, 366 * time.Millisecond}
	for i, p := range pts {
		if err := enc.EncodeFrame(testFrame(width, height, i), p); err != nil {
			t.Fatalf("EncodeFrame %d failed: %v", i, err)
		}
	}
	if err := enc.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	data := buf.Bytes()
	if len(data) < 8 || string(data[4:8]) != "ftyp" {
		t.Fatal("expected output to start with ftyp")
	}

	f, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeFile failed: %v", err)
	}
	if !f.IsFragmented() {
		t.Fatal("expected fragmented MP4")
	}

	trex := f.Init.Moov.Mvex.Trexs[0]
	var decodeTimes []uint64
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				t.Fatalf("GetFullSamples failed: %v", err)
			}
			for _, s := range samples {
				decodeTimes = append(decodeTimes, s.DecodeTime)
			}
		}
	}

	if len(decodeTimes) != len(pts) {
		t.Fatalf("expected %d samples, got %d", len(pts), len(decodeTimes))
	}
	for i, p := range pts {
		if decodeTimes[i] != toTicks(p) {
			t.Errorf("sample %d: decode time %d, want %d", i, decodeTimes[i], toTicks(p))
		}
	}
}

func TestEncoder_FrameSizeMismatch(t *testing.T) {
	skipWithoutFFmpeg(t)

	enc := New("")
	var buf bytes.Buffer
	if err := enc.Begin(&buf, 64, 64, 15, ports.EncoderOptions{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer enc.Abort()

	if err := enc.EncodeFrame(testFrame(32, 32, 0), 0); !errors.Is(err, ErrFrameSize) {
		t.Errorf("expected ErrFrameSize, got %v", err)
	}
}

func TestEncoder_AbortIsIdempotent(t *testing.T) {
	skipWithoutFFmpeg(t)

	enc := New("")
	var buf bytes.Buffer
	if err := enc.Begin(&buf, 64, 64, 15, ports.EncoderOptions{}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	_ = enc.EncodeFrame(testFrame(64, 64, 0), 0)
	enc.Abort()
	enc.Abort()

	if err := enc.End(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized after abort, got %v", err)
	}
}
