package mp4probe

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/designstage/pkg/adapters/h264encoder"
	"github.com/user/designstage/pkg/ports"
)

// buildFragmented writes an init segment plus one fragment with the given
// sample durations, using a track without codec configuration.
func buildFragmented(t *testing.T, width, height int, durs []uint32) []byte {
	t.Helper()
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(90000, "video", "und")
	trak := init.Moov.Trak
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	var decodeTime uint64
	for _, d := range durs {
		data := []byte{0, 0, 0, 1, 0x65}
		frag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: mp4.SyncSampleFlags, Size: uint32(len(data)), Dur: d},
			DecodeTime: decodeTime,
			Data:       data,
		})
		decodeTime += uint64(d)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}
	return buf.Bytes()
}

func TestProbe_Fragmented(t *testing.T) {
	data := buildFragmented(t, 400, 300, []uint32{1350, 1350, 7650, 6000})

	info, err := New().ProbeReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProbeReader failed: %v", err)
	}
	if info.Width != 400 || info.Height != 300 {
		t.Errorf("expected 400x300, got %dx%d", info.Width, info.Height)
	}
	if info.Frames != 4 {
		t.Errorf("expected 4 frames, got %d", info.Frames)
	}
	// 16350 ticks at 90 kHz.
	if want := 181666666 * time.Nanosecond; info.Duration != want {
		t.Errorf("expected %v, got %v", want, info.Duration)
	}
}

func TestProbe_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, buildFragmented(t, 640, 480, []uint32{90000}), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := New().Probe(path)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Duration != time.Second {
		t.Errorf("expected 1s, got %v", info.Duration)
	}
}

func TestProbe_MissingFile(t *testing.T) {
	if _, err := New().Probe(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProbe_NotMP4(t *testing.T) {
	if _, err := New().ProbeReader(bytes.NewReader([]byte("not an mp4 file"))); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestProbe_NoVideoTrack(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(48000, "audio", "und")

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom"})
	_ = ftyp.Encode(&buf)
	_ = init.Moov.Encode(&buf)
	frag, _ := mp4.CreateFragment(1, 1)
	frag.AddFullSample(mp4.FullSample{Sample: mp4.Sample{Size: 1, Dur: 1024}, Data: []byte{0}})
	_ = frag.Encode(&buf)

	_, err := New().ProbeReader(bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, ErrNoVideoTrack) {
		t.Errorf("expected ErrNoVideoTrack, got %v", err)
	}
}

func TestProbe_EncodedRecording(t *testing.T) {
	if !h264encoder.IsFFmpegAvailable() {
		t.Skip("ffmpeg not available")
	}

	width, height := 160, 120
	enc := h264encoder.New("")
	var buf bytes.Buffer
	if err := enc.Begin(&buf, width, height, 10, ports.EncoderOptions{Realtime: true, PixelFormat: ports.PixelFormatBGRA32}); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		frame := ports.Frame{
			Pix:    bytes.Repeat([]byte{byte(i * 40), 80, 160, 255}, width*height),
			Stride: width * 4,
			Width:  width,
			Height: height,
			Format: ports.PixelFormatBGRA32,
		}
		if err := enc.EncodeFrame(frame, time.Duration(i)*100*time.Millisecond); err != nil {
			t.Fatalf("EncodeFrame %d failed: %v", i, err)
		}
	}
	if err := enc.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	info, err := New().ProbeReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ProbeReader failed: %v", err)
	}
	if info.Width != width || info.Height != height {
		t.Errorf("expected %dx%d, got %dx%d", width, height, info.Width, info.Height)
	}
	if info.Codec != "avc1" {
		t.Errorf("expected avc1, got %q", info.Codec)
	}
	if info.Frames != 5 {
		t.Errorf("expected 5 frames, got %d", info.Frames)
	}
	// Four 100ms gaps plus one frame interval for the last sample.
	if want := 500 * time.Millisecond; info.Duration != want {
		t.Errorf("expected %v, got %v", want, info.Duration)
	}
}
