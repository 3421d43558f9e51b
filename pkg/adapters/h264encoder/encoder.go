// Package h264encoder provides H.264 video encoding through an external
// ffmpeg process, muxed into fragmented MP4 with mp4ff.
package h264encoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/user/designstage/pkg/ports"
)

// Encoder implements ports.VideoEncoder. Raw frames are piped to ffmpeg,
// and the resulting access units are paired with their presentation
// timestamps in submission order.
type Encoder struct {
	ffmpegPath string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	muxer   *fragmentMuxer
	width   int
	height  int
	fps     float64
	pts     []time.Duration
	lastPTS time.Duration
	readErr error
	frames  int
	aborted bool

	readDone chan struct{}
}

// New creates an encoder. An empty ffmpegPath resolves ffmpeg on Begin.
func New(ffmpegPath string) *Encoder {
	return &Encoder{ffmpegPath: ffmpegPath}
}

// Begin starts the ffmpeg process and the output muxer.
func (e *Encoder) Begin(w io.Writer, width, height int, fps float64, opts ports.EncoderOptions) error {
	if width < 2 || height < 2 {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, width, height)
	}
	if fps <= 0 {
		fps = 30
	}

	path, err := FindFFmpeg(e.ffmpegPath)
	if err != nil {
		return err
	}

	cmd := exec.Command(path, ffmpegArgs(width, height, fps, opts)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stderr.Reset()
	cmd.Stderr = &e.stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start ffmpeg: %v", ErrEncodingFailed, err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.width = width
	e.height = height
	e.fps = fps
	e.pts = nil
	e.lastPTS = 0
	e.readErr = nil
	e.frames = 0
	e.aborted = false
	// The crop filter drops an odd last column or row.
	e.muxer = newFragmentMuxer(w, width&^1, height&^1, fps)
	e.readDone = make(chan struct{})

	go e.readLoop(stdout, e.readDone)
	return nil
}

// EncodeFrame writes one frame to the encoder. pts is the frame's
// presentation time relative to the start of the track.
func (e *Encoder) EncodeFrame(frame ports.Frame, pts time.Duration) error {
	e.mu.Lock()
	if e.cmd == nil || e.aborted {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	if frame.Width != e.width || frame.Height != e.height {
		e.mu.Unlock()
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, frame.Width, frame.Height, e.width, e.height)
	}
	if e.readErr != nil {
		err := e.readErr
		e.mu.Unlock()
		return err
	}
	e.pts = append(e.pts, pts)
	e.frames++
	stdin := e.stdin
	e.mu.Unlock()

	rowBytes := frame.Width * 4
	for y := 0; y < frame.Height; y++ {
		row := frame.Row(y)
		if len(row) < rowBytes {
			return fmt.Errorf("%w: short row %d", ErrFrameSize, y)
		}
		if _, err := stdin.Write(row[:rowBytes]); err != nil {
			return fmt.Errorf("%w: write frame: %v%s", ErrEncodingFailed, err, e.stderrSuffix())
		}
	}
	return nil
}

// End flushes the encoder, waits for ffmpeg to exit and completes the file.
func (e *Encoder) End() error {
	e.mu.Lock()
	if e.cmd == nil || e.aborted {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	cmd, stdin, done := e.cmd, e.stdin, e.readDone
	e.mu.Unlock()

	closeErr := stdin.Close()
	<-done
	waitErr := cmd.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cmd = nil

	if e.readErr != nil {
		return e.readErr
	}
	if waitErr != nil {
		return fmt.Errorf("%w: ffmpeg exited: %v%s", ErrEncodingFailed, waitErr, e.stderrSuffixLocked())
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close stdin: %v", ErrEncodingFailed, closeErr)
	}
	if e.frames == 0 {
		return ErrNoFrames
	}
	return e.muxer.Close()
}

// Abort kills the encoder process. It is safe to call more than once.
func (e *Encoder) Abort() {
	e.mu.Lock()
	if e.cmd == nil || e.aborted {
		e.mu.Unlock()
		return
	}
	e.aborted = true
	cmd, stdin, done := e.cmd, e.stdin, e.readDone
	e.mu.Unlock()

	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	_ = stdin.Close()
	<-done
	_ = cmd.Wait()

	e.mu.Lock()
	e.cmd = nil
	e.mu.Unlock()
}

func (e *Encoder) readLoop(stdout io.Reader, done chan struct{}) {
	defer close(done)

	splitter := newAUSplitter(func(au []byte) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.readErr != nil || e.aborted {
			return
		}
		pts := e.nextPTSLocked()
		if err := e.muxer.AddAccessUnit(au, pts); err != nil {
			e.readErr = err
		}
	})

	buf := make([]byte, 64*1024)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			_, _ = splitter.Write(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				e.mu.Lock()
				if e.readErr == nil && !e.aborted {
					e.readErr = fmt.Errorf("%w: read output: %v", ErrEncodingFailed, err)
				}
				e.mu.Unlock()
			}
			break
		}
	}
	splitter.Flush()
}

// nextPTSLocked pairs the next access unit with its submitted timestamp.
// Without B-frames units come out in input order.
func (e *Encoder) nextPTSLocked() time.Duration {
	if len(e.pts) == 0 {
		e.lastPTS += time.Duration(float64(time.Second) / e.fps)
		return e.lastPTS
	}
	pts := e.pts[0]
	e.pts = e.pts[1:]
	e.lastPTS = pts
	return pts
}

func (e *Encoder) stderrSuffix() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stderrSuffixLocked()
}

func (e *Encoder) stderrSuffixLocked() string {
	msg := bytes.TrimSpace(e.stderr.Bytes())
	if len(msg) == 0 {
		return ""
	}
	return ": " + string(msg)
}

var _ ports.VideoEncoder = (*Encoder)(nil)
