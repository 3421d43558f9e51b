// Package framewriter turns a stream of timestamped frames into a single
// video file with timing preserved.
package framewriter

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/designstage/pkg/ports"
)

// State is the lifecycle stage of a Writer.
type State int

const (
	// StateUnopened is the state before the first frame is accepted.
	StateUnopened State = iota
	// StateWriting means the time origin is set and frames are flowing.
	StateWriting
	// StateFinalizing means intake has stopped and the file is completing.
	StateFinalizing
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateWriting:
		return "writing"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// partSuffix marks an output file that is still being written.
const partSuffix = ".part"

// Options configures a Writer.
type Options struct {
	FPS        float64       // Nominal rate handed to the encoder
	QueueDepth int           // Frames buffered between Submit and the encoder
	ReadyWait  time.Duration // How long Submit waits for queue space
	Encoder    ports.EncoderOptions
}

// DefaultOptions returns real-time H.264 settings at 15 fps.
func DefaultOptions() Options {
	return Options{
		FPS:        15,
		QueueDepth: 8,
		ReadyWait:  time.Millisecond,
		Encoder: ports.EncoderOptions{
			Bitrate:     6000,
			Quality:     23,
			Realtime:    true,
			PixelFormat: ports.PixelFormatBGRA32,
		},
	}
}

// Stats are diagnostic counters.
type Stats struct {
	Accepted int64
	Dropped  int64
	Written  int64
}

type queuedFrame struct {
	frame ports.Frame
	pts   time.Duration
}

// Writer owns one output file and its encoder session. Submit may be
// called from a capture goroutine while Finalize runs on another.
type Writer struct {
	encoder ports.VideoEncoder
	fs      ports.FileSystem
	logger  ports.Logger
	opts    Options

	mu        sync.Mutex
	opened    bool
	state     State
	path      string
	file      io.WriteCloser
	width     int
	height    int
	origin    time.Duration
	hasOrigin bool
	queue     chan queuedFrame
	done      chan struct{}
	encodeErr error

	aborted  atomic.Bool
	accepted atomic.Int64
	dropped  atomic.Int64
	written  atomic.Int64
}

// New creates a writer around encoder. Each Writer produces one file.
func New(encoder ports.VideoEncoder, fs ports.FileSystem, logger ports.Logger, opts Options) *Writer {
	if opts.QueueDepth < 1 {
		opts.QueueDepth = 1
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}
	return &Writer{
		encoder: encoder,
		fs:      fs,
		logger:  logger.WithComponent("writer"),
		opts:    opts,
	}
}

// Open creates <path>.part and begins the video track.
func (w *Writer) Open(path string, width, height int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.opened {
		return fmt.Errorf("%w: writer already opened", ports.ErrEncoderUnavailable)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ports.ErrInvalidRegion, width, height)
	}

	part := path + partSuffix
	file, err := w.fs.Create(part)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ports.ErrRecordingFailed, part, err)
	}

	if err := w.encoder.Begin(file, width, height, w.opts.FPS, w.opts.Encoder); err != nil {
		_ = file.Close()
		_ = w.fs.Remove(part)
		return fmt.Errorf("%w: begin track: %v", ports.ErrRecordingFailed, err)
	}

	w.opened = true
	w.state = StateUnopened
	w.path = path
	w.file = file
	w.width = width
	w.height = height
	w.queue = make(chan queuedFrame, w.opts.QueueDepth)
	w.done = make(chan struct{})

	go w.drain(w.queue, w.done)

	w.logger.Debug("Opened writer %s (%dx%d)", path, width, height)
	return nil
}

// Submit offers a frame. It returns false without side effects when the
// writer is not accepting frames, and false after a short wait when the
// queue is full. The first accepted frame's timestamp becomes time zero.
func (w *Writer) Submit(frame ports.Frame) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.opened || (w.state != StateUnopened && w.state != StateWriting) {
		return false
	}

	var pts time.Duration
	if w.hasOrigin {
		pts = frame.Timestamp - w.origin
		if pts < 0 {
			w.dropped.Add(1)
			return false
		}
	}

	item := queuedFrame{frame: frame, pts: pts}
	select {
	case w.queue <- item:
	default:
		timer := time.NewTimer(w.opts.ReadyWait)
		select {
		case w.queue <- item:
			timer.Stop()
		case <-timer.C:
			w.dropped.Add(1)
			return false
		}
	}

	if !w.hasOrigin {
		w.origin = frame.Timestamp
		w.hasOrigin = true
		w.state = StateWriting
	}
	w.accepted.Add(1)
	return true
}

// Finalize stops intake, drains queued frames, completes the file and
// renames it into place. It returns the final path.
func (w *Writer) Finalize(ctx context.Context) (string, error) {
	w.mu.Lock()
	if !w.opened || w.state == StateFinalizing || w.state == StateClosed {
		w.mu.Unlock()
		return "", ports.ErrEncoderUnavailable
	}
	w.state = StateFinalizing
	close(w.queue)
	done := w.done
	w.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		// Abort first so the drain goroutine stops encoding, then wait for
		// it before the file is released.
		w.aborted.Store(true)
		w.encoder.Abort()
		<-done
		_ = w.file.Close()
		w.cleanup()
		return "", fmt.Errorf("%w: waiting for encoder: %v", ports.ErrRecordingFailed, ctx.Err())
	}

	w.mu.Lock()
	encodeErr := w.encodeErr
	w.mu.Unlock()

	if encodeErr != nil {
		w.fail()
		return "", fmt.Errorf("%w: %v", ports.ErrRecordingFailed, encodeErr)
	}
	if w.written.Load() == 0 {
		w.fail()
		return "", fmt.Errorf("%w: no frames were written", ports.ErrRecordingFailed)
	}

	if err := w.encoder.End(); err != nil {
		w.fail()
		return "", fmt.Errorf("%w: end track: %v", ports.ErrRecordingFailed, err)
	}
	if err := w.file.Close(); err != nil {
		w.cleanup()
		return "", fmt.Errorf("%w: close file: %v", ports.ErrRecordingFailed, err)
	}
	if err := w.fs.Rename(w.path+partSuffix, w.path); err != nil {
		w.cleanup()
		return "", fmt.Errorf("%w: rename: %v", ports.ErrRecordingFailed, err)
	}

	w.setState(StateClosed)
	stats := w.Stats()
	w.logger.Debug("Writer finalized: %d written, %d dropped", stats.Written, stats.Dropped)
	return w.path, nil
}

// Discard releases an opened writer without producing a file.
func (w *Writer) Discard() {
	w.mu.Lock()
	if !w.opened || w.state == StateFinalizing || w.state == StateClosed {
		w.mu.Unlock()
		return
	}
	w.state = StateFinalizing
	close(w.queue)
	done := w.done
	w.mu.Unlock()

	<-done
	w.fail()
	w.logger.Debug("Discarded partial recording %s", w.path+partSuffix)
}

// State returns the current lifecycle state.
func (w *Writer) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Path returns the final output path.
func (w *Writer) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Stats returns the writer counters.
func (w *Writer) Stats() Stats {
	return Stats{
		Accepted: w.accepted.Load(),
		Dropped:  w.dropped.Load(),
		Written:  w.written.Load(),
	}
}

// drain feeds queued frames to the encoder in order. After the first
// encode error or an abort, remaining frames are discarded.
func (w *Writer) drain(queue <-chan queuedFrame, done chan struct{}) {
	defer close(done)

	failed := false
	for item := range queue {
		if failed || w.aborted.Load() {
			continue
		}
		if err := w.encoder.EncodeFrame(item.frame, item.pts); err != nil {
			failed = true
			w.mu.Lock()
			w.encodeErr = err
			w.mu.Unlock()
			w.logger.Error("Frame encode failed: %s", err.Error())
			continue
		}
		w.written.Add(1)
	}
}

// fail aborts the encoder and removes the partial file.
func (w *Writer) fail() {
	w.encoder.Abort()
	_ = w.file.Close()
	w.cleanup()
}

func (w *Writer) cleanup() {
	_ = w.fs.Remove(w.path + partSuffix)
	w.setState(StateClosed)
}

func (w *Writer) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}
