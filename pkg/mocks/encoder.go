package mocks

import (
	"io"
	"sync"
	"time"

	"github.com/user/designstage/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder. It writes a
// short marker to the container on Begin and End.
type VideoEncoder struct {
	BeginFunc       func(w io.Writer, width, height int, fps float64, opts ports.EncoderOptions) error
	EncodeFrameFunc func(frame ports.Frame, pts time.Duration) error
	EndFunc         func() error

	// EncodeDelay slows every EncodeFrame call, to build up backlog.
	EncodeDelay time.Duration

	mu sync.Mutex
	w  io.Writer

	// Recorded calls for verification
	BeginCalled      bool
	Width, Height    int
	FPS              float64
	Options          ports.EncoderOptions
	EncodeFrameCalls []EncodeFrameCall
	EndCalls         int
	AbortCalls       int
}

// EncodeFrameCall records a call to EncodeFrame.
type EncodeFrameCall struct {
	PTS    time.Duration
	Width  int
	Height int
}

func (m *VideoEncoder) Begin(w io.Writer, width, height int, fps float64, opts ports.EncoderOptions) error {
	m.mu.Lock()
	m.BeginCalled = true
	m.w = w
	m.Width, m.Height, m.FPS, m.Options = width, height, fps, opts
	m.mu.Unlock()

	if m.BeginFunc != nil {
		return m.BeginFunc(w, width, height, fps, opts)
	}
	_, err := w.Write([]byte("MOCK"))
	return err
}

func (m *VideoEncoder) EncodeFrame(frame ports.Frame, pts time.Duration) error {
	if m.EncodeDelay > 0 {
		time.Sleep(m.EncodeDelay)
	}
	m.mu.Lock()
	m.EncodeFrameCalls = append(m.EncodeFrameCalls, EncodeFrameCall{PTS: pts, Width: frame.Width, Height: frame.Height})
	m.mu.Unlock()

	if m.EncodeFrameFunc != nil {
		return m.EncodeFrameFunc(frame, pts)
	}
	return nil
}

func (m *VideoEncoder) End() error {
	m.mu.Lock()
	m.EndCalls++
	w := m.w
	m.mu.Unlock()

	if m.EndFunc != nil {
		return m.EndFunc()
	}
	if w != nil {
		_, err := w.Write([]byte("END"))
		return err
	}
	return nil
}

func (m *VideoEncoder) Abort() {
	m.mu.Lock()
	m.AbortCalls++
	m.mu.Unlock()
}

// PTS returns the timestamps passed to EncodeFrame so far.
func (m *VideoEncoder) PTS() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.EncodeFrameCalls))
	for i, c := range m.EncodeFrameCalls {
		out[i] = c.PTS
	}
	return out
}

// Counts returns the number of EncodeFrame, End and Abort calls.
func (m *VideoEncoder) Counts() (frames, ends, aborts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.EncodeFrameCalls), m.EndCalls, m.AbortCalls
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)
