// Package recording coordinates region selection, capture and encoding
// into one recording session.
package recording

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/user/designstage/pkg/capture"
	"github.com/user/designstage/pkg/framewriter"
	"github.com/user/designstage/pkg/ports"
	"github.com/user/designstage/pkg/selector"
)

// RegionSelector runs an interactive selection.
type RegionSelector interface {
	Begin(ctx context.Context, cb func(selector.Result)) error
	Cancel()
}

// CaptureStream delivers frames of a region.
type CaptureStream interface {
	Configure(region ports.Region, opts capture.Options)
	Start(ctx context.Context, handler capture.FrameHandler) error
	Stop(ctx context.Context) error
}

// FrameEncoder writes delivered frames to one file.
type FrameEncoder interface {
	Open(path string, width, height int) error
	Submit(frame ports.Frame) bool
	Finalize(ctx context.Context) (string, error)
	Discard()
	Stats() framewriter.Stats
}

// Deps are the collaborators of a Session.
type Deps struct {
	Selector   RegionSelector
	NewStream  func() CaptureStream
	NewEncoder func() FrameEncoder
	FileSystem ports.FileSystem
	Probe      ports.VideoProbe // Optional
	Sink       ports.DebugSink  // Optional
	Logger     ports.Logger
	Now        func() time.Time // Defaults to time.Now
}

// Config holds session settings.
type Config struct {
	OutputDir     string
	FilePrefix    string
	MaxDuration   time.Duration
	MinRegionSize int
	Capture       capture.Options
	StopTimeout   time.Duration
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() Config {
	return Config{
		FilePrefix:    "DesignStage",
		MaxDuration:   120 * time.Second,
		MinRegionSize: ports.MinRegionSize,
		Capture:       capture.DefaultOptions(),
		StopTimeout:   10 * time.Second,
	}
}

type commandKind int

const (
	cmdStartSelection commandKind = iota
	cmdSelectionDone
	cmdStop
	cmdToggle
)

type command struct {
	kind   commandKind
	gen    uint64 // Zero for user stops
	result selector.Result
}

// Session is the recording state machine. All transitions run on the
// goroutine executing Run; the exported methods only post commands.
type Session struct {
	deps   Deps
	cfg    Config
	logger ports.Logger

	cmds    chan command
	stopped chan struct{}

	mu     sync.RWMutex
	status Status

	obsMu     sync.Mutex
	observers []Observer

	// Owned by the Run goroutine.
	gen    uint64
	stream CaptureStream
	writer FrameEncoder
	timer  *time.Timer
}

// New creates a session in the Idle state.
func New(deps Deps, cfg Config) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultConfig().StopTimeout
	}
	return &Session{
		deps:    deps,
		cfg:     cfg,
		logger:  deps.Logger.WithComponent("session"),
		cmds:    make(chan command, 16),
		stopped: make(chan struct{}),
	}
}

// Subscribe registers an observer.
func (s *Session) Subscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// Status returns the latest status snapshot without waiting on a
// transition in progress.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// StartRegionSelection begins a selection when Idle.
func (s *Session) StartRegionSelection() {
	s.post(command{kind: cmdStartSelection})
}

// StopRecording stops an active recording.
func (s *Session) StopRecording() {
	s.post(command{kind: cmdStop})
}

// Toggle starts a selection when Idle and stops when Recording.
func (s *Session) Toggle() {
	s.post(command{kind: cmdToggle})
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.stopped
}

// Run processes commands until ctx ends. An active recording is finalized
// before Run returns.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return nil
		case cmd := <-s.cmds:
			s.handle(ctx, cmd)
		}
	}
}

func (s *Session) post(cmd command) {
	select {
	case s.cmds <- cmd:
	case <-s.stopped:
	}
}

func (s *Session) handle(ctx context.Context, cmd command) {
	state := s.Status().State

	switch cmd.kind {
	case cmdStartSelection:
		s.startSelection(ctx, state)

	case cmdToggle:
		switch state {
		case Idle:
			s.startSelection(ctx, state)
		case Recording:
			s.stopRecording("user")
		}

	case cmdSelectionDone:
		if state != SelectingRegion || cmd.gen != s.gen {
			return
		}
		res := cmd.result
		if res.Cancelled || !res.Region.Valid(s.cfg.MinRegionSize) {
			s.logger.Info("Selection cancelled")
			s.setStatus(Status{State: Idle})
			return
		}
		s.startRecording(ctx, res.Region)

	case cmdStop:
		if state != Recording {
			return
		}
		if cmd.gen != 0 && cmd.gen != s.gen {
			return
		}
		reason := "user"
		if cmd.gen != 0 {
			reason = "auto"
		}
		s.stopRecording(reason)
	}
}

func (s *Session) startSelection(ctx context.Context, state State) {
	switch state {
	case SelectingRegion:
		s.logger.Debug("Selection already in progress")
		return
	case Recording:
		s.logger.Debug("Cannot start a selection while recording")
		return
	}

	s.gen++
	gen := s.gen
	err := s.deps.Selector.Begin(ctx, func(res selector.Result) {
		s.post(command{kind: cmdSelectionDone, gen: gen, result: res})
	})
	if err != nil {
		s.logger.Error("Failed to begin selection: %s", err.Error())
		s.notifyFailed(err)
		return
	}

	s.logger.Info("Selecting region")
	s.setStatus(Status{State: SelectingRegion})
}

func (s *Session) startRecording(ctx context.Context, region ports.Region) {
	if err := s.openPipeline(ctx, region); err != nil {
		s.logger.Error("Failed to start recording: %s", err.Error())
		s.notifyFailed(err)
		s.setStatus(Status{State: Idle})
		return
	}

	s.gen++
	gen := s.gen
	if s.cfg.MaxDuration > 0 {
		s.timer = time.AfterFunc(s.cfg.MaxDuration, func() {
			s.post(command{kind: cmdStop, gen: gen})
		})
		s.logger.Debug("Auto-stop after %s", s.cfg.MaxDuration)
	}

	s.logger.Info("Recording region %s", region)
	r := region
	s.setStatus(Status{State: Recording, StartedAt: s.deps.Now(), Region: &r})
}

// openPipeline opens the writer and starts the stream feeding it. On
// failure nothing is left running.
func (s *Session) openPipeline(ctx context.Context, region ports.Region) error {
	fs := s.deps.FileSystem
	if err := fs.MkdirAll(s.cfg.OutputDir); err != nil {
		return fmt.Errorf("%w: create output directory: %v", ports.ErrRecordingFailed, err)
	}
	path, err := framewriter.NextOutputPath(fs, s.cfg.OutputDir, s.cfg.FilePrefix, s.deps.Now())
	if err != nil {
		return err
	}

	writer := s.deps.NewEncoder()
	if err := writer.Open(path, region.Width, region.Height); err != nil {
		return err
	}

	stream := s.deps.NewStream()
	stream.Configure(region, s.cfg.Capture)
	if err := stream.Start(ctx, func(frame ports.Frame) { writer.Submit(frame) }); err != nil {
		writer.Discard()
		return err
	}

	s.stream = stream
	s.writer = writer
	return nil
}

func (s *Session) stopRecording(reason string) {
	status := s.Status()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// Invalidate any auto-stop already queued for this recording.
	s.gen++

	stream, writer := s.stream, s.writer
	s.stream, s.writer = nil, nil

	s.logger.Info("Recording stopped (%s)", reason)

	// Stop and Finalize each get the full timeout.
	stopCtx, cancelStop := context.WithTimeout(context.Background(), s.cfg.StopTimeout)
	err := stream.Stop(stopCtx)
	cancelStop()
	if err != nil {
		s.logger.Warn("Failed to stop recording: %s", err.Error())
	}

	finalizeCtx, cancelFinalize := context.WithTimeout(context.Background(), s.cfg.StopTimeout)
	path, err := writer.Finalize(finalizeCtx)
	cancelFinalize()

	// Observers hear the outcome before the session reports Idle.
	if err != nil {
		s.logger.Error("Failed to stop recording: %s", err.Error())
		s.notifyFailed(err)
		s.setStatus(Status{State: Idle})
		return
	}

	video := s.describe(path, status)
	s.logger.Info("Recording saved to %s", path)
	s.saveSummary(video, status, writer.Stats(), reason)
	s.notifyCompleted(video)
	s.setStatus(Status{State: Idle})
}

// describe builds the metadata of a finished file, preferring what the
// container reports over the session's own view.
func (s *Session) describe(path string, status Status) RecordedVideo {
	video := RecordedVideo{
		Path:      path,
		Duration:  s.deps.Now().Sub(status.StartedAt),
		CreatedAt: status.StartedAt,
	}
	if status.Region != nil {
		video.Width = status.Region.Width
		video.Height = status.Region.Height
	}

	if s.deps.Probe == nil {
		return video
	}
	info, err := s.deps.Probe.Probe(path)
	if err != nil {
		s.logger.Warn("Failed to inspect recording: %s", err.Error())
		return video
	}
	if info.Width > 0 && info.Height > 0 {
		video.Width, video.Height = info.Width, info.Height
	}
	if info.Duration > 0 {
		video.Duration = info.Duration
	}
	return video
}

type sessionSummary struct {
	Video    RecordedVideo `json:"video"`
	Region   *ports.Region `json:"region"`
	Reason   string        `json:"reason"`
	Accepted int64         `json:"frames_accepted"`
	Dropped  int64         `json:"frames_dropped"`
	Written  int64         `json:"frames_written"`
}

func (s *Session) saveSummary(video RecordedVideo, status Status, stats framewriter.Stats, reason string) {
	if s.deps.Sink == nil || !s.deps.Sink.Enabled() {
		return
	}
	data, err := json.MarshalIndent(sessionSummary{
		Video:    video,
		Region:   status.Region,
		Reason:   reason,
		Accepted: stats.Accepted,
		Dropped:  stats.Dropped,
		Written:  stats.Written,
	}, "", "  ")
	if err == nil {
		err = s.deps.Sink.SaveSessionJSON(data)
	}
	if err != nil {
		s.logger.Warn("Debug sink write failed: %s", err.Error())
	}
}

// shutdown runs when Run's context ends.
func (s *Session) shutdown() {
	switch s.Status().State {
	case Recording:
		s.stopRecording("shutdown")
	case SelectingRegion:
		s.deps.Selector.Cancel()
		s.gen++
		s.setStatus(Status{State: Idle})
	}
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	for _, o := range s.snapshotObservers() {
		o.StatusChanged(status)
	}
}

func (s *Session) notifyCompleted(video RecordedVideo) {
	for _, o := range s.snapshotObservers() {
		o.RecordingCompleted(video)
	}
}

func (s *Session) notifyFailed(err error) {
	for _, o := range s.snapshotObservers() {
		o.RecordingFailed(err)
	}
}

func (s *Session) snapshotObservers() []Observer {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	return append([]Observer(nil), s.observers...)
}
