package recording

import (
	"time"

	"github.com/user/designstage/pkg/ports"
)

// State is the session's top-level mode.
type State int

const (
	Idle State = iota
	SelectingRegion
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SelectingRegion:
		return "selecting"
	case Recording:
		return "recording"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the session.
type Status struct {
	State     State
	StartedAt time.Time     // Set while Recording
	Region    *ports.Region // Non-nil only while Recording
}

// Elapsed returns how long the current recording has been running.
func (s Status) Elapsed(now time.Time) time.Duration {
	if s.State != Recording {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// Observer receives session events on the coordination goroutine.
// Implementations must not block or call back into the session
// synchronously.
type Observer interface {
	StatusChanged(status Status)
	RecordingCompleted(video RecordedVideo)
	RecordingFailed(err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnStatus    func(Status)
	OnCompleted func(RecordedVideo)
	OnFailed    func(error)
}

func (o ObserverFuncs) StatusChanged(status Status) {
	if o.OnStatus != nil {
		o.OnStatus(status)
	}
}

func (o ObserverFuncs) RecordingCompleted(video RecordedVideo) {
	if o.OnCompleted != nil {
		o.OnCompleted(video)
	}
}

func (o ObserverFuncs) RecordingFailed(err error) {
	if o.OnFailed != nil {
		o.OnFailed(err)
	}
}
