package ports

import "errors"

var (
	// ErrNoDisplayFound is returned when no display can be enumerated.
	ErrNoDisplayFound = errors.New("no display found")

	// ErrInvalidRegion is returned for zero, negative or undersized regions.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrRecordingFailed is the generic capture or writer failure.
	ErrRecordingFailed = errors.New("recording failed")

	// ErrEncoderUnavailable is returned when finalize is called without an open writer.
	ErrEncoderUnavailable = errors.New("encoder unavailable")
)
