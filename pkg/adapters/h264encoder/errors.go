package h264encoder

import "errors"

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("h264encoder: encoder not initialized")

	// ErrEncodingFailed is returned when the encoder process fails.
	ErrEncodingFailed = errors.New("h264encoder: encoding failed")

	// ErrNoFrames is returned when the track is ended without any frames.
	ErrNoFrames = errors.New("h264encoder: no frames to encode")

	// ErrFFmpegNotFound is returned when ffmpeg cannot be located.
	ErrFFmpegNotFound = errors.New("h264encoder: ffmpeg not found in PATH")

	// ErrFrameSize is returned when a frame does not match the track dimensions.
	ErrFrameSize = errors.New("h264encoder: frame size mismatch")

	// ErrMissingParameterSets is returned when the first access unit lacks SPS/PPS.
	ErrMissingParameterSets = errors.New("h264encoder: SPS/PPS not found in first access unit")
)
