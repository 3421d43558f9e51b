package ports

import "time"

// VideoInfo is the metadata read back from a finished recording.
type VideoInfo struct {
	Width    int
	Height   int
	Duration time.Duration
	Frames   int

	// Codec is the sample entry type, such as "avc1".
	Codec string
}

// VideoProbe inspects a container file.
type VideoProbe interface {
	Probe(path string) (VideoInfo, error)
}
