package recording

import (
	"fmt"
	"path/filepath"
	"time"
)

// RecordedVideo describes a finished recording on disk.
type RecordedVideo struct {
	Path      string        `json:"path"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Name returns the file name of the recording.
func (v RecordedVideo) Name() string {
	return filepath.Base(v.Path)
}

// DisplayDimensions formats the size as "W × H".
func (v RecordedVideo) DisplayDimensions() string {
	return fmt.Sprintf("%d × %d", v.Width, v.Height)
}

// DisplayDuration formats the duration as "m:ss", rounded to the second.
func (v RecordedVideo) DisplayDuration() string {
	total := int(v.Duration.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
