package framewriter

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/user/designstage/pkg/ports"
)

// TimestampLayout is the time format embedded in output file names.
const TimestampLayout = "2006-01-02-150405"

// OutputName returns "<prefix>-<timestamp>.mp4".
func OutputName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s.mp4", prefix, now.Format(TimestampLayout))
}

// NextOutputPath returns a path in dir that does not exist yet. Recordings
// started within the same second get a numeric suffix.
func NextOutputPath(fs ports.FileSystem, dir, prefix string, now time.Time) (string, error) {
	base := filepath.Join(dir, OutputName(prefix, now))
	path := base
	for n := 2; ; n++ {
		exists, err := fs.Exists(path)
		if err != nil {
			return "", fmt.Errorf("check %s: %w", path, err)
		}
		if !exists {
			return path, nil
		}
		if n > 100 {
			return "", fmt.Errorf("%w: no free file name for %s", ports.ErrRecordingFailed, base)
		}
		ext := filepath.Ext(base)
		path = fmt.Sprintf("%s-%d%s", base[:len(base)-len(ext)], n, ext)
	}
}
