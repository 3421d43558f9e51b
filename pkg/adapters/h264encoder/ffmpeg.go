package h264encoder

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/user/designstage/pkg/ports"
)

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg("")
	return err == nil
}

// FindFFmpeg locates the ffmpeg binary.
// Priority: 1) custom path, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg(custom string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// ffmpegArgs builds the command line for a raw-video-in, Annex B-out encoder.
// yuv420p requires even dimensions; an odd last column or row is cropped.
func ffmpegArgs(width, height int, fps float64, opts ports.EncoderOptions) []string {
	keyint := int(fps * 2)
	if keyint < 1 {
		keyint = 1
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", inputPixelFormat(opts.PixelFormat),
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.FormatFloat(fps, 'f', 2, 64),
		"-i", "pipe:0",
		"-vf", "crop=trunc(iw/2)*2:trunc(ih/2)*2:0:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-profile:v", "baseline",
		"-x264-params", fmt.Sprintf("aud=1:keyint=%d", keyint),
	}

	if opts.Realtime {
		args = append(args, "-preset", "veryfast", "-tune", "zerolatency")
	} else {
		args = append(args, "-preset", "fast", "-bf", "0")
	}

	crf := opts.Quality
	if crf <= 0 || crf > 51 {
		crf = 23
	}
	args = append(args, "-crf", strconv.Itoa(crf))

	if opts.Bitrate > 0 {
		args = append(args,
			"-maxrate", fmt.Sprintf("%dk", opts.Bitrate),
			"-bufsize", fmt.Sprintf("%dk", opts.Bitrate*2),
		)
	}

	return append(args, "-f", "h264", "pipe:1")
}

func inputPixelFormat(f ports.PixelFormat) string {
	if f == ports.PixelFormatRGBA32 {
		return "rgba"
	}
	return "bgra"
}
