package tray

import (
	"os/exec"
	"path/filepath"
	"runtime"
)

// Reveal opens the platform file browser at path's folder, selecting the
// file where the platform supports it.
func Reveal(path string) error {
	name, args := revealCommand(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// explorer exits non-zero even on success.
	go func() { _ = cmd.Wait() }()
	return nil
}

func revealCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{"-R", path}
	case "windows":
		return "explorer", []string{"/select," + path}
	default:
		return "xdg-open", []string{filepath.Dir(path)}
	}
}
