package main

import (
	"golang.design/x/clipboard"

	"github.com/user/designstage/pkg/ports"
)

// copyPath places a recording's path on the system clipboard.
func copyPath(log ports.Logger, path string) {
	if err := clipboard.Init(); err != nil {
		log.Warn("Clipboard unavailable: %s", err)
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(path))
	log.Info("Copied %s to the clipboard", path)
}
