//go:build !windows

package main

import (
	"github.com/user/designstage/pkg/adapters/hooksurface"
	"github.com/user/designstage/pkg/ports"
)

// newOverlaySurface falls back to global input hooks. There is no window,
// so the overlay is not visible and input also reaches other applications.
func newOverlaySurface() ports.OverlaySurface {
	return hooksurface.New()
}
