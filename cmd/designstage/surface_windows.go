//go:build windows

package main

import (
	"github.com/user/designstage/pkg/adapters/winsurface"
	"github.com/user/designstage/pkg/ports"
)

func newOverlaySurface() ports.OverlaySurface {
	return winsurface.New()
}
