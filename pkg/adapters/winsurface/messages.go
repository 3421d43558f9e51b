// Package winsurface provides a selection surface backed by a topmost
// layered Win32 popup window covering the selection bounds.
//
// The window owns the pointer while it is shown, so presses and drags do
// not reach the applications underneath. Presented frames are blitted with
// per-pixel alpha.
package winsurface

import (
	"image"

	"github.com/user/designstage/pkg/ports"
)

const (
	wmKeyDown     = 0x0100
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202

	vkEscape = 0x1B
)

// tracker maps window messages to pointer events. Moves are reported only
// between a left press and its release.
type tracker struct {
	pressed bool
}

func (t *tracker) translate(msg uint32, wParam, lParam uintptr) (ports.PointerEvent, bool) {
	switch msg {
	case wmLButtonDown:
		t.pressed = true
		return ports.PointerEvent{Kind: ports.PointerDown, Point: pointFromLParam(lParam)}, true

	case wmMouseMove:
		if !t.pressed {
			return ports.PointerEvent{}, false
		}
		return ports.PointerEvent{Kind: ports.PointerDrag, Point: pointFromLParam(lParam)}, true

	case wmLButtonUp:
		if !t.pressed {
			return ports.PointerEvent{}, false
		}
		t.pressed = false
		return ports.PointerEvent{Kind: ports.PointerUp, Point: pointFromLParam(lParam)}, true

	case wmKeyDown:
		if wParam == vkEscape {
			return ports.PointerEvent{Kind: ports.KeyEscape}, true
		}
	}
	return ports.PointerEvent{}, false
}

// pointFromLParam decodes client coordinates. They are signed while the
// mouse is captured and outside the window.
func pointFromLParam(lParam uintptr) image.Point {
	x := int16(lParam & 0xFFFF)
	y := int16((lParam >> 16) & 0xFFFF)
	return image.Pt(int(x), int(y))
}
