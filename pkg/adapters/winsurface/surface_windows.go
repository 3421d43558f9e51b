//go:build windows

package winsurface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"

	"github.com/user/designstage/pkg/ports"
)

const (
	wsExLayered    = 0x00080000
	wsExToolWindow = 0x00000080

	ulwAlpha   = 0x02
	acSrcOver  = 0x00
	acSrcAlpha = 0x01

	// wmPresent asks the window thread to repaint the latest frame.
	wmPresent = 0x8000 + 1
)

// ErrAlreadyShown is returned when Show is called twice.
var ErrAlreadyShown = errors.New("winsurface: already shown")

var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	procUpdateLayeredWindow = user32.NewProc("UpdateLayeredWindow")
	procSetProcessDPIAware  = user32.NewProc("SetProcessDPIAware")

	className    = syscall.StringToUTF16Ptr("DesignStageOverlay")
	registerOnce sync.Once
	registerErr  error

	// surfaces maps window handles to their surface for wndProc.
	surfaces sync.Map
)

type blendFunction struct {
	BlendOp             byte
	BlendFlags          byte
	SourceConstantAlpha byte
	AlphaFormat         byte
}

// Surface implements ports.OverlaySurface.
type Surface struct {
	tracker tracker

	mu      sync.Mutex
	hwnd    win.HWND
	bounds  image.Rectangle
	latest  image.Image
	shown   bool
	closed  bool
	events  chan ports.PointerEvent
	closing chan struct{}
	stopped chan struct{}
}

// New creates a surface. The window is created by Show.
func New() *Surface {
	return &Surface{
		events:  make(chan ports.PointerEvent, 64),
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Show creates the window over bounds, in virtual screen coordinates, and
// returns once it is visible.
func (s *Surface) Show(bounds image.Rectangle) error {
	s.mu.Lock()
	if s.shown {
		s.mu.Unlock()
		return ErrAlreadyShown
	}
	s.shown = true
	s.bounds = bounds
	s.mu.Unlock()

	if err := register(); err != nil {
		close(s.events)
		close(s.stopped)
		return err
	}

	ready := make(chan error, 1)
	go s.loop(bounds, ready)
	return <-ready
}

// Present replaces the window contents with img.
func (s *Surface) Present(img image.Image) error {
	s.mu.Lock()
	s.latest = img
	hwnd := s.hwnd
	s.mu.Unlock()

	if hwnd != 0 {
		win.PostMessage(hwnd, wmPresent, 0, 0)
	}
	return nil
}

// Events delivers input received by the window.
func (s *Surface) Events() <-chan ports.PointerEvent {
	return s.events
}

// Origin reports top-left local coordinates.
func (s *Surface) Origin() ports.Origin {
	return ports.OriginTopLeft
}

// Close destroys the window and waits for its message loop to exit.
func (s *Surface) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	shown, hwnd := s.shown, s.hwnd
	s.mu.Unlock()

	close(s.closing)
	if !shown {
		close(s.events)
		close(s.stopped)
		return nil
	}
	if hwnd != 0 {
		win.PostMessage(hwnd, win.WM_CLOSE, 0, 0)
	}

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop owns the window. Win32 delivers a window's messages to the thread
// that created it.
func (s *Surface) loop(bounds image.Rectangle, ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.stopped)
	defer close(s.events)

	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST|wsExLayered|wsExToolWindow,
		className,
		syscall.StringToUTF16Ptr("DesignStage"),
		win.WS_POPUP,
		int32(bounds.Min.X), int32(bounds.Min.Y), int32(bounds.Dx()), int32(bounds.Dy()),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		ready <- fmt.Errorf("winsurface: create window: %w", syscall.GetLastError())
		return
	}
	surfaces.Store(hwnd, s)

	s.mu.Lock()
	s.hwnd = hwnd
	closed := s.closed
	s.mu.Unlock()

	s.paint(hwnd)
	win.ShowWindow(hwnd, win.SW_SHOW)
	win.SetForegroundWindow(hwnd)
	win.SetFocus(hwnd)
	win.UpdateWindow(hwnd)
	ready <- nil

	if closed {
		win.DestroyWindow(hwnd)
	}

	var msg win.MSG
	for win.GetMessage(&msg, 0, 0, 0) > 0 {
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func (s *Surface) handle(hwnd win.HWND, msg uint32, wParam, lParam uintptr) (uintptr, bool) {
	switch msg {
	case wmPresent:
		s.paint(hwnd)
		return 0, true
	case win.WM_NCHITTEST:
		return win.HTCLIENT, true
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
	case win.WM_DESTROY:
		surfaces.Delete(hwnd)
		win.PostQuitMessage(0)
		return 0, true
	}

	ev, ok := s.tracker.translate(msg, wParam, lParam)
	if !ok {
		return 0, false
	}
	s.deliver(ev)
	return 0, true
}

// deliver runs on the window thread. Drags are dropped when the reader
// falls behind; other events wait for it.
func (s *Surface) deliver(ev ports.PointerEvent) {
	if ev.Kind == ports.PointerDrag {
		select {
		case s.events <- ev:
		default:
		}
		return
	}
	select {
	case s.events <- ev:
	case <-s.closing:
	}
}

// paint pushes the latest frame to the layered window.
func (s *Surface) paint(hwnd win.HWND) {
	s.mu.Lock()
	img, bounds := s.latest, s.bounds
	s.mu.Unlock()
	if img == nil {
		return
	}

	w, h := bounds.Dx(), bounds.Dy()
	pix := premultipliedBGRA(img, w, h)

	screenDC := win.GetDC(0)
	defer win.ReleaseDC(0, screenDC)
	memDC := win.CreateCompatibleDC(screenDC)
	defer win.DeleteDC(memDC)

	info := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(w),
			BiHeight:      -int32(h),
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}
	var bits unsafe.Pointer
	bitmap := win.CreateDIBSection(memDC, &info.BmiHeader, win.DIB_RGB_COLORS, &bits, 0, 0)
	if bitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(bitmap))
	old := win.SelectObject(memDC, win.HGDIOBJ(bitmap))
	defer win.SelectObject(memDC, old)

	copy(unsafe.Slice((*byte)(bits), len(pix)), pix)

	dst := win.POINT{X: int32(bounds.Min.X), Y: int32(bounds.Min.Y)}
	size := win.SIZE{CX: int32(w), CY: int32(h)}
	src := win.POINT{}
	blend := blendFunction{BlendOp: acSrcOver, SourceConstantAlpha: 255, AlphaFormat: acSrcAlpha}
	procUpdateLayeredWindow.Call(
		uintptr(hwnd),
		uintptr(screenDC),
		uintptr(unsafe.Pointer(&dst)),
		uintptr(unsafe.Pointer(&size)),
		uintptr(memDC),
		uintptr(unsafe.Pointer(&src)),
		0,
		uintptr(unsafe.Pointer(&blend)),
		ulwAlpha,
	)
}

func register() error {
	registerOnce.Do(func() {
		// Window coordinates must match the physical pixels the screen
		// source captures.
		if procSetProcessDPIAware.Find() == nil {
			procSetProcessDPIAware.Call()
		}

		class := win.WNDCLASSEX{
			CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
			LpfnWndProc:   syscall.NewCallback(wndProc),
			HInstance:     win.GetModuleHandle(nil),
			HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
			LpszClassName: className,
		}
		if win.RegisterClassEx(&class) == 0 {
			registerErr = fmt.Errorf("winsurface: register window class: %w", syscall.GetLastError())
		}
	})
	return registerErr
}

func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	if v, ok := surfaces.Load(hwnd); ok {
		if ret, handled := v.(*Surface).handle(hwnd, msg, wParam, lParam); handled {
			return ret
		}
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

var _ ports.OverlaySurface = (*Surface)(nil)
