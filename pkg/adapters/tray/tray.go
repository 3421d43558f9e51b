// Package tray exposes the recording session as a menu bar / system tray
// item using github.com/getlantern/systray.
package tray

import (
	"sync"
	"time"

	"github.com/getlantern/systray"
	"github.com/ideamans/go-l10n"

	"github.com/user/designstage/pkg/ports"
	"github.com/user/designstage/pkg/recording"
)

const appTitle = "DesignStage"

// Controller is the part of a recording session the tray drives.
type Controller interface {
	Toggle()
	Status() recording.Status
	Subscribe(o recording.Observer)
}

// Tray owns the systray event loop.
type Tray struct {
	ctrl   Controller
	logger ports.Logger
	now    func() time.Time
	reveal func(path string) error

	// OnCompleted and OnQuit are optional hooks.
	OnCompleted func(video recording.RecordedVideo)
	OnQuit      func()

	mu       sync.Mutex
	toggle   *systray.MenuItem
	last     *systray.MenuItem
	lastPath string
	quit     chan struct{}
}

// New creates a tray for ctrl.
func New(ctrl Controller, logger ports.Logger) *Tray {
	return &Tray{
		ctrl:   ctrl,
		logger: logger.WithComponent("tray"),
		now:    time.Now,
		reveal: Reveal,
		quit:   make(chan struct{}),
	}
}

// Run blocks running the platform event loop. It must be called from the
// main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit ends Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle(appTitle)
	systray.SetTooltip(appTitle)

	toggle := systray.AddMenuItem(MenuLabel(recording.Idle), l10n.T("Select a region and record it"))
	last := systray.AddMenuItem(l10n.T("No recordings yet"), l10n.T("Show the most recent recording"))
	last.Disable()
	systray.AddSeparator()
	quit := systray.AddMenuItem(l10n.T("Quit"), l10n.F("Quit %s", appTitle))

	t.mu.Lock()
	t.toggle = toggle
	t.last = last
	t.mu.Unlock()

	t.ctrl.Subscribe(recording.ObserverFuncs{
		OnStatus:    t.update,
		OnCompleted: t.completed,
		OnFailed: func(err error) {
			t.logger.Warn("Recording failed: %s", err)
			systray.SetTooltip(l10n.F("%s: recording failed: %s", appTitle, err))
		},
	})
	t.update(t.ctrl.Status())

	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-toggle.ClickedCh:
				t.ctrl.Toggle()
			case <-last.ClickedCh:
				t.revealLast()
			case <-quit.ClickedCh:
				t.logger.Debug("Quit requested")
				if t.OnQuit != nil {
					t.OnQuit()
				}
				systray.Quit()
				return
			case <-ticker.C:
				if s := t.ctrl.Status(); s.State == recording.Recording {
					systray.SetTitle(Title(s, t.now()))
				}
			case <-t.quit:
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	close(t.quit)
}

// update runs on the session goroutine; systray calls are thread safe.
func (t *Tray) update(s recording.Status) {
	t.mu.Lock()
	toggle := t.toggle
	t.mu.Unlock()
	if toggle == nil {
		return
	}

	systray.SetTitle(Title(s, t.now()))
	toggle.SetTitle(MenuLabel(s.State))
	if s.State == recording.SelectingRegion {
		toggle.Disable()
	} else {
		toggle.Enable()
	}
}

func (t *Tray) completed(video recording.RecordedVideo) {
	t.mu.Lock()
	last := t.last
	t.lastPath = video.Path
	t.mu.Unlock()
	if last != nil {
		last.SetTitle(l10n.F("Show %s  %s  %s", video.Name(), video.DisplayDimensions(), video.DisplayDuration()))
		last.SetTooltip(video.Path)
		last.Enable()
	}
	if t.OnCompleted != nil {
		t.OnCompleted(video)
	}
}

// revealLast shows the most recent recording in the file browser.
func (t *Tray) revealLast() {
	t.mu.Lock()
	path := t.lastPath
	t.mu.Unlock()
	if path == "" {
		return
	}
	if err := t.reveal(path); err != nil {
		t.logger.Warn("Failed to reveal %s: %s", path, err)
	}
}

// Title is the tray title for s.
func Title(s recording.Status, now time.Time) string {
	switch s.State {
	case recording.Recording:
		v := recording.RecordedVideo{Duration: s.Elapsed(now)}
		return "● " + v.DisplayDuration()
	case recording.SelectingRegion:
		return appTitle + " …"
	default:
		return appTitle
	}
}

// MenuLabel is the toggle item's label for state.
func MenuLabel(state recording.State) string {
	switch state {
	case recording.Recording:
		return l10n.T("Stop Recording")
	case recording.SelectingRegion:
		return l10n.T("Selecting Region…")
	default:
		return l10n.T("Record Region")
	}
}
