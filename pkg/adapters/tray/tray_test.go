package tray

import (
	"slices"
	"testing"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/designstage/pkg/adapters/logger"
	"github.com/user/designstage/pkg/recording"
)

func TestTitle(t *testing.T) {
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status recording.Status
		now    time.Time
		want   string
	}{
		{"idle", recording.Status{State: recording.Idle}, start, "DesignStage"},
		{"selecting", recording.Status{State: recording.SelectingRegion}, start, "DesignStage …"},
		{"recording", recording.Status{State: recording.Recording, StartedAt: start}, start.Add(75 * time.Second), "● 1:15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.status, tt.now); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMenuLabel(t *testing.T) {
	if got := MenuLabel(recording.Idle); got != "Record Region" {
		t.Errorf("unexpected idle label %q", got)
	}
	if got := MenuLabel(recording.Recording); got != "Stop Recording" {
		t.Errorf("unexpected recording label %q", got)
	}
	if got := MenuLabel(recording.SelectingRegion); got != "Selecting Region…" {
		t.Errorf("unexpected selecting label %q", got)
	}
}

func TestMenuLabel_Japanese(t *testing.T) {
	l10n.ForceLanguage("ja")
	defer l10n.ResetLanguage()

	if got := MenuLabel(recording.Recording); got != "録画を停止" {
		t.Errorf("unexpected recording label %q", got)
	}
}

type fakeController struct{}

func (fakeController) Toggle()                        {}
func (fakeController) Status() recording.Status       { return recording.Status{} }
func (fakeController) Subscribe(o recording.Observer) {}

func TestTray_RevealsLastRecording(t *testing.T) {
	tr := New(fakeController{}, logger.NewNoop())
	var revealed []string
	tr.reveal = func(path string) error {
		revealed = append(revealed, path)
		return nil
	}
	var completed []string
	tr.OnCompleted = func(v recording.RecordedVideo) { completed = append(completed, v.Path) }

	// Nothing to show before the first recording.
	tr.revealLast()
	if len(revealed) != 0 {
		t.Fatalf("expected no reveal, got %v", revealed)
	}

	tr.completed(recording.RecordedVideo{Path: "/videos/a.mp4"})
	tr.completed(recording.RecordedVideo{Path: "/videos/b.mp4"})
	tr.revealLast()

	if len(revealed) != 1 || revealed[0] != "/videos/b.mp4" {
		t.Errorf("expected /videos/b.mp4 revealed, got %v", revealed)
	}
	if len(completed) != 2 {
		t.Errorf("expected 2 completion callbacks, got %d", len(completed))
	}
}

func TestRevealCommand(t *testing.T) {
	tests := []struct {
		goos string
		name string
		args []string
	}{
		{"darwin", "open", []string{"-R", "/videos/a.mp4"}},
		{"windows", "explorer", []string{"/select,/videos/a.mp4"}},
		{"linux", "xdg-open", []string{"/videos"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := revealCommand(tt.goos, "/videos/a.mp4")
			if name != tt.name {
				t.Errorf("expected %s, got %s", tt.name, name)
			}
			if !slices.Equal(args, tt.args) {
				t.Errorf("expected %v, got %v", tt.args, args)
			}
		})
	}
}
