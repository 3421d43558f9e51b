// Package main is the designstage command: select a region of the screen
// and record it to an MP4 file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/designstage/pkg/adapters/filesink"
	"github.com/user/designstage/pkg/adapters/ggrenderer"
	"github.com/user/designstage/pkg/adapters/h264encoder"
	"github.com/user/designstage/pkg/adapters/kbscreen"
	"github.com/user/designstage/pkg/adapters/logger"
	"github.com/user/designstage/pkg/adapters/mp4probe"
	"github.com/user/designstage/pkg/adapters/nullsink"
	"github.com/user/designstage/pkg/adapters/osfilesystem"
	"github.com/user/designstage/pkg/adapters/tray"
	"github.com/user/designstage/pkg/capture"
	"github.com/user/designstage/pkg/config"
	"github.com/user/designstage/pkg/framewriter"
	"github.com/user/designstage/pkg/ports"
	"github.com/user/designstage/pkg/recording"
	"github.com/user/designstage/pkg/selector"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "designstage",
		Usage:   l10n.T("Record a region of the screen as MP4 video"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
			&cli.StringFlag{Name: "env-file", Usage: l10n.T("Environment file with DESIGNSTAGE_* overrides")},
			&cli.StringFlag{Name: "log-level", Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: l10n.T("Suppress log output"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "debug", Usage: l10n.T("Save intermediate frames for debugging"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T("Debug")},
		},
		Commands: []*cli.Command{
			recordCommand(),
			trayCommand(),
			displaysCommand(),
			inspectCommand(),
			versionCommand(),
		},
	}
}

func recordingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: l10n.T("Directory recordings are saved to"), Category: l10n.T("Output")},
		&cli.Float64Flag{Name: "fps", Usage: l10n.T("Capture frame rate"), Category: l10n.T("Video and Quality")},
		&cli.DurationFlag{Name: "max-duration", Usage: l10n.T("Stop automatically after this long"), Category: l10n.T("Video and Quality")},
		&cli.IntFlag{Name: "bitrate", Usage: l10n.T("Maximum bitrate in kbps"), Category: l10n.T("Video and Quality")},
		&cli.IntFlag{Name: "quality", Usage: l10n.T("H.264 CRF value (0-51, lower is better)"), Category: l10n.T("Video and Quality")},
		&cli.StringFlag{Name: "ffmpeg", Usage: l10n.T("Path to the ffmpeg binary"), Category: l10n.T("Video and Quality")},
	}
}

func recordCommand() *cli.Command {
	flags := append(recordingFlags(),
		&cli.BoolFlag{Name: "copy", Usage: l10n.T("Copy the saved file path to the clipboard"), Category: l10n.T("Output")},
	)
	return &cli.Command{
		Name:        "record",
		Usage:       l10n.T("Select a region and record it"),
		Description: l10n.T("Drag to select a region, then record until Ctrl+C or the maximum duration."),
		Flags:       flags,
		Action:      runRecord,
	}
}

func trayCommand() *cli.Command {
	return &cli.Command{
		Name:   "tray",
		Usage:  l10n.T("Run as a menu bar / tray item"),
		Flags:  recordingFlags(),
		Action: runTray,
	}
}

func displaysCommand() *cli.Command {
	return &cli.Command{
		Name:   "displays",
		Usage:  l10n.T("List displays"),
		Action: runDisplays,
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     l10n.T("Show recording metadata"),
		ArgsUsage: "<file>",
		Action:    runInspect,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("designstage version %s", version))
			return nil
		},
	}
}

// loadConfig layers defaults, the YAML file, the environment and flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if err := config.LoadDotenv(c.String("env-file")); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("output-dir") {
		cfg.OutputDir = c.String("output-dir")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Float64("fps")
	}
	if c.IsSet("max-duration") {
		cfg.MaxDuration = c.Duration("max-duration")
	}
	if c.IsSet("bitrate") {
		cfg.Bitrate = c.Int("bitrate")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
}

// newSession wires the host adapters into a recording session.
func newSession(cfg config.Config, log ports.Logger) (*recording.Session, error) {
	ffmpegPath, err := h264encoder.FindFFmpeg(cfg.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrEncoderUnavailable, err)
	}

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	source := kbscreen.New()

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	sel := selector.New(
		newOverlaySurface,
		source, renderer, sink, log, cfg.SelectorOptions(),
	)

	deps := recording.Deps{
		Selector: sel,
		NewStream: func() recording.CaptureStream {
			return capture.New(source, renderer, sink, log)
		},
		NewEncoder: func() recording.FrameEncoder {
			return framewriter.New(h264encoder.New(ffmpegPath), fs, log, cfg.WriterOptions())
		},
		FileSystem: fs,
		Probe:      mp4probe.New(),
		Sink:       sink,
		Logger:     log,
	}
	return recording.New(deps, cfg.SessionConfig()), nil
}

// outcome is how a single record run ended. Both fields are empty when
// the selection was cancelled.
type outcome struct {
	video *recording.RecordedVideo
	err   error
}

func runRecord(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	session, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan outcome, 1)
	send := func(o outcome) {
		select {
		case done <- o:
		default:
		}
	}
	session.Subscribe(recording.ObserverFuncs{
		OnStatus: func(s recording.Status) {
			if s.State == recording.Idle {
				send(outcome{})
			}
		},
		OnCompleted: func(v recording.RecordedVideo) { send(outcome{video: &v}) },
		OnFailed:    func(err error) { send(outcome{err: err}) },
	})

	sessionCtx, cancel := context.WithCancel(context.Background())
	go session.Run(sessionCtx)

	log.Info("Drag to select a region, press Esc to cancel")
	session.StartRegionSelection()

	var result outcome
	select {
	case result = <-done:
		cancel()
		<-session.Done()
	case <-ctx.Done():
		log.Warn("Interrupted, finishing recording...")
		cancel()
		<-session.Done()
		select {
		case result = <-done:
		default:
		}
	}

	switch {
	case result.err != nil:
		return result.err
	case result.video == nil:
		log.Info("Nothing recorded")
		return nil
	}

	printVideo(*result.video)
	if c.Bool("copy") {
		copyPath(log, result.video.Path)
	}
	return nil
}

func runTray(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	session, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	go session.Run(ctx)

	t := tray.New(session, log)
	t.OnCompleted = func(v recording.RecordedVideo) { copyPath(log, v.Path) }
	t.OnQuit = cancel

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			t.Quit()
		case <-ctx.Done():
		}
	}()

	t.Run()
	cancel()
	<-session.Done()
	return nil
}

func runDisplays(c *cli.Context) error {
	displays, err := kbscreen.New().Displays()
	if err != nil {
		return err
	}
	for _, d := range displays {
		b := d.Bounds
		fmt.Println(l10n.F("Display %d: %dx%d at (%d, %d)", d.Index, b.Dx(), b.Dy(), b.Min.X, b.Min.Y))
	}
	return nil
}

func runInspect(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New(l10n.T("missing file argument"))
	}

	info, err := mp4probe.New().Probe(path)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", path, err)
	}

	printVideo(recording.RecordedVideo{
		Path:     path,
		Width:    info.Width,
		Height:   info.Height,
		Duration: info.Duration,
	})
	fmt.Println(l10n.F("Codec: %s", info.Codec))
	fmt.Println(l10n.F("Frames: %d", info.Frames))
	return nil
}

func printVideo(v recording.RecordedVideo) {
	fmt.Println(v.Path)
	fmt.Println(l10n.F("Dimensions: %s", v.DisplayDimensions()))
	fmt.Println(l10n.F("Duration: %s", v.DisplayDuration()))
}
