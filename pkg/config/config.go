// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/user/designstage/pkg/capture"
	"github.com/user/designstage/pkg/framewriter"
	"github.com/user/designstage/pkg/ports"
	"github.com/user/designstage/pkg/recording"
	"github.com/user/designstage/pkg/selector"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DESIGNSTAGE_"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the full configuration for designstage.
type Config struct {
	// Output
	OutputDir  string `yaml:"output_dir"`
	FilePrefix string `yaml:"file_prefix"`

	// Recording
	FPS           float64       `yaml:"fps"`
	MaxDuration   time.Duration `yaml:"max_duration"`
	MinRegionSize int           `yaml:"min_region_size"`

	// Encoding
	Quality    int    `yaml:"quality"`
	Bitrate    int    `yaml:"bitrate"`
	QueueDepth int    `yaml:"queue_depth"`
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Selection overlay
	ReleaseDelay time.Duration `yaml:"release_delay"`
	DimOpacity   float64       `yaml:"dim_opacity"`

	// Logging / debug
	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputDir:  DefaultOutputDir(),
		FilePrefix: "DesignStage",

		FPS:           15,
		MaxDuration:   120 * time.Second,
		MinRegionSize: ports.MinRegionSize,

		Quality:    23,
		Bitrate:    6000,
		QueueDepth: 8,

		ReleaseDelay: 100 * time.Millisecond,
		DimOpacity:   0.3,

		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// DefaultOutputDir is ~/Movies on macOS and ~/Videos elsewhere.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Movies")
	}
	return filepath.Join(home, "Videos")
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDotenv loads a .env file into the process environment. An empty
// path tries ./.env and ignores its absence.
func LoadDotenv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from DESIGNSTAGE_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}
	float := func(key string, dst *float64) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = f
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}

	str("OUTPUT_DIR", &c.OutputDir)
	str("FILE_PREFIX", &c.FilePrefix)
	str("FFMPEG_PATH", &c.FFmpegPath)
	str("LOG_LEVEL", &c.LogLevel)
	str("DEBUG_DIR", &c.DebugDir)

	if v, ok := lookup(EnvPrefix + "DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", EnvPrefix, err)
		}
		c.Debug = b
	}

	return errors.Join(
		float("FPS", &c.FPS),
		dur("MAX_DURATION", &c.MaxDuration),
		num("MIN_REGION_SIZE", &c.MinRegionSize),
		num("QUALITY", &c.Quality),
		num("BITRATE", &c.Bitrate),
		num("QUEUE_DEPTH", &c.QueueDepth),
		dur("RELEASE_DELAY", &c.ReleaseDelay),
		float("DIM_OPACITY", &c.DimOpacity),
	)
}

// Validate rejects settings the recorder cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if c.FilePrefix == "" {
		errs = append(errs, errors.New("file_prefix is empty"))
	}
	if c.FPS <= 0 || c.FPS > 120 {
		errs = append(errs, fmt.Errorf("fps %.2f out of range (0, 120]", c.FPS))
	}
	if c.MaxDuration <= 0 {
		errs = append(errs, fmt.Errorf("max_duration %s must be positive", c.MaxDuration))
	}
	if c.MinRegionSize < 0 {
		errs = append(errs, fmt.Errorf("min_region_size %d is negative", c.MinRegionSize))
	}
	if c.Quality < 0 || c.Quality > 51 {
		errs = append(errs, fmt.Errorf("quality %d out of range [0, 51]", c.Quality))
	}
	if c.Bitrate < 0 {
		errs = append(errs, fmt.Errorf("bitrate %d is negative", c.Bitrate))
	}
	if c.QueueDepth <= 0 {
		errs = append(errs, fmt.Errorf("queue_depth %d must be positive", c.QueueDepth))
	}
	if c.ReleaseDelay < 0 {
		errs = append(errs, fmt.Errorf("release_delay %s is negative", c.ReleaseDelay))
	}
	if c.DimOpacity < 0 || c.DimOpacity > 1 {
		errs = append(errs, fmt.Errorf("dim_opacity %.2f out of range [0, 1]", c.DimOpacity))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// SessionConfig converts Config to recording.Config.
func (c Config) SessionConfig() recording.Config {
	cfg := recording.DefaultConfig()
	cfg.OutputDir = c.OutputDir
	cfg.FilePrefix = c.FilePrefix
	cfg.MaxDuration = c.MaxDuration
	cfg.MinRegionSize = c.MinRegionSize
	cfg.Capture = c.CaptureOptions()
	return cfg
}

// CaptureOptions converts Config to capture.Options.
func (c Config) CaptureOptions() capture.Options {
	return capture.Options{
		FPS:         c.FPS,
		PixelFormat: ports.PixelFormatBGRA32,
	}
}

// WriterOptions converts Config to framewriter.Options.
func (c Config) WriterOptions() framewriter.Options {
	opts := framewriter.DefaultOptions()
	opts.FPS = c.FPS
	opts.QueueDepth = c.QueueDepth
	opts.Encoder.Quality = c.Quality
	opts.Encoder.Bitrate = c.Bitrate
	return opts
}

// SelectorOptions converts Config to selector.Options.
func (c Config) SelectorOptions() selector.Options {
	opts := selector.DefaultOptions()
	opts.MinSize = c.MinRegionSize
	opts.ReleaseDelay = c.ReleaseDelay
	opts.DimOpacity = c.DimOpacity
	return opts
}
