package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.FPS != 15 {
		t.Errorf("expected 15 fps, got %v", cfg.FPS)
	}
	if cfg.MaxDuration != 120*time.Second {
		t.Errorf("expected 120s max duration, got %v", cfg.MaxDuration)
	}
	if cfg.MinRegionSize != 10 {
		t.Errorf("expected min region 10, got %d", cfg.MinRegionSize)
	}
	if cfg.Bitrate != 6000 {
		t.Errorf("expected 6000 kbps, got %d", cfg.Bitrate)
	}
	if cfg.ReleaseDelay != 100*time.Millisecond {
		t.Errorf("expected 100ms release delay, got %v", cfg.ReleaseDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "designstage.yaml")
	content := `
output_dir: /tmp/recordings
fps: 30
max_duration: 45s
release_delay: 250ms
bitrate: 8000
debug: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.OutputDir != "/tmp/recordings" {
		t.Errorf("unexpected output dir %q", cfg.OutputDir)
	}
	if cfg.FPS != 30 || cfg.Bitrate != 8000 || !cfg.Debug {
		t.Errorf("unexpected values %+v", cfg)
	}
	if cfg.MaxDuration != 45*time.Second {
		t.Errorf("expected 45s, got %v", cfg.MaxDuration)
	}
	if cfg.ReleaseDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.ReleaseDelay)
	}
	// Untouched keys keep their defaults.
	if cfg.FilePrefix != "DesignStage" || cfg.QueueDepth != 8 {
		t.Errorf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("fps: [1, 2"), 0644)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DESIGNSTAGE_OUTPUT_DIR":   "/srv/out",
		"DESIGNSTAGE_FPS":          "24",
		"DESIGNSTAGE_MAX_DURATION": "1m30s",
		"DESIGNSTAGE_DEBUG":        "true",
		"DESIGNSTAGE_QUEUE_DEPTH":  "4",
		"UNRELATED":                "x",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Defaults()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.OutputDir != "/srv/out" || cfg.FPS != 24 || !cfg.Debug || cfg.QueueDepth != 4 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxDuration != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.MaxDuration)
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	env := map[string]string{
		"DESIGNSTAGE_FPS":          "fast",
		"DESIGNSTAGE_MAX_DURATION": "forever",
	}
	cfg := Defaults()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err == nil {
		t.Fatal("expected error for invalid values")
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("DESIGNSTAGE_FILE_PREFIX=Clip\n"), 0644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("DESIGNSTAGE_FILE_PREFIX", "")
	os.Unsetenv("DESIGNSTAGE_FILE_PREFIX")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv failed: %v", err)
	}
	cfg := Defaults()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.FilePrefix != "Clip" {
		t.Errorf("expected prefix from .env, got %q", cfg.FilePrefix)
	}

	if err := LoadDotenv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for explicit missing .env")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"negative duration", func(c *Config) { c.MaxDuration = -time.Second }},
		{"quality too high", func(c *Config) { c.Quality = 60 }},
		{"no queue", func(c *Config) { c.QueueDepth = 0 }},
		{"opacity", func(c *Config) { c.DimOpacity = 1.5 }},
		{"empty output", func(c *Config) { c.OutputDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Defaults()
	cfg.FPS = 24
	cfg.MinRegionSize = 20
	cfg.QueueDepth = 3
	cfg.Bitrate = 4000

	session := cfg.SessionConfig()
	if session.Capture.FPS != 24 || session.MinRegionSize != 20 || session.MaxDuration != cfg.MaxDuration {
		t.Errorf("unexpected session config %+v", session)
	}

	writer := cfg.WriterOptions()
	if writer.FPS != 24 || writer.QueueDepth != 3 || writer.Encoder.Bitrate != 4000 || !writer.Encoder.Realtime {
		t.Errorf("unexpected writer options %+v", writer)
	}

	sel := cfg.SelectorOptions()
	if sel.MinSize != 20 || sel.ReleaseDelay != cfg.ReleaseDelay {
		t.Errorf("unexpected selector options %+v", sel)
	}
}
