// Package config loads the console settings from a TOML file and applies
// environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"map_console/pkg/style"
)

// Config holds all console settings.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Sync    SyncConfig    `toml:"sync"`
	View    ViewConfig    `toml:"view"`
	Palette style.Palette `toml:"palette"`
	Flood   FloodConfig   `toml:"flood"`
	Log     LogConfig     `toml:"log"`
}

// BackendConfig locates the routing API.
type BackendConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// SyncConfig controls how constraint changes from other operators arrive.
type SyncConfig struct {
	Mode      string   `toml:"mode"` // "poll" or "stream"
	Interval  Duration `toml:"interval"`
	StreamURL string   `toml:"stream_url"`
}

// ViewConfig sets the initial viewport and click tolerance.
type ViewConfig struct {
	CenterLat    float64 `toml:"center_lat"`
	CenterLon    float64 `toml:"center_lon"`
	Zoom         int     `toml:"zoom"`
	HitTolerance float64 `toml:"hit_tolerance"` // meters
}

// FloodConfig lists the description keywords that mark a penalty as flooding.
type FloodConfig struct {
	Keywords []string `toml:"keywords"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"` // text|json
	File          string `toml:"file"`
	IncludeCaller bool   `toml:"include_caller"`
}

// Sync modes.
const (
	SyncPoll   = "poll"
	SyncStream = "stream"
)

const (
	defaultBackendURL   = "http://localhost:5000"
	defaultTimeout      = 10 * time.Second
	defaultSyncInterval = 2000 * time.Millisecond
	defaultCenterLat    = 20.962223
	defaultCenterLon    = 105.830595
	defaultZoom         = 15
	defaultHitTolerance = 15.0
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
)

// Duration is a time.Duration written as "2s" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{URL: defaultBackendURL, Timeout: Duration{defaultTimeout}},
		Sync:    SyncConfig{Mode: SyncPoll, Interval: Duration{defaultSyncInterval}},
		View: ViewConfig{
			CenterLat:    defaultCenterLat,
			CenterLon:    defaultCenterLon,
			Zoom:         defaultZoom,
			HitTolerance: defaultHitTolerance,
		},
		Palette: style.DefaultPalette(),
		Flood:   FloodConfig{Keywords: append([]string(nil), style.DefaultFloodKeywords...)},
		Log:     LogConfig{Level: defaultLogLevel, Format: defaultLogFormat},
	}
}

// Dir returns the config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mapconsole")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path (Path() when empty) over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path (Path() when empty).
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return errors.New("backend.url is required")
	}
	switch c.Sync.Mode {
	case SyncPoll:
	case SyncStream:
		if c.Sync.StreamURL == "" {
			return errors.New("sync.stream_url is required in stream mode")
		}
	default:
		return fmt.Errorf("sync.mode %q: want %q or %q", c.Sync.Mode, SyncPoll, SyncStream)
	}
	if c.View.HitTolerance <= 0 {
		return fmt.Errorf("view.hit_tolerance must be positive, got %v", c.View.HitTolerance)
	}
	return nil
}

// Resolver builds the edge style resolver from the palette and keywords.
func (c *Config) Resolver() *style.Resolver {
	return style.NewResolver(c.Palette, c.Flood.Keywords)
}

func applyEnv(cfg *Config) error {
	cfg.Backend.URL = valueOrDefault("MAPCONSOLE_BACKEND_URL", cfg.Backend.URL)
	cfg.Sync.Mode = valueOrDefault("MAPCONSOLE_SYNC_MODE", cfg.Sync.Mode)
	cfg.Sync.StreamURL = valueOrDefault("MAPCONSOLE_STREAM_URL", cfg.Sync.StreamURL)
	cfg.Log.Level = valueOrDefault("MAPCONSOLE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = valueOrDefault("MAPCONSOLE_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = valueOrDefault("MAPCONSOLE_LOG_FILE", cfg.Log.File)

	if v := os.Getenv("MAPCONSOLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MAPCONSOLE_TIMEOUT: %w", err)
		}
		cfg.Backend.Timeout = Duration{d}
	}
	if v := os.Getenv("MAPCONSOLE_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MAPCONSOLE_SYNC_INTERVAL: %w", err)
		}
		cfg.Sync.Interval = Duration{d}
	}
	if v := os.Getenv("MAPCONSOLE_FLOOD_KEYWORDS"); v != "" {
		cfg.Flood.Keywords = strings.Split(v, ",")
	}
	cfg.View.HitTolerance = parseFloatWithDefault("MAPCONSOLE_HIT_TOLERANCE", cfg.View.HitTolerance)
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}
