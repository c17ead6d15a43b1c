// Package config loads the tool configuration from TOML with an optional
// environment overlay and SKYSHOW_* variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"

	"github.com/ivlev/skyshow/internal/logging"
	"github.com/ivlev/skyshow/internal/motion"
	"github.com/ivlev/skyshow/internal/skyc"
	"github.com/ivlev/skyshow/internal/timing"
	"github.com/ivlev/skyshow/internal/validate"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvOverlay        = "SKYSHOW_ENV"
	EnvFPS            = "SKYSHOW_FPS"
	EnvOutputDir      = "SKYSHOW_OUTPUT_DIR"
	EnvFormat         = "SKYSHOW_FORMAT"
	EnvMaxArchiveSize = "SKYSHOW_MAX_ARCHIVE_SIZE"
)

// Config is the root configuration.
type Config struct {
	Export     ExportConfig   `toml:"export"`
	Speed      SpeedConfig    `toml:"speed"`
	Animation  motion.Config  `toml:"animation"`
	Validation skyc.Limits    `toml:"validation"`
	Logging    logging.Config `toml:"logging"`
}

// ExportConfig holds output settings shared by every export.
type ExportConfig struct {
	FPS            float64 `toml:"fps"`
	OutputDir      string  `toml:"output_dir"`
	Format         string  `toml:"format"`           // empty: legacy for arcs, hierarchical for vertices
	MaxArchiveSize string  `toml:"max_archive_size"` // human size, "64MB"; empty or "0" disables
	Workers        int     `toml:"workers"`
	ShowStats      bool    `toml:"show_stats"`
	Title          string  `toml:"title"` // overrides the per-kind default title
}

// SpeedConfig holds the flight speed envelope and the validator tolerance.
type SpeedConfig struct {
	MinSpeed    float64 `toml:"min_speed"`
	TargetSpeed float64 `toml:"target_speed"`
	MaxSpeed    float64 `toml:"max_speed"`
	Tolerance   float64 `toml:"tolerance"`
}

// Bounds returns the envelope as timing bounds.
func (s SpeedConfig) Bounds() timing.Bounds {
	return timing.Bounds{MinSpeed: s.MinSpeed, TargetSpeed: s.TargetSpeed, MaxSpeed: s.MaxSpeed}
}

// Default returns the built-in configuration without reading files or
// the environment.
func Default() *Config {
	cfg := &Config{}
	cfg.loadDefaults()
	return cfg
}

// Load reads path (BaseConfigFile when empty), then the SKYSHOW_ENV
// overlay found next to it, then finalizes. Both files are decoded onto the
// defaults, so any key present in a file wins, zero values included. A
// missing base file is not an error; defaults are used instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = BaseConfigFile
	}

	cfg := Default()
	if err := decodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if overlay := overlayPath(path); overlay != "" {
		if err := decodeFile(overlay, cfg); err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates
// every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return c.Validate()
}

// Validate checks every section without applying defaults or overrides.
func (c *Config) Validate() error {
	if err := c.Export.validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Speed.Bounds().Validate(); err != nil {
		return fmt.Errorf("speed: %w", err)
	}
	if err := c.Animation.Validate(); err != nil {
		return fmt.Errorf("animation: %w", err)
	}
	if err := c.Logging.Level.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Logging.Format.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// MaxArchiveSizeBytes parses Export.MaxArchiveSize. Zero means unlimited.
func (c *Config) MaxArchiveSizeBytes() int64 {
	if c.Export.MaxArchiveSize == "" {
		return 0
	}
	size, _ := units.FromHumanSize(c.Export.MaxArchiveSize)
	return size
}

// ArchiveOptions builds the skyc options this configuration implies.
func (c *Config) ArchiveOptions() skyc.Options {
	return skyc.Options{
		Bounds:  c.Speed.Bounds(),
		Limits:  c.Validation,
		MaxSize: c.MaxArchiveSizeBytes(),
	}
}

func (e *ExportConfig) validate() error {
	if e.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %g", e.FPS)
	}
	if e.Format != "" {
		if _, err := skyc.ParseFormat(e.Format); err != nil {
			return err
		}
	}
	if e.MaxArchiveSize != "" {
		if _, err := units.FromHumanSize(e.MaxArchiveSize); err != nil {
			return fmt.Errorf("invalid max_archive_size: %w", err)
		}
	}
	if e.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", e.Workers)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Export.FPS == 0 {
		c.Export.FPS = 25
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = "output"
	}
	if c.Export.Workers == 0 {
		c.Export.Workers = runtime.NumCPU()
	}

	b := timing.DefaultBounds()
	if c.Speed.MinSpeed == 0 {
		c.Speed.MinSpeed = b.MinSpeed
	}
	if c.Speed.TargetSpeed == 0 {
		c.Speed.TargetSpeed = b.TargetSpeed
	}
	if c.Speed.MaxSpeed == 0 {
		c.Speed.MaxSpeed = b.MaxSpeed
	}
	if c.Speed.Tolerance == 0 {
		c.Speed.Tolerance = validate.DefaultTolerance
	}

	if c.Animation == (motion.Config{}) {
		c.Animation = motion.DefaultConfig()
	}

	limits := skyc.DefaultLimits()
	limits.Merge(&c.Validation)
	c.Validation = limits

	if c.Logging.Level == "" {
		c.Logging.Level = logging.LevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = logging.FormatText
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvFPS); v != "" {
		if fps, err := strconv.ParseFloat(v, 64); err == nil {
			c.Export.FPS = fps
		}
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Export.OutputDir = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Export.Format = v
	}
	if v := os.Getenv(EnvMaxArchiveSize); v != "" {
		c.Export.MaxArchiveSize = v
	}
}

// decodeFile decodes path onto cfg; keys absent from the file keep their
// current values.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvOverlay)
	if env == "" {
		return ""
	}
	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
