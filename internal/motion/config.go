package motion

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/skyshow/internal/geom"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("invalid animation config")

// Config selects and parameterizes a vertex-show motion. Rotation and scale
// may be combined; with neither enabled agents hover in place.
type Config struct {
	EnableRotation bool       `toml:"enable_rotation" yaml:"enable_rotation"`
	RotationSpeed  float64    `toml:"rotation_speed" yaml:"rotation_speed"`   // m/s along the orbit
	RotationCenter [2]float64 `toml:"rotation_center" yaml:"rotation_center"` // XY

	EnableScale bool     `toml:"enable_scale" yaml:"enable_scale"`
	ScaleStart  float64  `toml:"scale_start" yaml:"scale_start"`
	ScaleEnd    float64  `toml:"scale_end" yaml:"scale_end"`
	ShrinkSpeed float64  `toml:"shrink_speed" yaml:"shrink_speed"` // m/s
	ScaleCenter *float64 `toml:"scale_center" yaml:"scale_center"` // shared Z; nil means each agent's own Z

	Duration float64 `toml:"duration" yaml:"duration"` // seconds
	FPS      float64 `toml:"fps" yaml:"fps"`
}

// DefaultConfig is a stationary show of 100 frames at 4 fps.
func DefaultConfig() Config {
	return Config{
		RotationSpeed: 2.0,
		ScaleStart:    1.0,
		ScaleEnd:      0.5,
		ShrinkSpeed:   1.0,
		Duration:      24.75,
		FPS:           4.0,
	}
}

// Finalize fills unset rates with defaults and validates the result.
func (c *Config) Finalize() error {
	c.loadDefaults()
	return c.Validate()
}

func (c *Config) loadDefaults() {
	d := DefaultConfig()
	if c.RotationSpeed == 0 {
		c.RotationSpeed = d.RotationSpeed
	}
	if c.ScaleStart == 0 && c.ScaleEnd == 0 {
		c.ScaleStart, c.ScaleEnd = d.ScaleStart, d.ScaleEnd
	}
	if c.ShrinkSpeed == 0 {
		c.ShrinkSpeed = d.ShrinkSpeed
	}
	if c.FPS == 0 {
		c.FPS = d.FPS
	}
}

// Validate checks the rates the enabled motions depend on.
func (c *Config) Validate() error {
	if c.FPS <= 0 || math.IsNaN(c.FPS) || math.IsInf(c.FPS, 0) {
		return fmt.Errorf("%w: fps must be positive, got %g", ErrInvalidConfig, c.FPS)
	}
	if c.Duration < 0 || math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be non-negative, got %g", ErrInvalidConfig, c.Duration)
	}
	if c.EnableRotation && c.RotationSpeed <= 0 {
		return fmt.Errorf("%w: rotation_speed must be positive, got %g", ErrInvalidConfig, c.RotationSpeed)
	}
	if c.EnableScale && c.ShrinkSpeed <= 0 {
		return fmt.Errorf("%w: shrink_speed must be positive, got %g", ErrInvalidConfig, c.ShrinkSpeed)
	}
	return nil
}

// Kind reports which motion the flags select.
func (c *Config) Kind() Kind {
	switch {
	case c.EnableRotation && c.EnableScale:
		return KindCombined
	case c.EnableRotation:
		return KindRotation
	case c.EnableScale:
		return KindScale
	default:
		return KindStationary
	}
}

// ShrinkDuration is the time the scale effect needs for an agent starting at
// start, floored at MinShrinkDuration.
func (c *Config) ShrinkDuration(start geom.Vec3) float64 {
	return newShrink(c, start).dur
}
