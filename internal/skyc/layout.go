// Package skyc assembles show archives: a zip container of JSON documents in
// one of two layouts the downstream player understands.
package skyc

import (
	"fmt"
	"strings"

	"github.com/ivlev/skyshow/internal/show"
	"github.com/ivlev/skyshow/internal/timing"
)

// Format selects an archive layout.
type Format string

const (
	// FormatLegacy is a single show.json with every agent inline and
	// timestamps in milliseconds.
	FormatLegacy Format = "legacy"

	// FormatHierarchical is show.json, cues.json and a drones/Drone <n>/
	// directory per agent, with timestamps in seconds.
	FormatHierarchical Format = "hierarchical"
)

// ParseFormat accepts the CLI/config spelling of a layout.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "flat":
		return FormatLegacy, nil
	case "hierarchical", "tree", "v2":
		return FormatHierarchical, nil
	default:
		return "", fmt.Errorf("unknown archive format: %s", s)
	}
}

// Entry is one document inside the container. Value is JSON-encoded.
type Entry struct {
	Name  string
	Value any
}

// Layout turns a show into container entries.
type Layout interface {
	Format() Format
	Entries(s *show.Show, opts Options) ([]Entry, error)
}

// NewLayout returns the layout for f.
func NewLayout(f Format) (Layout, error) {
	switch f {
	case FormatLegacy:
		return &LegacyLayout{}, nil
	case FormatHierarchical, "":
		return &HierarchicalLayout{}, nil
	default:
		return nil, fmt.Errorf("unknown archive format: %s", f)
	}
}

// DefaultLights is the static white, always-on lighting program.
const DefaultLights = "B4wlAAwK////"

// Limits is the safety envelope written into the hierarchical manifest.
type Limits struct {
	MaxAccelerationXY float64 `toml:"max_acceleration_xy" yaml:"max_acceleration_xy" json:"maxAccelerationXY"`
	MaxAccelerationZ  float64 `toml:"max_acceleration_z" yaml:"max_acceleration_z" json:"maxAccelerationZ"`
	MaxAltitude       float64 `toml:"max_altitude" yaml:"max_altitude" json:"maxAltitude"`
	MaxVelocityXY     float64 `toml:"max_velocity_xy" yaml:"max_velocity_xy" json:"maxVelocityXY"`
	MaxVelocityZ      float64 `toml:"max_velocity_z" yaml:"max_velocity_z" json:"maxVelocityZ"`
	MinDistance       float64 `toml:"min_distance" yaml:"min_distance" json:"minDistance"`
	MinNavAltitude    float64 `toml:"min_nav_altitude" yaml:"min_nav_altitude" json:"minNavAltitude"`
}

// DefaultLimits returns the stock safety envelope.
func DefaultLimits() Limits {
	return Limits{
		MaxAccelerationXY: 4.0,
		MaxAccelerationZ:  4.0,
		MaxAltitude:       150.0,
		MaxVelocityXY:     10.0,
		MaxVelocityZ:      2.0,
		MinDistance:       3.0,
		MinNavAltitude:    2.5,
	}
}

// Merge applies non-zero values from overlay.
func (l *Limits) Merge(overlay *Limits) {
	merge := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	merge(&l.MaxAccelerationXY, overlay.MaxAccelerationXY)
	merge(&l.MaxAccelerationZ, overlay.MaxAccelerationZ)
	merge(&l.MaxAltitude, overlay.MaxAltitude)
	merge(&l.MaxVelocityXY, overlay.MaxVelocityXY)
	merge(&l.MaxVelocityZ, overlay.MaxVelocityZ)
	merge(&l.MinDistance, overlay.MinDistance)
	merge(&l.MinNavAltitude, overlay.MinNavAltitude)
}

// Options carries everything a layout or the writer needs besides the show.
type Options struct {
	Bounds   timing.Bounds // legacy settings block
	Limits   Limits        // hierarchical validation block, DefaultLimits when zero
	Lights   string        // lighting payload, DefaultLights when empty
	MaxSize  int64         // reject archives larger than this many bytes; 0 disables
	Progress show.Progress
}

func (o Options) limits() Limits {
	if o.Limits == (Limits{}) {
		return DefaultLimits()
	}
	return o.Limits
}

func (o Options) lights() string {
	if o.Lights == "" {
		return DefaultLights
	}
	return o.Lights
}
