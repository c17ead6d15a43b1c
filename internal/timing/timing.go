// Package timing assigns timestamps to an ordered polyline so that every
// segment is flown at the cruising speed whenever the speed bounds allow it.
package timing

import (
	"errors"
	"fmt"

	"github.com/ivlev/skyshow/internal/geom"
)

// ErrInvalidBounds is wrapped by every Bounds validation failure.
var ErrInvalidBounds = errors.New("invalid speed bounds")

// Bounds are the speed constraints in m/s.
type Bounds struct {
	MinSpeed    float64 `yaml:"min_speed" json:"min_speed"`
	TargetSpeed float64 `yaml:"target_speed" json:"target_speed"`
	MaxSpeed    float64 `yaml:"max_speed" json:"max_speed"`
}

// DefaultBounds matches the 2-6 m/s envelope with a 4 m/s cruise.
func DefaultBounds() Bounds {
	return Bounds{MinSpeed: 2.0, TargetSpeed: 4.0, MaxSpeed: 6.0}
}

// Validate requires all speeds to be positive and min <= target <= max.
func (b Bounds) Validate() error {
	if b.MinSpeed <= 0 || b.TargetSpeed <= 0 || b.MaxSpeed <= 0 {
		return fmt.Errorf("%w: speeds must be positive (min=%g target=%g max=%g)",
			ErrInvalidBounds, b.MinSpeed, b.TargetSpeed, b.MaxSpeed)
	}
	if b.MinSpeed > b.TargetSpeed || b.TargetSpeed > b.MaxSpeed {
		return fmt.Errorf("%w: need min <= target <= max (min=%g target=%g max=%g)",
			ErrInvalidBounds, b.MinSpeed, b.TargetSpeed, b.MaxSpeed)
	}
	return nil
}

// SegmentTime returns the time to fly a segment of length d. Lengths below
// geom.Negligible are free.
func (b Bounds) SegmentTime(d float64) float64 {
	if d < geom.Negligible {
		return 0
	}
	t := d / b.TargetSpeed
	minTime := d / b.MaxSpeed // fastest allowed
	maxTime := d / b.MinSpeed // slowest allowed
	if t < minTime {
		t = minTime
	}
	if t > maxTime {
		t = maxTime
	}
	return t
}

// Timing is the result of Compute.
type Timing struct {
	Timestamps []float64 // one per input point, Timestamps[0] == 0
	Segments   []float64 // per-segment flight time
	Lengths    []float64 // per-segment length
	Duration   float64
}

// Compute assigns a timestamp to every point. Fewer than two points yield a
// single zero timestamp and zero duration.
func Compute(points []geom.Vec3, b Bounds) (*Timing, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if len(points) < 2 {
		return &Timing{Timestamps: []float64{0}}, nil
	}

	lengths := geom.Segments(points)
	segments := make([]float64, len(lengths))
	timestamps := make([]float64, len(points))

	for i, d := range lengths {
		segments[i] = b.SegmentTime(d)
		timestamps[i+1] = timestamps[i] + segments[i]
	}

	return &Timing{
		Timestamps: timestamps,
		Segments:   segments,
		Lengths:    lengths,
		Duration:   timestamps[len(timestamps)-1],
	}, nil
}

// SpeedStats summarizes realized segment speeds.
type SpeedStats struct {
	Avg, Min, Max float64
}

// Speeds returns the realized speed of every segment. Free segments report 0.
func (t *Timing) Speeds() []float64 {
	out := make([]float64, len(t.Segments))
	for i, dt := range t.Segments {
		if dt > 0 {
			out[i] = t.Lengths[i] / dt
		}
	}
	return out
}

// Stats returns average, minimum and maximum realized speed.
func (t *Timing) Stats() SpeedStats {
	speeds := t.Speeds()
	if len(speeds) == 0 {
		return SpeedStats{}
	}
	s := SpeedStats{Min: speeds[0], Max: speeds[0]}
	sum := 0.0
	for _, v := range speeds {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Avg = sum / float64(len(speeds))
	return s
}
