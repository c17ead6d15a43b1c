package resample

import (
	"sort"

	"github.com/ivlev/skyshow/internal/geom"
)

// At returns the position at time t by linear interpolation between the
// surrounding samples. times must be non-decreasing and the same length as
// points.
func At(times []float64, points []geom.Vec3, t float64) geom.Vec3 {
	if len(points) == 0 {
		return geom.Vec3{}
	}

	// Before first sample, hold the first position
	if t <= times[0] {
		return points[0]
	}

	// After last sample, hold the last position
	last := len(times) - 1
	if t >= times[last] {
		return points[last]
	}

	// First sample at or after t
	k := sort.SearchFloat64s(times, t)
	if times[k] == t {
		return points[k]
	}

	// times[k-1] < t < times[k], so the span is never zero
	prev, next := k-1, k
	f := (t - times[prev]) / (times[next] - times[prev])

	return geom.Lerp(points[prev], points[next], f)
}
