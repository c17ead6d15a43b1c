// Package resample puts a timestamped polyline onto a fixed-rate keyframe grid.
package resample

import (
	"math"

	"github.com/ivlev/skyshow/internal/geom"
)

// Resample returns keyframes spaced 1/fps apart from 0 up to, but never past,
// the last input timestamp. Input with fewer than two points is returned
// unchanged.
func Resample(times []float64, points []geom.Vec3, fps float64) ([]float64, []geom.Vec3) {
	if len(points) < 2 || len(times) != len(points) || fps <= 0 {
		return times, points
	}

	n := FrameCount(times[len(times)-1], fps)
	frameTime := 1.0 / fps

	outTimes := make([]float64, n)
	for i := range outTimes {
		outTimes[i] = float64(i) * frameTime
	}

	outPoints := make([]geom.Vec3, len(outTimes))
	for i, t := range outTimes {
		outPoints[i] = At(times, points, t)
	}

	return outTimes, outPoints
}

// FrameCount returns how many keyframes Resample produces for a duration:
// every multiple of 1/fps from 0 that does not pass it.
func FrameCount(duration, fps float64) int {
	if fps <= 0 {
		return 0
	}
	frameTime := 1.0 / fps
	n := int(math.Ceil(duration*fps)) + 1
	for n > 0 && float64(n-1)*frameTime > duration {
		n--
	}
	return n
}
