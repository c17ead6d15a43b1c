// Package geom holds the small amount of 3D vector math shared by the
// timing, motion and archive packages.
package geom

import "math"

// Negligible is the segment length (metres) below which two points are
// treated as co-located.
const Negligible = 1e-6

// Vec3 is a point in metres. It encodes as [x, y, z] in both JSON and YAML.
type Vec3 [3]float64

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Vec3) float64 {
	return a.Sub(b).Norm()
}

// Lerp interpolates each axis independently; t=0 gives a, t=1 gives b.
func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

// Segments returns the length of every consecutive pair in points.
func Segments(points []Vec3) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, len(points)-1)
	for i := 1; i < len(points); i++ {
		out[i-1] = Dist(points[i-1], points[i])
	}
	return out
}

// Round rounds x to the given number of decimals. Negative zero is
// normalized so encoders never emit "-0".
func Round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	r := math.Round(x*p) / p
	if r == 0 {
		return 0
	}
	return r
}

// RoundVec rounds every axis of v.
func RoundVec(v Vec3, decimals int) Vec3 {
	return Vec3{Round(v[0], decimals), Round(v[1], decimals), Round(v[2], decimals)}
}

// Bounds returns the per-axis minimum and maximum of points.
func Bounds(points []Vec3) (lo, hi Vec3) {
	if len(points) == 0 {
		return lo, hi
	}
	lo, hi = points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	return lo, hi
}
