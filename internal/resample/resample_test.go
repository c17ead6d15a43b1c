package resample

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ivlev/skyshow/internal/geom"
	"github.com/ivlev/skyshow/internal/timing"
)

func TestAt(t *testing.T) {
	times := []float64{0, 2, 4}
	points := []geom.Vec3{{0, 0, 0}, {10, 0, 0}, {10, 10, 5}}

	tests := []struct {
		time float64
		want geom.Vec3
	}{
		{-1, geom.Vec3{0, 0, 0}},   // before first sample
		{0, geom.Vec3{0, 0, 0}},    // first sample
		{1, geom.Vec3{5, 0, 0}},    // midpoint of first span
		{2, geom.Vec3{10, 0, 0}},   // second sample
		{3, geom.Vec3{10, 5, 2.5}}, // midpoint of second span
		{4, geom.Vec3{10, 10, 5}},  // last sample
		{9, geom.Vec3{10, 10, 5}},  // after last sample
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			got := At(times, points, tt.time)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("At(%.1f) mismatch (-want +got):\n%s", tt.time, diff)
			}
		})
	}
}

func TestAtDuplicateTimestamps(t *testing.T) {
	times := []float64{0, 1, 1, 2}
	points := []geom.Vec3{{0, 0, 0}, {4, 0, 0}, {4, 0, 0}, {8, 0, 0}}

	got := At(times, points, 1.5)
	if math.IsNaN(got[0]) || math.Abs(got[0]-6) > 1e-9 {
		t.Errorf("expected x=6 across a zero-length span, got %v", got)
	}
}

func TestResampleGrid(t *testing.T) {
	points := []geom.Vec3{{0, 0, 0}, {10, 0, 0}, {10, 10, 0}}
	tm, err := timing.Compute(points, timing.Bounds{MinSpeed: 2, TargetSpeed: 4, MaxSpeed: 6})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	times, out := Resample(tm.Timestamps, points, 25)

	// 5.0s at 25fps: 126 frames, the last one exactly on the endpoint
	if len(times) != 126 {
		t.Fatalf("expected 126 frames, got %d", len(times))
	}
	if FrameCount(tm.Duration, 25) != len(times) {
		t.Errorf("FrameCount = %d, want %d", FrameCount(tm.Duration, 25), len(times))
	}
	if times[len(times)-1] > tm.Duration {
		t.Errorf("last frame %f overshoots duration %f", times[len(times)-1], tm.Duration)
	}
	for i := 1; i < len(times); i++ {
		if math.Abs(times[i]-times[i-1]-0.04) > 1e-9 {
			t.Fatalf("frame %d spacing %f, want 0.04", i, times[i]-times[i-1])
		}
	}

	if diff := cmp.Diff(geom.Vec3{10, 10, 0}, out[len(out)-1], cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("endpoint mismatch (-want +got):\n%s", diff)
	}
}

func TestResampleTrimsPastDuration(t *testing.T) {
	times := []float64{0, 0.1}
	points := []geom.Vec3{{0, 0, 0}, {1, 0, 0}}

	out, _ := Resample(times, points, 25)
	// 0, 0.04, 0.08; 0.12 would overshoot
	if len(out) != 3 {
		t.Fatalf("expected 3 frames, got %d: %v", len(out), out)
	}
	for _, v := range out {
		if v > 0.1 {
			t.Errorf("frame %f past duration", v)
		}
	}
}

func TestResampleIdempotent(t *testing.T) {
	points := []geom.Vec3{{0, 0, 0}, {7, 3, 1}, {7, 3, 1}, {12, -4, 6}, {20, 0, 10}}
	tm, err := timing.Compute(points, timing.DefaultBounds())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	t1, p1 := Resample(tm.Timestamps, points, 25)
	t2, p2 := Resample(t1, p1, 25)

	if diff := cmp.Diff(t1, t2); diff != "" {
		t.Errorf("timestamps changed on second pass (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(p1, p2, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("positions changed on second pass (-first +second):\n%s", diff)
	}
}

func TestResampleDegenerate(t *testing.T) {
	times := []float64{0}
	points := []geom.Vec3{{1, 2, 3}}

	gotT, gotP := Resample(times, points, 25)
	if len(gotT) != 1 || len(gotP) != 1 || gotP[0] != points[0] {
		t.Errorf("single point should pass through, got %v %v", gotT, gotP)
	}
}
