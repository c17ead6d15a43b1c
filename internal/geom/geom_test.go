package geom

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in       float64
		decimals int
		want     float64
	}{
		{1.23456789, 6, 1.234568},
		{1.23456789, 4, 1.2346},
		{-0.0000001, 6, 0},
		{10, 6, 10},
	}

	for _, tt := range tests {
		got := Round(tt.in, tt.decimals)
		if got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.in, tt.decimals, got, tt.want)
		}
		if math.Signbit(got) && got == 0 {
			t.Errorf("Round(%v, %d) produced negative zero", tt.in, tt.decimals)
		}
	}
}

func TestSegments(t *testing.T) {
	points := []Vec3{{0, 0, 0}, {3, 4, 0}, {3, 4, 0}, {3, 4, 12}}
	got := Segments(points)
	want := []float64{5, 0, 12}

	if len(got) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("segment %d = %f, want %f", i, got[i], want[i])
		}
	}

	if Segments([]Vec3{{1, 2, 3}}) != nil {
		t.Error("single point should produce no segments")
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds([]Vec3{{1, -2, 3}, {-1, 5, 0}, {0, 0, 10}})
	if lo != (Vec3{-1, -2, 0}) {
		t.Errorf("lo = %v", lo)
	}
	if hi != (Vec3{1, 5, 10}) {
		t.Errorf("hi = %v", hi)
	}
}
