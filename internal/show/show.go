// Package show holds the in-memory model of a multi-agent show: per-agent
// keyframe lists plus the metadata the archive writers need.
package show

import (
	"time"

	"github.com/ivlev/skyshow/internal/geom"
)

// Keyframe is one sample of an agent's trajectory. An empty or single-element
// Controls list means the segment leading to the next keyframe is linear.
type Keyframe struct {
	Time     float64     // seconds
	Position geom.Vec3   // metres
	Controls []geom.Vec3 // Bezier control points
}

// Linear returns a keyframe whose only control point is its own position.
func Linear(t float64, p geom.Vec3) Keyframe {
	return Keyframe{Time: t, Position: p, Controls: []geom.Vec3{p}}
}

// IsLinear reports whether the keyframe carries no curvature.
func (k Keyframe) IsLinear() bool {
	return len(k.Controls) <= 1
}

// Trajectory is the keyframe list of one agent. ID is 1-indexed. Span is
// the flight time the keyframes were sampled from; the last keyframe can
// fall up to one frame short of it.
type Trajectory struct {
	ID        int
	Home      geom.Vec3
	Keyframes []Keyframe
	Span      float64
}

// Duration is the larger of Span and the time of the last keyframe.
func (t *Trajectory) Duration() float64 {
	d := t.Span
	if n := len(t.Keyframes); n > 0 && t.Keyframes[n-1].Time > d {
		d = t.Keyframes[n-1].Time
	}
	return d
}

// Origin is the geodetic anchor written by the legacy layout.
type Origin struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	AMSL float64 `json:"amsl"`
}

// Environment describes where the show is flown.
type Environment struct {
	Type   string `json:"type"`
	Origin Origin `json:"origin"`
}

// Show is the full choreography handed to an archive layout.
type Show struct {
	Title        string
	Description  string
	FPS          float64
	Created      time.Time
	Environment  Environment
	Trajectories []Trajectory
}

// New builds a show with an outdoor environment anchored at the origin.
func New(title string, fps float64, created time.Time, trajectories []Trajectory) *Show {
	return &Show{
		Title:        title,
		FPS:          fps,
		Created:      created,
		Environment:  Environment{Type: "outdoor"},
		Trajectories: trajectories,
	}
}

// Duration is the longest trajectory duration across all agents.
func (s *Show) Duration() float64 {
	longest := 0.0
	for i := range s.Trajectories {
		if d := s.Trajectories[i].Duration(); d > longest {
			longest = d
		}
	}
	return longest
}

// Agents returns the number of trajectories.
func (s *Show) Agents() int {
	return len(s.Trajectories)
}

// FromSamples wraps parallel time/position slices as linear keyframes.
func FromSamples(id int, times []float64, points []geom.Vec3) Trajectory {
	kfs := make([]Keyframe, len(points))
	for i := range points {
		kfs[i] = Linear(times[i], points[i])
	}
	traj := Trajectory{ID: id, Keyframes: kfs}
	if len(points) > 0 {
		traj.Home = points[0]
	}
	return traj
}
