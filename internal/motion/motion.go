// Package motion synthesizes closed-form keyframe sequences for vertex shows:
// hovering, orbiting a shared axis, scaling the vertical offset from a shared
// center, or orbiting and scaling at once.
package motion

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/skyshow/internal/geom"
	"github.com/ivlev/skyshow/internal/show"
)

const (
	// MinShrinkDuration keeps a scale effect from collapsing to zero length
	// when the offset or the factor change is ~0.
	MinShrinkDuration = 0.1

	// PositionDecimals and TimeDecimals fix the emitted precision.
	PositionDecimals = 6
	TimeDecimals     = 4

	zeroRadius = 1e-9
)

// Kind names a motion variant.
type Kind string

const (
	KindStationary Kind = "stationary"
	KindRotation   Kind = "rotate"
	KindScale      Kind = "scale"
	KindCombined   Kind = "combined"
)

// ParseKind accepts the CLI spelling of a motion variant.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stationary", "static", "hover":
		return KindStationary, nil
	case "rotate", "rotation":
		return KindRotation, nil
	case "scale", "shrink":
		return KindScale, nil
	case "combined", "rotate+scale":
		return KindCombined, nil
	default:
		return "", fmt.Errorf("unknown motion kind: %s", s)
	}
}

// Apply sets the enable flags in cfg to select k.
func (k Kind) Apply(cfg *Config) {
	cfg.EnableRotation = k == KindRotation || k == KindCombined
	cfg.EnableScale = k == KindScale || k == KindCombined
}

// Motion generates the keyframes of one agent from its start position.
type Motion interface {
	Kind() Kind
	Duration(start geom.Vec3) float64
	Generate(start geom.Vec3) []show.Keyframe
}

// New validates cfg and returns the motion its flags select.
func New(cfg Config) (Motion, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Kind() {
	case KindCombined:
		return &Combined{cfg: cfg}, nil
	case KindRotation:
		return &Rotation{cfg: cfg}, nil
	case KindScale:
		return &Scale{cfg: cfg}, nil
	default:
		return &Stationary{cfg: cfg}, nil
	}
}

// frameTimes returns 0, 1/fps, 2/fps, ... up to duration, with a final frame
// exactly at duration when it does not land on the grid.
func frameTimes(duration, fps float64) []float64 {
	k := int(math.Floor(duration*fps + 1e-9))
	out := make([]float64, 0, k+2)
	for i := 0; i <= k; i++ {
		out = append(out, float64(i)/fps)
	}
	if last := float64(k) / fps; duration-last > 1e-9 {
		out = append(out, duration)
	}
	return out
}

func sample(duration, fps float64, at func(t float64) geom.Vec3) []show.Keyframe {
	times := frameTimes(duration, fps)
	kfs := make([]show.Keyframe, len(times))
	for i, t := range times {
		p := geom.RoundVec(at(t), PositionDecimals)
		kfs[i] = show.Linear(geom.Round(t, TimeDecimals), p)
	}
	return kfs
}

// orbit is uniform circular motion in the XY plane.
type orbit struct {
	cx, cy float64
	r      float64
	theta0 float64
	omega  float64 // rad/s
}

func newOrbit(cfg *Config, start geom.Vec3) orbit {
	cx, cy := cfg.RotationCenter[0], cfg.RotationCenter[1]
	dx, dy := start[0]-cx, start[1]-cy
	o := orbit{cx: cx, cy: cy, r: math.Hypot(dx, dy), theta0: math.Atan2(dy, dx)}
	if o.r > zeroRadius {
		o.omega = cfg.RotationSpeed / o.r
	}
	return o
}

func (o orbit) at(start geom.Vec3, t float64) (x, y float64) {
	if o.r <= zeroRadius {
		return start[0], start[1]
	}
	theta := o.theta0 + o.omega*t
	return o.cx + o.r*math.Cos(theta), o.cy + o.r*math.Sin(theta)
}

// shrink scales the Z offset from a center between two factors.
type shrink struct {
	zc, off float64
	s0, s1  float64
	dur     float64
}

func newShrink(cfg *Config, start geom.Vec3) shrink {
	zc := start[2]
	if cfg.ScaleCenter != nil {
		zc = *cfg.ScaleCenter
	}
	s := shrink{zc: zc, off: start[2] - zc, s0: cfg.ScaleStart, s1: cfg.ScaleEnd}

	if cfg.ShrinkSpeed > 0 {
		s.dur = math.Abs(s.off) * math.Abs(s.s0-s.s1) / cfg.ShrinkSpeed
	}
	if s.dur < MinShrinkDuration {
		s.dur = MinShrinkDuration
	}
	return s
}

func (s shrink) at(t float64) float64 {
	p := math.Min(t/s.dur, 1.0)
	return s.zc + s.off*(s.s0+(s.s1-s.s0)*p)
}

// Stationary repeats the start position for the configured duration.
type Stationary struct{ cfg Config }

func (m *Stationary) Kind() Kind { return KindStationary }

func (m *Stationary) Duration(geom.Vec3) float64 { return m.cfg.Duration }

func (m *Stationary) Generate(start geom.Vec3) []show.Keyframe {
	return sample(m.cfg.Duration, m.cfg.FPS, func(float64) geom.Vec3 { return start })
}

// Rotation orbits the rotation center at constant linear speed, holding Z.
type Rotation struct{ cfg Config }

func (m *Rotation) Kind() Kind { return KindRotation }

func (m *Rotation) Duration(geom.Vec3) float64 { return m.cfg.Duration }

func (m *Rotation) Generate(start geom.Vec3) []show.Keyframe {
	o := newOrbit(&m.cfg, start)
	return sample(m.cfg.Duration, m.cfg.FPS, func(t float64) geom.Vec3 {
		x, y := o.at(start, t)
		return geom.Vec3{x, y, start[2]}
	})
}

// Scale moves Z between the start and end factors of its offset from the
// scale center over a duration derived from the shrink speed.
type Scale struct{ cfg Config }

func (m *Scale) Kind() Kind { return KindScale }

func (m *Scale) Duration(start geom.Vec3) float64 {
	return newShrink(&m.cfg, start).dur
}

func (m *Scale) Generate(start geom.Vec3) []show.Keyframe {
	s := newShrink(&m.cfg, start)
	return sample(s.dur, m.cfg.FPS, func(t float64) geom.Vec3 {
		return geom.Vec3{start[0], start[1], s.at(t)}
	})
}

// Combined rotates for the configured duration and scales over its own
// derived duration. The keyframe list covers the longer of the two; the
// effect that finishes first holds its final value.
type Combined struct{ cfg Config }

func (m *Combined) Kind() Kind { return KindCombined }

func (m *Combined) Duration(start geom.Vec3) float64 {
	return math.Max(m.cfg.Duration, newShrink(&m.cfg, start).dur)
}

func (m *Combined) Generate(start geom.Vec3) []show.Keyframe {
	o := newOrbit(&m.cfg, start)
	s := newShrink(&m.cfg, start)
	rotDur := m.cfg.Duration

	return sample(m.Duration(start), m.cfg.FPS, func(t float64) geom.Vec3 {
		x, y := o.at(start, math.Min(t, rotDur))
		return geom.Vec3{x, y, s.at(t)}
	})
}
