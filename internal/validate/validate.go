// Package validate checks timed arcs against the speed envelope. It is
// advisory: a failing report never blocks an export on its own.
package validate

import (
	"fmt"
	"math"

	"github.com/ivlev/skyshow/internal/geom"
	"github.com/ivlev/skyshow/internal/timing"
)

const (
	// DefaultTolerance absorbs floating-point noise around the bounds (m/s).
	DefaultTolerance = 0.1

	// UnevenRatio is the longest/shortest segment ratio that triggers a warning.
	UnevenRatio = 10.0

	minElapsed = 1e-10
)

// Issue types and severities.
const (
	TypeSpeedTooLow    = "speed_too_low"
	TypeSpeedTooHigh   = "speed_too_high"
	TypeUnevenSegments = "uneven_segments"
	SeverityError      = "error"
	SeverityWarning    = "warning"
)

// Arc is one agent's polyline with a timestamp per point.
type Arc struct {
	Agent      int // 1-indexed
	Points     []geom.Vec3
	Timestamps []float64
}

// Issue is a single violation or warning.
type Issue struct {
	Agent    int    `json:"agent"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Summary aggregates issue counts per agent.
type Summary struct {
	TotalAgents          int `json:"total_agents"`
	AgentsWithViolations int `json:"agents_with_violations"`
	AgentsWithWarnings   int `json:"agents_with_warnings"`
}

// Report is the outcome of Check. Valid is true when there are no violations.
type Report struct {
	Valid      bool    `json:"valid"`
	Violations []Issue `json:"violations"`
	Warnings   []Issue `json:"warnings"`
	Summary    Summary `json:"summary"`
}

// TimeArcs times every arc with the timing engine. Nil or empty arcs are
// skipped but keep their position in the 1-indexed agent numbering.
func TimeArcs(arcs [][]geom.Vec3, b timing.Bounds) ([]Arc, error) {
	out := make([]Arc, 0, len(arcs))
	for i, pts := range arcs {
		if len(pts) == 0 {
			continue
		}
		tm, err := timing.Compute(pts, b)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i+1, err)
		}
		out = append(out, Arc{Agent: i + 1, Points: pts, Timestamps: tm.Timestamps})
	}
	return out, nil
}

// Check recomputes realized segment speeds and classifies them against b.
// A tolerance <= 0 falls back to DefaultTolerance.
func Check(arcs []Arc, b timing.Bounds, tolerance float64) *Report {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	r := &Report{
		Violations: []Issue{},
		Warnings:   []Issue{},
	}
	violating := map[int]bool{}
	warned := map[int]bool{}

	for _, arc := range arcs {
		r.Summary.TotalAgents++

		lengths := geom.Segments(arc.Points)
		if len(lengths) == 0 || len(arc.Timestamps) != len(arc.Points) {
			continue
		}

		minSeg, maxSeg := lengths[0], lengths[0]
		for _, d := range lengths {
			minSeg = math.Min(minSeg, d)
			maxSeg = math.Max(maxSeg, d)
		}

		if maxSeg > UnevenRatio*minSeg && maxSeg > 0 {
			r.Warnings = append(r.Warnings, Issue{
				Agent:    arc.Agent,
				Type:     TypeUnevenSegments,
				Message:  fmt.Sprintf("Segment distances vary greatly (%.2fm - %.2fm)", minSeg, maxSeg),
				Severity: SeverityWarning,
			})
			warned[arc.Agent] = true
		}

		minSpeed, maxSpeed := math.Inf(1), math.Inf(-1)
		for i, d := range lengths {
			dt := math.Max(arc.Timestamps[i+1]-arc.Timestamps[i], minElapsed)
			v := d / dt
			minSpeed = math.Min(minSpeed, v)
			maxSpeed = math.Max(maxSpeed, v)
		}

		if minSpeed < b.MinSpeed-tolerance {
			r.Violations = append(r.Violations, Issue{
				Agent:    arc.Agent,
				Type:     TypeSpeedTooLow,
				Message:  fmt.Sprintf("Some segments below min_speed (%.2f < %g)", minSpeed, b.MinSpeed),
				Severity: SeverityError,
			})
			violating[arc.Agent] = true
		}
		if maxSpeed > b.MaxSpeed+tolerance {
			r.Violations = append(r.Violations, Issue{
				Agent:    arc.Agent,
				Type:     TypeSpeedTooHigh,
				Message:  fmt.Sprintf("Some segments above max_speed (%.2f > %g)", maxSpeed, b.MaxSpeed),
				Severity: SeverityError,
			})
			violating[arc.Agent] = true
		}
	}

	r.Valid = len(r.Violations) == 0
	r.Summary.AgentsWithViolations = len(violating)
	r.Summary.AgentsWithWarnings = len(warned)
	return r
}
