package skyc

import (
	"fmt"
	"time"

	"github.com/ivlev/skyshow/internal/show"
	"github.com/ivlev/skyshow/internal/timing"
)

// LegacyLayout writes a single show.json embedding every agent's samples.
// All times in it are milliseconds.
type LegacyLayout struct{}

type legacyPoint struct {
	T float64 `json:"t"` // ms
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type legacyAgent struct {
	ID      int           `json:"id"`
	Points  []legacyPoint `json:"points"`
	Version int           `json:"version"`
}

type legacySwarm struct {
	Agents []legacyAgent `json:"agents"`
}

type legacyShow struct {
	Version     int              `json:"version"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Created     string           `json:"created"`
	FPS         float64          `json:"fps"`
	Duration    float64          `json:"duration"` // ms
	Agents      int              `json:"agents"`
	Environment show.Environment `json:"environment"`
	Swarm       legacySwarm      `json:"swarm"`
	Settings    timing.Bounds    `json:"settings"`
}

func (l *LegacyLayout) Format() Format { return FormatLegacy }

func (l *LegacyLayout) Entries(s *show.Show, opts Options) ([]Entry, error) {
	if s.Agents() == 0 {
		return nil, fmt.Errorf("legacy layout: show has no agents")
	}

	agents := make([]legacyAgent, 0, s.Agents())
	for i, traj := range s.Trajectories {
		points := make([]legacyPoint, len(traj.Keyframes))
		for j, kf := range traj.Keyframes {
			points[j] = legacyPoint{
				T: kf.Time * 1000,
				X: kf.Position[0],
				Y: kf.Position[1],
				Z: kf.Position[2],
			}
		}
		agents = append(agents, legacyAgent{ID: traj.ID, Points: points, Version: 1})
		opts.Progress.Emit("encode", i+1, s.Agents())
	}

	doc := legacyShow{
		Version:     1,
		Title:       s.Title,
		Description: s.Description,
		Created:     s.Created.UTC().Format("2006-01-02T15:04:05Z"),
		FPS:         s.FPS,
		Duration:    s.Duration() * 1000,
		Agents:      len(agents),
		Environment: s.Environment,
		Swarm:       legacySwarm{Agents: agents},
		Settings:    opts.Bounds,
	}
	if s.Created.IsZero() {
		doc.Created = time.Unix(0, 0).UTC().Format("2006-01-02T15:04:05Z")
	}

	return []Entry{{Name: "show.json", Value: doc}}, nil
}
