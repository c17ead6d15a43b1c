package skyc

import (
	"encoding/json"
	"fmt"

	"github.com/ivlev/skyshow/internal/geom"
	"github.com/ivlev/skyshow/internal/show"
)

// HierarchicalLayout writes a manifest, a cue sheet and a trajectory/lights
// pair per agent. All times in it are seconds.
type HierarchicalLayout struct{}

type ref struct {
	Ref string `json:"$ref"`
}

type droneSettings struct {
	Trajectory ref       `json:"trajectory"`
	Lights     ref       `json:"lights"`
	Home       geom.Vec3 `json:"home"`
	LandAt     geom.Vec3 `json:"landAt"`
	Name       string    `json:"name"`
}

type drone struct {
	Type     string        `json:"type"`
	Settings droneSettings `json:"settings"`
}

type manifestSettings struct {
	Cues       ref    `json:"cues"`
	Validation Limits `json:"validation"`
}

type segments struct {
	Takeoff [2]float64 `json:"takeoff"`
	Show    [2]float64 `json:"show"`
	Landing [2]float64 `json:"landing"`
}

type meta struct {
	Title    string   `json:"title"`
	Segments segments `json:"segments"`
}

type manifest struct {
	Version  int              `json:"version"`
	Settings manifestSettings `json:"settings"`
	Swarm    struct {
		Drones []drone `json:"drones"`
	} `json:"swarm"`
	Environment struct {
		Type string `json:"type"`
	} `json:"environment"`
	Meta  meta     `json:"meta"`
	Media struct{} `json:"media"`
}

type cue struct {
	Time float64 `json:"time"`
	Name string  `json:"name"`
}

type cueSheet struct {
	Version int   `json:"version"`
	Items   []cue `json:"items"`
}

// trajectoryPoint encodes as [t, [x, y, z], [[cx, cy, cz], ...]].
type trajectoryPoint show.Keyframe

func (p trajectoryPoint) MarshalJSON() ([]byte, error) {
	controls := p.Controls
	if controls == nil {
		controls = []geom.Vec3{}
	}
	return json.Marshal([]any{p.Time, p.Position, controls})
}

func (p *trajectoryPoint) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 2 {
		return fmt.Errorf("trajectory point needs time and position, got %d fields", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Time); err != nil {
		return fmt.Errorf("time: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Position); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	p.Controls = nil
	if len(raw) > 2 {
		if err := json.Unmarshal(raw[2], &p.Controls); err != nil {
			return fmt.Errorf("controls: %w", err)
		}
	}
	return nil
}

type trajectoryDoc struct {
	Version int               `json:"version"`
	Points  []trajectoryPoint `json:"points"`
}

type lightsDoc struct {
	Version int    `json:"version"`
	Data    string `json:"data"`
}

// DroneName is the per-agent directory and display name.
func DroneName(id int) string {
	return fmt.Sprintf("Drone %d", id)
}

func (h *HierarchicalLayout) Format() Format { return FormatHierarchical }

func (h *HierarchicalLayout) Entries(s *show.Show, opts Options) ([]Entry, error) {
	if s.Agents() == 0 {
		return nil, fmt.Errorf("hierarchical layout: show has no agents")
	}

	duration := s.Duration()

	var m manifest
	m.Version = 1
	m.Settings = manifestSettings{Cues: ref{Ref: "./cues.json"}, Validation: opts.limits()}
	m.Environment.Type = "outdoor"
	m.Meta = meta{
		Title: s.Title,
		Segments: segments{
			Takeoff: [2]float64{0, 0},
			Show:    [2]float64{0, duration},
			Landing: [2]float64{duration, duration},
		},
	}

	cues := cueSheet{
		Version: 1,
		Items: []cue{
			{Time: 0, Name: "at " + s.Title},
			{Time: duration, Name: s.Title + " ends"},
		},
	}

	entries := []Entry{{Name: "show.json"}, {Name: "cues.json", Value: cues}}

	for i, traj := range s.Trajectories {
		name := DroneName(traj.ID)
		base := "drones/" + name + "/"

		m.Swarm.Drones = append(m.Swarm.Drones, drone{
			Type: "generic",
			Settings: droneSettings{
				Trajectory: ref{Ref: "./" + base + "trajectory.json#"},
				Lights:     ref{Ref: "./" + base + "lights.json#"},
				Home:       traj.Home,
				LandAt:     traj.Home,
				Name:       name,
			},
		})

		points := make([]trajectoryPoint, len(traj.Keyframes))
		for j, kf := range traj.Keyframes {
			points[j] = trajectoryPoint(kf)
		}

		entries = append(entries,
			Entry{Name: base + "trajectory.json", Value: trajectoryDoc{Version: 1, Points: points}},
			Entry{Name: base + "lights.json", Value: lightsDoc{Version: 1, Data: opts.lights()}},
		)
		opts.Progress.Emit("encode", i+1, s.Agents())
	}

	entries[0].Value = m
	return entries, nil
}
