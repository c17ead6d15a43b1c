package skyc

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ivlev/skyshow/internal/show"
)

// Summary is what Inspect reports about an archive.
type Summary struct {
	Format   Format   `json:"format"`
	Title    string   `json:"title"`
	Agents   int      `json:"agents"`
	Duration float64  `json:"duration"` // seconds, for both layouts
	Entries  []string `json:"entries"`
}

// probe is the union of the two manifest shapes.
type probe struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Swarm    struct {
		Agents []json.RawMessage `json:"agents"`
		Drones []json.RawMessage `json:"drones"`
	} `json:"swarm"`
	Meta *meta `json:"meta"`
}

// Inspect opens an archive and detects its layout from the manifest.
func Inspect(path string) (*Summary, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	s := &Summary{}
	for _, f := range zr.File {
		s.Entries = append(s.Entries, f.Name)
	}

	var p probe
	if err := readJSON(&zr.Reader, "show.json", &p); err != nil {
		return nil, err
	}

	switch {
	case p.Meta != nil || p.Swarm.Drones != nil:
		s.Format = FormatHierarchical
		s.Agents = len(p.Swarm.Drones)
		if p.Meta != nil {
			s.Title = p.Meta.Title
			s.Duration = p.Meta.Segments.Show[1]
		}
	default:
		s.Format = FormatLegacy
		s.Agents = len(p.Swarm.Agents)
		s.Title = p.Title
		s.Duration = p.Duration / 1000
	}

	return s, nil
}

// ReadKeyframes returns the keyframes of one agent with times in seconds,
// whichever layout the archive uses.
func ReadKeyframes(path string, agent int) ([]show.Keyframe, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	name := "drones/" + DroneName(agent) + "/trajectory.json"
	if hasEntry(&zr.Reader, name) {
		var doc trajectoryDoc
		if err := readJSON(&zr.Reader, name, &doc); err != nil {
			return nil, err
		}
		out := make([]show.Keyframe, len(doc.Points))
		for i, p := range doc.Points {
			out[i] = show.Keyframe(p)
		}
		return out, nil
	}

	var doc legacyShow
	if err := readJSON(&zr.Reader, "show.json", &doc); err != nil {
		return nil, err
	}
	for _, a := range doc.Swarm.Agents {
		if a.ID != agent {
			continue
		}
		out := make([]show.Keyframe, len(a.Points))
		for i, p := range a.Points {
			out[i] = show.Keyframe{Time: p.T / 1000, Position: [3]float64{p.X, p.Y, p.Z}}
		}
		return out, nil
	}
	return nil, fmt.Errorf("agent %d not found", agent)
}

func hasEntry(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}

func readJSON(zr *zip.Reader, name string, v any) error {
	f, err := zr.Open(name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
