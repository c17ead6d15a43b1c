// Package scenario reads and writes batch job files: a YAML list of shows
// to export in one run.
package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/skyshow/internal/geom"
	"github.com/ivlev/skyshow/internal/motion"
	"github.com/ivlev/skyshow/internal/timing"
)

// Version is written into new scenario files.
const Version = "1.0"

// Scenario is a batch of independent show exports.
type Scenario struct {
	Version string `yaml:"version"`
	Shows   []Show `yaml:"shows"`
}

// Show is one export job. Exactly one of Vertices, Arcs or Input supplies
// the points; Input is a .json or .obj file resolved against the scenario
// file's directory.
//
// An Animation set in Go is a complete motion config. One read from YAML
// only overrides the keys it names; see ResolveAnimation.
type Show struct {
	Title     string         `yaml:"title"`
	Output    string         `yaml:"output"`
	Format    string         `yaml:"format,omitempty"`
	FPS       float64        `yaml:"fps,omitempty"`
	Kind      string         `yaml:"kind,omitempty"` // stationary, rotate, scale, combined
	Input     string         `yaml:"input,omitempty"`
	Vertices  []geom.Vec3    `yaml:"vertices,omitempty,flow"`
	Arcs      [][]geom.Vec3  `yaml:"arcs,omitempty,flow"`
	Rescale   bool           `yaml:"rescale,omitempty"`
	Animation *motion.Config `yaml:"animation,omitempty"`
	Speed     *timing.Bounds `yaml:"speed,omitempty"`
	Validate  bool           `yaml:"validate,omitempty"`

	animation *yaml.Node
}

// UnmarshalYAML keeps the animation mapping so its keys can later be laid
// over the configured animation. Animation itself is decoded over
// motion.DefaultConfig.
func (s *Show) UnmarshalYAML(n *yaml.Node) error {
	type plain Show
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*s = Show(p)
	s.animation = nil

	if node := mappingValue(n, "animation"); node != nil && node.Tag != "!!null" {
		anim := motion.DefaultConfig()
		if err := node.Decode(&anim); err != nil {
			return fmt.Errorf("animation: %w", err)
		}
		s.Animation = &anim
		s.animation = node
	}
	return nil
}

// ResolveAnimation returns the motion config the show runs with. Keys from a
// YAML animation block replace those of base, zero values included; an
// Animation set in Go replaces base entirely; without either base is used.
func (s *Show) ResolveAnimation(base motion.Config) (motion.Config, error) {
	switch {
	case s.animation != nil:
		anim := base
		if base.ScaleCenter != nil {
			zc := *base.ScaleCenter
			anim.ScaleCenter = &zc
		}
		if err := s.animation.Decode(&anim); err != nil {
			return motion.Config{}, fmt.Errorf("animation: %w", err)
		}
		return anim, nil
	case s.Animation != nil:
		return *s.Animation, nil
	default:
		return base, nil
	}
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// Validate checks that every show has an output and a single point source.
func (s *Scenario) Validate() error {
	if len(s.Shows) == 0 {
		return fmt.Errorf("scenario has no shows")
	}
	for i, sh := range s.Shows {
		if err := sh.validate(); err != nil {
			return fmt.Errorf("show %d (%s): %w", i+1, sh.Title, err)
		}
	}
	return nil
}

func (s *Show) validate() error {
	if s.Output == "" {
		return fmt.Errorf("output is required")
	}

	sources := 0
	if len(s.Vertices) > 0 {
		sources++
	}
	if len(s.Arcs) > 0 {
		sources++
	}
	if s.Input != "" {
		sources++
	}
	if sources != 1 {
		return fmt.Errorf("need exactly one of vertices, arcs or input, got %d", sources)
	}

	if s.Kind != "" {
		if _, err := motion.ParseKind(s.Kind); err != nil {
			return err
		}
	}
	return nil
}
