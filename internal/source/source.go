// Package source loads the point sets that feed an export: vertex lists for
// formation shows and per-agent arcs for flight-path shows.
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ivlev/skyshow/internal/geom"
)

// PointSet is what a loader yields. Exactly one of Vertices and Arcs is set.
// A nil arc marks an agent that was never placed.
type PointSet struct {
	Path     string
	Vertices []geom.Vec3
	Arcs     [][]geom.Vec3
}

// IsArcs reports whether the set holds flight arcs.
func (p *PointSet) IsArcs() bool {
	return p.Arcs != nil
}

// Len is the number of agents the set describes.
func (p *PointSet) Len() int {
	if p.IsArcs() {
		return len(p.Arcs)
	}
	return len(p.Vertices)
}

// Loader parses one file format.
type Loader interface {
	Load(path string) (*PointSet, error)
}

var loaders = map[string]Loader{
	".json": jsonLoader{},
	".obj":  objLoader{},
}

// Load picks a loader by file extension.
func Load(path string) (*PointSet, error) {
	ext := strings.ToLower(filepath.Ext(path))
	l, ok := loaders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported point file %s (want .json or .obj)", path)
	}

	ps, err := l.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	ps.Path = path
	return ps, nil
}

// Range is a closed interval on one axis.
type Range struct {
	Min, Max float64
}

func (r Range) center() float64 { return (r.Min + r.Max) / 2 }
func (r Range) span() float64   { return r.Max - r.Min }

// Default target volume for Rescale.
var (
	DefaultXY = Range{Min: -20, Max: 20}
	DefaultZ  = Range{Min: 0, Max: 50}
)

// Rescale fits vertices into the target volume with one uniform scale
// factor, taken from the tighter of the two target spans, then centres each
// axis on its range. A set with no extent collapses onto the volume centre.
func Rescale(vertices []geom.Vec3, xy, z Range) []geom.Vec3 {
	if len(vertices) == 0 {
		return vertices
	}

	lo, hi := geom.Bounds(vertices)
	extent := 0.0
	var mid geom.Vec3
	for i := 0; i < 3; i++ {
		if r := hi[i] - lo[i]; r > extent {
			extent = r
		}
		mid[i] = (lo[i] + hi[i]) / 2
	}

	target := geom.Vec3{xy.center(), xy.center(), z.center()}
	out := make([]geom.Vec3, len(vertices))

	if extent < 1e-10 {
		for i := range out {
			out[i] = target
		}
		return out
	}

	scale := min(xy.span(), z.span()) / extent
	for i, v := range vertices {
		for k := 0; k < 3; k++ {
			out[i][k] = (v[k]-mid[k])*scale + target[k]
		}
	}
	return out
}
