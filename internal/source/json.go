package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ivlev/skyshow/internal/geom"
)

// jsonLoader reads a bare vertex list [[x,y,z],...], a bare arc list
// [[[x,y,z],...],null,...], or an object holding either under "vertices" or
// "arcs".
type jsonLoader struct{}

type pointDoc struct {
	Vertices []*geom.Vec3  `json:"vertices"`
	Arcs     [][]geom.Vec3 `json:"arcs"`
}

func (jsonLoader) Load(path string) (*PointSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '{' {
		var doc pointDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		switch {
		case doc.Arcs != nil && doc.Vertices != nil:
			return nil, fmt.Errorf("file has both vertices and arcs")
		case doc.Arcs != nil:
			return &PointSet{Arcs: doc.Arcs}, nil
		case doc.Vertices != nil:
			return vertexSet(doc.Vertices)
		default:
			return nil, fmt.Errorf("file has neither vertices nor arcs")
		}
	}

	var arcs [][]geom.Vec3
	if err := json.Unmarshal(data, &arcs); err == nil && isArcList(data) {
		return &PointSet{Arcs: arcs}, nil
	}

	var vertices []*geom.Vec3
	if err := json.Unmarshal(data, &vertices); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return vertexSet(vertices)
}

// isArcList reports whether the first non-null element is itself a list of
// lists. An all-null array counts as arcs.
func isArcList(data []byte) bool {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return false
	}
	for _, e := range elems {
		if string(e) == "null" {
			continue
		}
		var inner []json.RawMessage
		if err := json.Unmarshal(e, &inner); err != nil {
			return false
		}
		if len(inner) == 0 {
			continue
		}
		return bytes.HasPrefix(bytes.TrimSpace(inner[0]), []byte("["))
	}
	return len(elems) > 0
}

func vertexSet(raw []*geom.Vec3) (*PointSet, error) {
	vertices := make([]geom.Vec3, len(raw))
	for i, v := range raw {
		if v == nil {
			return nil, fmt.Errorf("vertex %d is null", i+1)
		}
		vertices[i] = *v
	}
	return &PointSet{Vertices: vertices}, nil
}
