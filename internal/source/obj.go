package source

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ivlev/skyshow/internal/geom"
)

// objLoader takes the geometric vertices ("v x y z [w]") of a Wavefront OBJ
// file and ignores every other statement.
type objLoader struct{}

func (objLoader) Load(path string) (*PointSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var vertices []geom.Vec3
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "v" {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
		}

		var v geom.Vec3
		for k := 0; k < 3; k++ {
			c, err := strconv.ParseFloat(fields[k+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			v[k] = c
		}
		vertices = append(vertices, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if vertices == nil {
		vertices = []geom.Vec3{}
	}
	return &PointSet{Vertices: vertices}, nil
}
