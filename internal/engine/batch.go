package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/skyshow/internal/motion"
	"github.com/ivlev/skyshow/internal/scenario"
	"github.com/ivlev/skyshow/internal/skyc"
	"github.com/ivlev/skyshow/internal/source"
)

// RunShow loads the points of one scenario show and exports it.
func (e *Exporter) RunShow(sh scenario.Show) Result {
	format, err := parseFormat(sh.Format)
	if err != nil {
		return e.fail(sh, err)
	}

	vertices, arcs := sh.Vertices, sh.Arcs
	if sh.Input != "" {
		ps, err := source.Load(sh.Input)
		if err != nil {
			return e.fail(sh, err)
		}
		vertices, arcs = ps.Vertices, ps.Arcs
	}

	if arcs != nil {
		return e.ExportArcs(ArcJob{
			Title:    sh.Title,
			Output:   sh.Output,
			Format:   format,
			FPS:      sh.FPS,
			Arcs:     arcs,
			Bounds:   sh.Speed,
			Validate: sh.Validate,
		})
	}

	anim, err := sh.ResolveAnimation(e.Config.Animation)
	if err != nil {
		return e.fail(sh, err)
	}
	if sh.Kind != "" {
		kind, err := motion.ParseKind(sh.Kind)
		if err != nil {
			return e.fail(sh, err)
		}
		kind.Apply(&anim)
	}
	if sh.FPS != 0 {
		anim.FPS = sh.FPS
	}

	return e.ExportVertices(VertexJob{
		Title:     sh.Title,
		Output:    sh.Output,
		Format:    format,
		Vertices:  vertices,
		Rescale:   sh.Rescale,
		Animation: &anim,
	})
}

// RunBatch exports shows concurrently with at most workers in flight
// (Config.Export.Workers when workers < 1). Results are in input order.
// Cancelling ctx stops new exports from starting; running ones finish.
func (e *Exporter) RunBatch(ctx context.Context, shows []scenario.Show, workers int) ([]Result, error) {
	seen := make(map[string]int, len(shows))
	for i, sh := range shows {
		key := filepath.Clean(sh.Output)
		if j, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: shows %d and %d both write %s", ErrDuplicateOutput, j+1, i+1, sh.Output)
		}
		seen[key] = i
	}

	if workers < 1 {
		workers = e.Config.Export.Workers
	}

	results := make([]Result, len(shows))
	g := new(errgroup.Group)
	g.SetLimit(max(workers, 1))

	scheduled := 0
	for i, sh := range shows {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = e.RunShow(sh)
			e.Progress.Emit("batch", i+1, len(shows))
			return nil
		})
		scheduled++
	}
	g.Wait()

	if scheduled < len(shows) {
		for i := scheduled; i < len(shows); i++ {
			results[i] = e.fail(shows[i], ctx.Err())
		}
		return results, ctx.Err()
	}
	return results, nil
}

func (e *Exporter) fail(sh scenario.Show, err error) Result {
	e.Logger.Error("export failed", "title", sh.Title, "output", sh.Output, "error", err)
	return Result{OK: false, Message: err.Error(), Output: sh.Output, Err: err}
}

func parseFormat(s string) (skyc.Format, error) {
	if s == "" {
		return "", nil
	}
	return skyc.ParseFormat(s)
}
