// Package engine runs complete exports: it turns point sets into timed
// trajectories, writes the archive and reports the outcome as a Result.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/skyshow/internal/config"
	"github.com/ivlev/skyshow/internal/geom"
	"github.com/ivlev/skyshow/internal/logging"
	"github.com/ivlev/skyshow/internal/motion"
	"github.com/ivlev/skyshow/internal/resample"
	"github.com/ivlev/skyshow/internal/show"
	"github.com/ivlev/skyshow/internal/skyc"
	"github.com/ivlev/skyshow/internal/source"
	"github.com/ivlev/skyshow/internal/timing"
	"github.com/ivlev/skyshow/internal/validate"
)

var (
	ErrEmptyInput      = errors.New("no points to export")
	ErrNoAgents        = errors.New("no agents to export")
	ErrInvalidFPS      = errors.New("fps must be positive")
	ErrNoOutput        = errors.New("output path is required")
	ErrDuplicateOutput = errors.New("duplicate output path")
)

const description = "Generated by skyshow"

// Exporter holds what every export shares. Progress and Now are optional;
// Progress must be safe for concurrent use when RunBatch runs several workers.
type Exporter struct {
	Config   *config.Config
	Logger   *slog.Logger
	Progress show.Progress
	Now      func() time.Time
}

// New returns an exporter using cfg, or the built-in defaults when cfg is nil.
func New(cfg *config.Config, logger *slog.Logger) *Exporter {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Exporter{Config: cfg, Logger: logger}
}

// ArcJob exports flight arcs. A nil arc is an unplaced agent; its number is
// kept free in the output.
type ArcJob struct {
	Title    string
	Output   string
	Format   skyc.Format // legacy when empty
	FPS      float64     // Config.Export.FPS when zero
	Arcs     [][]geom.Vec3
	Bounds   *timing.Bounds // Config.Speed when nil
	Validate bool
}

// VertexJob exports a formation, one agent per vertex.
type VertexJob struct {
	Title     string
	Output    string
	Format    skyc.Format // hierarchical when empty
	Vertices  []geom.Vec3
	Rescale   bool
	Animation *motion.Config // Config.Animation when nil
}

// Result is the outcome of one export. Failures never panic; they come back
// with OK false and the cause in Message.
type Result struct {
	OK       bool
	Message  string
	RunID    string
	Output   string
	Report   *validate.Report
	Archive  *skyc.Result
	Duration float64 // seconds
	Agents   int
	Frames   int
	Err      error
}

// ExportArcs times, resamples and archives every placed arc.
func (e *Exporter) ExportArcs(job ArcJob) Result {
	r := e.begin(job.Title, job.Output)
	res, err := e.exportArcs(job, r.log)
	return e.finish(r, res, err)
}

// ExportVertices synthesizes a motion for every vertex and archives it.
func (e *Exporter) ExportVertices(job VertexJob) Result {
	r := e.begin(job.Title, job.Output)
	res, err := e.exportVertices(job, r.log)
	return e.finish(r, res, err)
}

func (e *Exporter) exportArcs(job ArcJob, log *slog.Logger) (*Result, error) {
	if job.Output == "" {
		return nil, ErrNoOutput
	}

	bounds := e.Config.Speed.Bounds()
	if job.Bounds != nil {
		bounds = *job.Bounds
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	fps := job.FPS
	if fps == 0 {
		fps = e.Config.Export.FPS
	}
	if fps <= 0 {
		return nil, fmt.Errorf("%w, got %g", ErrInvalidFPS, fps)
	}

	if len(job.Arcs) == 0 {
		return nil, ErrEmptyInput
	}
	placed := 0
	for _, arc := range job.Arcs {
		if len(arc) > 0 {
			placed++
		}
	}
	if placed == 0 {
		return nil, ErrNoAgents
	}

	log.Info("timing arcs", "agents", placed, "total", len(job.Arcs), "fps", fps,
		"min_speed", bounds.MinSpeed, "target_speed", bounds.TargetSpeed, "max_speed", bounds.MaxSpeed)

	res := &Result{}
	if job.Validate {
		arcs, err := validate.TimeArcs(job.Arcs, bounds)
		if err != nil {
			return nil, err
		}
		res.Report = validate.Check(arcs, bounds, e.Config.Speed.Tolerance)
		if !res.Report.Valid {
			log.Warn("speed validation failed",
				"violations", len(res.Report.Violations), "warnings", len(res.Report.Warnings))
		}
	}

	trajs := make([]show.Trajectory, 0, placed)
	for i, arc := range job.Arcs {
		if len(arc) == 0 {
			continue
		}
		tm, err := timing.Compute(arc, bounds)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i+1, err)
		}

		rawTimes, rawPoints := resample.Resample(tm.Timestamps, arc, fps)
		times := make([]float64, len(rawTimes))
		points := make([]geom.Vec3, len(rawPoints))
		for j := range rawTimes {
			times[j] = geom.Round(rawTimes[j], motion.TimeDecimals)
			points[j] = geom.RoundVec(rawPoints[j], motion.PositionDecimals)
		}
		traj := show.FromSamples(i+1, times, points)
		traj.Span = geom.Round(tm.Duration, motion.TimeDecimals)
		trajs = append(trajs, traj)

		st := tm.Stats()
		log.Debug("agent timed", "agent", i+1, "duration", tm.Duration,
			"avg_speed", st.Avg, "min_speed", st.Min, "max_speed", st.Max)
		e.Progress.Emit("timing", len(trajs), placed)
	}

	format := e.format(job.Format, skyc.FormatLegacy)
	s := show.New(e.title(job.Title, "Adaptive Arcs Show"), fps, e.now(), trajs)
	s.Description = description

	opts := e.Config.ArchiveOptions()
	opts.Bounds = bounds
	return e.write(res, job.Output, format, s, opts)
}

func (e *Exporter) exportVertices(job VertexJob, log *slog.Logger) (*Result, error) {
	if job.Output == "" {
		return nil, ErrNoOutput
	}
	if len(job.Vertices) == 0 {
		return nil, ErrEmptyInput
	}

	anim := e.Config.Animation
	if job.Animation != nil {
		anim = *job.Animation
	}
	if err := anim.Finalize(); err != nil {
		return nil, err
	}
	m, err := motion.New(anim)
	if err != nil {
		return nil, err
	}

	vertices := job.Vertices
	if job.Rescale {
		vertices = source.Rescale(vertices, source.DefaultXY, source.DefaultZ)
	}

	log.Info("synthesizing motion", "agents", len(vertices), "kind", m.Kind(),
		"duration", anim.Duration, "fps", anim.FPS)

	trajs := make([]show.Trajectory, len(vertices))
	for i, v := range vertices {
		trajs[i] = show.Trajectory{
			ID:        i + 1,
			Home:      geom.RoundVec(v, motion.PositionDecimals),
			Keyframes: m.Generate(v),
		}
		if anim.EnableScale {
			log.Debug("agent scaled", "agent", i+1, "shrink_duration", anim.ShrinkDuration(v))
		}
		e.Progress.Emit("motion", i+1, len(vertices))
	}

	format := e.format(job.Format, skyc.FormatHierarchical)
	s := show.New(e.title(job.Title, "Polyhedron Vertices"), anim.FPS, e.now(), trajs)
	s.Description = description

	return e.write(&Result{}, job.Output, format, s, e.Config.ArchiveOptions())
}

func (e *Exporter) write(res *Result, output string, format skyc.Format, s *show.Show, opts skyc.Options) (*Result, error) {
	layout, err := skyc.NewLayout(format)
	if err != nil {
		return nil, err
	}
	opts.Progress = e.Progress

	archive, err := skyc.Write(output, layout, s, opts)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", output, err)
	}

	res.Archive = archive
	res.Duration = s.Duration()
	res.Agents = s.Agents()
	for _, t := range s.Trajectories {
		res.Frames += len(t.Keyframes)
	}
	return res, nil
}

// format resolves the layout: job, then config, then the job kind's default.
func (e *Exporter) format(job skyc.Format, fallback skyc.Format) skyc.Format {
	if job != "" {
		return job
	}
	if e.Config.Export.Format != "" {
		if f, err := skyc.ParseFormat(e.Config.Export.Format); err == nil {
			return f
		}
	}
	return fallback
}

func (e *Exporter) title(job, fallback string) string {
	if job != "" {
		return job
	}
	if e.Config.Export.Title != "" {
		return e.Config.Export.Title
	}
	return fallback
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

type run struct {
	id     string
	output string
	start  time.Time
	log    *slog.Logger
}

func (e *Exporter) begin(title, output string) run {
	id := uuid.NewString()
	return run{
		id:     id,
		output: output,
		start:  time.Now(),
		log:    e.Logger.With("run_id", id, "title", title, "output", output),
	}
}

func (e *Exporter) finish(r run, res *Result, err error) Result {
	if err != nil {
		r.log.Error("export failed", "error", err)
		return Result{OK: false, Message: err.Error(), RunID: r.id, Output: r.output, Err: err}
	}

	res.OK = true
	res.RunID = r.id
	res.Output = r.output
	res.Message = fmt.Sprintf("exported %d agents (%.2fs, %d frames) to %s",
		res.Agents, res.Duration, res.Frames, r.output)

	r.log.Info("export complete", "agents", res.Agents, "duration", res.Duration,
		"frames", res.Frames, "bytes", res.Archive.Bytes)
	e.reportStats(r, res)
	return *res
}
