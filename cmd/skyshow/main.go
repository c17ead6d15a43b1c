package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/skyshow/internal/config"
	"github.com/ivlev/skyshow/internal/engine"
	"github.com/ivlev/skyshow/internal/geom"
	"github.com/ivlev/skyshow/internal/logging"
	"github.com/ivlev/skyshow/internal/motion"
	"github.com/ivlev/skyshow/internal/scenario"
	"github.com/ivlev/skyshow/internal/show"
	"github.com/ivlev/skyshow/internal/skyc"
	"github.com/ivlev/skyshow/internal/source"
	"github.com/ivlev/skyshow/internal/system"
	"github.com/ivlev/skyshow/internal/timing"
	"github.com/ivlev/skyshow/internal/validate"
)

const inputDir = "input"

type options struct {
	vertices, arcs, scenario, inspect, initScenario string

	output, format, title, kind, scaleCenter, configPath string

	fps, duration, rotationSpeed, scaleStart, scaleEnd, shrinkSpeed float64

	minSpeed, maxSpeed, targetSpeed float64

	workers int

	validate, validateOnly, rescale, stats bool

	set map[string]bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] config: %v\n", err)
		return 1
	}
	if err := opts.apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		return 1
	}

	logger := logging.New(cfg.Logging, os.Stderr)

	switch {
	case opts.inspect != "":
		return inspect(opts.inspect)
	case opts.initScenario != "":
		return initScenario(opts.initScenario, logger)
	case opts.scenario != "":
		return runScenario(cfg, logger, opts)
	}

	path, err := opts.pointFile()
	if err != nil {
		logger.Error("no input", "error", err)
		return 1
	}

	ps, err := source.Load(path)
	if err != nil {
		logger.Error("load points", "error", err)
		return 1
	}
	if (opts.arcs != "" && !ps.IsArcs()) || (opts.vertices != "" && ps.IsArcs()) {
		logger.Warn("file content decides the export kind", "path", path, "arcs", ps.IsArcs())
	}

	if opts.validateOnly {
		return validateOnly(cfg, ps)
	}

	format, err := opts.layout()
	if err != nil {
		logger.Error("format", "error", err)
		return 1
	}

	e := engine.New(cfg, logger)
	e.Progress = progressLogger(logger)

	var res engine.Result
	if ps.IsArcs() {
		res = e.ExportArcs(engine.ArcJob{
			Title:    opts.title,
			Output:   opts.outputFor(cfg, path),
			Format:   format,
			Arcs:     ps.Arcs,
			Validate: opts.validate,
		})
	} else {
		anim := cfg.Animation
		res = e.ExportVertices(engine.VertexJob{
			Title:     opts.title,
			Output:    opts.outputFor(cfg, path),
			Format:    format,
			Vertices:  ps.Vertices,
			Rescale:   opts.rescale,
			Animation: &anim,
		})
	}

	if !res.OK {
		fmt.Fprintf(os.Stderr, "[-] %s\n", res.Message)
		return 1
	}
	if res.Report != nil {
		printJSON(res.Report)
	}
	fmt.Printf("[+++] %s\n", res.Message)
	return 0
}

func parseFlags() *options {
	o := &options{}

	flag.StringVar(&o.vertices, "vertices", "", "Vertex file (.json or .obj); default: newest point file in input/")
	flag.StringVar(&o.arcs, "arcs", "", "Arc file (.json)")
	flag.StringVar(&o.scenario, "scenario", "", "Scenario file, or a directory to take the newest .yaml from")
	flag.StringVar(&o.inspect, "inspect", "", "Print the summary of an existing archive and exit")
	flag.StringVar(&o.initScenario, "init-scenario", "", "Write an example scenario into this directory and exit")
	flag.StringVar(&o.output, "output", "", "Archive path (default: <output_dir>/<input>_<timestamp>.skyc)")
	flag.StringVar(&o.format, "format", "", "Archive layout: legacy or hierarchical")
	flag.StringVar(&o.title, "title", "", "Show title")
	flag.StringVar(&o.kind, "kind", "", "Vertex motion: stationary, rotate, scale, combined")
	flag.StringVar(&o.scaleCenter, "scale-center", "", "Shared Z the scale effect converges to (default: each agent's own Z)")
	flag.StringVar(&o.configPath, "config", config.BaseConfigFile, "TOML configuration file")

	flag.Float64Var(&o.fps, "fps", 0, "Frames per second")
	flag.Float64Var(&o.duration, "duration", 0, "Vertex motion duration in seconds")
	flag.Float64Var(&o.rotationSpeed, "rotation-speed", 0, "Orbit speed in m/s")
	flag.Float64Var(&o.scaleStart, "scale-start", 0, "Scale factor at t=0")
	flag.Float64Var(&o.scaleEnd, "scale-end", 0, "Scale factor at the end of the shrink")
	flag.Float64Var(&o.shrinkSpeed, "shrink-speed", 0, "Vertical speed of the scale effect in m/s")
	flag.Float64Var(&o.minSpeed, "min-speed", 0, "Minimum flight speed in m/s")
	flag.Float64Var(&o.maxSpeed, "max-speed", 0, "Maximum flight speed in m/s")
	flag.Float64Var(&o.targetSpeed, "target-speed", 0, "Cruising speed in m/s")

	flag.IntVar(&o.workers, "workers", 0, "Concurrent exports for -scenario")
	flag.BoolVar(&o.validate, "validate", false, "Attach a speed validation report to arc exports")
	flag.BoolVar(&o.validateOnly, "validate-only", false, "Print the speed validation report for arcs and exit")
	flag.BoolVar(&o.rescale, "rescale", false, "Fit vertices into the default flight volume")
	flag.BoolVar(&o.stats, "stats", false, "Log a performance report")

	flag.Parse()

	o.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o
}

// apply folds explicitly set flags into cfg and re-validates it. Flags win
// over the environment.
func (o *options) apply(cfg *config.Config) error {
	if o.set["fps"] {
		cfg.Export.FPS = o.fps
		cfg.Animation.FPS = o.fps
	}
	if o.set["format"] {
		cfg.Export.Format = o.format
	}
	if o.workers > 0 {
		cfg.Export.Workers = o.workers
	}
	if o.stats {
		cfg.Export.ShowStats = true
	}

	if o.set["min-speed"] {
		cfg.Speed.MinSpeed = o.minSpeed
	}
	if o.set["max-speed"] {
		cfg.Speed.MaxSpeed = o.maxSpeed
	}
	if o.set["target-speed"] {
		cfg.Speed.TargetSpeed = o.targetSpeed
	}

	a := &cfg.Animation
	if o.set["kind"] {
		k, err := motion.ParseKind(o.kind)
		if err != nil {
			return err
		}
		k.Apply(a)
	}
	if o.set["duration"] {
		a.Duration = o.duration
	}
	if o.set["rotation-speed"] {
		a.RotationSpeed = o.rotationSpeed
	}
	if o.set["scale-start"] {
		a.ScaleStart = o.scaleStart
	}
	if o.set["scale-end"] {
		a.ScaleEnd = o.scaleEnd
	}
	if o.set["shrink-speed"] {
		a.ShrinkSpeed = o.shrinkSpeed
	}
	if o.scaleCenter != "" {
		zc, err := strconv.ParseFloat(o.scaleCenter, 64)
		if err != nil {
			return fmt.Errorf("invalid -scale-center: %w", err)
		}
		a.ScaleCenter = &zc
	}

	return cfg.Validate()
}

func (o *options) layout() (skyc.Format, error) {
	if !o.set["format"] {
		return "", nil
	}
	return skyc.ParseFormat(o.format)
}

// pointFile picks the input: -arcs, -vertices, or the newest point file in
// input/.
func (o *options) pointFile() (string, error) {
	switch {
	case o.arcs != "":
		return o.arcs, nil
	case o.vertices != "":
		return o.vertices, nil
	}

	latest, err := system.FindLatest(inputDir, system.PointExtensions...)
	if err != nil {
		return "", fmt.Errorf("%w; pass -vertices or -arcs, or put a point file in %s/", err, inputDir)
	}
	fmt.Printf("[*] Selected input: %s\n", latest)
	return latest, nil
}

func (o *options) outputFor(cfg *config.Config, input string) string {
	if o.output != "" {
		return o.output
	}
	base := filepath.Base(input)
	name := strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
	stamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(cfg.Export.OutputDir, fmt.Sprintf("%s_%s.skyc", name, stamp))
}

func runScenario(cfg *config.Config, logger *slog.Logger, o *options) int {
	path := o.scenario
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		latest, err := scenario.FindLatest(path)
		if err != nil {
			logger.Error("find scenario", "error", err)
			return 1
		}
		path = latest
		fmt.Printf("[*] Using scenario: %s\n", path)
	}

	sc, err := scenario.Read(path)
	if err != nil {
		logger.Error("read scenario", "error", err)
		return 1
	}
	if err := sc.Validate(); err != nil {
		logger.Error("invalid scenario", "path", path, "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := engine.New(cfg, logger)
	e.Progress = progressLogger(logger)

	results, err := e.RunBatch(ctx, sc.Shows, cfg.Export.Workers)
	if err != nil && results == nil {
		logger.Error("batch", "error", err)
		return 1
	}

	failed := 0
	for i, res := range results {
		if res.OK {
			fmt.Printf("[>] %d/%d %s\n", i+1, len(results), res.Message)
		} else {
			failed++
			fmt.Printf("[!] %d/%d %s: %s\n", i+1, len(results), res.Output, res.Message)
		}
	}
	if failed > 0 || err != nil {
		fmt.Fprintf(os.Stderr, "[-] %d of %d shows failed\n", failed, len(results))
		return 1
	}
	fmt.Printf("[+++] %d shows exported\n", len(results))
	return 0
}

func validateOnly(cfg *config.Config, ps *source.PointSet) int {
	if !ps.IsArcs() {
		fmt.Fprintln(os.Stderr, "[-] -validate-only needs an arc file")
		return 1
	}

	bounds := cfg.Speed.Bounds()
	arcs, err := validate.TimeArcs(ps.Arcs, bounds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		return 1
	}

	report := validate.Check(arcs, bounds, cfg.Speed.Tolerance)
	printJSON(report)
	if !report.Valid {
		return 1
	}
	return 0
}

func inspect(path string) int {
	sum, err := skyc.Inspect(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		return 1
	}
	printJSON(sum)
	return 0
}

func initScenario(dir string, logger *slog.Logger) int {
	center := 25.0
	sc := &scenario.Scenario{
		Version: scenario.Version,
		Shows: []scenario.Show{
			{
				Title:    "Square Formation",
				Output:   "output/square.skyc",
				Kind:     string(motion.KindCombined),
				Vertices: []geom.Vec3{{-5, -5, 20}, {5, -5, 20}, {5, 5, 30}, {-5, 5, 30}},
				Animation: &motion.Config{
					RotationSpeed: 2, ScaleStart: 1, ScaleEnd: 0.5, ShrinkSpeed: 1,
					ScaleCenter: &center, Duration: 20, FPS: 4,
				},
			},
			{
				Title:    "Transit",
				Output:   "output/transit.skyc",
				Format:   string(skyc.FormatLegacy),
				FPS:      25,
				Arcs:     [][]geom.Vec3{{{0, 0, 10}, {12, 0, 10}, {12, 8, 10}}, {{0, 3, 10}, {9, 3, 14}}},
				Speed:    &timing.Bounds{MinSpeed: 2, TargetSpeed: 4, MaxSpeed: 6},
				Validate: true,
			},
		},
	}

	path := scenario.DefaultPath(dir, time.Now())
	if err := scenario.Write(sc, path); err != nil {
		logger.Error("write scenario", "error", err)
		return 1
	}
	fmt.Printf("[+++] Scenario written: %s\n", path)
	return 0
}

func progressLogger(logger *slog.Logger) show.Progress {
	return func(ev show.Event) {
		logger.Debug("progress", "stage", ev.Stage, "agent", ev.Agent, "total", ev.Total)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
