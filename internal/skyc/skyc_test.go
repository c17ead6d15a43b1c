package skyc

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ivlev/skyshow/internal/geom"
	"github.com/ivlev/skyshow/internal/show"
	"github.com/ivlev/skyshow/internal/timing"
)

func stationaryShow(positions []geom.Vec3, frames int, fps float64) *show.Show {
	trajs := make([]show.Trajectory, len(positions))
	for i, p := range positions {
		kfs := make([]show.Keyframe, frames)
		for j := range kfs {
			kfs[j] = show.Linear(float64(j)/fps, p)
		}
		trajs[i] = show.Trajectory{ID: i + 1, Home: p, Keyframes: kfs}
	}
	return show.New("Polyhedron Vertices", fps, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), trajs)
}

func readEntry(t *testing.T, path, name string) []byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	f, err := zr.Open(name)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return data
}

func TestHierarchicalRoundTrip(t *testing.T) {
	for _, n := range []int{1, 3, 12} {
		positions := make([]geom.Vec3, n)
		for i := range positions {
			positions[i] = geom.Vec3{float64(i) * 3, -float64(i), 30 + float64(i)/2}
		}
		s := stationaryShow(positions, 5, 4)

		path := filepath.Join(t.TempDir(), "vertices_show.skyc")
		layout, _ := NewLayout(FormatHierarchical)
		res, err := Write(path, layout, s, Options{Limits: DefaultLimits()})
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if want := 2 + 2*n; len(res.Entries) != want {
			t.Errorf("expected %d entries, got %d", want, len(res.Entries))
		}

		sum, err := Inspect(path)
		if err != nil {
			t.Fatalf("Inspect failed: %v", err)
		}
		if sum.Format != FormatHierarchical || sum.Agents != n || sum.Duration != 1.0 {
			t.Errorf("unexpected summary %+v", sum)
		}

		for i, p := range positions {
			kfs, err := ReadKeyframes(path, i+1)
			if err != nil {
				t.Fatalf("ReadKeyframes(%d) failed: %v", i+1, err)
			}
			for _, kf := range kfs {
				if kf.Position != p {
					t.Fatalf("agent %d: position %v, want %v", i+1, kf.Position, p)
				}
				if diff := cmp.Diff([]geom.Vec3{p}, kf.Controls); diff != "" {
					t.Fatalf("agent %d: controls mismatch:\n%s", i+1, diff)
				}
			}
		}
	}
}

func TestHierarchicalManifest(t *testing.T) {
	s := stationaryShow([]geom.Vec3{{1, 2, 3}, {4, 5, 6}}, 3, 2)
	path := filepath.Join(t.TempDir(), "show.skyc")

	if _, err := Write(path, &HierarchicalLayout{}, s, Options{Limits: DefaultLimits()}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(readEntry(t, path, "show.json"), &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}

	drones := m["swarm"].(map[string]any)["drones"].([]any)
	second := drones[1].(map[string]any)["settings"].(map[string]any)

	if got := second["trajectory"].(map[string]any)["$ref"]; got != "./drones/Drone 2/trajectory.json#" {
		t.Errorf("trajectory ref = %v", got)
	}
	if got := second["lights"].(map[string]any)["$ref"]; got != "./drones/Drone 2/lights.json#" {
		t.Errorf("lights ref = %v", got)
	}
	if diff := cmp.Diff([]any{4.0, 5.0, 6.0}, second["home"]); diff != "" {
		t.Errorf("home mismatch:\n%s", diff)
	}
	if diff := cmp.Diff(second["home"], second["landAt"]); diff != "" {
		t.Errorf("landAt should equal home:\n%s", diff)
	}

	settings := m["settings"].(map[string]any)
	if got := settings["cues"].(map[string]any)["$ref"]; got != "./cues.json" {
		t.Errorf("cues ref = %v", got)
	}
	if got := settings["validation"].(map[string]any)["maxAltitude"]; got != 150.0 {
		t.Errorf("maxAltitude = %v", got)
	}

	segs := m["meta"].(map[string]any)["segments"].(map[string]any)
	if diff := cmp.Diff([]any{0.0, 1.0}, segs["show"]); diff != "" {
		t.Errorf("show segment mismatch:\n%s", diff)
	}

	var cues cueSheet
	if err := json.Unmarshal(readEntry(t, path, "cues.json"), &cues); err != nil {
		t.Fatalf("decode cues: %v", err)
	}
	wantCues := cueSheet{Version: 1, Items: []cue{
		{Time: 0, Name: "at Polyhedron Vertices"},
		{Time: 1, Name: "Polyhedron Vertices ends"},
	}}
	if diff := cmp.Diff(wantCues, cues); diff != "" {
		t.Errorf("cues mismatch (-want +got):\n%s", diff)
	}

	var lights lightsDoc
	if err := json.Unmarshal(readEntry(t, path, "drones/Drone 1/lights.json"), &lights); err != nil {
		t.Fatalf("decode lights: %v", err)
	}
	if lights != (lightsDoc{Version: 1, Data: DefaultLights}) {
		t.Errorf("unexpected lights %+v", lights)
	}

	traj := readEntry(t, path, "drones/Drone 1/trajectory.json")
	if !bytes.Contains(traj, []byte("\"points\"")) {
		t.Errorf("trajectory.json missing points: %s", traj)
	}
	var raw struct {
		Points [][]json.RawMessage `json:"points"`
	}
	if err := json.Unmarshal(traj, &raw); err != nil {
		t.Fatalf("decode trajectory: %v", err)
	}
	if len(raw.Points[1]) != 3 || string(raw.Points[1][0]) != "0.5" {
		t.Errorf("expected [0.5, pos, [pos]], got %s", raw.Points[1])
	}
}

func TestLegacyLayout(t *testing.T) {
	s := show.New("Adaptive Arcs Show", 4, time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC), []show.Trajectory{
		show.FromSamples(1, []float64{0, 0.25, 0.5}, []geom.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}),
		show.FromSamples(3, []float64{0, 0.25}, []geom.Vec3{{5, 5, 5}, {5, 5, 6}}),
	})
	path := filepath.Join(t.TempDir(), "show.skyc")

	bounds := timing.DefaultBounds()
	res, err := Write(path, &LegacyLayout{}, s, Options{Bounds: bounds})
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if diff := cmp.Diff([]string{"show.json"}, res.Entries); diff != "" {
		t.Errorf("legacy archive should hold only show.json:\n%s", diff)
	}

	var doc legacyShow
	if err := json.Unmarshal(readEntry(t, path, "show.json"), &doc); err != nil {
		t.Fatalf("decode show.json: %v", err)
	}

	if doc.Duration != 500 {
		t.Errorf("expected duration 500ms, got %f", doc.Duration)
	}
	if doc.Created != "2026-03-04T05:06:07Z" {
		t.Errorf("unexpected created %q", doc.Created)
	}
	if doc.Agents != 2 || doc.Swarm.Agents[1].ID != 3 {
		t.Errorf("unexpected agents %d / ids %+v", doc.Agents, doc.Swarm.Agents)
	}
	if got := doc.Swarm.Agents[0].Points[2].T; got != 500 {
		t.Errorf("expected third sample at 500ms, got %f", got)
	}
	if doc.Settings != bounds {
		t.Errorf("settings = %+v, want %+v", doc.Settings, bounds)
	}

	sum, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if sum.Format != FormatLegacy || sum.Duration != 0.5 || sum.Agents != 2 {
		t.Errorf("unexpected summary %+v", sum)
	}

	kfs, err := ReadKeyframes(path, 3)
	if err != nil {
		t.Fatalf("ReadKeyframes failed: %v", err)
	}
	if len(kfs) != 2 || kfs[1].Position != (geom.Vec3{5, 5, 6}) {
		t.Errorf("unexpected keyframes %+v", kfs)
	}
}

func TestWriteIsByteIdentical(t *testing.T) {
	s := stationaryShow([]geom.Vec3{{1.25, 2.5, 30}, {-4, 0, 12.125}}, 10, 4)
	dir := t.TempDir()

	var archives [][]byte
	for _, name := range []string{"a.skyc", "b.skyc"} {
		path := filepath.Join(dir, name)
		if _, err := Write(path, &HierarchicalLayout{}, s, Options{Limits: DefaultLimits()}); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read archive: %v", err)
		}
		archives = append(archives, data)
	}

	if !bytes.Equal(archives[0], archives[1]) {
		t.Error("identical shows produced different archives")
	}
}

func TestWriteFailureLeavesNothing(t *testing.T) {
	s := stationaryShow([]geom.Vec3{{0, 0, 10}}, 50, 4)
	dir := t.TempDir()
	path := filepath.Join(dir, "too_big.skyc")

	_, err := Write(path, &HierarchicalLayout{}, s, Options{MaxSize: 64})
	if err == nil {
		t.Fatal("expected size limit error")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}

func TestWriteIntoUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not_a_dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	s := stationaryShow([]geom.Vec3{{0, 0, 10}}, 2, 4)
	if _, err := Write(filepath.Join(blocker, "show.skyc"), &HierarchicalLayout{}, s, Options{}); err == nil {
		t.Fatal("expected error writing below a regular file")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the blocker file, found %d entries", len(entries))
	}
}

func TestProgressEvents(t *testing.T) {
	s := stationaryShow([]geom.Vec3{{0, 0, 1}, {0, 0, 2}, {0, 0, 3}}, 2, 4)

	var events []show.Event
	opts := Options{Progress: func(e show.Event) { events = append(events, e) }}

	if _, err := Write(filepath.Join(t.TempDir(), "p.skyc"), &HierarchicalLayout{}, s, opts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	want := []show.Event{
		{Stage: "encode", Agent: 1, Total: 3},
		{Stage: "encode", Agent: 2, Total: 3},
		{Stage: "encode", Agent: 3, Total: 3},
		{Stage: "write"},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyShowRejected(t *testing.T) {
	s := show.New("empty", 25, time.Time{}, nil)
	for _, layout := range []Layout{&LegacyLayout{}, &HierarchicalLayout{}} {
		path := filepath.Join(t.TempDir(), "empty.skyc")
		if _, err := Write(path, layout, s, Options{}); err == nil {
			t.Errorf("%s: expected error for a show without agents", layout.Format())
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s: archive should not exist", layout.Format())
		}
	}
}

func TestNewLayout(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"legacy", FormatLegacy, false},
		{"hierarchical", FormatHierarchical, false},
		{"V2", FormatHierarchical, false},
		{"csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := ParseFormat(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			layout, err := NewLayout(f)
			if err != nil {
				t.Fatalf("NewLayout failed: %v", err)
			}
			if layout.Format() != tt.want {
				t.Errorf("layout format = %s, want %s", layout.Format(), tt.want)
			}
		})
	}
}

func TestZeroLimitsUseDefaults(t *testing.T) {
	s := stationaryShow([]geom.Vec3{{0, 0, 5}}, 2, 1)
	path := filepath.Join(t.TempDir(), "show.skyc")

	if _, err := Write(path, &HierarchicalLayout{}, s, Options{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var m struct {
		Settings struct {
			Validation Limits `json:"validation"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(readEntry(t, path, "show.json"), &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if diff := cmp.Diff(DefaultLimits(), m.Settings.Validation); diff != "" {
		t.Errorf("validation block mismatch (-want +got):\n%s", diff)
	}
}

func TestSpanSetsShowDuration(t *testing.T) {
	traj := show.FromSamples(1, []float64{0, 0.25, 0.5}, []geom.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}})
	traj.Span = 0.625
	s := show.New("Span", 4, time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC), []show.Trajectory{traj})

	tests := []struct {
		layout Layout
		name   string
	}{
		{&LegacyLayout{}, "legacy"},
		{&HierarchicalLayout{}, "hierarchical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "show.skyc")
			if _, err := Write(path, tt.layout, s, Options{}); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			sum, err := Inspect(path)
			if err != nil {
				t.Fatalf("Inspect failed: %v", err)
			}
			if sum.Duration != 0.625 {
				t.Errorf("duration = %g, want 0.625", sum.Duration)
			}
		})
	}
}
