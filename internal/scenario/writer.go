package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/skyshow/internal/system"
)

// Write writes a scenario to a YAML file.
func Write(s *Scenario, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Read parses a scenario and resolves relative Input paths against the
// file's directory.
func Read(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range s.Shows {
		if in := s.Shows[i].Input; in != "" && !filepath.IsAbs(in) {
			s.Shows[i].Input = filepath.Join(dir, in)
		}
	}

	return &s, nil
}

// DefaultPath is a timestamped scenario filename in dir.
func DefaultPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("scenario_%s.yaml", now.Format("2006-01-02_15-04-05")))
}

// FindLatest returns the most recently modified scenario in dir.
func FindLatest(dir string) (string, error) {
	return system.FindLatest(dir, system.ScenarioExtensions...)
}
