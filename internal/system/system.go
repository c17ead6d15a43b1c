package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Extensions accepted by the loaders.
var (
	ScenarioExtensions = []string{".yaml", ".yml"}
	PointExtensions    = []string{".json", ".obj"}
)

// FindLatest returns the most recently modified file in dir whose extension
// is one of exts.
func FindLatest(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), dir)
	}

	return latestFile, nil
}

func hasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Stats is a point-in-time resource snapshot for the performance report.
type Stats struct {
	RSS            uint64 // bytes held by this process
	SystemTotal    uint64
	SystemUsedPerc float64
}

// Snapshot reads the current process and host memory usage.
func Snapshot() (Stats, error) {
	var s Stats

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return s, fmt.Errorf("open process: %w", err)
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return s, fmt.Errorf("process memory: %w", err)
	}
	s.RSS = info.RSS

	vm, err := mem.VirtualMemory()
	if err != nil {
		return s, fmt.Errorf("system memory: %w", err)
	}
	s.SystemTotal = vm.Total
	s.SystemUsedPerc = vm.UsedPercent

	return s, nil
}
