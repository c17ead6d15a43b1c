package engine

import (
	"fmt"
	"time"

	"github.com/docker/go-units"

	"github.com/ivlev/skyshow/internal/system"
)

// reportStats logs the performance report when show_stats is on.
func (e *Exporter) reportStats(r run, res *Result) {
	if !e.Config.Export.ShowStats {
		return
	}

	elapsed := time.Since(r.start)
	attrs := []any{
		"elapsed", elapsed.Round(time.Millisecond),
		"agents", res.Agents,
		"frames", res.Frames,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		attrs = append(attrs, "frames_per_sec", fmt.Sprintf("%.0f", float64(res.Frames)/secs))
	}
	if res.Archive != nil {
		attrs = append(attrs, "archive_size", units.HumanSize(float64(res.Archive.Bytes)))
	}

	st, err := system.Snapshot()
	if err != nil {
		r.log.Debug("memory stats unavailable", "error", err)
	} else {
		attrs = append(attrs,
			"rss", units.BytesSize(float64(st.RSS)),
			"system_memory", units.BytesSize(float64(st.SystemTotal)),
			"system_used", fmt.Sprintf("%.1f%%", st.SystemUsedPerc),
		)
	}

	r.log.Info("performance report", attrs...)
}
