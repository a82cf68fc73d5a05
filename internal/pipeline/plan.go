package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/platformbuilds/prognos-core/internal/models"
)

// runPlan is the fully resolved shape of one pipeline run: the request
// configuration after defaulting, the parallelism bound, and the
// aggregate deadline. Built once at ingress so every stage sees the
// same resolved values.
type runPlan struct {
	runID        string
	config       *models.PipelineConfig
	parallelism  int
	budget       time.Duration
	cacheTTL     time.Duration
	cacheEnabled bool
	started      time.Time
}

// diagnostics collects one entry per stage invocation across the run.
// Per-segment workers append concurrently; entries are sorted by the
// aggregator before they leave the orchestrator.
type diagnostics struct {
	mu      sync.Mutex
	entries []models.Diagnostic
}

func (d *diagnostics) add(stage models.StageName, segment *int, status models.DiagStatus, message string, elapsed time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, models.Diagnostic{
		Stage:        stage,
		SegmentIndex: segment,
		Status:       status,
		Message:      message,
		DurationMs:   elapsed.Milliseconds(),
	})
}

// list returns the collected entries ordered by stage position in the
// pipeline, then by segment index. Whole-series entries sort ahead of
// per-segment ones for the same stage.
func (d *diagnostics) list() []models.Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Diagnostic, len(d.entries))
	copy(out, d.entries)
	sortDiagnostics(out)
	return out
}

var stageOrder = map[models.StageName]int{
	models.StagePreprocess: 0,
	models.StageSegment:    1,
	models.StageOutlier:    2,
	models.StageForecast:   3,
}

func sortDiagnostics(entries []models.Diagnostic) {
	sort.SliceStable(entries, func(i, j int) bool {
		return diagLess(entries[i], entries[j])
	})
}

func diagLess(a, b models.Diagnostic) bool {
	if stageOrder[a.Stage] != stageOrder[b.Stage] {
		return stageOrder[a.Stage] < stageOrder[b.Stage]
	}
	return segIndex(a.SegmentIndex) < segIndex(b.SegmentIndex)
}

func segIndex(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}
