package recorder

import (
	"time"

	"MarketLens/internal/model"
)

// Run kinds.
const (
	KindSymbols = "symbols"
	KindSectors = "sectors"
)

// Run describes one analysis run.
type Run struct {
	ID          string
	Kind        string
	StartedAt   time.Time
	FinishedAt  time.Time
	Granularity model.Granularity
	BarInterval string
	Start       time.Time
	End         time.Time
	Succeeded   int
	Failed      int
	Err         string
}

// Recorder keeps a log of analysis runs and their derived metrics.
// Price history is never stored.
type Recorder interface {
	RecordSymbols(run *Run, results []model.AnalyticsResult) error
	RecordSectors(run *Run, bundle *model.SectorBundle) error
	Close() error
}

// Count fills Succeeded and Failed from results.
func (r *Run) Count(results []model.AnalyticsResult) {
	r.Succeeded, r.Failed = 0, 0
	for _, res := range results {
		if res.OK() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}
