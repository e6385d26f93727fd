package recorder

import "MarketLens/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSymbols(_ *Run, _ []model.AnalyticsResult) error { return nil }
func (n *NoopRecorder) RecordSectors(_ *Run, _ *model.SectorBundle) error     { return nil }
func (n *NoopRecorder) Close() error                                          { return nil }
