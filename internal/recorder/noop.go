package recorder

import "StockScout/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordResult(_ *model.AnalysisResult) error      { return nil }
func (n *NoopRecorder) RecordRun(_ *RunSnapshot) error                  { return nil }
func (n *NoopRecorder) RecordReview(_ *model.MarketReviewResult) error  { return nil }
func (n *NoopRecorder) RecentResults(_ string, _ int) ([]*model.AnalysisResult, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
