package recorder

import "StockScout/internal/model"

// RunSnapshot holds one batch run's aggregate counts.
type RunSnapshot struct {
	Analyzed int
	Failed   int
	Buy      int
	Hold     int
	Sell     int
}

// Recorder persists analysis history for later inspection.
type Recorder interface {
	RecordResult(result *model.AnalysisResult) error
	RecordRun(snap *RunSnapshot) error
	RecordReview(review *model.MarketReviewResult) error
	RecentResults(code string, limit int) ([]*model.AnalysisResult, error)
	Close() error
}
