package api

import "StockScout/internal/model"

// AnalyzeRequest is the body of POST /api/analyze. A single Code returns one
// bare result; Stocks returns an ordered batch. Setting neither falls back to
// the configured watchlist as a batch.
type AnalyzeRequest struct {
	Code   string   `json:"code,omitempty"`
	Stocks []string `json:"stocks,omitempty"`
	Days   int      `json:"days,omitempty"`
}

// Envelope is the uniform response wrapper: exactly one of Data or Error is
// set, and Success mirrors which.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeSlot is one batch slot of the analyze response. Slots follow the
// request order; failed stocks carry the stage and reason instead of a result.
type AnalyzeSlot struct {
	Code   string                `json:"code"`
	OK     bool                  `json:"ok"`
	Result *model.AnalysisResult `json:"result,omitempty"`
	Stage  string                `json:"stage,omitempty"`
	Reason string                `json:"reason,omitempty"`
}

// AnalyzeData is the payload of a successful analyze call.
type AnalyzeData struct {
	Results []AnalyzeSlot             `json:"results"`
	Review  *model.MarketReviewResult `json:"review,omitempty"`
}

// QuoteData is the payload of GET /api/quote/{code}.
type QuoteData struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Market    string  `json:"market"`
	Close     float64 `json:"close"`
	PctChange float64 `json:"pct_change"`
	Date      string  `json:"date"`
}

// MarketInfo describes one supported market for GET /api/markets.
type MarketInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CodePattern string `json:"code_pattern"`
	Example     string `json:"example"`
}

// HealthData is the payload of GET /api/health.
type HealthData struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}
