package model

import "time"

// Market identifies which exchange family a stock code belongs to.
type Market string

const (
	MarketTW   Market = "TW"   // Taiwan listed or OTC (.TW / .TWO)
	MarketUS   Market = "US"   // NYSE / NASDAQ
	MarketAuto Market = "AUTO" // unresolved; orchestrator decides the fetch policy
)

// Identifier is a resolved stock code.
type Identifier struct {
	Raw    string `json:"raw"`
	Code   string `json:"code"` // trimmed, uppercased
	Market Market `json:"market"`
	Name   string `json:"name,omitempty"` // display name, filled by the fetcher when known
}

// PricePoint is one trading day with the derived fields the engine consumes.
// Missing days are never interpolated; the series simply skips them.
type PricePoint struct {
	Date        time.Time `json:"date"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
	PctChange   float64   `json:"pct_chg"`
	MA5         float64   `json:"ma5"`
	MA10        float64   `json:"ma10"`
	MA20        float64   `json:"ma20"`
	VolumeRatio float64   `json:"volume_ratio"` // volume / prior 5-day average volume
}

// DataSeries is a bounded, chronologically ascending run of daily bars for one
// code. It is owned by the fetch call that produced it and discarded after the
// analysis result is assembled.
type DataSeries struct {
	Code      string       `json:"code"`
	Name      string       `json:"name,omitempty"` // upstream display name, may be empty
	Market    Market       `json:"market"`
	Source    string       `json:"source"`
	Points    []PricePoint `json:"points"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Len returns the number of trading days in the series.
func (s *DataSeries) Len() int { return len(s.Points) }

// Latest returns the most recent point. Callers must check Len first.
func (s *DataSeries) Latest() PricePoint { return s.Points[len(s.Points)-1] }

// Closes extracts the close prices in chronological order.
func (s *DataSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}
