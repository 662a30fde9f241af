package fetcher

import (
	"context"
	"sync/atomic"
	"time"

	"StockScout/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Market model.Market
	Price  float64
	Series *model.DataSeries
	Err    error
	Delay  time.Duration

	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls reports how many upstream calls reached the mock.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

func (m *MockFetcher) FetchDaily(ctx context.Context, code string, days int) (*model.DataSeries, error) {
	m.calls.Add(1)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, &FetchError{Source: m.Name(), Code: code, Transient: true, Err: ctx.Err()}
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Series != nil {
		return m.Series, nil
	}
	return GenerateMockSeries(code, m.Market, m.Price, days), nil
}

// GenerateMockSeries builds a gently trending series around basePrice.
func GenerateMockSeries(code string, market model.Market, basePrice float64, count int) *model.DataSeries {
	points := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		points[i] = model.PricePoint{
			Date:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	deriveIndicators(points)
	return &model.DataSeries{
		Code:      code,
		Market:    market,
		Source:    "mock",
		Points:    points,
		FetchedAt: time.Now(),
	}
}
