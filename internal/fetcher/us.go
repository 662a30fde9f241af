package fetcher

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/piquette/finance-go/quote"

	"StockScout/internal/model"
)

// USFetcher retrieves daily bars for NYSE/NASDAQ stocks via the Yahoo Finance
// chart API, with display names resolved through the quote endpoint.
type USFetcher struct {
	yahoo *yahooClient
}

// NewUSFetcher creates a US market fetcher with optional proxy support.
func NewUSFetcher(proxyURL string) *USFetcher {
	return &USFetcher{yahoo: newYahooClient(proxyURL)}
}

func (f *USFetcher) Name() string { return "yahoo-us" }

// toYahooTicker converts class-share symbols like BRK.B to Yahoo's BRK-B form.
func toYahooTicker(code string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(code)), ".", "-")
}

// FetchDaily retrieves the most recent `days` trading days for code.
func (f *USFetcher) FetchDaily(ctx context.Context, code string, days int) (*model.DataSeries, error) {
	symbol := toYahooTicker(code)

	series, err := fetchWithRetry(ctx, f.Name(), symbol, func() (*model.DataSeries, error) {
		points, name, err := f.yahoo.fetchChart(ctx, f.Name(), symbol, days)
		if err != nil {
			return nil, err
		}
		return &model.DataSeries{
			Code:      symbol,
			Name:      name,
			Market:    model.MarketUS,
			Source:    f.Name(),
			Points:    points,
			FetchedAt: time.Now(),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if series.Name == "" {
		series.Name = f.lookupName(symbol)
	}
	return series, nil
}

// lookupName resolves the display name through the quote endpoint. A failure
// here never fails the fetch; the code doubles as the name.
func (f *USFetcher) lookupName(symbol string) string {
	q, err := quote.Get(symbol)
	if err != nil || q == nil {
		log.Printf("[WARN] %s: name lookup for %s failed: %v", f.Name(), symbol, err)
		return symbol
	}
	if q.ShortName != "" {
		return q.ShortName
	}
	return symbol
}

// Quote returns the latest regular-market price and percent change for symbol.
// Used by the quote API endpoint when intraday freshness matters more than a
// full series.
func (f *USFetcher) Quote(symbol string) (price, changePct float64, err error) {
	q, err := quote.Get(toYahooTicker(symbol))
	if err != nil {
		return 0, 0, &FetchError{Source: f.Name(), Code: symbol, Transient: true, Err: err}
	}
	if q == nil {
		return 0, 0, ErrEmptySeries
	}
	return q.RegularMarketPrice, q.RegularMarketChangePercent, nil
}
