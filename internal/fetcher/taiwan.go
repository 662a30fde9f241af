package fetcher

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"StockScout/internal/model"
)

// TaiwanFetcher retrieves daily bars for Taiwan listed (.TW) and OTC (.TWO)
// stocks via the Yahoo Finance chart API.
type TaiwanFetcher struct {
	yahoo *yahooClient
}

// NewTaiwanFetcher creates a Taiwan market fetcher with optional proxy support.
func NewTaiwanFetcher(proxyURL string) *TaiwanFetcher {
	return &TaiwanFetcher{yahoo: newYahooClient(proxyURL)}
}

func (f *TaiwanFetcher) Name() string { return "yahoo-tw" }

var twCodeRe = regexp.MustCompile(`^[0-9]{4,6}(\.TW|\.TWO)?$`)

// normalizeTaiwanCode converts accepted input formats onto the Yahoo ticker:
// 2330 -> 2330.TW, 2330.TW -> 2330.TW, 4956.TWO -> 4956.TWO.
func normalizeTaiwanCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !twCodeRe.MatchString(c) {
		return "", fmt.Errorf("not a Taiwan stock code: %s", code)
	}
	if strings.HasSuffix(c, ".TW") || strings.HasSuffix(c, ".TWO") {
		return c, nil
	}
	return c + ".TW", nil
}

// FetchDaily retrieves the most recent `days` trading days for code.
func (f *TaiwanFetcher) FetchDaily(ctx context.Context, code string, days int) (*model.DataSeries, error) {
	symbol, err := normalizeTaiwanCode(code)
	if err != nil {
		return nil, &FetchError{Source: f.Name(), Code: code, Transient: false, Err: err}
	}

	return fetchWithRetry(ctx, f.Name(), symbol, func() (*model.DataSeries, error) {
		points, name, err := f.yahoo.fetchChart(ctx, f.Name(), symbol, days)
		if err != nil {
			return nil, err
		}
		return &model.DataSeries{
			Code:      symbol,
			Name:      name,
			Market:    model.MarketTW,
			Source:    f.Name(),
			Points:    points,
			FetchedAt: time.Now(),
		}, nil
	})
}
