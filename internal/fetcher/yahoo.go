package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"StockScout/internal/calculator"
	"StockScout/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// yahooClient talks to the Yahoo Finance chart API. Both market fetchers share
// it; they differ only in symbol normalization and name lookup.
type yahooClient struct {
	Client  *http.Client
	BaseURL string
}

// newYahooClient creates a chart API client with optional proxy support.
func newYahooClient(proxyURL string) *yahooClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &yahooClient{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: yahooBaseURL,
	}
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				ShortName string `json:"shortName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// rangeForDays maps a requested day-count window onto a Yahoo range token.
func rangeForDays(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

// fetchChart downloads daily bars for symbol and returns them normalized:
// chronological ascending, null bars dropped, percent change and moving
// averages derived, trimmed to the requested window from the oldest end.
func (c *yahooClient) fetchChart(ctx context.Context, source, symbol string, days int) ([]model.PricePoint, string, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.BaseURL, url.PathEscape(symbol), rangeForDays(days))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, "", &FetchError{Source: source, Code: symbol, Transient: false, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, "", &FetchError{Source: source, Code: symbol, Transient: true, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &FetchError{Source: source, Code: symbol, Transient: true, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, "", &FetchError{
			Source:    source,
			Code:      symbol,
			Transient: transient,
			Err:       fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)),
		}
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, "", &FetchError{Source: source, Code: symbol, Transient: false, Err: fmt.Errorf("decode: %w", err)}
	}
	if chart.Chart.Error != nil {
		// "Not Found" means an unknown or delisted ticker; retrying cannot help.
		transient := !strings.Contains(strings.ToLower(chart.Chart.Error.Code), "not found")
		return nil, "", &FetchError{
			Source:    source,
			Code:      symbol,
			Transient: transient,
			Err:       fmt.Errorf("api error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description),
		}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, "", ErrEmptySeries
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, "", ErrEmptySeries
	}
	quote := result.Indicators.Quote[0]

	// Yahoo sometimes ships quote arrays shorter than the timestamp array;
	// never index past the shortest one.
	n := len(result.Timestamp)
	for _, length := range []int{len(quote.Open), len(quote.High), len(quote.Low), len(quote.Close), len(quote.Volume)} {
		if length < n {
			n = length
		}
	}

	points := make([]model.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		cl := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // skip null bars (holidays etc.)
		}
		points = append(points, model.PricePoint{
			Date:   time.Unix(result.Timestamp[i], 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: toFloat(quote.Volume[i]),
		})
	}
	// A suspended listing can answer with timestamps whose bars are all null.
	if len(points) == 0 {
		return nil, "", ErrEmptySeries
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	deriveIndicators(points)

	// Trim to requested count from the oldest end; never pad with synthetic data.
	if len(points) > days {
		points = points[len(points)-days:]
	}
	return points, result.Meta.ShortName, nil
}

// deriveIndicators fills the per-point derived fields in place.
func deriveIndicators(points []model.PricePoint) {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}
	ma5 := calculator.RollingSMA(closes, 5)
	ma10 := calculator.RollingSMA(closes, 10)
	ma20 := calculator.RollingSMA(closes, 20)

	for i := range points {
		points[i].MA5 = ma5[i]
		points[i].MA10 = ma10[i]
		points[i].MA20 = ma20[i]

		if i > 0 && points[i-1].Close != 0 {
			points[i].PctChange = (points[i].Close - points[i-1].Close) / points[i-1].Close * 100
		}

		// Volume ratio against the prior 5-day average volume.
		if i > 0 {
			start := i - 5
			if start < 0 {
				start = 0
			}
			sum := 0.0
			for j := start; j < i; j++ {
				sum += points[j].Volume
			}
			avg := sum / float64(i-start)
			if avg > 0 {
				points[i].VolumeRatio = points[i].Volume / avg
			} else {
				points[i].VolumeRatio = 1.0
			}
		} else {
			points[i].VolumeRatio = 1.0
		}
	}
}
