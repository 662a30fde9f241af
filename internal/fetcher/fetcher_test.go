package fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockScout/internal/model"
)

func TestNormalizeTaiwanCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2330", "2330.TW", false},
		{"2330.TW", "2330.TW", false},
		{"4956.TWO", "4956.TWO", false},
		{"00923", "00923.TW", false},
		{"AAPL", "", true},
		{"2330.SS", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeTaiwanCode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("normalizeTaiwanCode(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("normalizeTaiwanCode(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeTaiwanCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToYahooTicker(t *testing.T) {
	if got := toYahooTicker("BRK.B"); got != "BRK-B" {
		t.Errorf("toYahooTicker(BRK.B) = %q, want BRK-B", got)
	}
	if got := toYahooTicker(" aapl "); got != "AAPL" {
		t.Errorf("toYahooTicker(aapl) = %q, want AAPL", got)
	}
}

func TestDeriveIndicators(t *testing.T) {
	series := GenerateMockSeries("2330.TW", model.MarketTW, 600, 30)
	points := series.Points
	if len(points) != 30 {
		t.Fatalf("expected 30 points, got %d", len(points))
	}
	last := points[len(points)-1]
	if last.MA5 == 0 || last.MA10 == 0 || last.MA20 == 0 {
		t.Errorf("expected derived moving averages, got MA5=%.2f MA10=%.2f MA20=%.2f", last.MA5, last.MA10, last.MA20)
	}
	if last.VolumeRatio == 0 {
		t.Error("expected derived volume ratio")
	}
	// Chronological order must hold.
	for i := 1; i < len(points); i++ {
		if points[i].Date.Before(points[i-1].Date) {
			t.Fatalf("points out of order at %d", i)
		}
	}
}

func TestFetchWithRetry_PermanentFailsFast(t *testing.T) {
	calls := 0
	permanent := &FetchError{Source: "mock", Code: "X", Transient: false, Err: errors.New("unknown ticker")}
	_, err := fetchWithRetry(context.Background(), "mock", "X", func() (*model.DataSeries, error) {
		calls++
		return nil, permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent failure must not be retried, got %d calls", calls)
	}
}

func TestFetchWithRetry_TransientRetries(t *testing.T) {
	calls := 0
	_, err := fetchWithRetry(context.Background(), "mock", "X", func() (*model.DataSeries, error) {
		calls++
		if calls < 2 {
			return nil, &FetchError{Source: "mock", Code: "X", Transient: true, Err: errors.New("timeout")}
		}
		return GenerateMockSeries("X", model.MarketUS, 100, 10), nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestCachedFetcher_ReadThrough(t *testing.T) {
	mock := &MockFetcher{Market: model.MarketTW, Price: 600}
	cached := NewCachedFetcher(mock, time.Minute)

	a, err := cached.FetchDaily(context.Background(), "2330.TW", 30)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cached.FetchDaily(context.Background(), "2330.TW", 30)
	if err != nil {
		t.Fatal(err)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected one upstream call, got %d", mock.Calls())
	}
	if a != b {
		t.Error("expected the cached series to be shared")
	}

	// A different window is a different key.
	if _, err := cached.FetchDaily(context.Background(), "2330.TW", 60); err != nil {
		t.Fatal(err)
	}
	if mock.Calls() != 2 {
		t.Errorf("expected a second upstream call for a new window, got %d", mock.Calls())
	}
}

func TestCachedFetcher_SingleFlight(t *testing.T) {
	mock := &MockFetcher{Market: model.MarketTW, Price: 600, Delay: 50 * time.Millisecond}
	cached := NewCachedFetcher(mock, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cached.FetchDaily(context.Background(), "2330.TW", 30); err != nil {
				t.Errorf("concurrent fetch failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if mock.Calls() != 1 {
		t.Errorf("concurrent identical requests must collapse to one call, got %d", mock.Calls())
	}
}

func TestCachedFetcher_ErrorsNotCached(t *testing.T) {
	mock := &MockFetcher{Market: model.MarketTW, Err: ErrEmptySeries}
	cached := NewCachedFetcher(mock, time.Minute)

	if _, err := cached.FetchDaily(context.Background(), "9999.TW", 30); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
	mock.Err = nil
	if _, err := cached.FetchDaily(context.Background(), "9999.TW", 30); err != nil {
		t.Fatalf("expected recovery after upstream heals, got %v", err)
	}
	if mock.Calls() != 2 {
		t.Errorf("expected 2 upstream calls, got %d", mock.Calls())
	}
}
