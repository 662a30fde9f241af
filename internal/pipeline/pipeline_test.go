package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockScout/internal/fetcher"
	"StockScout/internal/model"
	"StockScout/internal/signal"
)

func newTestPipeline(tw, us fetcher.Fetcher) *Pipeline {
	p := New(tw, us, signal.NewEngine())
	p.Timeout = 5 * time.Second
	return p
}

func TestRunOne_ResolvesAndScores(t *testing.T) {
	p := newTestPipeline(
		&fetcher.MockFetcher{Market: model.MarketTW, Price: 600},
		&fetcher.MockFetcher{Market: model.MarketUS, Price: 190},
	)

	out := p.RunOne(context.Background(), "2330.TW")
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.Result.Code != "2330.TW" {
		t.Errorf("code = %q, want 2330.TW", out.Result.Code)
	}
	if out.Result.Market != model.MarketTW {
		t.Errorf("market = %q, want tw", out.Result.Market)
	}
}

func TestRunOne_InvalidCode(t *testing.T) {
	p := newTestPipeline(&fetcher.MockFetcher{}, &fetcher.MockFetcher{})

	out := p.RunOne(context.Background(), "   ")
	if out.OK() {
		t.Fatal("expected failure for blank code")
	}
	if out.Err.Stage != StageResolving {
		t.Errorf("stage = %q, want resolving", out.Err.Stage)
	}
}

func TestRunOne_AutoTriesTaiwanFirst(t *testing.T) {
	tw := &fetcher.MockFetcher{Market: model.MarketTW, Price: 120}
	us := &fetcher.MockFetcher{Market: model.MarketUS, Price: 50}
	p := newTestPipeline(tw, us)

	// "123ABC" matches neither market pattern and resolves to AUTO.
	out := p.RunOne(context.Background(), "123ABC")
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.Result.Market != model.MarketTW {
		t.Errorf("auto resolution should prefer the Taiwan hit, got %q", out.Result.Market)
	}
	if us.Calls() != 0 {
		t.Errorf("US fetcher should not be consulted when Taiwan answers, got %d calls", us.Calls())
	}
}

func TestRunOne_AutoFallsBackToUS(t *testing.T) {
	tw := &fetcher.MockFetcher{Market: model.MarketTW, Err: fetcher.ErrEmptySeries}
	us := &fetcher.MockFetcher{Market: model.MarketUS, Price: 50}
	p := newTestPipeline(tw, us)

	out := p.RunOne(context.Background(), "123ABC")
	if !out.OK() {
		t.Fatalf("expected US fallback to succeed, got %v", out.Err)
	}
	if out.Result.Market != model.MarketUS {
		t.Errorf("market = %q, want us", out.Result.Market)
	}
}

func TestRunMany_PreservesOrderAcrossFailures(t *testing.T) {
	tw := &fetcher.MockFetcher{Market: model.MarketTW, Price: 600}
	us := &fetcher.MockFetcher{Market: model.MarketUS, Err: &fetcher.FetchError{
		Source: "mock", Code: "FAIL", Transient: false, Err: errors.New("unknown ticker"),
	}}
	p := newTestPipeline(tw, us)
	p.Workers = 3

	codes := []string{"2330.TW", "AAPL", "2317.TW"}
	outcomes := p.RunMany(context.Background(), codes)

	if len(outcomes) != len(codes) {
		t.Fatalf("expected %d slots, got %d", len(codes), len(outcomes))
	}
	for i, code := range codes {
		if outcomes[i].Code != code {
			t.Errorf("slot %d holds %q, want %q", i, outcomes[i].Code, code)
		}
	}
	if !outcomes[0].OK() || !outcomes[2].OK() {
		t.Error("Taiwan slots should succeed")
	}
	if outcomes[1].OK() {
		t.Error("the failing US slot must carry an error, not abort the batch")
	}
	if outcomes[1].Err.Stage != StageFetching {
		t.Errorf("failed stage = %q, want fetching", outcomes[1].Err.Stage)
	}
}

func TestRunMany_Timeout(t *testing.T) {
	slow := &fetcher.MockFetcher{Market: model.MarketTW, Price: 600, Delay: 200 * time.Millisecond}
	p := newTestPipeline(slow, &fetcher.MockFetcher{})
	p.Workers = 1
	p.Timeout = 50 * time.Millisecond

	outcomes := p.RunMany(context.Background(), []string{"2330.TW", "2317.TW", "2454.TW"})

	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
			if o.Err.Stage != StageFetching {
				t.Errorf("timeout must surface in the fetching stage, got %q", o.Err.Stage)
			}
		}
	}
	if failed == 0 {
		t.Error("expected at least one slot to fail under the run timeout")
	}
}

func TestMarketReview_ExcludesFailures(t *testing.T) {
	tw := &fetcher.MockFetcher{Market: model.MarketTW, Price: 600}
	p := newTestPipeline(tw, &fetcher.MockFetcher{})

	outcomes := p.RunMany(context.Background(), []string{"2330.TW", "2317.TW"})
	outcomes = append(outcomes, Outcome{
		Code: "9999.TW",
		Err:  &StockError{Code: "9999.TW", Stage: StageFetching, Reason: fetcher.ErrEmptySeries},
	})

	review := MarketReview(outcomes)
	if review.Analyzed != 2 {
		t.Errorf("analyzed = %d, want 2", review.Analyzed)
	}
	if review.Excluded != 1 {
		t.Errorf("excluded = %d, want 1", review.Excluded)
	}
	if review.Tone == "" {
		t.Error("tone must be set")
	}
	if review.AverageScore < 0 || review.AverageScore > 100 {
		t.Errorf("average score out of range: %.2f", review.AverageScore)
	}
}

func TestMarketReview_Empty(t *testing.T) {
	review := MarketReview(nil)
	if review.Analyzed != 0 || review.Excluded != 0 {
		t.Errorf("empty review miscounted: %+v", review)
	}
	if review.TopMovers == nil || review.RiskThemes == nil {
		t.Error("lists must be non-nil even when empty")
	}
}
