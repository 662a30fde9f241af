package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"StockScout/internal/fetcher"
	"StockScout/internal/market"
	"StockScout/internal/model"
	"StockScout/internal/signal"
)

// Stage names the pipeline step a stock was in when it failed. Used for
// reporting only, never for control flow.
type Stage string

const (
	StageResolving Stage = "resolving"
	StageFetching  Stage = "fetching"
	StageScoring   Stage = "scoring"
)

// StockError is a per-stock failure pinned to its pipeline stage.
type StockError struct {
	Code   string
	Stage  Stage
	Reason error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Code, e.Stage, e.Reason)
}

func (e *StockError) Unwrap() error { return e.Reason }

// Outcome is one slot of a batch run: either a result or a stage-tagged error,
// never both.
type Outcome struct {
	Code   string
	Result *model.AnalysisResult
	Err    *StockError
}

// OK reports whether the slot carries a result.
func (o Outcome) OK() bool { return o.Err == nil }

// Pipeline wires resolution, fetching and scoring into one runnable unit.
type Pipeline struct {
	TW     fetcher.Fetcher
	US     fetcher.Fetcher
	Engine *signal.Engine

	WindowDays int           // trading days requested per stock
	Workers    int           // concurrent stocks in a batch run
	Timeout    time.Duration // wall clock budget for a whole batch
}

const (
	defaultWindowDays = 60
	defaultWorkers    = 4
	defaultTimeout    = 3 * time.Minute
)

// New builds a pipeline with defaults filled in.
func New(tw, us fetcher.Fetcher, engine *signal.Engine) *Pipeline {
	return &Pipeline{
		TW:         tw,
		US:         us,
		Engine:     engine,
		WindowDays: defaultWindowDays,
		Workers:    defaultWorkers,
		Timeout:    defaultTimeout,
	}
}

// RunOne takes a raw user-entered code through resolve, fetch and score.
func (p *Pipeline) RunOne(ctx context.Context, raw string) Outcome {
	id, err := market.Resolve(raw)
	if err != nil {
		return Outcome{Code: raw, Err: &StockError{Code: raw, Stage: StageResolving, Reason: err}}
	}

	series, err := p.fetch(ctx, id)
	if err != nil {
		return Outcome{Code: id.Code, Err: &StockError{Code: id.Code, Stage: StageFetching, Reason: err}}
	}

	result, err := p.Engine.Analyze(series, id)
	if err != nil {
		return Outcome{Code: id.Code, Err: &StockError{Code: id.Code, Stage: StageScoring, Reason: err}}
	}
	return Outcome{Code: id.Code, Result: result}
}

// fetch routes the identifier to its market fetcher. An ambiguous code tries
// Taiwan first, then the US market; the first non-empty series wins.
func (p *Pipeline) fetch(ctx context.Context, id model.Identifier) (*model.DataSeries, error) {
	switch id.Market {
	case model.MarketTW:
		return p.TW.FetchDaily(ctx, id.Code, p.WindowDays)
	case model.MarketUS:
		return p.US.FetchDaily(ctx, id.Code, p.WindowDays)
	default:
		series, twErr := p.TW.FetchDaily(ctx, id.Code, p.WindowDays)
		if twErr == nil && series.Len() > 0 {
			return series, nil
		}
		series, usErr := p.US.FetchDaily(ctx, id.Code, p.WindowDays)
		if usErr == nil && series.Len() > 0 {
			return series, nil
		}
		return nil, fmt.Errorf("code %s not found in any market (tw: %v, us: %v)", id.Code, twErr, usErr)
	}
}

// RunMany analyzes a batch under a bounded worker pool and the run-level
// timeout. The output always has one slot per input, in input order; one
// stock's failure never aborts its siblings.
func (p *Pipeline) RunMany(ctx context.Context, codes []string) []Outcome {
	workers := p.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(codes) {
		workers = len(codes)
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	outcomes := make([]Outcome, len(codes))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					outcomes[i] = Outcome{
						Code: codes[i],
						Err:  &StockError{Code: codes[i], Stage: StageFetching, Reason: fmt.Errorf("run timeout: %w", err)},
					}
					continue
				}
				outcomes[i] = p.RunOne(ctx, codes[i])
			}
		}()
	}
	for i := range codes {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	ok := 0
	for _, o := range outcomes {
		if o.OK() {
			ok++
		} else {
			log.Printf("[WARN] %v", o.Err)
		}
	}
	log.Printf("[INFO] batch done: %d/%d stocks analyzed", ok, len(codes))
	return outcomes
}

// MarketReview aggregates one batch's outcomes into a market-level summary.
// Failed stocks are excluded from every aggregate and surface only as a count.
func MarketReview(outcomes []Outcome) *model.MarketReviewResult {
	review := &model.MarketReviewResult{
		Date:        time.Now().Format("2006-01-02"),
		TopMovers:   []string{},
		RiskThemes:  []string{},
		GeneratedAt: time.Now(),
	}

	var results []*model.AnalysisResult
	for _, o := range outcomes {
		if o.OK() {
			results = append(results, o.Result)
		} else {
			review.Excluded++
		}
	}
	review.Analyzed = len(results)
	if len(results) == 0 {
		review.Tone = "無資料"
		return review
	}

	total := 0
	seenRisks := make(map[string]bool)
	for _, r := range results {
		total += r.SentimentScore
		switch {
		case r.PctChange > 0:
			review.Advancers++
		case r.PctChange < 0:
			review.Decliners++
		default:
			review.Flat++
		}
		for _, risk := range r.RiskWarnings {
			if !seenRisks[risk] && len(review.RiskThemes) < 5 {
				seenRisks[risk] = true
				review.RiskThemes = append(review.RiskThemes, risk)
			}
		}
	}
	review.AverageScore = float64(total) / float64(len(results))
	review.Tone = reviewTone(review.AverageScore)
	review.TopMovers = topMovers(results, 3)
	return review
}

// reviewTone maps the average score onto the same bands the per-stock advice
// uses, so batch and stock readings never contradict each other.
func reviewTone(avg float64) string {
	switch {
	case avg >= model.ScoreBuyThreshold:
		return "偏多"
	case avg <= model.ScoreSellThreshold:
		return "偏空"
	default:
		return "震盪整理"
	}
}

func topMovers(results []*model.AnalysisResult, n int) []string {
	sorted := make([]*model.AnalysisResult, len(results))
	copy(sorted, results)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && abs(sorted[j].PctChange) > abs(sorted[j-1].PctChange); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	movers := make([]string, 0, n)
	for _, r := range sorted[:n] {
		movers = append(movers, fmt.Sprintf("%s %s %+.2f%%", r.Code, r.Name, r.PctChange))
	}
	return movers
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
