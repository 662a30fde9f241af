package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"StockScout/internal/model"
)

// Fetcher retrieves a bounded daily series for one stock code. One concrete
// strategy exists per market; the orchestrator stays market-agnostic.
type Fetcher interface {
	FetchDaily(ctx context.Context, code string, days int) (*model.DataSeries, error)
	Name() string
}

// Quoter is the optional intraday side of a fetcher: the latest regular-market
// price and percent change, without a full daily series.
type Quoter interface {
	Quote(symbol string) (price, changePct float64, err error)
}

// ErrEmptySeries is returned when the upstream source answers with zero rows.
var ErrEmptySeries = errors.New("upstream returned an empty series")

// FetchError wraps an upstream failure. Transient errors (network, timeout,
// rate limit) are retried internally; permanent ones (unknown ticker,
// delisted) surface immediately.
type FetchError struct {
	Source    string
	Code      string
	Transient bool
	Err       error
}

func (e *FetchError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("[%s] %s: %s fetch error: %v", e.Source, e.Code, kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable fetch failure.
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Transient
}

const (
	maxAttempts    = 3
	initialBackoff = time.Second
)

// fetchWithRetry runs fn with bounded exponential backoff. Only transient
// failures are retried; context cancellation aborts the wait.
func fetchWithRetry(ctx context.Context, source, code string, fn func() (*model.DataSeries, error)) (*model.DataSeries, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := initialBackoff << uint(attempt-1)
			log.Printf("[WARN] %s: %s fetch attempt %d/%d failed: %v, retrying in %v",
				source, code, attempt, maxAttempts, lastErr, backoff)
			select {
			case <-ctx.Done():
				return nil, &FetchError{Source: source, Code: code, Transient: true, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}
		series, err := fn()
		if err == nil {
			return series, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}
