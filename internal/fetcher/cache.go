package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockScout/internal/model"
)

// CachedFetcher is a read-through wrapper. Entries are keyed by
// (code, market, windowDays, tradingDate) so repeated runs within a trading
// day reuse the same series, and concurrent requests for the same key collapse
// to a single upstream call.
type CachedFetcher struct {
	inner Fetcher
	ttl   time.Duration

	mu       sync.Mutex
	entries  map[string]cacheEntry
	inflight map[string]*inflightCall
}

type cacheEntry struct {
	series  *model.DataSeries
	expires time.Time
}

type inflightCall struct {
	done   chan struct{}
	series *model.DataSeries
	err    error
}

// NewCachedFetcher wraps inner with a TTL cache.
func NewCachedFetcher(inner Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		inner:    inner,
		ttl:      ttl,
		entries:  make(map[string]cacheEntry),
		inflight: make(map[string]*inflightCall),
	}
}

func (c *CachedFetcher) Name() string { return c.inner.Name() }

func (c *CachedFetcher) key(code string, days int) string {
	return fmt.Sprintf("%s|%s|%d|%s", c.inner.Name(), code, days, time.Now().Format("2006-01-02"))
}

// FetchDaily returns the cached series when fresh, otherwise performs one
// upstream call shared by all concurrent requesters of the same key. Failed
// calls are not cached.
func (c *CachedFetcher) FetchDaily(ctx context.Context, code string, days int) (*model.DataSeries, error) {
	key := c.key(code, days)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.series, nil
	}
	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.series, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	call.series, call.err = c.inner.FetchDaily(ctx, code, days)
	close(call.done)

	c.mu.Lock()
	delete(c.inflight, key)
	if call.err == nil {
		c.entries[key] = cacheEntry{series: call.series, expires: time.Now().Add(c.ttl)}
	}
	c.mu.Unlock()

	return call.series, call.err
}

// Quote passes through to the wrapped fetcher's intraday quote when it has
// one. Intraday prices are deliberately not cached.
func (c *CachedFetcher) Quote(symbol string) (price, changePct float64, err error) {
	q, ok := c.inner.(Quoter)
	if !ok {
		return 0, 0, fmt.Errorf("%s: no intraday quote support", c.inner.Name())
	}
	return q.Quote(symbol)
}

// Cleanup drops expired entries. Called periodically by the scheduler.
func (c *CachedFetcher) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, v := range c.entries {
		if now.After(v.expires) {
			delete(c.entries, k)
		}
	}
}
