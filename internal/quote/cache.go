package quote

import (
	"context"
	"sync"
	"time"

	"github.com/marstr/collection/v2"
)

type cachedQuote struct {
	quote     string
	refreshed time.Time
}

// Cached is a Source that serves recent quotes from an LRU cache. It is
// meant for interactive lookups; the alert loop always asks the live source.
type Cached struct {
	mu        sync.Mutex
	underlyer *collection.LRUCache[string, cachedQuote]
	next      Source
	ttl       time.Duration
	now       func() time.Time
}

// NewCached wraps next with a cache of the given capacity. A zero ttl
// defaults to 30 seconds.
func NewCached(next Source, capacity uint, ttl time.Duration) *Cached {
	if capacity == 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cached{
		underlyer: collection.NewLRUCache[string, cachedQuote](capacity),
		next:      next,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Quotes serves fresh cache hits and asks the wrapped source for the rest,
// keeping the wrapped source's ordering. NotAvailable is never cached.
func (c *Cached) Quotes(ctx context.Context, symbols []string) []Result {
	symbols = dedupe(symbols)
	staleAt := c.now().Add(-c.ttl)

	hits := make(map[string]string, len(symbols))
	var misses []string

	c.mu.Lock()
	for _, s := range symbols {
		if v, ok := c.underlyer.Get(s); ok && v.refreshed.After(staleAt) {
			hits[s] = v.quote
			continue
		}
		misses = append(misses, s)
	}
	c.mu.Unlock()

	if len(misses) == 0 {
		return orderLike(symbols, hits)
	}

	fetched := c.next.Quotes(ctx, misses)
	now := c.now()

	c.mu.Lock()
	for _, r := range fetched {
		hits[r.Symbol] = r.Quote
		if r.Available() {
			c.underlyer.Put(r.Symbol, cachedQuote{quote: r.Quote, refreshed: now})
		}
	}
	c.mu.Unlock()

	return orderLike(symbols, hits)
}

// orderLike returns results in the same market grouping the Aggregator
// uses, so cached and live replies look identical.
func orderLike(symbols []string, quotes map[string]string) []Result {
	out := make([]Result, 0, len(symbols))
	for _, group := range groupByMarket(symbols) {
		for _, s := range group {
			q, ok := quotes[s]
			if !ok || q == "" {
				q = NotAvailable
			}
			out = append(out, Result{Symbol: s, Quote: q})
		}
	}
	return out
}
