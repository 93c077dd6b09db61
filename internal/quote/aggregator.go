package quote

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stockbot/internal/logging"
	"stockbot/internal/models"
)

// MarketFetcher is the per-market retrieval the Aggregator fans out to.
// *Fetcher implements it.
type MarketFetcher interface {
	HK(ctx context.Context, symbol string) Result
	US(ctx context.Context, symbol string) Result
	Forex(ctx context.Context, symbols []string) []Result
}

// Aggregator fetches mixed-market symbol sets concurrently.
type Aggregator struct {
	fetcher        MarketFetcher
	maxConcurrency int
	logger         zerolog.Logger
}

// NewAggregator creates an Aggregator. maxConcurrency bounds the number of
// page loads in flight; zero means unbounded.
func NewAggregator(fetcher MarketFetcher, maxConcurrency int, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		fetcher:        fetcher,
		maxConcurrency: maxConcurrency,
		logger:         logging.WithComponent(logger, "aggregator"),
	}
}

// Quotes returns one Result per distinct symbol: hk symbols first, then us,
// then forex, each group in first-appearance order. A failed symbol carries
// NotAvailable and never affects the others.
func (a *Aggregator) Quotes(ctx context.Context, symbols []string) []Result {
	groups := groupByMarket(dedupe(symbols))
	hk, us, fx := groups[0], groups[1], groups[2]

	a.logger.Debug().
		Int("hk", len(hk)).
		Int("us", len(us)).
		Int("forex", len(fx)).
		Msg("Fetching quotes")

	hkRes := make([]Result, len(hk))
	usRes := make([]Result, len(us))
	var fxRes []Result

	// Fetch functions never fail, the group is used only for fan-out and join.
	var g errgroup.Group
	if a.maxConcurrency > 0 {
		g.SetLimit(a.maxConcurrency)
	}
	if len(fx) > 0 {
		g.Go(func() error {
			fxRes = a.fetcher.Forex(ctx, fx)
			return nil
		})
	}
	for i, s := range hk {
		i, s := i, s
		g.Go(func() error {
			hkRes[i] = withSymbol(s, a.fetcher.HK(ctx, s))
			return nil
		})
	}
	for i, s := range us {
		i, s := i, s
		g.Go(func() error {
			usRes[i] = withSymbol(s, a.fetcher.US(ctx, s))
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Result, 0, len(hk)+len(us)+len(fx))
	out = append(out, hkRes...)
	out = append(out, usRes...)
	out = append(out, normalizeForex(fx, fxRes)...)
	return out
}

// normalizeForex lines the batch reply up with the requested symbols so
// each gets exactly one entry.
func normalizeForex(symbols []string, got []Result) []Result {
	byKey := Snapshot(got)
	out := make([]Result, 0, len(symbols))
	for _, s := range symbols {
		q, ok := byKey[s]
		if !ok || q == "" {
			q = NotAvailable
		}
		out = append(out, Result{Symbol: s, Quote: q})
	}
	return out
}

func withSymbol(symbol string, r Result) Result {
	r.Symbol = symbol
	if r.Quote == "" {
		r.Quote = NotAvailable
	}
	return r
}

// groupByMarket splits symbols into hk, us and forex, keeping input order
// inside each group.
func groupByMarket(symbols []string) [3][]string {
	var groups [3][]string
	for _, s := range symbols {
		switch models.Classify(s) {
		case models.MarketHK:
			groups[0] = append(groups[0], s)
		case models.MarketForex:
			groups[2] = append(groups[2], s)
		default:
			groups[1] = append(groups[1], s)
		}
	}
	return groups
}
