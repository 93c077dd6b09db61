package quote

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher answers every hk/us symbol, drops forex pairs that contain
// "XXX", and reports "DOWN" as unavailable.
type stubFetcher struct {
	mu         sync.Mutex
	hk, us     []string
	forexCalls int
	inFlight   atomic.Int32
	maxSeen    atomic.Int32
	delay      time.Duration
}

func (s *stubFetcher) track() func() {
	n := s.inFlight.Add(1)
	for {
		cur := s.maxSeen.Load()
		if n <= cur || s.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return func() { s.inFlight.Add(-1) }
}

func (s *stubFetcher) HK(_ context.Context, symbol string) Result {
	defer s.track()()
	s.mu.Lock()
	s.hk = append(s.hk, symbol)
	s.mu.Unlock()
	return Result{Symbol: symbol, Quote: "10.00," + symbol + "(+1%)"}
}

func (s *stubFetcher) US(_ context.Context, symbol string) Result {
	defer s.track()()
	s.mu.Lock()
	s.us = append(s.us, symbol)
	s.mu.Unlock()
	if symbol == "DOWN" {
		return Result{Symbol: symbol, Quote: NotAvailable}
	}
	return Result{Symbol: symbol, Quote: "20.00," + symbol + "(-2%)"}
}

func (s *stubFetcher) Forex(_ context.Context, symbols []string) []Result {
	defer s.track()()
	s.mu.Lock()
	s.forexCalls++
	s.mu.Unlock()
	var out []Result
	for _, sym := range symbols {
		if strings.Contains(sym, "XXX") {
			continue
		}
		out = append(out, Result{Symbol: sym, Quote: "1.5"})
	}
	return out
}

func TestAggregator_OrderAndDedup(t *testing.T) {
	f := &stubFetcher{}
	agg := NewAggregator(f, 0, zerolog.Nop())

	got := agg.Quotes(context.Background(), []string{
		"GOOG", "EUR/USD", "700", "GOOG", "5", "XXX/USD", "DOWN", "700",
	})

	assert.Equal(t, []Result{
		{Symbol: "700", Quote: "10.00,700(+1%)"},
		{Symbol: "5", Quote: "10.00,5(+1%)"},
		{Symbol: "GOOG", Quote: "20.00,GOOG(-2%)"},
		{Symbol: "DOWN", Quote: NotAvailable},
		{Symbol: "EUR/USD", Quote: "1.5"},
		{Symbol: "XXX/USD", Quote: NotAvailable},
	}, got)
	assert.Equal(t, 1, f.forexCalls)
	assert.ElementsMatch(t, []string{"700", "5"}, f.hk)
	assert.ElementsMatch(t, []string{"GOOG", "DOWN"}, f.us)
}

func TestAggregator_NoForexCallWithoutForexSymbols(t *testing.T) {
	f := &stubFetcher{}
	got := NewAggregator(f, 0, zerolog.Nop()).Quotes(context.Background(), []string{"AAPL"})

	require.Len(t, got, 1)
	assert.Equal(t, 0, f.forexCalls)
}

func TestAggregator_Empty(t *testing.T) {
	got := NewAggregator(&stubFetcher{}, 0, zerolog.Nop()).Quotes(context.Background(), nil)
	assert.Empty(t, got)
}

func TestAggregator_ConcurrencyLimit(t *testing.T) {
	f := &stubFetcher{delay: 20 * time.Millisecond}
	agg := NewAggregator(f, 2, zerolog.Nop())

	got := agg.Quotes(context.Background(), []string{"1", "2", "3", "4", "A", "B", "C"})
	assert.Len(t, got, 7)
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(2))
}

func TestAggregator_RunsConcurrently(t *testing.T) {
	f := &stubFetcher{delay: 50 * time.Millisecond}
	agg := NewAggregator(f, 0, zerolog.Nop())

	agg.Quotes(context.Background(), []string{"1", "2", "A", "B", "EUR/USD"})
	assert.Greater(t, f.maxSeen.Load(), int32(1))
}

func TestSnapshot(t *testing.T) {
	m := Snapshot([]Result{{Symbol: "A", Quote: "1,2(3%)"}, {Symbol: "B", Quote: NotAvailable}})
	assert.Equal(t, map[string]string{"A": "1,2(3%)", "B": NotAvailable}, m)
}

func TestResult_Available(t *testing.T) {
	assert.True(t, Result{Quote: "1.2"}.Available())
	assert.False(t, Result{Quote: NotAvailable}.Available())
	assert.False(t, Result{}.Available())
}
