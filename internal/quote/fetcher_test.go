package quote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbot/pkg/utils"
)

const hkPage = `<html><body>
<table class="quote_table"><tr>
<td class="two bottom right cell_last">
<div>Last</div>
<div>
  350.20
</div>
<div>+2.40(+0.69%)</div>
<div>ignored</div>
</td></tr></table>
</body></html>`

func usPage(colour string) string {
	return fmt.Sprintf(`<html><body>
<div id="qwidget_lastsale" class="qwidget-dollar">$95.00</div>
<div id="qwidget_netchange" class="qwidget-cents qwidget-%s">5.00</div>
<div id="qwidget_percent" class="qwidget-percent">5.00%%</div>
</body></html>`, colour)
}

func newTestFetcher(srv *httptest.Server) *Fetcher {
	return NewFetcher(srv.Client(), FetcherConfig{
		HKURL:        srv.URL + "/hk?symbol=",
		USURLPrefix:  srv.URL + "/us/",
		USURLSuffix:  "/real-time",
		ForexURL:     srv.URL + "/forex",
		ForexAPIKey:  "secret",
		Retry:        utils.RetryConfig{MaxAttempts: 10},
		FetchTimeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestFetcher_HK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "700", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, hkPage)
	}))
	defer srv.Close()

	got := newTestFetcher(srv).HK(context.Background(), "700")
	assert.Equal(t, Result{Symbol: "700", Quote: "350.20,+2.40(+0.69%)"}, got)
}

func TestFetcher_HKMissingCell(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<table class="quote_table"><tr><td>nothing</td></tr></table>`)
	}))
	defer srv.Close()

	got := newTestFetcher(srv).HK(context.Background(), "5")
	assert.Equal(t, NotAvailable, got.Quote)
}

func TestFetcher_US(t *testing.T) {
	tests := []struct {
		colour string
		want   string
	}{
		{"Red", "95.00,-5.00(-5.00%)"},
		{"Green", "95.00,+5.00(+5.00%)"},
		{"Grey", "95.00,5.00(5.00%)"},
	}

	for _, tt := range tests {
		t.Run(tt.colour, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/us/goog/real-time", r.URL.Path)
				fmt.Fprint(w, usPage(tt.colour))
			}))
			defer srv.Close()

			got := newTestFetcher(srv).US(context.Background(), "GOOG")
			assert.Equal(t, "GOOG", got.Symbol)
			assert.Equal(t, tt.want, got.Quote)
		})
	}
}

func TestFetcher_RetriesUntilSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		switch {
		case n <= 3:
			w.WriteHeader(http.StatusServiceUnavailable)
		case n <= 6:
			fmt.Fprint(w, `<html><body>maintenance</body></html>`)
		default:
			fmt.Fprint(w, hkPage)
		}
	}))
	defer srv.Close()

	got := newTestFetcher(srv).HK(context.Background(), "700")
	assert.Equal(t, "350.20,+2.40(+0.69%)", got.Quote)
	assert.EqualValues(t, 7, hits.Load())
}

func TestFetcher_GivesUpAfterTenAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	got := newTestFetcher(srv).US(context.Background(), "AAPL")
	assert.Equal(t, Result{Symbol: "AAPL", Quote: NotAvailable}, got)
	assert.EqualValues(t, 10, hits.Load())
}

func TestFetcher_Forex(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/forex", r.URL.Path)
		assert.Equal(t, "EURUSD,USDJPY", r.URL.Query().Get("pairs"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"symbol":"EURUSD","price":1.0873,"timestamp":1}]`)
	}))
	defer srv.Close()

	got := newTestFetcher(srv).Forex(context.Background(), []string{"EUR/USD", "USD/JPY", "eur/usd", "EUR/USD"})
	assert.Equal(t, []Result{
		{Symbol: "EUR/USD", Quote: "1.0873"},
		{Symbol: "USD/JPY", Quote: NotAvailable},
		{Symbol: "eur/usd", Quote: "1.0873"},
	}, got)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetcher_ForexKeepsPriceText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"symbol":"USDJPY","price":110.0},{"symbol":"EURUSD","price":1.10}]`)
	}))
	defer srv.Close()

	got := newTestFetcher(srv).Forex(context.Background(), []string{"USD/JPY", "EUR/USD"})
	assert.Equal(t, []Result{
		{Symbol: "USD/JPY", Quote: "110.0"},
		{Symbol: "EUR/USD", Quote: "1.10"},
	}, got)
}

func TestFetcher_ForexFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	got := newTestFetcher(srv).Forex(context.Background(), []string{"EUR/USD", "GBP/USD"})
	assert.Equal(t, []Result{
		{Symbol: "EUR/USD", Quote: NotAvailable},
		{Symbol: "GBP/USD", Quote: NotAvailable},
	}, got)
	assert.EqualValues(t, 10, hits.Load())
}

func TestFetcher_CancelledContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := newTestFetcher(srv).HK(ctx, "700")
	assert.Equal(t, NotAvailable, got.Quote)
	assert.EqualValues(t, 0, hits.Load())
}

func TestNewHTTPClient_SetsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	client := NewHTTPClient(time.Second)
	defer client.CloseIdleConnections()

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "stockbot")
}
