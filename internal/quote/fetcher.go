package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"stockbot/internal/config"
	apperrors "stockbot/internal/errors"
	"stockbot/internal/logging"
	"stockbot/internal/models"
	"stockbot/internal/security"
	"stockbot/pkg/utils"
)

const (
	hkCheck = "table.quote_table"
	usCheck = "div#qwidget_lastsale"
)

// FetcherConfig holds the quote source endpoints and retry budget.
type FetcherConfig struct {
	HKURL       string
	USURLPrefix string
	USURLSuffix string
	ForexURL    string
	ForexAPIKey string

	Retry utils.RetryConfig
	// FetchTimeout bounds one symbol across all attempts. Zero disables it.
	FetchTimeout time.Duration
}

// FetcherConfigFrom maps the [quotes] config section.
func FetcherConfigFrom(cfg config.QuotesConfig) FetcherConfig {
	return FetcherConfig{
		HKURL:       cfg.HKURL,
		USURLPrefix: cfg.USURLPrefix,
		USURLSuffix: cfg.USURLSuffix,
		ForexURL:    cfg.ForexURL,
		ForexAPIKey: cfg.ForexAPIKey,
		Retry: utils.RetryConfig{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.InitialBackoff,
			MaxDelay:      cfg.MaxBackoff,
			BackoffFactor: 2.0,
		},
		FetchTimeout: cfg.FetchTimeout,
	}
}

// Fetcher loads quotes from the hk, us and forex sources.
type Fetcher struct {
	client *http.Client
	cfg    FetcherConfig
	redact *security.Redactor
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher on the shared HTTP client.
func NewFetcher(client *http.Client, cfg FetcherConfig, logger zerolog.Logger) *Fetcher {
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = utils.DefaultRetryConfig().MaxAttempts
	}
	return &Fetcher{
		client: client,
		cfg:    cfg,
		redact: security.NewRedactor(cfg.ForexAPIKey),
		logger: logging.WithComponent(logger, "fetcher"),
	}
}

// HK scrapes one Hong Kong symbol.
func (f *Fetcher) HK(ctx context.Context, symbol string) Result {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	logger := logging.WithSymbol(f.logger, symbol)
	doc, err := f.loadPage(ctx, models.MarketHK, symbol, f.cfg.HKURL+symbol, hkCheck)
	if err != nil {
		logger.Debug().Err(err).Msg("HK quote not available")
		return Result{Symbol: symbol, Quote: NotAvailable}
	}

	q, ok := parseHK(doc)
	if !ok {
		logger.Error().Msg("HK quote cell missing")
		return Result{Symbol: symbol, Quote: NotAvailable}
	}
	logger.Debug().Str("quote", q).Msg("Scraped quote")
	return Result{Symbol: symbol, Quote: q}
}

// US scrapes one US symbol.
func (f *Fetcher) US(ctx context.Context, symbol string) Result {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	logger := logging.WithSymbol(f.logger, symbol)
	u := f.cfg.USURLPrefix + strings.ToLower(symbol) + f.cfg.USURLSuffix
	doc, err := f.loadPage(ctx, models.MarketUS, symbol, u, usCheck)
	if err != nil {
		logger.Debug().Err(err).Msg("US quote not available")
		return Result{Symbol: symbol, Quote: NotAvailable}
	}

	q := parseUS(doc)
	logger.Debug().Str("quote", q).Msg("Scraped quote")
	return Result{Symbol: symbol, Quote: q}
}

type forexQuote struct {
	Symbol string  `json:"symbol"`
	Price  json.Number `json:"price"`
}

// Forex fetches every forex symbol with one API call. The result has one
// entry per distinct input symbol, in input order.
func (f *Fetcher) Forex(ctx context.Context, symbols []string) []Result {
	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		return nil
	}

	// API symbol -> caller symbols that normalize to it
	byPair := make(map[string][]string)
	var pairs []string
	for _, s := range symbols {
		p := forexPair(s)
		if _, ok := byPair[p]; !ok {
			pairs = append(pairs, p)
		}
		byPair[p] = append(byPair[p], s)
	}

	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	u := f.forexURL(pairs)
	quotes, err := utils.RetryWithResult(ctx, f.retryConfig(models.MarketForex), func(attempt int) ([]forexQuote, error) {
		var out []forexQuote
		err := f.getJSON(ctx, u, &out)
		if err != nil {
			return nil, apperrors.NewFetchError(string(models.MarketForex), "", f.cfg.ForexURL, attempt, err)
		}
		return out, nil
	})

	prices := make(map[string]string, len(symbols))
	if err != nil {
		f.logger.Debug().Err(err).Strs("pairs", pairs).Msg("Forex API not available")
	} else {
		for _, q := range quotes {
			for _, s := range byPair[strings.ToUpper(q.Symbol)] {
				prices[s] = q.Price.String()
			}
		}
		f.logger.Debug().Int("quotes", len(quotes)).Msg("Forex API loaded")
	}

	results := make([]Result, 0, len(symbols))
	for _, s := range symbols {
		q, ok := prices[s]
		if !ok {
			q = NotAvailable
		}
		results = append(results, Result{Symbol: s, Quote: q})
	}
	return results
}

func (f *Fetcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.cfg.FetchTimeout > 0 {
		return context.WithTimeout(ctx, f.cfg.FetchTimeout)
	}
	return context.WithCancel(ctx)
}

func (f *Fetcher) retryConfig(market models.Market) utils.RetryConfig {
	rc := f.cfg.Retry
	rc.OnRetry = func(attempt int, err error) {
		ev := f.logger.Error().Err(err).Str("market", string(market)).Int("attempt", attempt)
		var fe *apperrors.FetchError
		if apperrors.As(err, &fe) {
			ev = ev.Str("symbol", fe.Symbol).Str("url", fe.URL)
		}
		ev.Msg("Fetch attempt failed")
	}
	return rc
}

// loadPage GETs url and parses it, retrying until the document contains
// check or the attempt budget runs out.
func (f *Fetcher) loadPage(ctx context.Context, market models.Market, symbol, u, check string) (*goquery.Document, error) {
	f.logger.Debug().Str("symbol", symbol).Str("url", u).Msg("Start loading page")

	return utils.RetryWithResult(ctx, f.retryConfig(market), func(attempt int) (*goquery.Document, error) {
		start := time.Now()
		doc, err := f.getDocument(ctx, u, check)
		logging.LogAPICall(f.logger, http.MethodGet, u, time.Since(start), err)
		if err != nil {
			return nil, apperrors.NewFetchError(string(market), symbol, u, attempt, err)
		}
		return doc, nil
	})
}

func (f *Fetcher) getDocument(ctx context.Context, u, check string) (*goquery.Document, error) {
	resp, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	if doc.Find(check).Length() == 0 {
		return nil, fmt.Errorf("%w: no %s element", apperrors.ErrQuoteMalformed, check)
	}
	return doc, nil
}

func (f *Fetcher) getJSON(ctx context.Context, u string, v any) error {
	resp, err := f.get(ctx, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// get returns the response only for status 200; the caller closes the body.
func (f *Fetcher) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.redact.Error(err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp, nil
}

func (f *Fetcher) forexURL(pairs []string) string {
	q := url.Values{}
	q.Set("pairs", strings.Join(pairs, ","))
	q.Set("api_key", f.cfg.ForexAPIKey)
	sep := "?"
	if strings.Contains(f.cfg.ForexURL, "?") {
		sep = "&"
	}
	// keep the comma list readable, the API accepts it unescaped
	return f.cfg.ForexURL + sep + strings.ReplaceAll(q.Encode(), "%2C", ",")
}

// parseHK reads the second and third lines of the quote cell.
func parseHK(doc *goquery.Document) (string, bool) {
	cell := doc.Find(hkCheck).First().Find("td.two.bottom.right.cell_last").First()
	if cell.Length() == 0 {
		return "", false
	}

	clean := strings.NewReplacer("\r", "", "\n", "")
	var parts []string
	cell.Find("div").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(clean.Replace(s.Text())))
	})
	if len(parts) < 2 {
		return "", false
	}
	end := 3
	if len(parts) < end {
		end = len(parts)
	}
	return strings.Join(parts[1:end], ","), true
}

// parseUS builds "price,<sign>change(<sign>percent)" from the nasdaq widget.
func parseUS(doc *goquery.Document) string {
	price := strings.TrimSpace(strings.ReplaceAll(doc.Find(usCheck).First().Text(), "$", ""))

	change := doc.Find("div#qwidget_netchange").First()
	sign := ""
	if classes := strings.Fields(change.AttrOr("class", "")); len(classes) > 0 {
		last := classes[len(classes)-1]
		switch {
		case strings.HasSuffix(last, "-Red"):
			sign = "-"
		case strings.HasSuffix(last, "-Green"):
			sign = "+"
		}
	}
	percent := strings.TrimSpace(doc.Find("div#qwidget_percent").First().Text())

	return price + "," + sign + strings.TrimSpace(change.Text()) + "(" + sign + percent + ")"
}

// forexPair normalizes "eur/usd" to the API form "EURUSD".
func forexPair(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
