package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"stockbot/internal/config"
	apperrors "stockbot/internal/errors"
	"stockbot/internal/notify"
	"stockbot/internal/quote"
	"stockbot/internal/store"
	"stockbot/pkg/utils"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
}

func (a *App) init(configDir string, debug bool) error {
	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	a.Config = cfg
	a.ConfigDir = configDir
	a.Logger = newLogger(cfg.Log, debug)
	a.Logger.Debug().Str("config_dir", configDir).Str("store", cfg.Store.Driver).Msg("Configuration loaded")
	return nil
}

func (a *App) openStore(ctx context.Context) (*store.SQLStore, error) {
	st, err := store.Open(ctx, a.Config.Store.Driver, a.Config.Store.DSN)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("driver", a.Config.Store.Driver).Msg("Store opened")
	return st, nil
}

// httpClient is shared by the fetcher and the Telegram client. Callers
// release it with CloseIdleConnections.
func (a *App) httpClient() *http.Client {
	return quote.NewHTTPClient(a.Config.Quotes.RequestTimeout)
}

func (a *App) aggregator(client *http.Client) *quote.Aggregator {
	fetcher := quote.NewFetcher(client, quote.FetcherConfigFrom(a.Config.Quotes), a.Logger)
	return quote.NewAggregator(fetcher, a.Config.Quotes.MaxConcurrency, a.Logger)
}

func (a *App) cachedQuotes(next quote.Source) *quote.Cached {
	size := a.Config.Quotes.CacheSize
	if size < 1 {
		size = 1
	}
	return quote.NewCached(next, uint(size), a.Config.Quotes.CacheTTL)
}

func (a *App) telegram(client *http.Client) (*notify.TelegramClient, error) {
	if a.Config.Telegram.Token == "" {
		return nil, fmt.Errorf("%w: telegram.token is empty (set TELEGRAM_TOKEN)", apperrors.ErrConfigInvalid)
	}
	tg := notify.NewTelegramClient(client, a.Config.Telegram.Token, a.Config.Telegram.BaseURL, a.Logger)
	return tg.WithRetry(utils.RetryConfig{
		MaxAttempts:   a.Config.Quotes.MaxAttempts,
		InitialDelay:  a.Config.Quotes.InitialBackoff,
		MaxDelay:      a.Config.Quotes.MaxBackoff,
		BackoffFactor: 2,
	}), nil
}
