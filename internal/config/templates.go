package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Stock quote bot configuration

[telegram]
# Bot token; TELEGRAM_TOKEN overrides this value
# token = ""
# Long poll timeout for getUpdates
poll_timeout = "300s"

[quotes]
hk_url = "http://www.aastocks.com/tc/mobile/Quote.aspx?symbol="
us_url_prefix = "https://www.nasdaq.com/en/symbol/"
us_url_suffix = "/real-time"
forex_url = "http://forex.1forge.com/1.0.3/quotes"
# 1Forge key; ONEFORGE_API overrides this value
# forex_api_key = ""
# Attempts per page before reporting "Not available"
max_attempts = 10
initial_backoff = "250ms"
max_backoff = "2s"
# Overall budget for one symbol, all attempts included
fetch_timeout = "45s"
request_timeout = "10s"
# Concurrent page loads per cycle (0 = unbounded)
max_concurrency = 8
# Interactive /ask/price cache
cache_ttl = "30s"
cache_size = 256

[notifications]
enabled = true
# Delay between the end of one evaluation cycle and the start of the next
interval = "60s"

[store]
# sqlite3 or pgx; DB_DRIVER / DB_CONN override
driver = "sqlite3"
# dsn = "/var/lib/stockbot/stockbot.db"

[log]
level = "info"
file = true
# path = "/var/log/stockbot/stock_quote_bot.log"
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
