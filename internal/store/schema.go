package store

// SQLite keeps decimals as TEXT so no precision is lost to REAL affinity.
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS user_settings (
		user_id INTEGER PRIMARY KEY REFERENCES users(id),
		notification_enabled INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS stocks (
		user_id INTEGER NOT NULL REFERENCES users(id),
		symbol TEXT NOT NULL,
		nickname TEXT NOT NULL,
		market TEXT NOT NULL,
		PRIMARY KEY (user_id, symbol)
	);
	CREATE INDEX IF NOT EXISTS idx_stocks_nickname ON stocks(user_id, nickname);

	CREATE TABLE IF NOT EXISTS watchlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		symbol TEXT NOT NULL,
		UNIQUE(user_id, symbol)
	);

	CREATE TABLE IF NOT EXISTS positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		symbol TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_positions_user ON positions(user_id, symbol);

	CREATE TABLE IF NOT EXISTS notification_settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		symbol TEXT NOT NULL,
		type TEXT NOT NULL,
		threshold TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		UNIQUE(user_id, symbol, type)
	);
	CREATE INDEX IF NOT EXISTS idx_rules_enabled ON notification_settings(enabled);
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS user_settings (
		user_id BIGINT PRIMARY KEY REFERENCES users(id),
		notification_enabled BOOLEAN NOT NULL DEFAULT false
	);

	CREATE TABLE IF NOT EXISTS stocks (
		user_id BIGINT NOT NULL REFERENCES users(id),
		symbol TEXT NOT NULL,
		nickname TEXT NOT NULL,
		market TEXT NOT NULL,
		PRIMARY KEY (user_id, symbol)
	);
	CREATE INDEX IF NOT EXISTS idx_stocks_nickname ON stocks(user_id, nickname);

	CREATE TABLE IF NOT EXISTS watchlist (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		symbol TEXT NOT NULL,
		UNIQUE(user_id, symbol)
	);

	CREATE TABLE IF NOT EXISTS positions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		symbol TEXT NOT NULL,
		unit_price NUMERIC NOT NULL,
		quantity BIGINT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_positions_user ON positions(user_id, symbol);

	CREATE TABLE IF NOT EXISTS notification_settings (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		symbol TEXT NOT NULL,
		type TEXT NOT NULL,
		threshold NUMERIC NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT true,
		UNIQUE(user_id, symbol, type)
	);
	CREATE INDEX IF NOT EXISTS idx_rules_enabled ON notification_settings(enabled);
`
