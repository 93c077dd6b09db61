package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	apperrors "stockbot/internal/errors"
	"stockbot/internal/models"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// SQLStore implements Store on SQLite or PostgreSQL.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

var _ Store = (*SQLStore)(nil)

// Open connects to the database, checks the connection and creates the
// schema when missing.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite:
		if !strings.Contains(dsn, "?") {
			dsn += "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", apperrors.ErrConfigInvalid, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := NewSQLStore(db, driver)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// NewSQLStore wraps an open handle. It does not touch the schema.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, postgres: driver == DriverPostgres}
}

// Migrate creates all required tables and indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.postgres {
		schema = postgresSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks that the database answers.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// ============================================================================
// User Methods
// ============================================================================

// EnsureUser creates the user or refreshes its name.
func (s *SQLStore) EnsureUser(ctx context.Context, user models.User) error {
	_, err := s.exec(ctx, `
		INSERT INTO users (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name
	`, user.ID, user.Name)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by chat id.
func (s *SQLStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.queryRow(ctx, `SELECT id, name FROM users WHERE id = ?`, id).Scan(&u.ID, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetNotificationEnabled returns the user's master switch. A user without
// settings has notifications off.
func (s *SQLStore) GetNotificationEnabled(ctx context.Context, userID int64) (bool, error) {
	var enabled bool
	err := s.queryRow(ctx, `
		SELECT notification_enabled FROM user_settings WHERE user_id = ?
	`, userID).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get user settings: %w", err)
	}
	return enabled, nil
}

// SetNotificationEnabled flips the user's master switch.
func (s *SQLStore) SetNotificationEnabled(ctx context.Context, userID int64, enabled bool) error {
	_, err := s.exec(ctx, `
		INSERT INTO user_settings (user_id, notification_enabled) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET notification_enabled = excluded.notification_enabled
	`, userID, enabled)
	if err != nil {
		return fmt.Errorf("failed to save user settings: %w", err)
	}
	return nil
}

// ============================================================================
// Nickname Methods
// ============================================================================

// UpsertStock registers a nickname for a symbol. The market is derived from
// the symbol.
func (s *SQLStore) UpsertStock(ctx context.Context, stock models.Stock) error {
	_, err := s.exec(ctx, `
		INSERT INTO stocks (user_id, symbol, nickname, market) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, symbol) DO UPDATE SET nickname = excluded.nickname, market = excluded.market
	`, stock.UserID, stock.Symbol, stock.Nickname, string(models.Classify(stock.Symbol)))
	if err != nil {
		return fmt.Errorf("failed to save stock: %w", err)
	}
	return nil
}

// DeleteStock removes entries whose symbol or nickname equals query.
func (s *SQLStore) DeleteStock(ctx context.Context, userID int64, query string) (int64, error) {
	result, err := s.exec(ctx, `
		DELETE FROM stocks WHERE user_id = ? AND (symbol = ? OR nickname = ?)
	`, userID, query, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stock: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// FindStock looks query up as a nickname first, then as a symbol.
func (s *SQLStore) FindStock(ctx context.Context, userID int64, query string) (*models.Stock, error) {
	rows, err := s.query(ctx, `
		SELECT user_id, symbol, nickname, market FROM stocks
		WHERE user_id = ? AND (nickname = ? OR symbol = ?)
	`, userID, query, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var bySymbol *models.Stock
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		if st.Nickname == query {
			return st, nil
		}
		bySymbol = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	if bySymbol == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrStockNotFound, query)
	}
	return bySymbol, nil
}

// ListStocks returns the user's nickname registry ordered by symbol.
func (s *SQLStore) ListStocks(ctx context.Context, userID int64) ([]models.Stock, error) {
	rows, err := s.query(ctx, `
		SELECT user_id, symbol, nickname, market FROM stocks WHERE user_id = ? ORDER BY symbol
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []models.Stock
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, *st)
	}
	return stocks, rows.Err()
}

// ResolveSymbol maps a nickname onto its symbol. Anything that is not a
// known nickname is returned unchanged.
func (s *SQLStore) ResolveSymbol(ctx context.Context, userID int64, query string) (string, error) {
	var symbol string
	err := s.queryRow(ctx, `
		SELECT symbol FROM stocks WHERE user_id = ? AND nickname = ? ORDER BY symbol LIMIT 1
	`, userID, query).Scan(&symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return query, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve symbol: %w", err)
	}
	return symbol, nil
}

func scanStock(rows *sql.Rows) (*models.Stock, error) {
	var st models.Stock
	var market string
	if err := rows.Scan(&st.UserID, &st.Symbol, &st.Nickname, &market); err != nil {
		return nil, fmt.Errorf("failed to scan stock: %w", err)
	}
	st.Market = models.Market(market)
	return &st, nil
}

// ============================================================================
// Watchlist Methods
// ============================================================================

// GetWatchlist returns the user's symbols in insertion order.
func (s *SQLStore) GetWatchlist(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.query(ctx, `
		SELECT symbol FROM watchlist WHERE user_id = ? ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// AddToWatchlist appends symbols that are not already present.
func (s *SQLStore) AddToWatchlist(ctx context.Context, userID int64, symbols []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt := s.rebind(`
			INSERT INTO watchlist (user_id, symbol) VALUES (?, ?)
			ON CONFLICT (user_id, symbol) DO NOTHING
		`)
		for _, sym := range symbols {
			if _, err := tx.ExecContext(ctx, stmt, userID, sym); err != nil {
				return fmt.Errorf("failed to add to watchlist: %w", err)
			}
		}
		return nil
	})
}

// RemoveFromWatchlist removes the given symbols.
func (s *SQLStore) RemoveFromWatchlist(ctx context.Context, userID int64, symbols []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt := s.rebind(`DELETE FROM watchlist WHERE user_id = ? AND symbol = ?`)
		for _, sym := range symbols {
			if _, err := tx.ExecContext(ctx, stmt, userID, sym); err != nil {
				return fmt.Errorf("failed to remove from watchlist: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ============================================================================
// Position Methods
// ============================================================================

// AddPosition stores a position and sets its ID.
func (s *SQLStore) AddPosition(ctx context.Context, p *models.Position) error {
	err := s.queryRow(ctx, `
		INSERT INTO positions (user_id, symbol, unit_price, quantity) VALUES (?, ?, ?, ?)
		RETURNING id
	`, p.UserID, p.Symbol, p.UnitPrice, p.Quantity).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// ListPositions returns every position of the user, oldest first.
func (s *SQLStore) ListPositions(ctx context.Context, userID int64) ([]models.Position, error) {
	return s.positions(ctx, `
		SELECT id, user_id, symbol, unit_price, quantity FROM positions
		WHERE user_id = ? ORDER BY id ASC
	`, userID)
}

// FindPositions returns the user's positions in one symbol.
func (s *SQLStore) FindPositions(ctx context.Context, userID int64, symbol string) ([]models.Position, error) {
	positions, err := s.positions(ctx, `
		SELECT id, user_id, symbol, unit_price, quantity FROM positions
		WHERE user_id = ? AND symbol = ? ORDER BY id ASC
	`, userID, symbol)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPositionNotFound, symbol)
	}
	return positions, nil
}

// RemovePositions deletes the user's positions in one symbol.
func (s *SQLStore) RemovePositions(ctx context.Context, userID int64, symbol string) (int64, error) {
	result, err := s.exec(ctx, `DELETE FROM positions WHERE user_id = ? AND symbol = ?`, userID, symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to delete positions: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", apperrors.ErrPositionNotFound, symbol)
	}
	return n, nil
}

func (s *SQLStore) positions(ctx context.Context, query string, args ...any) ([]models.Position, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.UserID, &p.Symbol, &p.UnitPrice, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// ============================================================================
// Notification Rule Methods
// ============================================================================

// UpsertRule saves a rule, replacing the threshold and enabled flag of an
// existing rule with the same user, symbol and type.
func (s *SQLStore) UpsertRule(ctx context.Context, rule *models.NotificationSetting) error {
	err := s.queryRow(ctx, `
		INSERT INTO notification_settings (user_id, symbol, type, threshold, enabled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, symbol, type)
		DO UPDATE SET threshold = excluded.threshold, enabled = excluded.enabled
		RETURNING id
	`, rule.UserID, rule.Symbol, string(rule.Type), rule.Threshold, rule.Enabled).Scan(&rule.ID)
	if err != nil {
		return fmt.Errorf("failed to save notification rule: %w", err)
	}
	return nil
}

// ListRules returns all rules of one user, enabled or not.
func (s *SQLStore) ListRules(ctx context.Context, userID int64) ([]models.NotificationSetting, error) {
	return s.rules(ctx, `
		SELECT id, user_id, symbol, type, threshold, enabled FROM notification_settings
		WHERE user_id = ? ORDER BY symbol, type
	`, userID)
}

// ListActiveRules returns the rules that are enabled and whose owner has
// the master switch on.
func (s *SQLStore) ListActiveRules(ctx context.Context) ([]models.NotificationSetting, error) {
	return s.rules(ctx, `
		SELECT r.id, r.user_id, r.symbol, r.type, r.threshold, r.enabled
		FROM notification_settings r
		JOIN user_settings u ON u.user_id = r.user_id
		WHERE r.enabled = ? AND u.notification_enabled = ?
		ORDER BY r.id ASC
	`, true, true)
}

// DisableRule turns an enabled rule off in a single conditional update.
// It reports true only for the caller whose update flipped the flag.
func (s *SQLStore) DisableRule(ctx context.Context, userID int64, symbol string, ruleType models.RuleType) (bool, error) {
	result, err := s.exec(ctx, `
		UPDATE notification_settings SET enabled = ?
		WHERE user_id = ? AND symbol = ? AND type = ? AND enabled = ?
	`, false, userID, symbol, string(ruleType), true)
	if err != nil {
		return false, fmt.Errorf("failed to disable notification rule: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to disable notification rule: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) rules(ctx context.Context, query string, args ...any) ([]models.NotificationSetting, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification rules: %w", err)
	}
	defer rows.Close()

	var rules []models.NotificationSetting
	for rows.Next() {
		var r models.NotificationSetting
		var ruleType string
		var threshold decimal.Decimal
		if err := rows.Scan(&r.ID, &r.UserID, &r.Symbol, &ruleType, &threshold, &r.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan notification rule: %w", err)
		}
		r.Type = models.RuleType(ruleType)
		r.Threshold = threshold
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
