// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"stockbot/internal/models"
)

// Store defines the interface for data persistence.
type Store interface {
	// Users
	EnsureUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetNotificationEnabled(ctx context.Context, userID int64) (bool, error)
	SetNotificationEnabled(ctx context.Context, userID int64, enabled bool) error

	// Nicknames
	UpsertStock(ctx context.Context, stock models.Stock) error
	DeleteStock(ctx context.Context, userID int64, query string) (int64, error)
	FindStock(ctx context.Context, userID int64, query string) (*models.Stock, error)
	ListStocks(ctx context.Context, userID int64) ([]models.Stock, error)
	ResolveSymbol(ctx context.Context, userID int64, query string) (string, error)

	// Watchlist
	GetWatchlist(ctx context.Context, userID int64) ([]string, error)
	AddToWatchlist(ctx context.Context, userID int64, symbols []string) error
	RemoveFromWatchlist(ctx context.Context, userID int64, symbols []string) error

	// Positions
	AddPosition(ctx context.Context, position *models.Position) error
	ListPositions(ctx context.Context, userID int64) ([]models.Position, error)
	FindPositions(ctx context.Context, userID int64, symbol string) ([]models.Position, error)
	RemovePositions(ctx context.Context, userID int64, symbol string) (int64, error)

	// Notification rules
	UpsertRule(ctx context.Context, rule *models.NotificationSetting) error
	ListRules(ctx context.Context, userID int64) ([]models.NotificationSetting, error)
	ListActiveRules(ctx context.Context) ([]models.NotificationSetting, error)
	DisableRule(ctx context.Context, userID int64, symbol string, ruleType models.RuleType) (bool, error)

	Close() error
}
