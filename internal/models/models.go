// Package models provides domain models for the quote bot.
package models

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Market is the quote source class of a symbol.
type Market string

const (
	MarketHK    Market = "hk"
	MarketUS    Market = "us"
	MarketForex Market = "forex"
)

// Classify derives the market from the lexical shape of a symbol:
// all digits is hk, anything containing "/" is forex, everything else is us.
func Classify(symbol string) Market {
	if isDigits(symbol) {
		return MarketHK
	}
	if strings.Contains(symbol, "/") {
		return MarketForex
	}
	return MarketUS
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// User is a chat user, keyed by the Telegram user id.
type User struct {
	ID   int64
	Name string
}

// UserSettings holds per-user preferences.
type UserSettings struct {
	UserID              int64
	NotificationEnabled bool
}

// Stock maps a nickname onto a symbol for one user.
type Stock struct {
	UserID   int64
	Symbol   string
	Nickname string
	Market   Market
}

// Watchlist is the ordered set of symbols a user asks about by default.
type Watchlist struct {
	UserID  int64
	Symbols []string
}

// Position is a holding bought at UnitPrice.
type Position struct {
	ID        int64
	UserID    int64
	Symbol    string
	UnitPrice decimal.Decimal
	Quantity  int64
}

// Profit returns the absolute and percentage gain at the given price.
func (p Position) Profit(last decimal.Decimal) (abs decimal.Decimal, pct decimal.Decimal) {
	abs = last.Sub(p.UnitPrice).Mul(decimal.NewFromInt(p.Quantity))
	if p.UnitPrice.IsZero() {
		return abs, decimal.Zero
	}
	pct = last.Div(p.UnitPrice).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	return abs, pct
}
