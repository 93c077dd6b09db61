package bot

import (
	"context"
	"fmt"
	"strings"

	apperrors "stockbot/internal/errors"
	"stockbot/internal/models"
	"stockbot/internal/quote"
)

func (h *Handler) start(ctx context.Context, userID int64) (string, error) {
	if err := h.store.SetNotificationEnabled(ctx, userID, true); err != nil {
		return "", err
	}
	return "Welcome! Notifications are enabled.\n\n" + usage, nil
}

func (h *Handler) askPrice(ctx context.Context, userID int64, queries []string) (string, error) {
	if len(queries) == 0 {
		wl, err := h.store.GetWatchlist(ctx, userID)
		if err != nil {
			return "", err
		}
		if len(wl) == 0 {
			return "Your watchlist is empty. Add symbols with /watchlist/add", nil
		}
		queries = wl
	}

	// symbol -> what the user typed, first query wins
	labels := make(map[string]string, len(queries))
	symbols := make([]string, 0, len(queries))
	for _, q := range queries {
		sym, err := h.store.ResolveSymbol(ctx, userID, q)
		if err != nil {
			return "", err
		}
		if _, ok := labels[sym]; !ok {
			labels[sym] = q
			symbols = append(symbols, sym)
		}
	}

	var lines []string
	for _, r := range h.quotes.Quotes(ctx, symbols) {
		lines = append(lines, fmt.Sprintf("%s: %s", labels[r.Symbol], r.Quote))
	}
	return strings.Join(lines, "\n"), nil
}

func (h *Handler) nicknameAdd(ctx context.Context, userID int64, cmd Command) (string, error) {
	stock := models.Stock{
		UserID:   userID,
		Symbol:   cmd.Query,
		Nickname: cmd.Nickname,
		Market:   models.Classify(cmd.Query),
	}
	if err := h.store.UpsertStock(ctx, stock); err != nil {
		return "", err
	}
	return fmt.Sprintf("New entry added:\nSymbol: %s, NickName: %s, Market: %s", stock.Symbol, stock.Nickname, stock.Market), nil
}

func (h *Handler) nicknameRemove(ctx context.Context, userID int64, query string) (string, error) {
	n, err := h.store.DeleteStock(ctx, userID, query)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return fmt.Sprintf("No entry found for %s", query), nil
	}
	return fmt.Sprintf("Entry removed: %s", query), nil
}

func (h *Handler) watchlistAdd(ctx context.Context, userID int64, symbols []string) (string, error) {
	if err := h.store.AddToWatchlist(ctx, userID, symbols); err != nil {
		return "", err
	}
	return "Watchlist added with symbols:\n" + strings.Join(symbols, ", "), nil
}

func (h *Handler) watchlistRemove(ctx context.Context, userID int64, symbols []string) (string, error) {
	if err := h.store.RemoveFromWatchlist(ctx, userID, symbols); err != nil {
		return "", err
	}
	return "Watchlist removed the symbols:\n" + strings.Join(symbols, ", "), nil
}

func (h *Handler) watchlistList(ctx context.Context, userID int64) (string, error) {
	wl, err := h.store.GetWatchlist(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(wl) == 0 {
		return "Your watchlist is empty.", nil
	}
	return "Watchlist:\n" + strings.Join(wl, ", "), nil
}

// resolve maps a nickname or symbol onto the stored symbol. Unknown input
// is taken as a symbol.
func (h *Handler) resolve(ctx context.Context, userID int64, query string) (string, error) {
	return h.store.ResolveSymbol(ctx, userID, query)
}

func (h *Handler) positionAdd(ctx context.Context, userID int64, cmd Command) (string, error) {
	symbol, err := h.resolve(ctx, userID, cmd.Query)
	if err != nil {
		return "", err
	}
	p := &models.Position{UserID: userID, Symbol: symbol, UnitPrice: cmd.UnitPrice, Quantity: cmd.Quantity}
	if err := h.store.AddPosition(ctx, p); err != nil {
		return "", err
	}
	return fmt.Sprintf("Position added for %s, unit price = %s, quantity = %d", symbol, p.UnitPrice, p.Quantity), nil
}

func (h *Handler) positionList(ctx context.Context, userID int64) (string, error) {
	positions, err := h.store.ListPositions(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(positions) == 0 {
		return "No positions.", nil
	}

	stocks, err := h.store.ListStocks(ctx, userID)
	if err != nil {
		return "", err
	}
	nicknames := make(map[string]string, len(stocks))
	for _, s := range stocks {
		nicknames[s.Symbol] = s.Nickname
	}

	lines := make([]string, 0, len(positions))
	for _, p := range positions {
		lines = append(lines, fmt.Sprintf("Symbol: %s, Nickname: %s, unit price: %s, quantity: %d",
			p.Symbol, nicknames[p.Symbol], p.UnitPrice, p.Quantity))
	}
	return strings.Join(lines, "\n"), nil
}

func (h *Handler) positionView(ctx context.Context, userID int64, query string) (string, error) {
	symbol, err := h.resolve(ctx, userID, query)
	if err != nil {
		return "", err
	}
	positions, err := h.store.FindPositions(ctx, userID, symbol)
	if err != nil {
		return "", err
	}

	results := h.quotes.Quotes(ctx, []string{symbol})
	q := quote.NotAvailable
	if len(results) > 0 {
		q = results[0].Quote
	}
	last, err := quote.LastPrice(q)
	if err != nil {
		return "", fmt.Errorf("price for %s: %w", symbol, err)
	}

	lines := make([]string, 0, len(positions))
	for _, p := range positions {
		abs, pct := p.Profit(last)
		lines = append(lines, fmt.Sprintf("%s x%d @ %s: Profit = %s, Percent profit = %s%%",
			symbol, p.Quantity, p.UnitPrice, abs.StringFixed(2), pct.StringFixed(2)))
	}
	return strings.Join(lines, "\n"), nil
}

func (h *Handler) positionRemove(ctx context.Context, userID int64, query string) (string, error) {
	symbol, err := h.resolve(ctx, userID, query)
	if err != nil {
		return "", err
	}
	n, err := h.store.RemovePositions(ctx, userID, symbol)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed %d position(s) for %s", n, symbol), nil
}

func (h *Handler) notificationAdd(ctx context.Context, userID int64, cmd Command) (string, error) {
	symbol, err := h.resolve(ctx, userID, cmd.Query)
	if err != nil {
		return "", err
	}
	rule := &models.NotificationSetting{
		UserID:    userID,
		Symbol:    symbol,
		Type:      cmd.RuleType,
		Threshold: cmd.Threshold,
		Enabled:   true,
	}
	if err := h.store.UpsertRule(ctx, rule); err != nil {
		return "", err
	}

	reply := fmt.Sprintf("Notification added: %s %s %s", symbol, rule.Type.Label(), rule.Threshold)
	if on, err := h.store.GetNotificationEnabled(ctx, userID); err == nil && !on {
		reply += "\nNotifications are disabled, send /notification/enable to receive alerts."
	}
	return reply, nil
}

func (h *Handler) notificationManage(ctx context.Context, userID int64) (string, error) {
	on, err := h.store.GetNotificationEnabled(ctx, userID)
	if err != nil {
		return "", err
	}
	rules, err := h.store.ListRules(ctx, userID)
	if err != nil {
		return "", err
	}

	status := "off"
	if on {
		status = "on"
	}
	lines := []string{"Notifications: " + status}
	if len(rules) == 0 {
		lines = append(lines, "No notification rules.")
	}
	for _, r := range rules {
		state := "enabled"
		if !r.Enabled {
			state = "disabled"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s (%s)", r.Symbol, r.Type, r.Threshold, state))
	}
	return strings.Join(lines, "\n"), nil
}

func (h *Handler) notificationDisable(ctx context.Context, userID int64, cmd Command) (string, error) {
	if cmd.Query == "" {
		if err := h.store.SetNotificationEnabled(ctx, userID, false); err != nil {
			return "", err
		}
		return "Notifications disabled.", nil
	}

	symbol, err := h.resolve(ctx, userID, cmd.Query)
	if err != nil {
		return "", err
	}
	ok, err := h.store.DisableRule(ctx, userID, symbol, cmd.RuleType)
	if err != nil {
		return "", err
	}
	if !ok {
		msg := fmt.Sprintf("No active %s notification for %s", cmd.RuleType.Label(), symbol)
		return "", apperrors.NewCommandError(cmd.Path, msg, apperrors.ErrRuleNotFound)
	}
	return fmt.Sprintf("%s notification for %s disabled", cmd.RuleType.Label(), symbol), nil
}

func (h *Handler) notificationEnable(ctx context.Context, userID int64) (string, error) {
	if err := h.store.SetNotificationEnabled(ctx, userID, true); err != nil {
		return "", err
	}
	return "Notifications enabled.", nil
}
