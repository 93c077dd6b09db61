// Package bot turns chat messages into store and quote operations.
package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "stockbot/internal/errors"
	"stockbot/internal/models"
)

// Kind identifies a chat command.
type Kind int

const (
	KindUnknown Kind = iota
	KindStart
	KindHelp
	KindAskPrice
	KindNicknameAdd
	KindNicknameRemove
	KindWatchlistAdd
	KindWatchlistRemove
	KindWatchlistList
	KindPositionAdd
	KindPositionList
	KindPositionView
	KindPositionRemove
	KindNotificationAdd
	KindNotificationManage
	KindNotificationDisable
	KindNotificationEnable
)

var commandPaths = map[string]Kind{
	"/start":                KindStart,
	"/help":                 KindHelp,
	"/ask/price":            KindAskPrice,
	"/nickname/add":         KindNicknameAdd,
	"/nickname/remove":      KindNicknameRemove,
	"/watchlist/add":        KindWatchlistAdd,
	"/watchlist/remove":     KindWatchlistRemove,
	"/watchlist/list":       KindWatchlistList,
	"/position/add":         KindPositionAdd,
	"/position/list":        KindPositionList,
	"/position/view":        KindPositionView,
	"/position/remove":      KindPositionRemove,
	"/notification/add":     KindNotificationAdd,
	"/notification/manage":  KindNotificationManage,
	"/notification/disable": KindNotificationDisable,
	"/notification/enable":  KindNotificationEnable,
}

const usage = `Commands:
/ask/price [symbol or nickname, ...]  (empty: your watchlist)
/nickname/add SYMBOL NICKNAME
/nickname/remove SYMBOL|NICKNAME
/watchlist/add SYMBOL, SYMBOL
/watchlist/remove SYMBOL, SYMBOL
/watchlist/list
/position/add SYMBOL|NICKNAME PRICE QUANTITY
/position/list
/position/view SYMBOL|NICKNAME
/position/remove SYMBOL|NICKNAME
/notification/add SYMBOL|NICKNAME sl|tp|priceChange THRESHOLD
/notification/manage
/notification/disable [SYMBOL TYPE]
/notification/enable`

// Command is a parsed chat command. Which fields are set depends on Kind.
type Command struct {
	Kind Kind
	Path string

	// Queries holds symbols or nicknames for list commands.
	Queries []string
	// Query is the single symbol or nickname argument.
	Query string

	Nickname  string
	UnitPrice decimal.Decimal
	Quantity  int64
	RuleType  models.RuleType
	Threshold decimal.Decimal
}

// Parse reads a message text. Unknown commands give KindUnknown with no
// error; malformed arguments give a *CommandError wrapping
// ErrInvalidCommand.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	path, rest, _ := strings.Cut(text, " ")
	// "/start@my_bot" in group chats
	if at := strings.Index(path, "@"); at > 0 {
		path = path[:at]
	}
	path = strings.ToLower(path)
	rest = strings.TrimSpace(rest)

	cmd := Command{Kind: commandPaths[path], Path: path}
	args := strings.Fields(rest)

	invalid := func(format string, a ...any) (Command, error) {
		msg := fmt.Sprintf(format, a...)
		return Command{Kind: cmd.Kind, Path: path}, apperrors.NewCommandError(path, msg, apperrors.ErrInvalidCommand)
	}

	switch cmd.Kind {
	case KindAskPrice:
		cmd.Queries = splitList(rest)

	case KindWatchlistAdd, KindWatchlistRemove:
		cmd.Queries = splitList(rest)
		if len(cmd.Queries) == 0 {
			return invalid("Usage: %s SYMBOL, SYMBOL", path)
		}

	case KindNicknameAdd:
		if len(args) != 2 {
			return invalid("Usage: /nickname/add SYMBOL NICKNAME")
		}
		cmd.Query, cmd.Nickname = args[0], args[1]

	case KindNicknameRemove, KindPositionView, KindPositionRemove:
		if len(args) != 1 {
			return invalid("Usage: %s SYMBOL|NICKNAME", path)
		}
		cmd.Query = args[0]

	case KindPositionAdd:
		if len(args) != 3 {
			return invalid("Usage: /position/add SYMBOL|NICKNAME PRICE QUANTITY")
		}
		price, err := decimal.NewFromString(args[1])
		if err != nil || !price.IsPositive() {
			return invalid("Invalid unit price %q", args[1])
		}
		qty, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || qty <= 0 {
			return invalid("Invalid quantity %q", args[2])
		}
		cmd.Query, cmd.UnitPrice, cmd.Quantity = args[0], price, qty

	case KindNotificationAdd:
		if len(args) != 3 {
			return invalid("Usage: /notification/add SYMBOL|NICKNAME sl|tp|priceChange THRESHOLD")
		}
		rt, err := models.ParseRuleType(args[1])
		if err != nil {
			return invalid("%s", err.Error())
		}
		th, err := decimal.NewFromString(args[2])
		if err != nil || th.IsNegative() {
			return invalid("Invalid threshold %q", args[2])
		}
		cmd.Query, cmd.RuleType, cmd.Threshold = args[0], rt, th

	case KindNotificationDisable:
		switch len(args) {
		case 0:
		case 2:
			rt, err := models.ParseRuleType(args[1])
			if err != nil {
				return invalid("%s", err.Error())
			}
			cmd.Query, cmd.RuleType = args[0], rt
		default:
			return invalid("Usage: /notification/disable [SYMBOL|NICKNAME TYPE]")
		}
	}

	return cmd, nil
}

// splitList splits "a, b ,c" into trimmed non-empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
