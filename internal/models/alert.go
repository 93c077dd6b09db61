package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RuleType is the condition a notification rule checks. The string values
// are the ones stored by the original bot.
type RuleType string

const (
	RuleStopLoss    RuleType = "sl"
	RuleTakeProfit  RuleType = "tp"
	RulePercentMove RuleType = "priceChange"
)

// RuleTypes lists every rule type in evaluation order.
var RuleTypes = []RuleType{RulePercentMove, RuleStopLoss, RuleTakeProfit}

// ParseRuleType accepts the stored names plus a few spellings users type.
func ParseRuleType(s string) (RuleType, error) {
	switch s {
	case "sl", "stoploss", "stop-loss", "stop_loss":
		return RuleStopLoss, nil
	case "tp", "takeprofit", "take-profit", "take_profit":
		return RuleTakeProfit, nil
	case "priceChange", "pricechange", "pc", "percent", "pct":
		return RulePercentMove, nil
	default:
		return "", fmt.Errorf("unknown notification type %q (use sl, tp or priceChange)", s)
	}
}

// Label is the human name used in messages.
func (t RuleType) Label() string {
	switch t {
	case RuleStopLoss:
		return "Stop loss"
	case RuleTakeProfit:
		return "Take profit"
	case RulePercentMove:
		return "Price change percentage"
	default:
		return string(t)
	}
}

// NotificationSetting is a stored alert rule. It is disabled, never
// deleted, once it fires.
type NotificationSetting struct {
	ID        int64
	UserID    int64
	Symbol    string
	Type      RuleType
	Threshold decimal.Decimal
	Enabled   bool
}
