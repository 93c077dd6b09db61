// Package alert evaluates notification rules against fresh quotes.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "stockbot/internal/errors"
	"stockbot/internal/logging"
	"stockbot/internal/models"
	"stockbot/internal/notify"
	"stockbot/internal/quote"
)

//go:generate mockgen -destination=mock_rulestore_test.go -package=alert . RuleStore
//go:generate mockgen -destination=mock_source_test.go -package=alert stockbot/internal/quote Source
//go:generate mockgen -destination=mock_sender_test.go -package=alert stockbot/internal/notify Sender

// RuleStore is the part of the store the evaluator needs.
type RuleStore interface {
	ListActiveRules(ctx context.Context) ([]models.NotificationSetting, error)
	DisableRule(ctx context.Context, userID int64, symbol string, ruleType models.RuleType) (bool, error)
}

var hundred = decimal.NewFromInt(100)

// CycleReport summarizes one evaluation cycle.
type CycleReport struct {
	Rules        int
	Symbols      int
	Triggered    int
	Skipped      int
	Lost         int // fired but another cycle disabled the rule first
	SendFailures int
	Duration     time.Duration
}

// Evaluator runs evaluation cycles.
type Evaluator struct {
	rules  RuleStore
	quotes quote.Source
	sender notify.Sender
	logger zerolog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(rules RuleStore, quotes quote.Source, sender notify.Sender, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		rules:  rules,
		quotes: quotes,
		sender: sender,
		logger: logging.WithComponent(logger, "evaluator"),
	}
}

// RunCycle fetches quotes for every active rule and fires the rules whose
// condition holds. Rule types are processed percent-move first, then
// stop-loss, then take-profit.
func (e *Evaluator) RunCycle(ctx context.Context) (CycleReport, error) {
	start := time.Now()
	var report CycleReport

	rules, err := e.rules.ListActiveRules(ctx)
	if err != nil {
		return report, fmt.Errorf("listing active rules: %w", err)
	}
	report.Rules = len(rules)
	if len(rules) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	var symbols []string
	seen := make(map[string]bool)
	for _, r := range rules {
		if !seen[r.Symbol] {
			seen[r.Symbol] = true
			symbols = append(symbols, r.Symbol)
		}
	}
	report.Symbols = len(symbols)

	snapshot := quote.Snapshot(e.quotes.Quotes(ctx, symbols))

	for _, ruleType := range models.RuleTypes {
		for _, r := range rules {
			if r.Type == ruleType {
				e.process(ctx, r, snapshot[r.Symbol], &report)
			}
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (e *Evaluator) process(ctx context.Context, rule models.NotificationSetting, q string, report *CycleReport) {
	logger := logging.WithSymbol(logging.WithUser(e.logger, rule.UserID), rule.Symbol).
		With().Str("rule_type", string(rule.Type)).Logger()

	fired, err := Evaluate(rule, q)
	if err != nil {
		report.Skipped++
		logger.Debug().Err(err).Str("quote", q).Msg("Rule skipped")
		return
	}
	if !fired {
		return
	}

	won, err := e.rules.DisableRule(ctx, rule.UserID, rule.Symbol, rule.Type)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to disable rule, not sending")
		return
	}
	if !won {
		report.Lost++
		logger.Debug().Msg("Rule already disabled")
		return
	}

	report.Triggered++
	logging.LogAlert(logger, rule.UserID, rule.Symbol, string(rule.Type), q)

	if err := e.sender.Send(ctx, rule.UserID, Message(rule, q)); err != nil {
		report.SendFailures++
		logger.Error().Err(err).Msg("Failed to send alert")
	}
}

// Evaluate decides whether rule fires on quote. Quotes without a comma,
// which includes NotAvailable and raw forex prices, give
// ErrQuoteUnavailable.
func Evaluate(rule models.NotificationSetting, q string) (bool, error) {
	if !strings.Contains(q, ",") {
		return false, apperrors.ErrQuoteUnavailable
	}

	switch rule.Type {
	case models.RuleStopLoss:
		price, err := quote.LastPrice(q)
		if err != nil {
			return false, err
		}
		return price.LessThan(rule.Threshold), nil
	case models.RuleTakeProfit:
		price, err := quote.LastPrice(q)
		if err != nil {
			return false, err
		}
		return price.GreaterThan(rule.Threshold), nil
	case models.RulePercentMove:
		pct, err := quote.PercentChange(q)
		if err != nil {
			return false, err
		}
		return pct.Abs().Div(hundred).GreaterThan(rule.Threshold), nil
	default:
		return false, fmt.Errorf("unknown rule type %q", rule.Type)
	}
}

// Message is the alert text for a fired rule.
func Message(rule models.NotificationSetting, q string) string {
	switch rule.Type {
	case models.RuleStopLoss:
		return fmt.Sprintf("%s for %s reached: %s < %s", rule.Type.Label(), rule.Symbol, quote.PriceField(q), rule.Threshold)
	case models.RuleTakeProfit:
		return fmt.Sprintf("%s for %s reached: %s > %s", rule.Type.Label(), rule.Symbol, quote.PriceField(q), rule.Threshold)
	case models.RulePercentMove:
		pct, _ := quote.PercentChange(q)
		return fmt.Sprintf("%s for %s reached: %s%% > %s%%", rule.Type.Label(), rule.Symbol, pct.Abs(), rule.Threshold.Mul(hundred))
	default:
		return fmt.Sprintf("Notification for %s: %s", rule.Symbol, q)
	}
}
