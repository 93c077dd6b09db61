package quote

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "stockbot/internal/errors"
)

// PriceField returns the text before the first comma, which is the whole
// quote for forex.
func PriceField(q string) string {
	field, _, _ := strings.Cut(q, ",")
	return strings.TrimSpace(field)
}

// LastPrice parses the leading price of a quote.
func LastPrice(q string) (decimal.Decimal, error) {
	if q == "" || q == NotAvailable {
		return decimal.Zero, apperrors.ErrQuoteUnavailable
	}
	d, err := decimal.NewFromString(PriceField(q))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price in %q", apperrors.ErrQuoteMalformed, q)
	}
	return d, nil
}

// PercentChange parses the signed number between the last "(" and the
// following "%", e.g. -5 for "95.00,-5.00(-5.00%)".
func PercentChange(q string) (decimal.Decimal, error) {
	i := strings.LastIndex(q, "(")
	if i < 0 {
		return decimal.Zero, fmt.Errorf("%w: no percent in %q", apperrors.ErrQuoteMalformed, q)
	}
	field, _, ok := strings.Cut(q[i+1:], "%")
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no percent in %q", apperrors.ErrQuoteMalformed, q)
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(field), "+"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: percent in %q", apperrors.ErrQuoteMalformed, q)
	}
	return d, nil
}
