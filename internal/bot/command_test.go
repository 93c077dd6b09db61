package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stockbot/internal/errors"
	"stockbot/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
		want func(t *testing.T, c Command)
	}{
		{"/start", KindStart, nil},
		{"/start@stock_bot", KindStart, nil},
		{"/ask/price", KindAskPrice, func(t *testing.T, c Command) { assert.Empty(t, c.Queries) }},
		{"/ask/price GOOG, 700 ,eur/usd", KindAskPrice, func(t *testing.T, c Command) {
			assert.Equal(t, []string{"GOOG", "700", "eur/usd"}, c.Queries)
		}},
		{"/Watchlist/Add AAPL,TSLA", KindWatchlistAdd, func(t *testing.T, c Command) {
			assert.Equal(t, []string{"AAPL", "TSLA"}, c.Queries)
		}},
		{"/nickname/add 700 tencent", KindNicknameAdd, func(t *testing.T, c Command) {
			assert.Equal(t, "700", c.Query)
			assert.Equal(t, "tencent", c.Nickname)
		}},
		{"/position/add tencent 350.5 100", KindPositionAdd, func(t *testing.T, c Command) {
			assert.Equal(t, "tencent", c.Query)
			assert.Equal(t, "350.5", c.UnitPrice.String())
			assert.Equal(t, int64(100), c.Quantity)
		}},
		{"/notification/add GOOG sl 100", KindNotificationAdd, func(t *testing.T, c Command) {
			assert.Equal(t, models.RuleStopLoss, c.RuleType)
			assert.Equal(t, "100", c.Threshold.String())
		}},
		{"/notification/disable", KindNotificationDisable, func(t *testing.T, c Command) { assert.Empty(t, c.Query) }},
		{"/notification/disable GOOG tp", KindNotificationDisable, func(t *testing.T, c Command) {
			assert.Equal(t, "GOOG", c.Query)
			assert.Equal(t, models.RuleTakeProfit, c.RuleType)
		}},
		{"/unknown stuff", KindUnknown, nil},
		{"hello", KindUnknown, nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, c.Kind)
			if tt.want != nil {
				tt.want(t, c)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, text := range []string{
		"/watchlist/add",
		"/watchlist/remove  , ,",
		"/nickname/add 700",
		"/nickname/remove",
		"/position/add GOOG abc 10",
		"/position/add GOOG 10 -1",
		"/position/add GOOG 0 1",
		"/position/view",
		"/notification/add GOOG stop 10",
		"/notification/add GOOG sl -1",
		"/notification/add GOOG sl",
		"/notification/disable GOOG",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidCommand)

			var cmdErr *apperrors.CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.NotEmpty(t, cmdErr.Message)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
	assert.Equal(t, []string{"a", "b c"}, splitList("a,, b c "))
}
