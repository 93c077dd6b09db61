package bot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "stockbot/internal/errors"
	"stockbot/internal/models"
	"stockbot/internal/quote"
	"stockbot/internal/store"
)

type fixedSource map[string]string

func (f fixedSource) Quotes(_ context.Context, symbols []string) []quote.Result {
	out := make([]quote.Result, 0, len(symbols))
	for _, s := range symbols {
		q, ok := f[s]
		if !ok {
			q = quote.NotAvailable
		}
		out = append(out, quote.Result{Symbol: s, Quote: q})
	}
	return out
}

var alice = models.User{ID: 42, Name: "alice"}

func newTestHandler(t *testing.T, quotes fixedSource) (*Handler, *store.SQLStore) {
	t.Helper()
	st, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewHandler(st, quotes, zerolog.Nop()), st
}

func TestHandler_StartEnablesNotifications(t *testing.T) {
	h, st := newTestHandler(t, nil)
	ctx := context.Background()

	reply := h.Handle(ctx, alice, "/start")
	assert.Contains(t, reply, "Welcome")

	on, err := st.GetNotificationEnabled(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, on)

	u, err := st.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)
}

func TestHandler_HelpAndUnknown(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	ctx := context.Background()

	assert.Equal(t, usage, h.Handle(ctx, alice, "/help"))
	assert.Equal(t, usage, h.Handle(ctx, alice, "/dance"))
	assert.Contains(t, h.Handle(ctx, alice, "/nickname/add 700"), "Usage")
}

func TestHandler_AskPrice(t *testing.T) {
	h, _ := newTestHandler(t, fixedSource{
		"700":  "350.20,+2.40(+0.69%)",
		"GOOG": "150.00,+10.00(+7.14%)",
	})
	ctx := context.Background()

	h.Handle(ctx, alice, "/nickname/add 700 tencent")

	reply := h.Handle(ctx, alice, "/ask/price tencent, GOOG, MSFT")
	assert.Equal(t, "tencent: 350.20,+2.40(+0.69%)\nGOOG: 150.00,+10.00(+7.14%)\nMSFT: Not available", reply)
}

func TestHandler_AskPriceUsesWatchlist(t *testing.T) {
	h, _ := newTestHandler(t, fixedSource{"GOOG": "150.00,+10.00(+7.14%)"})
	ctx := context.Background()

	assert.Contains(t, h.Handle(ctx, alice, "/ask/price"), "watchlist is empty")

	reply := h.Handle(ctx, alice, "/watchlist/add GOOG, AAPL")
	assert.Equal(t, "Watchlist added with symbols:\nGOOG, AAPL", reply)

	reply = h.Handle(ctx, alice, "/ask/price")
	assert.Equal(t, "GOOG: 150.00,+10.00(+7.14%)\nAAPL: Not available", reply)
}

func TestHandler_Nicknames(t *testing.T) {
	h, st := newTestHandler(t, nil)
	ctx := context.Background()

	reply := h.Handle(ctx, alice, "/nickname/add 700 tencent")
	assert.Equal(t, "New entry added:\nSymbol: 700, NickName: tencent, Market: hk", reply)

	sym, err := st.ResolveSymbol(ctx, alice.ID, "tencent")
	require.NoError(t, err)
	assert.Equal(t, "700", sym)

	assert.Equal(t, "Entry removed: tencent", h.Handle(ctx, alice, "/nickname/remove tencent"))
	assert.Equal(t, "No entry found for tencent", h.Handle(ctx, alice, "/nickname/remove tencent"))
}

func TestHandler_Watchlist(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	ctx := context.Background()

	assert.Equal(t, "Your watchlist is empty.", h.Handle(ctx, alice, "/watchlist/list"))

	h.Handle(ctx, alice, "/watchlist/add GOOG, AAPL, 700")
	h.Handle(ctx, alice, "/watchlist/add AAPL")
	assert.Equal(t, "Watchlist:\nGOOG, AAPL, 700", h.Handle(ctx, alice, "/watchlist/list"))

	reply := h.Handle(ctx, alice, "/watchlist/remove AAPL")
	assert.Equal(t, "Watchlist removed the symbols:\nAAPL", reply)
	assert.Equal(t, "Watchlist:\nGOOG, 700", h.Handle(ctx, alice, "/watchlist/list"))
}

func TestHandler_Positions(t *testing.T) {
	h, _ := newTestHandler(t, fixedSource{"700": "385.00,+2.40(+0.63%)"})
	ctx := context.Background()

	h.Handle(ctx, alice, "/nickname/add 700 tencent")

	reply := h.Handle(ctx, alice, "/position/add tencent 350 100")
	assert.Equal(t, "Position added for 700, unit price = 350, quantity = 100", reply)

	reply = h.Handle(ctx, alice, "/position/list")
	assert.Equal(t, "Symbol: 700, Nickname: tencent, unit price: 350, quantity: 100", reply)

	reply = h.Handle(ctx, alice, "/position/view tencent")
	assert.Equal(t, "700 x100 @ 350: Profit = 3500.00, Percent profit = 10.00%", reply)

	assert.Equal(t, "Removed 1 position(s) for 700", h.Handle(ctx, alice, "/position/remove tencent"))
	assert.Equal(t, "Position not found: 700", h.Handle(ctx, alice, "/position/view 700"))
	assert.Equal(t, "No positions.", h.Handle(ctx, alice, "/position/list"))
}

func TestHandler_PositionViewWithoutQuote(t *testing.T) {
	h, _ := newTestHandler(t, fixedSource{})
	ctx := context.Background()

	h.Handle(ctx, alice, "/position/add GOOG 100 1")
	assert.Equal(t, "Price for GOOG: quote not available", h.Handle(ctx, alice, "/position/view GOOG"))
}

func TestHandler_Notifications(t *testing.T) {
	h, st := newTestHandler(t, nil)
	ctx := context.Background()

	reply := h.Handle(ctx, alice, "/notification/add GOOG sl 100")
	assert.Contains(t, reply, "Notification added: GOOG Stop loss 100")
	assert.Contains(t, reply, "Notifications are disabled")

	h.Handle(ctx, alice, "/notification/enable")
	reply = h.Handle(ctx, alice, "/notification/add GOOG tp 140")
	assert.NotContains(t, reply, "disabled")

	active, err := st.ListActiveRules(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	reply = h.Handle(ctx, alice, "/notification/disable GOOG sl")
	assert.Equal(t, "Stop loss notification for GOOG disabled", reply)
	reply = h.Handle(ctx, alice, "/notification/disable GOOG sl")
	assert.Equal(t, "No active Stop loss notification for GOOG", reply)
	_, err = h.notificationDisable(ctx, alice.ID, Command{
		Kind: KindNotificationDisable, Path: "/notification/disable",
		Query: "GOOG", RuleType: models.RuleStopLoss,
	})
	assert.ErrorIs(t, err, apperrors.ErrRuleNotFound)

	reply = h.Handle(ctx, alice, "/notification/manage")
	assert.Equal(t, "Notifications: on\nGOOG sl 100 (disabled)\nGOOG tp 140 (enabled)", reply)

	assert.Equal(t, "Notifications disabled.", h.Handle(ctx, alice, "/notification/disable"))
	active, err = st.ListActiveRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

type brokenStore struct {
	store.Store
}

func (brokenStore) EnsureUser(context.Context, models.User) error {
	return errors.New("disk on fire")
}

func TestHandler_InternalErrorsAreHidden(t *testing.T) {
	h := NewHandler(brokenStore{}, fixedSource{}, zerolog.Nop())
	assert.Equal(t, internalErrorReply, h.Handle(context.Background(), alice, "/watchlist/list"))
}
