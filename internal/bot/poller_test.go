package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbot/internal/models"
	"stockbot/internal/notify"
)

type scriptedUpdates struct {
	mu      sync.Mutex
	batches [][]notify.Update
	errs    []error
	offsets []int64
}

func (s *scriptedUpdates) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]notify.Update, error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		s.mu.Unlock()
		return nil, err
	}
	if len(s.batches) == 0 {
		s.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	s.mu.Unlock()
	return b, nil
}

type echoHandler struct {
	users []models.User
}

func (e *echoHandler) Handle(_ context.Context, user models.User, text string) string {
	e.users = append(e.users, user)
	return "echo " + text
}

func message(updateID, userID int64, text string) notify.Update {
	return notify.Update{
		UpdateID: updateID,
		Message: &notify.TelegramMessage{
			From: &notify.TelegramUser{ID: userID, Username: "u"},
			Chat: notify.TelegramChat{ID: userID, Type: "private"},
			Text: text,
		},
	}
}

func TestPoller_PollOnce(t *testing.T) {
	updates := &scriptedUpdates{batches: [][]notify.Update{
		{
			message(10, 1, "/watchlist/list"),
			{UpdateID: 11},
			message(12, 2, "not a command"),
			message(13, 2, "/help"),
		},
		{},
	}}
	handler := &echoHandler{}
	sender := &notify.Recorder{}
	p := NewPoller(updates, handler, sender, time.Second, zerolog.Nop())

	ctx := context.Background()
	require.NoError(t, p.PollOnce(ctx))
	require.NoError(t, p.PollOnce(ctx))

	assert.Equal(t, []int64{0, 14}, updates.offsets)
	assert.Equal(t, []notify.Message{
		{UserID: 1, Text: "echo /watchlist/list"},
		{UserID: 2, Text: "echo /help"},
	}, sender.Messages())
	require.Len(t, handler.users, 2)
	assert.Equal(t, "u", handler.users[0].Name)
}

func TestPoller_IgnoresBots(t *testing.T) {
	bot := message(1, 9, "/start")
	bot.Message.From.IsBot = true
	updates := &scriptedUpdates{batches: [][]notify.Update{{bot}}}
	sender := &notify.Recorder{}
	p := NewPoller(updates, &echoHandler{}, sender, time.Second, zerolog.Nop())

	require.NoError(t, p.PollOnce(context.Background()))
	assert.Empty(t, sender.Messages())
}

func TestPoller_RunRecoversFromErrors(t *testing.T) {
	updates := &scriptedUpdates{
		errs:    []error{errors.New("bad gateway")},
		batches: [][]notify.Update{{message(5, 1, "/start")}},
	}
	sender := &notify.Recorder{}
	p := NewPoller(updates, &echoHandler{}, sender, 0, zerolog.Nop())
	p.errorDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sender.Messages()) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

type failingSender struct {
	calls int
}

func (f *failingSender) Send(context.Context, int64, string) error {
	f.calls++
	return errors.New("chat not found")
}

func TestPoller_SendFailureKeepsPolling(t *testing.T) {
	updates := &scriptedUpdates{batches: [][]notify.Update{
		{message(20, 1, "/start"), message(21, 2, "/help")},
		{message(22, 1, "/watchlist/list")},
	}}
	sender := &failingSender{}
	p := NewPoller(updates, &echoHandler{}, sender, time.Second, zerolog.Nop())

	ctx := context.Background()
	require.NoError(t, p.PollOnce(ctx))
	require.NoError(t, p.PollOnce(ctx))

	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, []int64{0, 22}, updates.offsets)
}
