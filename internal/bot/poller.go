package bot

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockbot/internal/logging"
	"stockbot/internal/models"
	"stockbot/internal/notify"
)

// UpdateSource long-polls for incoming messages.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]notify.Update, error)
}

// MessageHandler produces the reply for one message.
type MessageHandler interface {
	Handle(ctx context.Context, user models.User, text string) string
}

// Poller feeds updates to a handler and sends the replies.
type Poller struct {
	updates     UpdateSource
	handler     MessageHandler
	sender      notify.Sender
	pollTimeout time.Duration
	errorDelay  time.Duration
	offset      int64
	logger      zerolog.Logger
}

// NewPoller creates a Poller. pollTimeout is the server-side long-poll wait.
func NewPoller(updates UpdateSource, handler MessageHandler, sender notify.Sender, pollTimeout time.Duration, logger zerolog.Logger) *Poller {
	if pollTimeout < 0 {
		pollTimeout = 0
	}
	return &Poller{
		updates:     updates,
		handler:     handler,
		sender:      sender,
		pollTimeout: pollTimeout,
		errorDelay:  3 * time.Second,
		logger:      logging.WithComponent(logger, "poller"),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info().Dur("poll_timeout", p.pollTimeout).Msg("Polling for messages")
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warn().Err(err).Dur("retry_in", p.errorDelay).Msg("Polling failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.errorDelay):
			}
		}
	}
}

// PollOnce fetches one batch of updates and answers each message in order.
func (p *Poller) PollOnce(ctx context.Context) error {
	updates, err := p.updates.GetUpdates(ctx, p.offset, p.pollTimeout)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
		p.dispatch(ctx, u)
	}
	return nil
}

func (p *Poller) dispatch(ctx context.Context, u notify.Update) {
	msg := u.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	user := models.User{ID: msg.From.ID, Name: displayName(msg.From)}
	reply := p.handler.Handle(ctx, user, text)
	if reply == "" {
		return
	}

	chatID := msg.Chat.ID
	if chatID == 0 {
		chatID = msg.From.ID
	}
	if err := p.sender.Send(ctx, chatID, reply); err != nil {
		logger := logging.WithUser(p.logger, user.ID)
		logger.Error().Err(err).Int64("update_id", u.UpdateID).Msg("Failed to send reply")
	}
}

func displayName(u *notify.TelegramUser) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
