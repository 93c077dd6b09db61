// Package notify delivers messages to chat users.
package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"stockbot/internal/logging"
)

// Sender delivers one text message to a user. Delivery is best effort.
type Sender interface {
	Send(ctx context.Context, userID int64, text string) error
}

// NoOpSender discards every message. Used for dry runs.
type NoOpSender struct{}

// Send does nothing.
func (NoOpSender) Send(context.Context, int64, string) error { return nil }

// LogSender writes messages to the logger instead of a chat.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logging.WithComponent(logger, "log-sender")}
}

// Send logs the message at info level.
func (s *LogSender) Send(_ context.Context, userID int64, text string) error {
	s.logger.Info().Int64("user_id", userID).Str("text", text).Msg("Message")
	return nil
}

// Message is a text sent to a user, as recorded by Recorder.
type Message struct {
	UserID int64
	Text   string
}

// Recorder keeps every message in memory. The check command prints them
// after a cycle.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Send records the message.
func (r *Recorder) Send(_ context.Context, userID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{UserID: userID, Text: text})
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
