package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockbot/internal/logging"
	"stockbot/internal/security"
	"stockbot/pkg/utils"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// TelegramUser is the sender of a message.
type TelegramUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// TelegramChat is the chat a message belongs to.
type TelegramChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// TelegramMessage is an incoming chat message.
type TelegramMessage struct {
	MessageID int64         `json:"message_id"`
	From      *TelegramUser `json:"from"`
	Chat      TelegramChat  `json:"chat"`
	Date      int64         `json:"date"`
	Text      string        `json:"text"`
}

// Update is one entry of a getUpdates reply.
type Update struct {
	UpdateID int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// TelegramClient talks to the Telegram Bot API. It implements Sender.
type TelegramClient struct {
	token   string
	baseURL string
	client  *http.Client
	// poll has no client timeout; long polls are bounded by their context.
	poll   *http.Client
	retry  utils.RetryConfig
	redact *security.Redactor
	logger zerolog.Logger
}

// NewTelegramClient creates a client on the shared HTTP client. An empty
// baseURL means DefaultBaseURL.
func NewTelegramClient(client *http.Client, token, baseURL string, logger zerolog.Logger) *TelegramClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &TelegramClient{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		poll:    &http.Client{Transport: client.Transport},
		retry:   utils.DefaultRetryConfig(),
		redact:  security.NewRedactor(token),
		logger:  logging.WithComponent(logger, "telegram"),
	}
}

// WithRetry replaces the retry policy. Tests use it to drop the backoff.
func (t *TelegramClient) WithRetry(cfg utils.RetryConfig) *TelegramClient {
	t.retry = cfg
	return t
}

func (t *TelegramClient) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
}

// Send posts a plain text message to the user's private chat.
func (t *TelegramClient) Send(ctx context.Context, userID int64, text string) error {
	body, err := json.Marshal(map[string]interface{}{
		"chat_id": userID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshaling telegram payload: %w", err)
	}

	rc := t.retry
	rc.OnRetry = func(attempt int, err error) {
		t.logger.Error().Err(err).Int64("user_id", userID).Int("attempt", attempt).Msg("Unable to send message")
	}

	_, err = utils.RetryWithResult(ctx, rc, func(int) (json.RawMessage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating telegram request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return t.do(t.client, req)
	})
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	t.logger.Debug().Int64("user_id", userID).Msg("Message sent")
	return nil
}

// GetUpdates long-polls for updates with update_id >= offset.
func (t *TelegramClient) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	u := t.endpoint("getUpdates") + "?" + q.Encode()

	rc := t.retry
	rc.OnRetry = func(attempt int, err error) {
		t.logger.Error().Err(err).Int("attempt", attempt).Msg("Unable to get updates")
	}

	raw, err := utils.RetryWithResult(ctx, rc, func(int) (json.RawMessage, error) {
		// leave the server time to answer an empty poll
		reqCtx, cancel := context.WithTimeout(ctx, timeout+15*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("creating telegram request: %w", err)
		}
		return t.do(t.poll, req)
	})
	if err != nil {
		return nil, fmt.Errorf("getting telegram updates: %w", err)
	}

	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decoding telegram updates: %w", err)
	}
	return updates, nil
}

// GetMe returns the bot account. It checks the token without retrying.
func (t *TelegramClient) GetMe(ctx context.Context) (*TelegramUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint("getMe"), nil)
	if err != nil {
		return nil, fmt.Errorf("creating telegram request: %w", err)
	}
	raw, err := t.do(t.client, req)
	if err != nil {
		return nil, fmt.Errorf("getting bot account: %w", err)
	}

	var me TelegramUser
	if err := json.Unmarshal(raw, &me); err != nil {
		return nil, fmt.Errorf("decoding bot account: %w", err)
	}
	return &me, nil
}

// do runs one Bot API call and returns the result field of an ok reply.
func (t *TelegramClient) do(client *http.Client, req *http.Request) (json.RawMessage, error) {
	resp, err := client.Do(req)
	if err != nil {
		// *url.Error carries the request URL, which holds the token
		return nil, t.redact.Error(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding telegram response: %w", err)
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram API error: %s", out.Description)
	}
	return out.Result, nil
}
