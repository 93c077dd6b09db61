package bot

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	apperrors "stockbot/internal/errors"
	"stockbot/internal/logging"
	"stockbot/internal/models"
	"stockbot/internal/quote"
	"stockbot/internal/store"
)

const internalErrorReply = "Something went wrong, please try again later."

// Handler executes commands for one user and returns the reply text.
type Handler struct {
	store  store.Store
	quotes quote.Source
	logger zerolog.Logger
}

// NewHandler creates a Handler. quotes is usually a *quote.Cached.
func NewHandler(st store.Store, quotes quote.Source, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  st,
		quotes: quotes,
		logger: logging.WithComponent(logger, "bot"),
	}
}

// Handle parses text and runs it. Errors become reply text.
func (h *Handler) Handle(ctx context.Context, user models.User, text string) string {
	logger := logging.WithUser(h.logger, user.ID)

	cmd, err := Parse(text)
	if err != nil {
		return h.errorReply(logger, err)
	}
	logger.Debug().Str("command", cmd.Path).Msg("Handling command")

	if cmd.Kind == KindUnknown || cmd.Kind == KindHelp {
		return usage
	}

	if err := h.store.EnsureUser(ctx, user); err != nil {
		return h.errorReply(logger, err)
	}

	reply, err := h.dispatch(ctx, user.ID, cmd)
	if err != nil {
		return h.errorReply(logger.With().Str("command", cmd.Path).Logger(), err)
	}
	return reply
}

func (h *Handler) dispatch(ctx context.Context, userID int64, cmd Command) (string, error) {
	switch cmd.Kind {
	case KindStart:
		return h.start(ctx, userID)
	case KindAskPrice:
		return h.askPrice(ctx, userID, cmd.Queries)
	case KindNicknameAdd:
		return h.nicknameAdd(ctx, userID, cmd)
	case KindNicknameRemove:
		return h.nicknameRemove(ctx, userID, cmd.Query)
	case KindWatchlistAdd:
		return h.watchlistAdd(ctx, userID, cmd.Queries)
	case KindWatchlistRemove:
		return h.watchlistRemove(ctx, userID, cmd.Queries)
	case KindWatchlistList:
		return h.watchlistList(ctx, userID)
	case KindPositionAdd:
		return h.positionAdd(ctx, userID, cmd)
	case KindPositionList:
		return h.positionList(ctx, userID)
	case KindPositionView:
		return h.positionView(ctx, userID, cmd.Query)
	case KindPositionRemove:
		return h.positionRemove(ctx, userID, cmd.Query)
	case KindNotificationAdd:
		return h.notificationAdd(ctx, userID, cmd)
	case KindNotificationManage:
		return h.notificationManage(ctx, userID)
	case KindNotificationDisable:
		return h.notificationDisable(ctx, userID, cmd)
	case KindNotificationEnable:
		return h.notificationEnable(ctx, userID)
	default:
		return usage, nil
	}
}

// errorReply shows lookup and validation errors to the user and hides
// everything else behind a generic reply.
func (h *Handler) errorReply(logger zerolog.Logger, err error) string {
	var cmdErr *apperrors.CommandError
	if apperrors.As(err, &cmdErr) {
		return cmdErr.Message
	}
	for _, known := range []error{
		apperrors.ErrStockNotFound,
		apperrors.ErrPositionNotFound,
		apperrors.ErrRuleNotFound,
		apperrors.ErrUserNotFound,
		apperrors.ErrQuoteUnavailable,
		apperrors.ErrQuoteMalformed,
	} {
		if apperrors.Is(err, known) {
			return capitalize(err.Error())
		}
	}
	logger.Error().Err(err).Msg("Command failed")
	return internalErrorReply
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
