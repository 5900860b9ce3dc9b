package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsdelfino/watsonwork-weather/common/logger"
	"github.com/jsdelfino/watsonwork-weather/internal/domain"
	"github.com/jsdelfino/watsonwork-weather/internal/mapper"
)

// ErrDropped marks an event that cannot or must not be answered. It is not a
// failure: callers log it and stop.
var ErrDropped = errors.New("event dropped")

type MessageFetcher interface {
	FetchMessage(ctx context.Context, messageID string) (*domain.Message, error)
}

type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) (*domain.User, error)
}

type CorrelationResolver interface {
	Resolve(ctx context.Context, spaceID string, action *mapper.ClassifiedAction) (*domain.CorrelationContext, error)
}

type correlationResolver struct {
	appID    string
	messages MessageFetcher
	users    UserFetcher
	logger   *slog.Logger
}

func NewCorrelationResolver(appID string, messages MessageFetcher, users UserFetcher, logger *slog.Logger) CorrelationResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &correlationResolver{
		appID:    appID,
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// Resolve loads the message an action refers to and the user acting on it.
// Messages authored by the app itself are dropped so the app never answers its
// own output.
func (r *correlationResolver) Resolve(ctx context.Context, spaceID string, action *mapper.ClassifiedAction) (*domain.CorrelationContext, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID: logger.Ptr(action.MessageID),
		Component: "weather.service.correlation",
	})

	msg, err := r.messages.FetchMessage(ctx, action.MessageID)
	if err != nil {
		r.logger.WarnContext(ctx, "fetching message failed", "error", err)
		return nil, fmt.Errorf("%w: fetching message %s: %v", ErrDropped, action.MessageID, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message %s not found", ErrDropped, action.MessageID)
	}

	if msg.CreatedBy.ID == r.appID {
		r.logger.DebugContext(ctx, "ignoring message authored by the app")
		return nil, fmt.Errorf("%w: message %s authored by the app", ErrDropped, msg.ID)
	}

	cc := &domain.CorrelationContext{
		SpaceID:  spaceID,
		ActionID: action.ActionID,
		Message:  msg,
	}

	if action.Kind == mapper.KindActionSelected {
		user, err := r.users.FetchUser(ctx, action.UserID)
		if err != nil {
			r.logger.WarnContext(ctx, "fetching user failed", "error", err, "user_id", action.UserID)
			return nil, fmt.Errorf("%w: fetching user %s: %v", ErrDropped, action.UserID, err)
		}
		if user == nil || user.ID == r.appID {
			return nil, fmt.Errorf("%w: no acting user for selection", ErrDropped)
		}

		cc.User = *user
		cc.Selection = action.Selection
		cc.Focus = msg.Focus(r.appID)
		return cc, nil
	}

	cc.User = msg.CreatedBy
	cc.Focus = action.Focus
	if cc.Focus == nil {
		cc.Focus = msg.Focus(r.appID)
	}
	return cc, nil
}
