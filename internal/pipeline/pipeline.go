package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsdelfino/watsonwork-weather/common/logger"
	"github.com/jsdelfino/watsonwork-weather/common/metrics"
	"github.com/jsdelfino/watsonwork-weather/internal/brain"
	"github.com/jsdelfino/watsonwork-weather/internal/domain"
	"github.com/jsdelfino/watsonwork-weather/internal/mapper"
	"github.com/jsdelfino/watsonwork-weather/internal/service"
	"github.com/jsdelfino/watsonwork-weather/internal/state"
)

// Dialog advances a user's conversation state for one correlated event.
type Dialog interface {
	Run(ctx context.Context, cc *domain.CorrelationContext, st *domain.ConversationState) (brain.Decision, error)
}

// Messenger delivers rendered responses back to Watson Work.
type Messenger interface {
	SendToSpace(ctx context.Context, spaceID string, msg domain.ResponseMessage) error
	SendToPrivateDialog(ctx context.Context, spaceID, userID, dialogID string, msg domain.ResponseMessage) error
}

type Handler struct {
	classifier mapper.EventClassifier
	resolver   service.CorrelationResolver
	store      state.Store
	dialog     Dialog
	messenger  Messenger
	logger     *slog.Logger
}

func New(
	classifier mapper.EventClassifier,
	resolver service.CorrelationResolver,
	store state.Store,
	dialog Dialog,
	messenger Messenger,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		classifier: classifier,
		resolver:   resolver,
		store:      store,
		dialog:     dialog,
		messenger:  messenger,
		logger:     logger,
	}
}

// Handle runs one webhook event to completion. Events that are not for the app
// or cannot be correlated return nil. A returned error wrapping
// mapper.ErrMalformedPayload must not be retried; other errors may be.
func (h *Handler) Handle(ctx context.Context, evt domain.RawEvent) (err error) {
	sc := logger.StartSpan(ctx, "pipeline.handle")
	defer sc.End()
	defer func() { sc.RecordError(err) }()

	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		EventType: logger.Ptr(evt.Type),
		SpaceID:   logger.Ptr(evt.SpaceID),
		MessageID: logger.Ptr(evt.MessageID),
		Component: "weather.pipeline",
	})
	if evt.UserID != "" {
		ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: logger.Ptr(evt.UserID)})
	}

	action, err := h.classifier.Classify(ctx, evt)
	if err != nil {
		metrics.EventsHandled.WithLabelValues(metrics.OutcomeMalformed).Inc()
		h.logger.ErrorContext(ctx, "annotation payload rejected", "error", err, "annotation_type", evt.AnnotationType)
		return err
	}
	if action == nil {
		metrics.EventsHandled.WithLabelValues(metrics.OutcomeIgnored).Inc()
		h.logger.DebugContext(ctx, "event ignored", "annotation_type", evt.AnnotationType)
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Action:    logger.Ptr(action.ActionID),
		MessageID: logger.Ptr(action.MessageID),
	})

	cc, err := h.resolver.Resolve(ctx, evt.SpaceID, action)
	if err != nil {
		if errors.Is(err, service.ErrDropped) {
			metrics.EventsHandled.WithLabelValues(metrics.OutcomeDropped).Inc()
			h.logger.InfoContext(ctx, "event dropped", "kind", action.Kind, "reason", err.Error())
			return nil
		}
		metrics.EventsHandled.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("resolving %s: %w", action.Kind, err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: logger.Ptr(cc.User.ID)})

	if cc.Selection == nil {
		metrics.EventsHandled.WithLabelValues(metrics.OutcomeLogged).Inc()
		h.logger.InfoContext(ctx, "action recognized",
			"kind", action.Kind,
			"user", cc.User.DisplayName,
			"entities", len(cc.Focus.Entities()))
		return nil
	}

	var decision brain.Decision
	err = state.WithState(ctx, h.store, cc.SpaceID, cc.User.ID, func(ctx context.Context, st *domain.ConversationState) (bool, error) {
		d, err := h.dialog.Run(ctx, cc, st)
		if err != nil {
			return false, err
		}
		decision = d
		return d.Save, nil
	})
	if err != nil {
		metrics.EventsHandled.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("running %s dialog: %w", cc.ActionID, err)
	}

	h.send(ctx, cc, decision)
	metrics.EventsHandled.WithLabelValues(metrics.OutcomeDialog).Inc()
	return nil
}

// send delivers space broadcasts before private replies. The state is already
// written, so a failed send is logged rather than retried.
func (h *Handler) send(ctx context.Context, cc *domain.CorrelationContext, d brain.Decision) {
	for _, msg := range d.Space {
		if err := h.messenger.SendToSpace(ctx, cc.SpaceID, msg); err != nil {
			h.logger.WarnContext(ctx, "sending to space failed", "error", err, "title", msg.Title)
		}
	}
	for _, msg := range d.Private {
		if err := h.messenger.SendToPrivateDialog(ctx, cc.SpaceID, cc.User.ID, cc.Selection.TargetDialogID, msg); err != nil {
			h.logger.WarnContext(ctx, "sending to dialog failed", "error", err, "title", msg.Title)
		}
	}
}
