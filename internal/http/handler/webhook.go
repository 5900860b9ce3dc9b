package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsdelfino/watsonwork-weather/common/id"
	"github.com/jsdelfino/watsonwork-weather/common/logger"
	"github.com/jsdelfino/watsonwork-weather/common/metrics"
	"github.com/jsdelfino/watsonwork-weather/internal/domain"
	"github.com/jsdelfino/watsonwork-weather/internal/queue"
	"github.com/jsdelfino/watsonwork-weather/internal/service/watsonwork"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives Watson Work deliveries. It only verifies and enqueues;
// the worker does the rest, so the platform is acked right away.
type WebhookHandler struct {
	secret      string
	producer    queue.Producer
	traceHeader string
	logger      *slog.Logger
}

func NewWebhookHandler(secret string, producer queue.Producer, traceHeader string, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		secret:      secret,
		producer:    producer,
		traceHeader: traceHeader,
		logger:      logger,
	}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		Component: "weather.http.webhook",
	})

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if err := watsonwork.Verify(h.secret, body, c.GetHeader(watsonwork.SignatureHeader)); err != nil {
		h.logger.WarnContext(ctx, "rejected webhook with bad signature", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	evt, err := domain.DecodeRawEvent(body)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid webhook body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
		return
	}
	metrics.WebhooksReceived.WithLabelValues(evt.Type).Inc()

	if evt.Type == domain.EventTypeVerification {
		h.answerChallenge(c, evt.Challenge)
		return
	}

	eventID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(eventID),
		EventType: logger.Ptr(evt.Type),
		SpaceID:   logger.Ptr(evt.SpaceID),
	})

	msg := queue.EventMessage{
		EventID:   eventID,
		EventType: evt.Type,
		SpaceID:   evt.SpaceID,
		UserID:    evt.UserID,
		Body:      body,
	}
	if traceID := h.traceID(c); traceID != "" {
		msg.TraceID = &traceID
	}

	if err := h.producer.Enqueue(ctx, msg); err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue webhook event", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue event"})
		return
	}

	c.Status(http.StatusCreated)
}

func (h *WebhookHandler) answerChallenge(c *gin.Context, challenge string) {
	body, signature, err := watsonwork.ChallengeResponse(h.secret, challenge)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer challenge"})
		return
	}
	h.logger.InfoContext(c.Request.Context(), "answered webhook verification challenge")
	c.Header(watsonwork.SignatureHeader, signature)
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *WebhookHandler) traceID(c *gin.Context) string {
	if h.traceHeader != "" {
		if v := c.GetHeader(h.traceHeader); v != "" {
			return v
		}
	}
	if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
