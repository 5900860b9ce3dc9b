package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsdelfino/watsonwork-weather/common/logger"
	"github.com/jsdelfino/watsonwork-weather/internal/mapper"
	"github.com/jsdelfino/watsonwork-weather/internal/queue"
)

// ErrUndecodable marks a stream message whose body is not a webhook event.
var ErrUndecodable = errors.New("undecodable event body")

type Config struct {
	Concurrency int64
	MaxAttempts int
	LaneBuffer  int
}

type Worker struct {
	consumer Consumer
	handler  EventHandler
	cfg      Config
	logger   *slog.Logger

	lanes *Lanes
	ready chan struct{}
}

func New(consumer Consumer, handler EventHandler, cfg Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Worker{
		consumer: consumer,
		handler:  handler,
		cfg:      cfg,
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Run reads the stream until ctx is done, then waits for in-flight messages.
func (w *Worker) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "weather.worker"})

	w.lanes = NewLanes(ctx, w.cfg.Concurrency, w.cfg.LaneBuffer, w.process)
	close(w.ready)
	defer w.lanes.Wait()

	w.logger.InfoContext(ctx, "worker started",
		"concurrency", w.cfg.Concurrency,
		"max_attempts", w.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.Dispatch(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch hands msg to its lane, waiting for Run to start if needed. Exported
// so the reclaimer routes reclaimed messages through the same per-conversation
// ordering.
func (w *Worker) Dispatch(ctx context.Context, msg queue.Message) error {
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	return w.lanes.Submit(ctx, msg)
}

func (w *Worker) process(ctx context.Context, msg queue.Message) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:         logger.Ptr(msg.EventID),
		StreamMessageID: logger.Ptr(msg.ID),
	})

	if err := w.processMessageSafe(ctx, msg); err != nil {
		w.logger.ErrorContext(ctx, "message processing failed",
			"error", err,
			"attempt", msg.Attempt)
		w.handleFailedMessage(ctx, msg, err)
	}
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage handles one stream message and acks it on success.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_message")
	defer sc.End()
	ctx = sc.Context()

	w.logger.DebugContext(ctx, "processing message",
		"event_type", msg.EventType,
		"attempt", msg.Attempt)

	evt, err := msg.Event()
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrUndecodable, err)
		sc.RecordError(err)
		return err
	}

	start := time.Now()
	if err := w.handler.Handle(ctx, evt); err != nil {
		sc.RecordError(err)
		return err
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// The reclaimer redelivers unacked messages; handling is idempotent.
		w.logger.WarnContext(ctx, "failed to ACK message", "error", err)
	}

	w.logger.InfoContext(ctx, "message processed",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	permanent := errors.Is(err, mapper.ErrMalformedPayload) || errors.Is(err, ErrUndecodable)

	if permanent || msg.Attempt >= w.cfg.MaxAttempts {
		w.logger.ErrorContext(ctx, "sending to DLQ",
			"permanent", permanent,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			w.logger.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	w.logger.WarnContext(ctx, "requeuing failed message", "attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		w.logger.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
