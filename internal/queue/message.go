package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/jsdelfino/watsonwork-weather/common/id"
	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

type Message struct {
	ID        string
	EventID   int64
	EventType string
	SpaceID   string
	UserID    string
	Body      []byte
	Attempt   int
	TraceID   string
	Raw       redis.XMessage
}

// MessageProcessor processes a queue message.
type MessageProcessor func(ctx context.Context, msg Message) error

// Event decodes the webhook body carried by the message.
func (m Message) Event() (domain.RawEvent, error) {
	return domain.DecodeRawEvent(m.Body)
}

// LaneKey groups messages whose handling must not interleave: one user's
// conversation in one space.
func (m Message) LaneKey() string {
	return m.SpaceID + ":" + m.UserID
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	rawID, err := parseString(msg.Values, "event_id")
	if err != nil {
		return Message{}, err
	}
	eventID, err := id.Parse(rawID)
	if err != nil {
		return Message{}, err
	}
	body, err := parseString(msg.Values, "body")
	if err != nil {
		return Message{}, err
	}
	if body == "" {
		return Message{}, fmt.Errorf("empty body")
	}

	eventType, err := parseOptionalString(msg.Values, "event_type")
	if err != nil {
		return Message{}, err
	}
	spaceID, err := parseOptionalString(msg.Values, "space_id")
	if err != nil {
		return Message{}, err
	}
	userID, err := parseOptionalString(msg.Values, "user_id")
	if err != nil {
		return Message{}, err
	}
	traceID, err := parseOptionalString(msg.Values, "trace_id")
	if err != nil {
		return Message{}, err
	}

	attempt, err := parseOptionalInt(msg.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt == 0 {
		attempt = 1
	}

	return Message{
		ID:        msg.ID,
		EventID:   eventID,
		EventType: eventType,
		SpaceID:   spaceID,
		UserID:    userID,
		Body:      []byte(body),
		Attempt:   attempt,
		TraceID:   traceID,
		Raw:       msg,
	}, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func parseOptionalString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}

func messageValues(msg Message, attempt int) map[string]any {
	values := map[string]any{
		"event_id":   msg.EventID,
		"event_type": msg.EventType,
		"space_id":   msg.SpaceID,
		"body":       string(msg.Body),
		"attempt":    attempt,
	}
	if msg.UserID != "" {
		values["user_id"] = msg.UserID
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}
	return values
}
