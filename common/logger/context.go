package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// The pipeline enriches the context as it learns more about an event (space, user,
// action), so every log line in a handling chain carries the conversation it belongs to.
type LogFields struct {
	EventID         *int64  // Snowflake id stamped at webhook ingress
	StreamMessageID *string // Redis stream message ID
	EventType       *string // Watson Work event type, e.g. "message-annotation-added"
	SpaceID         *string
	UserID          *string
	MessageID       *string // Watson Work message being correlated
	Action          *string // Action identifier, e.g. "Get_Weather_Conditions"
	Component       string  // Component name, e.g. "weather.brain.dialog"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.EventID != nil {
		result.EventID = new.EventID
	}
	if new.StreamMessageID != nil {
		result.StreamMessageID = new.StreamMessageID
	}
	if new.EventType != nil {
		result.EventType = new.EventType
	}
	if new.SpaceID != nil {
		result.SpaceID = new.SpaceID
	}
	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.Action != nil {
		result.Action = new.Action
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{SpaceID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
