package domain

// CorrelationContext is everything the dialog needs about one event: the action,
// the message it concerns, the app's focus annotation on that message, the
// selection that triggered it (selected actions only) and the acting user, who is
// never the app itself.
type CorrelationContext struct {
	SpaceID   string
	ActionID  string
	Message   *Message
	Focus     *FocusAnnotation
	Selection *SelectionAnnotation
	User      User
}
