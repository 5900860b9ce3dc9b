package mapper

import (
	"context"
	"errors"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

// ActionKind is the application-level meaning of an annotation event.
type ActionKind string

const (
	KindActionIdentified   ActionKind = "action_identified"
	KindActionSelected     ActionKind = "action_selected"
	KindActionNextStep     ActionKind = "action_next_step"
	KindEntitiesRecognized ActionKind = "entities_recognized"
)

// ErrMalformedPayload means an annotation payload could not be decoded. It is a
// platform contract violation and must not be retried.
var ErrMalformedPayload = errors.New("malformed annotation payload")

// ClassifiedAction is a raw event reduced to what the app needs to resolve it.
// Focus is set for identified and next-step actions, Selection and UserID for
// selected actions, Recognized for recognized entities.
type ClassifiedAction struct {
	Kind      ActionKind
	ActionID  string
	MessageID string
	UserID    string

	Focus      *domain.FocusAnnotation
	Selection  *domain.SelectionAnnotation
	Recognized *domain.EntitiesAnnotation
	Entities   []domain.Entity
}

// EventClassifier maps raw webhook events to classified actions. A nil action
// with a nil error means the event is not for this app and should be ignored.
type EventClassifier interface {
	Classify(ctx context.Context, evt domain.RawEvent) (*ClassifiedAction, error)
}
