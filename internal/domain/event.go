package domain

import "encoding/json"

// Watson Work webhook event types.
const (
	EventTypeVerification    = "verification"
	EventTypeMessageCreated  = "message-created"
	EventTypeAnnotationAdded = "message-annotation-added"
)

// Annotation types the app reacts to.
const (
	AnnotationMessageFocus   = "message-focus"
	AnnotationActionSelected = "actionSelected"
	AnnotationNLPEntities    = "message-nlp-entities"
)

// RawEvent is one webhook delivery as sent by Watson Work. AnnotationPayload is
// itself a JSON document encoded as a string.
type RawEvent struct {
	Type              string `json:"type"`
	AnnotationType    string `json:"annotationType,omitempty"`
	AnnotationPayload string `json:"annotationPayload,omitempty"`
	AnnotationID      string `json:"annotationId,omitempty"`
	SpaceID           string `json:"spaceId,omitempty"`
	MessageID         string `json:"messageId,omitempty"`
	UserID            string `json:"userId,omitempty"`
	Time              int64  `json:"time,omitempty"`
	Challenge         string `json:"challenge,omitempty"`
}

// DecodeRawEvent parses a webhook body.
func DecodeRawEvent(body []byte) (RawEvent, error) {
	var evt RawEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return RawEvent{}, err
	}
	return evt, nil
}
