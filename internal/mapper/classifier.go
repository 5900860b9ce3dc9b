package mapper

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

type WatsonWorkClassifier struct {
	appID string
}

func NewWatsonWorkClassifier(appID string) *WatsonWorkClassifier {
	return &WatsonWorkClassifier{appID: appID}
}

func (c *WatsonWorkClassifier) Classify(ctx context.Context, evt domain.RawEvent) (*ClassifiedAction, error) {
	return Classify(evt, c.appID)
}

// Classify is the pure classification rule behind WatsonWorkClassifier.
func Classify(evt domain.RawEvent, appID string) (*ClassifiedAction, error) {
	if evt.Type != domain.EventTypeAnnotationAdded {
		return nil, nil
	}

	switch evt.AnnotationType {
	case domain.AnnotationMessageFocus:
		return classifyFocus(evt, appID)
	case domain.AnnotationActionSelected:
		return classifySelection(evt, appID)
	case domain.AnnotationNLPEntities:
		return classifyEntities(evt)
	}

	return nil, nil
}

func classifyFocus(evt domain.RawEvent, appID string) (*ClassifiedAction, error) {
	var focus domain.FocusAnnotation
	if err := decodePayload(evt, &focus); err != nil {
		return nil, err
	}
	if focus.ApplicationID != appID {
		return nil, nil
	}

	if len(focus.Actions) > 0 && focus.Actions[0] != "" {
		return &ClassifiedAction{
			Kind:      KindActionIdentified,
			ActionID:  focus.Actions[0],
			MessageID: evt.MessageID,
			Focus:     &focus,
			Entities:  focus.ExtractedInfo.Entities,
		}, nil
	}

	if steps := focus.Payload.ActionNextSteps; len(steps) > 0 && steps[0] != "" {
		return &ClassifiedAction{
			Kind:      KindActionNextStep,
			ActionID:  steps[0],
			MessageID: evt.MessageID,
			Focus:     &focus,
			Entities:  focus.ExtractedInfo.Entities,
		}, nil
	}

	return nil, nil
}

func classifySelection(evt domain.RawEvent, appID string) (*ClassifiedAction, error) {
	var selection domain.SelectionAnnotation
	if err := decodePayload(evt, &selection); err != nil {
		return nil, err
	}
	if selection.TargetUserID != appID || selection.ActionID == "" {
		return nil, nil
	}

	messageID := selection.ReferralMessageID
	if messageID == "" {
		messageID = evt.MessageID
	}

	return &ClassifiedAction{
		Kind:      KindActionSelected,
		ActionID:  selection.ActionID,
		MessageID: messageID,
		UserID:    evt.UserID,
		Selection: &selection,
	}, nil
}

func classifyEntities(evt domain.RawEvent) (*ClassifiedAction, error) {
	var annotation domain.EntitiesAnnotation
	if err := decodePayload(evt, &annotation); err != nil {
		return nil, err
	}
	if len(annotation.Entities) == 0 {
		return nil, nil
	}

	return &ClassifiedAction{
		Kind:       KindEntitiesRecognized,
		MessageID:  evt.MessageID,
		Recognized: &annotation,
		Entities:   annotation.Entities,
	}, nil
}

func decodePayload(evt domain.RawEvent, v any) error {
	if err := json.Unmarshal([]byte(evt.AnnotationPayload), v); err != nil {
		return fmt.Errorf("%w: %s annotation on message %s: %v", ErrMalformedPayload, evt.AnnotationType, evt.MessageID, err)
	}
	return nil
}
