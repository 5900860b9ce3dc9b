package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entity is one recognized entity from Watson Work's NLP annotations.
type Entity struct {
	Type      string  `json:"type"`
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance,omitempty"`
	Count     int     `json:"count,omitempty"`
}

type ExtractedInfo struct {
	Entities []Entity `json:"entities"`
}

// FocusAnnotation marks a message as relevant to one or more of an app's actions.
type FocusAnnotation struct {
	Type          string        `json:"type"`
	ApplicationID string        `json:"applicationId"`
	Actions       []string      `json:"actions"`
	Lens          string        `json:"lens,omitempty"`
	Category      string        `json:"category,omitempty"`
	Phrase        string        `json:"phrase,omitempty"`
	Confidence    float64       `json:"confidence,omitempty"`
	ExtractedInfo ExtractedInfo `json:"extractedInfo"`
	Payload       FocusPayload  `json:"payload"`
}

// FocusPayload carries app-defined follow-up steps. Watson Work sends it either as an
// object or as a JSON document encoded in a string; both are accepted.
type FocusPayload struct {
	ActionNextSteps []string `json:"actionNextSteps,omitempty"`
}

func (p *FocusPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		if encoded == "" {
			return nil
		}
		data = []byte(encoded)
	}
	type plain FocusPayload
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("focus payload: %w", err)
	}
	*p = FocusPayload(out)
	return nil
}

// Entities returns the focus annotation's recognized entities, nil-safe.
func (f *FocusAnnotation) Entities() []Entity {
	if f == nil {
		return nil
	}
	return f.ExtractedInfo.Entities
}

// SelectionAnnotation records the action button a user pressed.
type SelectionAnnotation struct {
	Type              string `json:"type"`
	ActionID          string `json:"actionId"`
	TargetDialogID    string `json:"targetDialogId"`
	TargetUserID      string `json:"targetUserId"`
	TargetAppID       string `json:"targetAppId,omitempty"`
	ReferralMessageID string `json:"referralMessageId,omitempty"`
	ConversationID    string `json:"conversationId,omitempty"`
}

// EntitiesAnnotation lists the entities recognized in a message.
type EntitiesAnnotation struct {
	Type     string   `json:"type"`
	Language string   `json:"language,omitempty"`
	Entities []Entity `json:"entities"`
}

// Annotation is a decoded message annotation. Only the discriminating fields are
// lifted; Raw keeps the full document for typed decoding.
type Annotation struct {
	Type          string
	ApplicationID string
	Raw           json.RawMessage
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var head struct {
		Type          string `json:"type"`
		ApplicationID string `json:"applicationId"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	a.Type = head.Type
	a.ApplicationID = head.ApplicationID
	a.Raw = append(a.Raw[:0], data...)
	return nil
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	return json.Marshal(struct {
		Type          string `json:"type"`
		ApplicationID string `json:"applicationId,omitempty"`
	}{a.Type, a.ApplicationID})
}

// Focus decodes the annotation as a message-focus annotation.
func (a Annotation) Focus() (*FocusAnnotation, error) {
	if a.Type != AnnotationMessageFocus {
		return nil, fmt.Errorf("annotation type %q is not %s", a.Type, AnnotationMessageFocus)
	}
	var focus FocusAnnotation
	if err := json.Unmarshal(a.Raw, &focus); err != nil {
		return nil, fmt.Errorf("decoding focus annotation: %w", err)
	}
	return &focus, nil
}
