package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type User struct {
	ID          string `json:"id"`
	ExtID       string `json:"extId,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Message is a Watson Work message with its annotations decoded.
type Message struct {
	ID          string       `json:"id"`
	Created     time.Time    `json:"created"`
	CreatedBy   User         `json:"createdBy"`
	Content     string       `json:"content,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Focus returns the first message-focus annotation authored by appID, or nil.
func (m *Message) Focus(appID string) *FocusAnnotation {
	if m == nil {
		return nil
	}
	for _, a := range m.Annotations {
		if a.Type != AnnotationMessageFocus || a.ApplicationID != appID {
			continue
		}
		focus, err := a.Focus()
		if err != nil {
			continue
		}
		return focus
	}
	return nil
}

// DecodeAnnotations decodes the JSON strings the GraphQL API returns for a
// message's annotations.
func DecodeAnnotations(encoded []string) ([]Annotation, error) {
	annotations := make([]Annotation, 0, len(encoded))
	for i, s := range encoded {
		var a Annotation
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		annotations = append(annotations, a)
	}
	return annotations, nil
}
