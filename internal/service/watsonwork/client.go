package watsonwork

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

const (
	annotationColor  = "#6CB7FB"
	maxResponseBytes = 1 << 20
)

const messageQuery = `query FetchMessage($id: ID!) {
  message(id: $id) {
    id
    created
    createdBy {
      id
      extId
      email
      displayName
    }
    content
    annotations
  }
}`

const personQuery = `query FetchUser($id: ID!) {
  person(id: $id) {
    id
    extId
    email
    displayName
  }
}`

const createMessageMutation = `mutation SendToSpace($input: CreateMessageInput!) {
  createMessage(input: $input) {
    message {
      id
    }
  }
}`

const createTargetedMessageMutation = `mutation SendToPrivateDialog($input: CreateTargetedMessageInput!) {
  createTargetedMessage(input: $input) {
    successful
  }
}`

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the Watson Work GraphQL API as the app. It implements the
// message and user lookups the correlation resolver needs and the sends the
// pipeline makes.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger

	fetchMessage       document
	fetchUser          document
	sendToSpace        document
	sendToPrivateDialog document
}

// New builds a client authenticating every request with tokens from ts.
func New(cfg Config, ts oauth2.TokenSource, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/graphql",
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &oauth2.Transport{Source: ts, Base: http.DefaultTransport},
		},
		logger: logger,
	}

	var err error
	if c.fetchMessage, err = parseDocument("FetchMessage", messageQuery); err != nil {
		return nil, err
	}
	if c.fetchUser, err = parseDocument("FetchUser", personQuery); err != nil {
		return nil, err
	}
	if c.sendToSpace, err = parseDocument("SendToSpace", createMessageMutation); err != nil {
		return nil, err
	}
	// Targeted messages are still behind the BETA view.
	if c.sendToPrivateDialog, err = parseDocument("SendToPrivateDialog", createTargetedMessageMutation, "PUBLIC", "BETA"); err != nil {
		return nil, err
	}

	return c, nil
}

type messageData struct {
	Message *struct {
		ID          string      `json:"id"`
		Created     time.Time   `json:"created"`
		CreatedBy   domain.User `json:"createdBy"`
		Content     string      `json:"content"`
		Annotations []string    `json:"annotations"`
	} `json:"message"`
}

// FetchMessage returns the message with its annotations decoded, or nil when the
// API has no such message.
func (c *Client) FetchMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	var data messageData
	if err := c.do(ctx, c.fetchMessage, map[string]any{"id": messageID}, &data); err != nil {
		return nil, err
	}
	if data.Message == nil {
		return nil, nil
	}

	annotations, err := domain.DecodeAnnotations(data.Message.Annotations)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", messageID, err)
	}

	return &domain.Message{
		ID:          data.Message.ID,
		Created:     data.Message.Created,
		CreatedBy:   data.Message.CreatedBy,
		Content:     data.Message.Content,
		Annotations: annotations,
	}, nil
}

// FetchUser returns the person with the given id, or nil when unknown.
func (c *Client) FetchUser(ctx context.Context, userID string) (*domain.User, error) {
	var data struct {
		Person *domain.User `json:"person"`
	}
	if err := c.do(ctx, c.fetchUser, map[string]any{"id": userID}, &data); err != nil {
		return nil, err
	}
	return data.Person, nil
}

type genericAnnotation struct {
	Title   string          `json:"title"`
	Text    string          `json:"text"`
	Color   string          `json:"color"`
	Actor   *actor          `json:"actor,omitempty"`
	Buttons []buttonWrapper `json:"buttons,omitempty"`
}

type actor struct {
	Name string `json:"name"`
}

type buttonWrapper struct {
	PostbackButton postbackButton `json:"postbackButton"`
}

type postbackButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Style string `json:"style"`
}

type annotationInput struct {
	GenericAnnotation genericAnnotation `json:"genericAnnotation"`
}

func newAnnotation(msg domain.ResponseMessage) annotationInput {
	a := genericAnnotation{
		Title: msg.Title,
		Text:  msg.Text,
		Color: annotationColor,
	}
	if msg.Actor != "" {
		a.Actor = &actor{Name: msg.Actor}
	}
	for _, b := range msg.Buttons {
		style := b.Style
		if style == "" {
			style = domain.ButtonPrimary
		}
		a.Buttons = append(a.Buttons, buttonWrapper{PostbackButton: postbackButton{
			ID:    b.ID,
			Title: b.Label,
			Style: string(style),
		}})
	}
	return annotationInput{GenericAnnotation: a}
}

// SendToSpace posts msg to the space conversation.
func (c *Client) SendToSpace(ctx context.Context, spaceID string, msg domain.ResponseMessage) error {
	input := map[string]any{
		"conversationId": spaceID,
		"annotations":    []annotationInput{newAnnotation(msg)},
	}
	if err := c.do(ctx, c.sendToSpace, map[string]any{"input": input}, nil); err != nil {
		return fmt.Errorf("sending to space %s: %w", spaceID, err)
	}
	c.logger.DebugContext(ctx, "message sent to space", "space_id", spaceID, "title", msg.Title)
	return nil
}

// SendToPrivateDialog posts msg to the action dialog dialogID, visible to userID only.
func (c *Client) SendToPrivateDialog(ctx context.Context, spaceID, userID, dialogID string, msg domain.ResponseMessage) error {
	input := map[string]any{
		"conversationId": spaceID,
		"targetUserId":   userID,
		"targetDialogId": dialogID,
		"annotations":    []annotationInput{newAnnotation(msg)},
	}

	var data struct {
		CreateTargetedMessage struct {
			Successful bool `json:"successful"`
		} `json:"createTargetedMessage"`
	}
	if err := c.do(ctx, c.sendToPrivateDialog, map[string]any{"input": input}, &data); err != nil {
		return fmt.Errorf("sending to dialog %s: %w", dialogID, err)
	}
	if !data.CreateTargetedMessage.Successful {
		return fmt.Errorf("%w: targeted message to dialog %s not accepted", ErrGraphQL, dialogID)
	}
	c.logger.DebugContext(ctx, "message sent to dialog", "space_id", spaceID, "dialog_id", dialogID, "title", msg.Title)
	return nil
}
