package service_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
	"github.com/jsdelfino/watsonwork-weather/internal/mapper"
	"github.com/jsdelfino/watsonwork-weather/internal/service"
)

const appID = "app-1"

type fakeMessages struct {
	messages map[string]*domain.Message
	err      error
	calls    []string
}

func (f *fakeMessages) FetchMessage(ctx context.Context, id string) (*domain.Message, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.messages[id], nil
}

type fakeUsers struct {
	users map[string]*domain.User
	err   error
	calls []string
}

func (f *fakeUsers) FetchUser(ctx context.Context, id string) (*domain.User, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func focusAnnotation(entities ...domain.Entity) domain.Annotation {
	raw, err := json.Marshal(domain.FocusAnnotation{
		Type:          domain.AnnotationMessageFocus,
		ApplicationID: appID,
		Actions:       []string{"Get_Weather_Conditions"},
		ExtractedInfo: domain.ExtractedInfo{Entities: entities},
	})
	Expect(err).NotTo(HaveOccurred())
	var a domain.Annotation
	Expect(json.Unmarshal(raw, &a)).To(Succeed())
	return a
}

var _ = Describe("CorrelationResolver", func() {
	var (
		ctx      context.Context
		messages *fakeMessages
		users    *fakeUsers
		resolver service.CorrelationResolver
		author   domain.User
		actor    domain.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		author = domain.User{ID: "user-author", DisplayName: "Author"}
		actor = domain.User{ID: "user-actor", DisplayName: "Jane Doe"}

		messages = &fakeMessages{messages: map[string]*domain.Message{
			"msg-1": {
				ID:          "msg-1",
				CreatedBy:   author,
				Content:     "what's the weather in Seattle, WA?",
				Annotations: []domain.Annotation{focusAnnotation(domain.Entity{Type: "City", Text: "Seattle"})},
			},
			"msg-app": {ID: "msg-app", CreatedBy: domain.User{ID: appID}},
		}}
		users = &fakeUsers{users: map[string]*domain.User{"user-actor": &actor}}
		resolver = service.NewCorrelationResolver(appID, messages, users, nil)
	})

	Describe("selected actions", func() {
		selection := func(messageID string) *mapper.ClassifiedAction {
			return &mapper.ClassifiedAction{
				Kind:      mapper.KindActionSelected,
				ActionID:  "Get_Weather_Conditions",
				MessageID: messageID,
				UserID:    "user-actor",
				Selection: &domain.SelectionAnnotation{ActionID: "Get_Weather_Conditions", TargetDialogID: "dialog-1", TargetUserID: appID},
			}
		}

		It("resolves the acting user and the app's focus on the message", func() {
			cc, err := resolver.Resolve(ctx, "space-1", selection("msg-1"))

			Expect(err).NotTo(HaveOccurred())
			Expect(cc.SpaceID).To(Equal("space-1"))
			Expect(cc.ActionID).To(Equal("Get_Weather_Conditions"))
			Expect(cc.Message.ID).To(Equal("msg-1"))
			Expect(cc.User).To(Equal(actor))
			Expect(cc.Selection.TargetDialogID).To(Equal("dialog-1"))
			Expect(cc.Focus).NotTo(BeNil())
			Expect(cc.Focus.Entities()).To(Equal([]domain.Entity{{Type: "City", Text: "Seattle"}}))
			Expect(users.calls).To(Equal([]string{"user-actor"}))
		})

		It("drops when the user cannot be fetched", func() {
			users.err = errors.New("unauthorized")

			_, err := resolver.Resolve(ctx, "space-1", selection("msg-1"))
			Expect(err).To(MatchError(service.ErrDropped))
		})

		It("drops when the user is unknown", func() {
			action := selection("msg-1")
			action.UserID = "user-missing"

			_, err := resolver.Resolve(ctx, "space-1", action)
			Expect(err).To(MatchError(service.ErrDropped))
		})
	})

	Describe("other kinds", func() {
		It("uses the message author and the classified focus", func() {
			focus := &domain.FocusAnnotation{ApplicationID: appID, Actions: []string{"Get_Weather_Forecast"}}

			cc, err := resolver.Resolve(ctx, "space-1", &mapper.ClassifiedAction{
				Kind:      mapper.KindActionIdentified,
				ActionID:  "Get_Weather_Forecast",
				MessageID: "msg-1",
				Focus:     focus,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(cc.User).To(Equal(author))
			Expect(cc.Focus).To(BeIdenticalTo(focus))
			Expect(cc.Selection).To(BeNil())
			Expect(users.calls).To(BeEmpty())
		})

		It("falls back to the focus found on the message", func() {
			cc, err := resolver.Resolve(ctx, "space-1", &mapper.ClassifiedAction{
				Kind:      mapper.KindEntitiesRecognized,
				MessageID: "msg-1",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(cc.Focus).NotTo(BeNil())
			Expect(cc.Focus.ApplicationID).To(Equal(appID))
		})
	})

	DescribeTable("drops messages authored by the app",
		func(kind mapper.ActionKind) {
			_, err := resolver.Resolve(ctx, "space-1", &mapper.ClassifiedAction{
				Kind:      kind,
				ActionID:  "Get_Weather_Conditions",
				MessageID: "msg-app",
				UserID:    "user-actor",
			})

			Expect(err).To(MatchError(service.ErrDropped))
			Expect(users.calls).To(BeEmpty())
		},
		Entry("identified", mapper.KindActionIdentified),
		Entry("selected", mapper.KindActionSelected),
		Entry("next step", mapper.KindActionNextStep),
		Entry("entities", mapper.KindEntitiesRecognized),
	)

	It("drops when the message cannot be fetched", func() {
		messages.err = errors.New("timeout")

		_, err := resolver.Resolve(ctx, "space-1", &mapper.ClassifiedAction{Kind: mapper.KindActionIdentified, MessageID: "msg-1"})
		Expect(err).To(MatchError(service.ErrDropped))
	})

	It("drops when the message does not exist", func() {
		_, err := resolver.Resolve(ctx, "space-1", &mapper.ClassifiedAction{Kind: mapper.KindActionIdentified, MessageID: "msg-gone"})
		Expect(err).To(MatchError(service.ErrDropped))
	})
})
