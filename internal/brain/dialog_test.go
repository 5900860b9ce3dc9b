package brain_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jsdelfino/watsonwork-weather/internal/brain"
	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

type fakeWeather struct {
	conditions    *domain.WeatherConditions
	forecast      *domain.WeatherForecast
	err           error
	conditionsFor []string
	forecastFor   []string
}

func (f *fakeWeather) Conditions(ctx context.Context, city string) (*domain.WeatherConditions, error) {
	f.conditionsFor = append(f.conditionsFor, city)
	if f.err != nil {
		return nil, f.err
	}
	return f.conditions, nil
}

func (f *fakeWeather) Forecast(ctx context.Context, city string) (*domain.WeatherForecast, error) {
	f.forecastFor = append(f.forecastFor, city)
	if f.err != nil {
		return nil, f.err
	}
	return f.forecast, nil
}

var _ = Describe("Dialog", func() {
	var (
		ctx     context.Context
		weather *fakeWeather
		dialog  *brain.Dialog
		st      *domain.ConversationState
		user    domain.User
		msg     *domain.Message
	)

	selected := func(action string, entities ...domain.Entity) *domain.CorrelationContext {
		return &domain.CorrelationContext{
			SpaceID:  "space-1",
			ActionID: action,
			Message:  msg,
			Focus: &domain.FocusAnnotation{
				Type:          domain.AnnotationMessageFocus,
				ApplicationID: "app-1",
				Actions:       []string{action},
				ExtractedInfo: domain.ExtractedInfo{Entities: entities},
			},
			Selection: &domain.SelectionAnnotation{
				Type:           domain.AnnotationActionSelected,
				ActionID:       action,
				TargetDialogID: "dialog-1",
				TargetUserID:   "app-1",
			},
			User: user,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		weather = &fakeWeather{}
		dialog = brain.NewDialog(weather, nil)
		st = &domain.ConversationState{}
		user = domain.User{ID: "user-1", DisplayName: "Jane Doe"}
		msg = &domain.Message{ID: "msg-1", Content: "weather in Seattle?"}
	})

	It("requires a selection", func() {
		cc := selected(brain.ActionGetConditions)
		cc.Selection = nil

		_, err := dialog.Run(ctx, cc, st)
		Expect(err).To(MatchError(brain.ErrNoDialog))
	})

	Describe("getting conditions", func() {
		It("fetches conditions for the recognized city and offers to share", func() {
			weather.conditions = seattleConditions()

			d, err := dialog.Run(ctx, selected(brain.ActionGetConditions,
				domain.Entity{Type: "City", Text: "Seattle"},
				domain.Entity{Type: "StateOrCounty", Text: "WA"},
			), st)

			Expect(err).NotTo(HaveOccurred())
			Expect(weather.conditionsFor).To(Equal([]string{"Seattle, WA"}))
			Expect(d.Save).To(BeTrue())
			Expect(d.Space).To(BeEmpty())
			Expect(d.Private).To(Equal([]domain.ResponseMessage{brain.PrivateConditions(seattleConditions())}))
			Expect(st.City).To(Equal("Seattle, WA"))
			Expect(st.Conditions).To(Equal(seattleConditions()))
			Expect(st.Message).To(Equal(msg))
			Expect(st.Action).To(Equal(brain.ActionGetConditions))
		})

		It("asks for a city when none was recognized", func() {
			d, err := dialog.Run(ctx, selected(brain.ActionGetConditions), st)

			Expect(err).NotTo(HaveOccurred())
			Expect(weather.conditionsFor).To(BeEmpty())
			Expect(d.Save).To(BeFalse())
			Expect(d.Private).To(Equal([]domain.ResponseMessage{brain.MissingCity()}))
		})

		It("reports an unknown city without saving", func() {
			weather.conditions = &domain.WeatherConditions{}

			d, err := dialog.Run(ctx, selected(brain.ActionGetConditions,
				domain.Entity{Type: "City", Text: "Atlantis"}), st)

			Expect(err).NotTo(HaveOccurred())
			Expect(d.Save).To(BeFalse())
			Expect(d.Private).To(Equal([]domain.ResponseMessage{brain.CityNotFound("Atlantis")}))
		})

		It("apologizes when the provider fails", func() {
			weather.err = errors.New("connection refused")

			d, err := dialog.Run(ctx, selected(brain.ActionGetConditions,
				domain.Entity{Type: "City", Text: "Seattle"}), st)

			Expect(err).NotTo(HaveOccurred())
			Expect(d.Save).To(BeFalse())
			Expect(d.Private).To(Equal([]domain.ResponseMessage{brain.WeatherError()}))
		})
	})

	Describe("getting the forecast", func() {
		It("uses the city remembered from the conditions step", func() {
			st.City = "Austin, TX"
			weather.forecast = austinForecast()

			d, err := dialog.Run(ctx, selected(brain.ActionGetForecast), st)

			Expect(err).NotTo(HaveOccurred())
			Expect(weather.forecastFor).To(Equal([]string{"Austin, TX"}))
			Expect(d.Save).To(BeTrue())
			Expect(d.Private).To(HaveLen(1))
			Expect(d.Private[0].Buttons).To(Equal([]domain.Button{
				{ID: brain.ActionShareForecast, Label: "Yes, Share with Space", Style: domain.ButtonPrimary},
				{ID: brain.ActionDontShare, Label: "No, Thanks", Style: domain.ButtonSecondary},
			}))
			Expect(st.Forecast).To(Equal(austinForecast()))
		})

		It("asks for a city when none is remembered", func() {
			d, err := dialog.Run(ctx, selected(brain.ActionGetForecast), st)

			Expect(err).NotTo(HaveOccurred())
			Expect(weather.forecastFor).To(BeEmpty())
			Expect(d.Save).To(BeFalse())
			Expect(d.Private).To(Equal([]domain.ResponseMessage{brain.MissingCity()}))
		})
	})

	Describe("sharing", func() {
		It("broadcasts remembered conditions as the user", func() {
			st.Conditions = seattleConditions()

			d, err := dialog.Run(ctx, selected(brain.ActionShareConditions), st)

			Expect(err).NotTo(HaveOccurred())
			Expect(d.Save).To(BeTrue())
			Expect(d.Space).To(HaveLen(1))
			Expect(d.Space[0].Actor).To(Equal("Jane Doe"))
			Expect(d.Space[0].Text).To(Equal(brain.ConditionsText(seattleConditions())))
			Expect(d.Private).To(Equal([]domain.ResponseMessage{brain.Shared()}))
		})

		It("broadcasts the remembered forecast", func() {
			st.Forecast = austinForecast()

			d, err := dialog.Run(ctx, selected(brain.ActionShareForecast), st)

			Expect(err).NotTo(HaveOccurred())
			Expect(d.Space).To(Equal([]domain.ResponseMessage{brain.SharedForecast(user, austinForecast())}))
			Expect(d.Private).To(Equal([]domain.ResponseMessage{brain.Shared()}))
		})

		DescribeTable("has nothing to share before a fetch",
			func(action string) {
				d, err := dialog.Run(ctx, selected(action), st)

				Expect(err).NotTo(HaveOccurred())
				Expect(d.Save).To(BeTrue())
				Expect(d.Space).To(BeEmpty())
				Expect(d.Private).To(Equal([]domain.ResponseMessage{brain.NothingToShare()}))
			},
			Entry("conditions", brain.ActionShareConditions),
			Entry("forecast", brain.ActionShareForecast),
		)

		It("acknowledges a decline", func() {
			st.Conditions = seattleConditions()

			d, err := dialog.Run(ctx, selected(brain.ActionDontShare), st)

			Expect(err).NotTo(HaveOccurred())
			Expect(d.Save).To(BeTrue())
			Expect(d.Space).To(BeEmpty())
			Expect(d.Private).To(Equal([]domain.ResponseMessage{brain.NotSharing()}))
			Expect(st.Conditions).To(Equal(seattleConditions()))
		})
	})

	It("saves without replying for an unknown action", func() {
		d, err := dialog.Run(ctx, selected("Get_Tide_Tables"), st)

		Expect(err).NotTo(HaveOccurred())
		Expect(d.Save).To(BeTrue())
		Expect(d.Space).To(BeEmpty())
		Expect(d.Private).To(BeEmpty())
		Expect(st.Action).To(Equal("Get_Tide_Tables"))
	})
})
