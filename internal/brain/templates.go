package brain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

const (
	shareLabel     = "Yes, Share with Space"
	dontShareLabel = "No, Thanks"

	// Watson Work rejects generic annotations with empty text.
	blankText = " "
)

func ConditionsText(w *domain.WeatherConditions) string {
	o := w.Observation
	text := fmt.Sprintf("%s\n%dF Feels like %dF\n%s", w.Geo.Place(), o.Temp, o.FeelsLike, o.WxPhrase)
	if o.TersePhrase != "" {
		text += ". " + o.TersePhrase
	}
	return text
}

func PrivateConditions(w *domain.WeatherConditions) domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: fmt.Sprintf("Here are the Weather conditions in %s. Would you like to share this with the space?", w.Geo.Place()),
		Text:  ConditionsText(w),
		Buttons: []domain.Button{
			{ID: ActionShareConditions, Label: shareLabel, Style: domain.ButtonPrimary},
			{ID: ActionDontShare, Label: dontShareLabel, Style: domain.ButtonSecondary},
		},
	}
}

func SharedConditions(user domain.User, w *domain.WeatherConditions) domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: fmt.Sprintf("Weather conditions in %s.", w.Geo.Place()),
		Text:  ConditionsText(w),
		Actor: user.DisplayName,
	}
}

func ForecastText(w *domain.WeatherForecast) string {
	var b strings.Builder
	b.WriteString(w.Geo.Place())
	for _, f := range w.Forecasts {
		narrative, _, _ := strings.Cut(f.Narrative, ".")
		fmt.Fprintf(&b, "\n%s %sF %sF %s", dayAbbrev(f.DOW), temp(f.MaxTemp), temp(f.MinTemp), narrative)
	}
	return b.String()
}

func PrivateForecast(w *domain.WeatherForecast) domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: fmt.Sprintf("Here's the Weather forecast for %s. Would you like to share this with the space?", w.Geo.Place()),
		Text:  ForecastText(w),
		Buttons: []domain.Button{
			{ID: ActionShareForecast, Label: shareLabel, Style: domain.ButtonPrimary},
			{ID: ActionDontShare, Label: dontShareLabel, Style: domain.ButtonSecondary},
		},
	}
}

func SharedForecast(user domain.User, w *domain.WeatherForecast) domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: fmt.Sprintf("Weather forecast for %s.", w.Geo.Place()),
		Text:  ForecastText(w),
		Actor: user.DisplayName,
	}
}

func Shared() domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: "Your message was successfully shared with the space.",
		Text:  blankText,
	}
}

func NotSharing() domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: "OK, nothing will be shared with the space.",
		Text:  blankText,
	}
}

func NothingToShare() domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: "There is no weather report to share yet.",
		Text:  "Ask me for the weather conditions or the forecast first.",
	}
}

func MissingCity() domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: "I can get the weather for you but I need a city name.",
		Text:  "You can say San Francisco, or San Diego for example.",
	}
}

func CityNotFound(city string) domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: fmt.Sprintf("I couldn't find %s, I need a valid city.", city),
		Text:  blankText,
	}
}

func WeatherError() domain.ResponseMessage {
	return domain.ResponseMessage{
		Title: "Sorry, I couldn't get the weather right now.",
		Text:  "The weather service is not responding. Please try again later.",
	}
}

func temp(t *int) string {
	if t == nil {
		return "--"
	}
	return strconv.Itoa(*t)
}

func dayAbbrev(dow string) string {
	r := []rune(dow)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}
