package brain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jsdelfino/watsonwork-weather/common/logger"
	"github.com/jsdelfino/watsonwork-weather/common/metrics"
	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

// Action identifiers registered for the app in Watson Work.
const (
	ActionGetConditions   = "Get_Weather_Conditions"
	ActionGetForecast     = "Get_Weather_Forecast"
	ActionShareConditions = "Share_Weather_Conditions"
	ActionShareForecast   = "Share_Weather_Forecast"
	ActionDontShare       = "Dont_Share"
)

// ErrNoDialog is returned when a context has no selection, so there is no
// private dialog to answer in.
var ErrNoDialog = errors.New("no action dialog to respond to")

// WeatherProvider fetches weather for a free-form location query.
type WeatherProvider interface {
	Conditions(ctx context.Context, city string) (*domain.WeatherConditions, error)
	Forecast(ctx context.Context, city string) (*domain.WeatherForecast, error)
}

// Decision is the outcome of one dialog step. Messages are sent by the caller
// once the state write (when Save is set) has succeeded.
type Decision struct {
	Save    bool
	Space   []domain.ResponseMessage
	Private []domain.ResponseMessage
}

func (d *Decision) private(msg domain.ResponseMessage) {
	d.Private = append(d.Private, msg)
}

func (d *Decision) space(msg domain.ResponseMessage) {
	d.Space = append(d.Space, msg)
}

// Dialog drives the fetch → confirm → share conversation for one user.
type Dialog struct {
	weather WeatherProvider
	logger  *slog.Logger
}

func NewDialog(weather WeatherProvider, logger *slog.Logger) *Dialog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialog{weather: weather, logger: logger}
}

// Run advances st for the action in cc. st is always stamped with the current
// message and action; whether that is persisted is up to Decision.Save.
func (d *Dialog) Run(ctx context.Context, cc *domain.CorrelationContext, st *domain.ConversationState) (Decision, error) {
	if cc.Selection == nil {
		return Decision{}, ErrNoDialog
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Action:    logger.Ptr(cc.ActionID),
		Component: "weather.brain.dialog",
	})

	st.Message = cc.Message
	st.Action = cc.ActionID

	var decision Decision
	result := "noop"

	switch cc.ActionID {
	case ActionGetConditions:
		result = d.getConditions(ctx, cc, st, &decision)

	case ActionGetForecast:
		result = d.getForecast(ctx, st, &decision)

	case ActionDontShare:
		decision.private(NotSharing())
		decision.Save = true
		result = "not_shared"

	case ActionShareConditions:
		if st.Conditions == nil {
			decision.private(NothingToShare())
			result = "nothing_to_share"
		} else {
			decision.space(SharedConditions(cc.User, st.Conditions))
			decision.private(Shared())
			result = "shared"
		}
		decision.Save = true

	case ActionShareForecast:
		if st.Forecast == nil {
			decision.private(NothingToShare())
			result = "nothing_to_share"
		} else {
			decision.space(SharedForecast(cc.User, st.Forecast))
			decision.private(Shared())
			result = "shared"
		}
		decision.Save = true

	default:
		d.logger.DebugContext(ctx, "unknown action, state kept")
		decision.Save = true
	}

	metrics.DialogTransitions.WithLabelValues(cc.ActionID, result).Inc()
	d.logger.InfoContext(ctx, "dialog step",
		"result", result,
		"save", decision.Save,
		"city", st.City)

	return decision, nil
}

func (d *Dialog) getConditions(ctx context.Context, cc *domain.CorrelationContext, st *domain.ConversationState, decision *Decision) string {
	city, ok := ExtractLocation(cc.Focus.Entities())
	st.City = city
	if !ok {
		decision.private(MissingCity())
		return "missing_city"
	}

	start := time.Now()
	conditions, err := d.weather.Conditions(ctx, city)
	metrics.ProviderLatency.WithLabelValues("conditions").Observe(time.Since(start).Seconds())
	if err != nil {
		d.logger.WarnContext(ctx, "weather conditions request failed", "error", err, "city", city)
		decision.private(WeatherError())
		return "provider_error"
	}
	if !conditions.Resolved() {
		decision.private(CityNotFound(st.City))
		return "city_not_found"
	}

	st.Conditions = conditions
	decision.private(PrivateConditions(conditions))
	decision.Save = true
	return "conditions"
}

func (d *Dialog) getForecast(ctx context.Context, st *domain.ConversationState, decision *Decision) string {
	if st.City == "" {
		decision.private(MissingCity())
		return "missing_city"
	}

	start := time.Now()
	forecast, err := d.weather.Forecast(ctx, st.City)
	metrics.ProviderLatency.WithLabelValues("forecast").Observe(time.Since(start).Seconds())
	if err != nil {
		d.logger.WarnContext(ctx, "weather forecast request failed", "error", err, "city", st.City)
		decision.private(WeatherError())
		return "provider_error"
	}
	if !forecast.Resolved() {
		decision.private(CityNotFound(st.City))
		return "city_not_found"
	}

	st.Forecast = forecast
	decision.private(PrivateForecast(forecast))
	decision.Save = true
	return "forecast"
}
