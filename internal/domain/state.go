package domain

// ConversationState is the dialog memory for one (space, user) pair.
type ConversationState struct {
	Message    *Message           `json:"message,omitempty"`
	Action     string             `json:"action,omitempty"`
	City       string             `json:"city,omitempty"`
	Conditions *WeatherConditions `json:"conditions,omitempty"`
	Forecast   *WeatherForecast   `json:"forecast,omitempty"`
}
