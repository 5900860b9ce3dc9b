package domain

// Geo is the location the weather provider resolved a city query to.
type Geo struct {
	City              string  `json:"city"`
	AdminDistrictCode string  `json:"adminDistrictCode"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
}

// Place renders "City, AdminDistrictCode".
func (g *Geo) Place() string {
	if g == nil {
		return ""
	}
	return g.City + ", " + g.AdminDistrictCode
}

type Observation struct {
	Temp        int    `json:"temp"`
	FeelsLike   int    `json:"feels_like"`
	WxPhrase    string `json:"wx_phrase"`
	TersePhrase string `json:"terse_phrase,omitempty"`
}

type WeatherConditions struct {
	Geo         *Geo        `json:"geo,omitempty"`
	Observation Observation `json:"observation"`
}

type DailyForecast struct {
	DOW       string `json:"dow"`
	MaxTemp   *int   `json:"max_temp"`
	MinTemp   *int   `json:"min_temp"`
	Narrative string `json:"narrative"`
}

type WeatherForecast struct {
	Geo       *Geo            `json:"geo,omitempty"`
	Forecasts []DailyForecast `json:"forecasts"`
}

// Resolved reports whether the provider matched the query to a city.
func (c *WeatherConditions) Resolved() bool {
	return c != nil && c.Geo != nil && c.Geo.City != ""
}

func (f *WeatherForecast) Resolved() bool {
	return f != nil && f.Geo != nil && f.Geo.City != ""
}
