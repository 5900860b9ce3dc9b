package brain

import "github.com/jsdelfino/watsonwork-weather/internal/domain"

// Entity types recognized by Watson Work's NLP that name a place.
const (
	EntityCity          = "City"
	EntityCACity        = "CA-City"
	EntityStateOrCounty = "StateOrCounty"
)

// ExtractLocation combines the first city and state entities into a location
// query. A bare CA-City is qualified with ", CA". Returns false when no city
// entity is present.
func ExtractLocation(entities []domain.Entity) (string, bool) {
	city := firstOfType(entities, EntityCity)
	caCity := firstOfType(entities, EntityCACity)
	if city == "" && caCity == "" {
		return "", false
	}

	state := firstOfType(entities, EntityStateOrCounty)
	switch {
	case city != "" && state != "":
		return city + ", " + state, true
	case caCity != "":
		return caCity + ", CA", true
	default:
		return city, true
	}
}

func firstOfType(entities []domain.Entity, entityType string) string {
	for _, e := range entities {
		if e.Type == entityType {
			return e.Text
		}
	}
	return ""
}
