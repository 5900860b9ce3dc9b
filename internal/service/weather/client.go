package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jsdelfino/watsonwork-weather/common/logger"
	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

var ErrProvider = errors.New("weather provider")

const (
	language         = "en-US"
	units            = "e"
	maxResponseBytes = 1 << 20
)

type Config struct {
	BaseURL   string
	User      string
	Password  string
	Timeout   time.Duration
	RateLimit float64 // requests per second; 0 disables limiting
	Burst     int
}

// Client queries The Weather Company data service. Every lookup resolves the
// free-form city query to a location first, then fetches by geocode.
type Client struct {
	baseURL  string
	user     string
	password string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		user:     cfg.User,
		password: cfg.Password,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  limiter,
		logger:   logger,
	}
}

// Conditions returns the current observation for city. An unmatched city yields
// a result with a nil Geo and no error.
func (c *Client) Conditions(ctx context.Context, city string) (*domain.WeatherConditions, error) {
	geo, err := c.locate(ctx, city)
	if err != nil {
		return nil, err
	}
	if geo == nil {
		return &domain.WeatherConditions{}, nil
	}

	var body struct {
		Observation domain.Observation `json:"observation"`
	}
	if err := c.get(ctx, geocodePath(geo, "observations.json"), nil, &body); err != nil {
		return nil, fmt.Errorf("observations for %s: %w", city, err)
	}
	return &domain.WeatherConditions{Geo: geo, Observation: body.Observation}, nil
}

// Forecast returns the 5 day daily forecast for city, with the same unmatched
// city convention as Conditions.
func (c *Client) Forecast(ctx context.Context, city string) (*domain.WeatherForecast, error) {
	geo, err := c.locate(ctx, city)
	if err != nil {
		return nil, err
	}
	if geo == nil {
		return &domain.WeatherForecast{}, nil
	}

	var body struct {
		Forecasts []domain.DailyForecast `json:"forecasts"`
	}
	if err := c.get(ctx, geocodePath(geo, "forecast/daily/5day.json"), nil, &body); err != nil {
		return nil, fmt.Errorf("forecast for %s: %w", city, err)
	}
	return &domain.WeatherForecast{Geo: geo, Forecasts: body.Forecasts}, nil
}

type locationSearch struct {
	Location struct {
		City              []string  `json:"city"`
		AdminDistrictCode []string  `json:"adminDistrictCode"`
		Latitude          []float64 `json:"latitude"`
		Longitude         []float64 `json:"longitude"`
	} `json:"location"`
}

// locate resolves city to the best matching location, nil when nothing matches.
func (c *Client) locate(ctx context.Context, city string) (*domain.Geo, error) {
	var body locationSearch
	err := c.get(ctx, "/api/weather/v3/location/search", url.Values{"query": {city}}, &body)
	if errors.Is(err, errNotFound) {
		c.logger.DebugContext(ctx, "no location matches", "city", city)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("location search for %s: %w", city, err)
	}

	loc := body.Location
	if len(loc.City) == 0 || len(loc.Latitude) == 0 || len(loc.Longitude) == 0 {
		return nil, nil
	}
	geo := &domain.Geo{
		City:      loc.City[0],
		Latitude:  loc.Latitude[0],
		Longitude: loc.Longitude[0],
	}
	if len(loc.AdminDistrictCode) > 0 {
		geo.AdminDistrictCode = loc.AdminDistrictCode[0]
	}
	return geo, nil
}

func geocodePath(geo *domain.Geo, resource string) string {
	return fmt.Sprintf("/api/weather/v1/geocode/%s/%s/%s",
		strconv.FormatFloat(geo.Latitude, 'f', -1, 64),
		strconv.FormatFloat(geo.Longitude, 'f', -1, 64),
		resource)
}

var errNotFound = errors.New("not found")

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit: %v", ErrProvider, err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("language", language)
	if strings.HasPrefix(path, "/api/weather/v1/") {
		query.Set("units", units)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrProvider, err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrProvider, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %s: status %d: %s", ErrProvider, path, resp.StatusCode, logger.Truncate(string(raw), 200))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrProvider, path, err)
	}
	return nil
}
