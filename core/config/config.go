package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel      OTelConfig
	App       AppConfig
	WatsonAPI WatsonAPIConfig
	Weather   WeatherConfig
	Pipeline  PipelineConfig
	State     StateConfig
	Worker    WorkerConfig
	Env       string
	Port      string
}

// AppConfig identifies the Watson Work application the service acts as.
type AppConfig struct {
	ID            string
	Secret        string
	WebhookSecret string
}

type WatsonAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type WeatherConfig struct {
	BaseURL   string
	User      string
	Password  string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type PipelineConfig struct {
	RedisURL        string
	RedisStream     string
	RedisGroup      string
	RedisDLQStream  string
	RedisConsumer   string
	TraceHeaderName string
}

type StateConfig struct {
	Backend   string // "redis" or "memory"
	KeyPrefix string
	TTL       time.Duration // 0 keeps state until the store evicts it
}

type WorkerConfig struct {
	Concurrency int64
	MaxAttempts int
	LaneBuffer  int
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the webhook server
//   - .env.worker for the event worker
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("APP_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		App: AppConfig{
			ID:            getEnv("WEATHER_ACTIONS_APP_ID", ""),
			Secret:        getEnv("WEATHER_ACTIONS_APP_SECRET", ""),
			WebhookSecret: getEnv("WEATHER_ACTIONS_WEBHOOK_SECRET", ""),
		},
		WatsonAPI: WatsonAPIConfig{
			BaseURL: getEnv("WATSONWORK_API_URL", "https://api.watsonwork.ibm.com"),
			Timeout: getEnvDuration("WATSONWORK_API_TIMEOUT", 15*time.Second),
		},
		Weather: WeatherConfig{
			BaseURL:   getEnv("WEATHER_TWC_URL", "https://twcservice.mybluemix.net"),
			User:      getEnv("WEATHER_TWC_USER", ""),
			Password:  getEnv("WEATHER_TWC_PASSWORD", ""),
			Timeout:   getEnvDuration("WEATHER_TWC_TIMEOUT", 10*time.Second),
			RateLimit: getEnvFloat("TWC_RATE_LIMIT", 5),
			Burst:     getEnvInt("TWC_RATE_BURST", 10),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "watsonwork-weather"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		Pipeline: PipelineConfig{
			RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RedisStream:     getEnv("REDIS_STREAM", "weather_events"),
			RedisGroup:      getEnv("REDIS_CONSUMER_GROUP", "weather_group"),
			RedisDLQStream:  getEnv("REDIS_DLQ_STREAM", "weather_events_dlq"),
			RedisConsumer:   getEnv("REDIS_CONSUMER_NAME", "weather-worker"),
			TraceHeaderName: getEnv("TRACE_HEADER_NAME", "X-Trace-Id"),
		},
		State: StateConfig{
			Backend:   getEnv("STATE_BACKEND", "redis"),
			KeyPrefix: getEnv("STATE_KEY_PREFIX", "weather:state"),
			TTL:       getEnvDuration("STATE_TTL", 24*time.Hour),
		},
		Worker: WorkerConfig{
			Concurrency: int64(getEnvInt("WORKER_CONCURRENCY", 8)),
			MaxAttempts: getEnvInt("WORKER_MAX_ATTEMPTS", 3),
			LaneBuffer:  getEnvInt("WORKER_LANE_BUFFER", 100),
		},
	}

	if cfg.App.ID == "" {
		return Config{}, fmt.Errorf("WEATHER_ACTIONS_APP_ID is required")
	}

	switch serviceType {
	case ServiceTypeServer:
		if cfg.App.WebhookSecret == "" {
			return Config{}, fmt.Errorf("WEATHER_ACTIONS_WEBHOOK_SECRET is required")
		}
	case ServiceTypeWorker:
		if cfg.App.Secret == "" {
			return Config{}, fmt.Errorf("WEATHER_ACTIONS_APP_SECRET is required")
		}
		if !cfg.Weather.Enabled() {
			return Config{}, fmt.Errorf("WEATHER_TWC_USER and WEATHER_TWC_PASSWORD are required")
		}
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c WeatherConfig) Enabled() bool {
	return c.User != "" && c.Password != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
