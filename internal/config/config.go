package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" env-default:"info"`
	LogFile     string `env:"LOG_FILE"`

	LogLevel slog.Level

	Database DatabaseConfig
	RedisURL string `env:"REDIS_URL"`

	Casdoor CasdoorConfig
	Session SessionConfig
	Media   MediaConfig
	Kafka   KafkaConfig

	// Base URL the pages use to reach the JSON API
	APIBaseURL        string        `env:"API_BASE_URL"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:8080"`
	AuthRateLimit     int           `env:"AUTH_RATE_LIMIT_PER_MINUTE" env-default:"10"`
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" env-default:"15s"`
}

type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" env-default:"postgres"`
	URL    string `env:"DATABASE_URL"`
}

type CasdoorConfig struct {
	Endpoint     string `env:"CASDOOR_ENDPOINT"`
	ClientID     string `env:"CASDOOR_CLIENT_ID"`
	ClientSecret string `env:"CASDOOR_CLIENT_SECRET"`
	Cert         string `env:"CASDOOR_CERT"`
	Organization string `env:"CASDOOR_ORGANIZATION"`
	Application  string `env:"CASDOOR_APPLICATION"`
}

type SessionConfig struct {
	Secret     string        `env:"SESSION_SECRET"`
	TTL        time.Duration `env:"SESSION_TTL" env-default:"24h"`
	CookieName string        `env:"SESSION_COOKIE_NAME" env-default:"cnc_session"`
	Secure     bool          `env:"SESSION_COOKIE_SECURE" env-default:"false"`
}

type MediaConfig struct {
	Provider               string `env:"MEDIA_PROVIDER" env-default:"cloudinary"`
	CloudinaryCloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryUploadPreset string `env:"CLOUDINARY_UPLOAD_PRESET" env-default:"reward_items"`
	SupabaseURL            string `env:"SUPABASE_PROJECT_URL"`
	SupabaseKey            string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	SupabaseBucket         string `env:"SUPABASE_BUCKET" env-default:"reward-items"`
}

type KafkaConfig struct {
	Brokers       []string `env:"KAFKA_BROKERS" env-separator:","`
	Topic         string   `env:"KAFKA_TOPIC" env-default:"coin-admin.domain-events"`
	SessionTopic  string   `env:"KAFKA_SESSION_TOPIC" env-default:"coin-admin.session-events"`
	ConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" env-default:"coin-admin-service"`
}

// LoadConfig reads an optional .env file and then the process environment
func LoadConfig() (*Config, error) {
	// .env is optional outside development
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	level, err := parseLogLevel(c.LogLevelRaw)
	if err != nil {
		return err
	}
	c.LogLevel = level

	if c.APIBaseURL == "" {
		c.APIBaseURL = fmt.Sprintf("http://localhost:%s/api", c.Port)
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		if c.Database.Driver != "sqlite" {
			return errors.New("DATABASE_URL is required")
		}
		c.Database.URL = "coin_admin.db"
	}

	if c.Session.Secret == "" {
		if c.IsProduction() {
			return errors.New("SESSION_SECRET is required in production")
		}
		c.Session.Secret = "development-session-secret"
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLogLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}
