package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"API_PORT" envDefault:"8787"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	LogRequests bool   `env:"LOG_REQUESTS" envDefault:"false"`

	// CORS
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://deephand.pages.dev,http://localhost:5173"`

	// Notifications
	ContactEmail         string `env:"CONTACT_EMAIL" envDefault:"contact@deephandai.com"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@deephandai.com"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	MailDir              string `env:"MAIL_DIR" envDefault:"./data/mail"`
	TelegramBotToken     string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID       string `env:"TELEGRAM_CHAT_ID"`

	// Rate limiting
	MaxRequestsPerHour int     `env:"MAX_REQUESTS_PER_HOUR" envDefault:"10"`
	RedisURL           string  `env:"REDIS_URL"`
	AnalyticsRPS       float64 `env:"ANALYTICS_RPS" envDefault:"5"`
	AnalyticsBurst     int     `env:"ANALYTICS_BURST" envDefault:"20"`

	// Object storage
	StorageBucket    string `env:"FORM_STORAGE_BUCKET"`
	StorageRegion    string `env:"FORM_STORAGE_REGION" envDefault:"auto"`
	StorageEndpoint  string `env:"FORM_STORAGE_ENDPOINT"`
	StorageAccessKey string `env:"FORM_STORAGE_ACCESS_KEY_ID"`
	StorageSecretKey string `env:"FORM_STORAGE_SECRET_ACCESS_KEY"`
	StorageLocalDir  string `env:"FORM_STORAGE_LOCAL_DIR" envDefault:"./data/forms"`

	// Database Configuration
	DatabaseURL string `env:"DATABASE_URL"`

	// reCAPTCHA
	RecaptchaSecretKey string  `env:"RECAPTCHA_SECRET_KEY"`
	RecaptchaMinScore  float64 `env:"RECAPTCHA_MIN_SCORE" envDefault:"0.5"`

	// Telemetry Configuration
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Upper bound for each persist/notify/metric call
	DownstreamTimeout time.Duration `env:"DOWNSTREAM_TIMEOUT" envDefault:"10s"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads the configuration from environment variables and .env files
func Load() (*Config, error) {
	envLocations := []string{".env"}

	// If ENV is set, try to load that specific file first
	if envName := os.Getenv("ENV"); envName != "" {
		envLocations = append([]string{fmt.Sprintf(".env.%s", envName)}, envLocations...)
	}

	for _, loc := range envLocations {
		// godotenv.Load never overrides variables that are already set
		if err := godotenv.Load(loc); err == nil {
			break
		}
	}

	return Parse()
}

// Parse reads the configuration from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimRight(strings.TrimSpace(origin), "/")
	}

	if cfg.MaxRequestsPerHour <= 0 {
		return nil, fmt.Errorf("MAX_REQUESTS_PER_HOUR must be positive, got %d", cfg.MaxRequestsPerHour)
	}

	if cfg.LogFile == "" {
		if cfg.IsProduction() {
			cfg.LogFile = "/app/logs/api.log"
		} else {
			cfg.LogFile = "./logs/api.log"
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return cfg, nil
}
