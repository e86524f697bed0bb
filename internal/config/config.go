package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/hikayahq/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (session registry)
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	// Account verification and password reset
	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"24h"`
	ResetTokenTTL       time.Duration `env:"RESET_TOKEN_TTL" envDefault:"30m"`

	// Payment provider
	PaymentProvider      string `env:"PAYMENT_PROVIDER" envDefault:"mock"`
	PaymentProviderURL   string `env:"PAYMENT_PROVIDER_URL" envDefault:"http://localhost:8091"`
	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET" envDefault:"whsec_dev_secret"`
	PaymentCurrency      string `env:"PAYMENT_CURRENCY" envDefault:"SAR"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Rate limiting for authentication endpoints (per client IP)
	AuthRateLimitRPS   int `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// Tracing
	OTELEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELSampling float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"1.0"`

	// pprof debug endpoints, restricted to these CIDRs (empty disables pprof)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.PaymentProvider != "mock" && cfg.PaymentProvider != "rest" {
		return nil, fmt.Errorf("invalid payment provider %q: must be mock or rest", cfg.PaymentProvider)
	}

	// In non-development environments, require explicitly set, strong secrets.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == "change-this-to-a-secure-secret" {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
		if cfg.PaymentWebhookSecret == "whsec_dev_secret" {
			return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
	}

	return cfg, nil
}

// RedisAddr returns the Redis address string.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
