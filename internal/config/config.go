package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	pkgconfig "github.com/alphabotai/webappshop/pkg/config"
)

// Payment step variants.
const (
	PaymentModeImmediate = "immediate"
	PaymentModeMethod    = "method"
	PaymentModeQR        = "qr"
)

// Order sink body formats.
const (
	SinkFormatJSON   = "json"
	SinkFormatScript = "script"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds all configuration for the storefront. It is read once at
// startup and not modified afterwards.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// Product source
	CatalogURL            string `env:"CATALOG_URL" envDefault:"https://opensheet.elk.sh/1Ar5wWUWsVSfzxI5ZTkBdMtwGjcC0zcHNNIc6hvQpRys/Sheet1"`
	CatalogTimeoutSeconds int    `env:"CATALOG_TIMEOUT_SECONDS" envDefault:"10"`

	// Order sink
	WebhookURL            string `env:"WEBHOOK_URL,required"`
	OrderSinkFormat       string `env:"ORDER_SINK_FORMAT" envDefault:"json"`
	WebhookTimeoutSeconds int    `env:"WEBHOOK_TIMEOUT_SECONDS" envDefault:"15"`

	// Description enhancer; disabled when the key is empty.
	EnhancerAPIKey         string `env:"ENHANCER_API_KEY"`
	EnhancerBaseURL        string `env:"ENHANCER_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	EnhancerModel          string `env:"ENHANCER_MODEL" envDefault:"gemini-2.0-flash"`
	EnhancerTimeoutSeconds int    `env:"ENHANCER_TIMEOUT_SECONDS" envDefault:"20"`

	// Host shell
	HostBotToken         string        `env:"HOST_BOT_TOKEN"`
	HostContextRequired  bool          `env:"HOST_CONTEXT_REQUIRED" envDefault:"false"`
	HostInitDataMaxAge   time.Duration `env:"HOST_INIT_DATA_MAX_AGE" envDefault:"24h"`
	AnonymousPlaceholder string        `env:"ANONYMOUS_PLACEHOLDER" envDefault:"anonymous"`

	// Payment step
	PaymentMode    string   `env:"PAYMENT_MODE" envDefault:"immediate"`
	PaymentMethods []string `env:"PAYMENT_METHODS" envDefault:"cash,card,transfer" envSeparator:","`
	PaymentQRURL   string   `env:"PAYMENT_QR_URL"`

	// Sessions
	SessionStore      string `env:"SESSION_STORE" envDefault:"memory"`
	SessionTTLMinutes int    `env:"SESSION_TTL_MINUTES" envDefault:"120"`
	SessionCookieKey  string `env:"SESSION_COOKIE_KEY" envDefault:"dev-only-insecure-cookie-key-change-me"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka; events are disabled when no broker is configured.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Per-client limit on the outbound-heavy routes (enhance, reload, submit).
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"5"`

	// Circuit breaker
	CBTimeoutSeconds int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio   float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests    uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CatalogTimeout returns the product source request timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutSeconds) * time.Second
}

// WebhookTimeout returns the order sink request timeout.
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutSeconds) * time.Second
}

// EnhancerTimeout returns the text generation request timeout.
func (c *Config) EnhancerTimeout() time.Duration {
	return time.Duration(c.EnhancerTimeoutSeconds) * time.Second
}

// SessionTTL returns how long an idle session is kept.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// EnhancerEnabled reports whether an API key was configured.
func (c *Config) EnhancerEnabled() bool {
	return c.EnhancerAPIKey != ""
}

// EventsEnabled reports whether Kafka brokers were configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	for name, raw := range map[string]string{"CATALOG_URL": c.CatalogURL, "WEBHOOK_URL": c.WebhookURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if !slices.Contains([]string{SinkFormatJSON, SinkFormatScript}, c.OrderSinkFormat) {
		return fmt.Errorf("invalid ORDER_SINK_FORMAT %q: must be json or script", c.OrderSinkFormat)
	}
	switch c.PaymentMode {
	case PaymentModeImmediate:
	case PaymentModeMethod:
		if len(c.PaymentMethods) == 0 {
			return fmt.Errorf("PAYMENT_METHODS is required when PAYMENT_MODE=method")
		}
	case PaymentModeQR:
		if c.PaymentQRURL == "" {
			return fmt.Errorf("PAYMENT_QR_URL is required when PAYMENT_MODE=qr")
		}
	default:
		return fmt.Errorf("invalid PAYMENT_MODE %q: must be immediate, method or qr", c.PaymentMode)
	}
	if !slices.Contains([]string{SessionStoreMemory, SessionStoreRedis}, c.SessionStore) {
		return fmt.Errorf("invalid SESSION_STORE %q: must be memory or redis", c.SessionStore)
	}
	if c.SessionTTLMinutes < 1 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}
	if len(c.SessionCookieKey) < 32 {
		return fmt.Errorf("SESSION_COOKIE_KEY must be at least 32 bytes")
	}
	for name, v := range map[string]int{
		"CATALOG_TIMEOUT_SECONDS":  c.CatalogTimeoutSeconds,
		"WEBHOOK_TIMEOUT_SECONDS":  c.WebhookTimeoutSeconds,
		"ENHANCER_TIMEOUT_SECONDS": c.EnhancerTimeoutSeconds,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.HostInitDataMaxAge < 0 {
		return fmt.Errorf("HOST_INIT_DATA_MAX_AGE must not be negative, got %v", c.HostInitDataMaxAge)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %v", c.OTELSampleRate)
	}
	return nil
}
