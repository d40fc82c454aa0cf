// Package config loads the booking service configuration from environment
// variables, applying defaults and validating the result. Everything the
// process needs at startup lives here: server timeouts, logging, database
// selection, the external calendar, LINE credentials, the slot cache, the
// event broker and tracing.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and locates the booking store.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // sqlite file path
	URL    string // postgres DSN (DATABASE_URL)
}

// CalendarConfig points at the shared Google calendar.
type CalendarConfig struct {
	// CredentialsJSON holds the service account key, either inline JSON or a
	// path to a JSON file.
	CredentialsJSON string
	CalendarID      string
	Endpoint        string // optional API endpoint override
	Timeout         time.Duration
}

// LINEConfig holds Messaging API credentials.
type LINEConfig struct {
	ChannelAccessToken string
	ChannelSecret      string
	Endpoint           string // optional API endpoint override
}

// CacheConfig configures the busy-slot cache. Empty RedisAddr disables it.
type CacheConfig struct {
	RedisAddr string
	SlotTTL   time.Duration
}

// EventsConfig selects where booking lifecycle events go.
type EventsConfig struct {
	Broker       string // none|kafka|amqp
	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPExchange string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// Booking
	DB             DBConfig
	Calendar       CalendarConfig
	StoreTimeout   time.Duration
	SalonUTCOffset int // hours east of UTC
	AdminSecret    string

	// Integrations
	LINE   LINEConfig
	Cache  CacheConfig
	Events EventsConfig

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	IdempotencyTTL time.Duration

	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 45*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "bookings.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		Calendar: CalendarConfig{
			CredentialsJSON: getenv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
			CalendarID:      getenv("GOOGLE_CALENDAR_ID", "primary"),
			Endpoint:        getenv("GOOGLE_CALENDAR_ENDPOINT", ""),
			Timeout:         getdur("CALENDAR_TIMEOUT", 10*time.Second),
		},
		StoreTimeout:   getdur("STORE_TIMEOUT", 5*time.Second),
		SalonUTCOffset: getint("SALON_UTC_OFFSET_HOURS", 8),
		AdminSecret:    getenv("ADMIN_SECRET", ""),

		LINE: LINEConfig{
			ChannelAccessToken: getenv("LINE_CHANNEL_ACCESS_TOKEN", ""),
			ChannelSecret:      getenv("LINE_CHANNEL_SECRET", ""),
			Endpoint:           getenv("LINE_API_ENDPOINT", ""),
		},
		Cache: CacheConfig{
			RedisAddr: getenv("REDIS_ADDR", ""),
			SlotTTL:   getdur("SLOT_CACHE_TTL", 30*time.Second),
		},
		Events: EventsConfig{
			Broker:       strings.ToLower(getenv("EVENTS_BROKER", "none")),
			KafkaBrokers: splitCSV(getenv("KAFKA_BROKERS", "")),
			KafkaTopic:   getenv("KAFKA_TOPIC", "salon.bookings"),
			AMQPURL:      getenv("AMQP_URL", ""),
			AMQPExchange: getenv("AMQP_EXCHANGE", "salon.bookings"),
		},

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "salon-booking"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" {
		cfg.DB.Driver = "postgres"
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if strings.TrimSpace(cfg.Calendar.CalendarID) == "" {
		return cfg, errors.New("GOOGLE_CALENDAR_ID must not be empty")
	}
	if cfg.Calendar.Timeout <= 0 || cfg.StoreTimeout <= 0 {
		return cfg, errors.New("CALENDAR_TIMEOUT and STORE_TIMEOUT must be > 0")
	}
	if cfg.SalonUTCOffset < -12 || cfg.SalonUTCOffset > 14 {
		return cfg, errors.New("SALON_UTC_OFFSET_HOURS must be in [-12,14]")
	}
	if cfg.Cache.SlotTTL < 0 {
		return cfg, errors.New("SLOT_CACHE_TTL must be >= 0")
	}
	switch cfg.Events.Broker {
	case "none", "":
		cfg.Events.Broker = "none"
	case "kafka":
		if len(cfg.Events.KafkaBrokers) == 0 || cfg.Events.KafkaTopic == "" {
			return cfg, errors.New("KAFKA_BROKERS and KAFKA_TOPIC are required when EVENTS_BROKER=kafka")
		}
	case "amqp":
		if cfg.Events.AMQPURL == "" || cfg.Events.AMQPExchange == "" {
			return cfg, errors.New("AMQP_URL and AMQP_EXCHANGE are required when EVENTS_BROKER=amqp")
		}
	default:
		return cfg, errors.New("EVENTS_BROKER must be one of: none, kafka, amqp")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// SalonLocation returns the fixed-offset zone bookings are expressed in.
func (c Config) SalonLocation() *time.Location {
	return time.FixedZone("salon", c.SalonUTCOffset*3600)
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips a trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
