// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the survey mode, the storage backend,
// rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Lookup resolves one variable; os.LookupEnv is the production source.
type Lookup func(key string) (string, bool)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-survey-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// SurveyConfig holds the questionnaire settings.
type SurveyConfig struct {
	TestMode         bool          // TEST_MODE, read once at startup
	PublicURL        string        // SURVEY_URL encoded in the QR code
	QRSize           int           // QR_SIZE in pixels
	StatsIncludeTest bool          // STATS_INCLUDE_TEST, defaults to TestMode
	SeedCount        int           // SEED_COUNT records per test-data batch
	DeviceCookieTTL  time.Duration // DEVICE_COOKIE_TTL
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver        string // sqlite|postgres|mysql|mongo|redis
	DBPath        string // DB_PATH (sqlite)
	DSN           string // DB_DSN (postgres, mysql)
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	Timeout       time.Duration // STORE_TIMEOUT per store call
}

// MDNSConfig controls LAN announcement of the HTTP service.
type MDNSConfig struct {
	Enabled  bool
	Instance string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	Survey SurveyConfig
	Store  StoreConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
	MDNS MDNSConfig
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds a Config from lookup, applying defaults and normalization.
// Unparseable numbers, booleans and durations fall back to their defaults.
// Every validation failure is reported, joined into one error.
func LoadFrom(lookup Lookup) (Config, error) {
	e := env(lookup)
	testMode := e.flag("TEST_MODE", false)
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.flag("LOG_PRETTY", false),
		SwaggerEnabled: e.flag("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		Survey: SurveyConfig{
			TestMode:         testMode,
			PublicURL:        strings.TrimSpace(e.str("SURVEY_URL", "http://localhost:8080/")),
			QRSize:           e.integer("QR_SIZE", 200),
			StatsIncludeTest: e.flag("STATS_INCLUDE_TEST", testMode),
			SeedCount:        e.integer("SEED_COUNT", 10),
			DeviceCookieTTL:  e.dur("DEVICE_COOKIE_TTL", 365*24*time.Hour),
		},
		Store: StoreConfig{
			Driver:        normalizeDriver(e.str("STORE_DRIVER", "sqlite")),
			DBPath:        e.str("DB_PATH", "survey.db"),
			DSN:           e.str("DB_DSN", ""),
			MongoURI:      e.str("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: e.str("MONGO_DATABASE", "survey"),
			RedisAddr:     e.str("REDIS_ADDR", "localhost:6379"),
			RedisPassword: e.str("REDIS_PASSWORD", ""),
			RedisDB:       e.integer("REDIS_DB", 0),
			RedisPrefix:   e.str("REDIS_PREFIX", "survey"),
			Timeout:       e.dur("STORE_TIMEOUT", 5*time.Second),
		},

		RateRPS:   e.number("RATE_RPS", 5.0),
		RateBurst: e.integer("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: e.flag("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.flag("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "go-survey-backend"),
			SampleRatio: e.number("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
		MDNS: MDNSConfig{
			Enabled:  e.flag("MDNS_ENABLED", false),
			Instance: e.str("MDNS_INSTANCE", "Encuesta de Satisfacción"),
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

	return cfg, cfg.Validate()
}

// Validate reports every invalid setting in c.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}
	check(c.Survey.PublicURL != "", "SURVEY_URL must not be empty")
	check(c.Survey.QRSize >= 64 && c.Survey.QRSize <= 2048, "QR_SIZE must be between 64 and 2048")
	check(c.Survey.SeedCount >= 1 && c.Survey.SeedCount <= 1000, "SEED_COUNT must be between 1 and 1000")
	check(c.Survey.DeviceCookieTTL > 0, "DEVICE_COOKIE_TTL must be > 0")
	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	check(!c.MDNS.Enabled || strings.TrimSpace(c.MDNS.Instance) != "",
		"MDNS_INSTANCE must not be empty when MDNS_ENABLED")

	return errors.Join(errs...)
}

// Validate checks the settings required by the selected driver.
func (sc StoreConfig) Validate() error {
	if sc.Timeout <= 0 {
		return errors.New("STORE_TIMEOUT must be > 0")
	}
	switch sc.Driver {
	case "sqlite":
		if strings.TrimSpace(sc.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres", "mysql":
		if strings.TrimSpace(sc.DSN) == "" {
			return fmt.Errorf("DB_DSN must be set when STORE_DRIVER=%s", sc.Driver)
		}
	case "mongo":
		if strings.TrimSpace(sc.MongoURI) == "" || strings.TrimSpace(sc.MongoDatabase) == "" {
			return errors.New("MONGO_URI and MONGO_DATABASE must not be empty")
		}
	case "redis":
		if strings.TrimSpace(sc.RedisAddr) == "" {
			return errors.New("REDIS_ADDR must not be empty")
		}
		if sc.RedisDB < 0 {
			return errors.New("REDIS_DB must be >= 0")
		}
	default:
		return errors.New("STORE_DRIVER must be one of: sqlite, postgres, mysql, mongo, redis")
	}
	return nil
}

func normalizeDriver(d string) string {
	switch d = strings.ToLower(strings.TrimSpace(d)); d {
	case "sqlite3":
		return "sqlite"
	case "postgresql", "pg":
		return "postgres"
	case "mongodb":
		return "mongo"
	}
	return d
}

// env reads typed values; empty strings count as unset.
type env Lookup

func (e env) raw(k string) (string, bool) {
	v, ok := e(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e env) str(k, def string) string {
	if v, ok := e(k); ok && v != "" {
		return v
	}
	return def
}

func (e env) integer(k string, def int) int {
	if v, ok := e.raw(k); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (e env) number(k string, def float64) float64 {
	if v, ok := e.raw(k); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (e env) flag(k string, def bool) bool {
	v, ok := e.raw(k)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on", "si", "sí":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func (e env) dur(k string, def time.Duration) time.Duration {
	if v, ok := e.raw(k); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath returns p with one leading slash and no trailing slash,
// or "/" for an empty path.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
