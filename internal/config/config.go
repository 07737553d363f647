// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, the model gateway, sessions and
// observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/bibion-backend/internal/sysutil"
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

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "bibion-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the relational store.
type DBConfig struct {
	Driver string // sqlite|postgres
	Path   string // SQLite file path
	URL    string // Postgres DSN
}

// ModelConfig configures the generative-language gateway.
type ModelConfig struct {
	APIKey          string        // GEMINI_API_KEY
	Name            string        // GEMINI_MODEL
	MaxOutputTokens int           // token ceiling per generation
	Timeout         time.Duration // upper bound for one model call
	TitleTimeout    time.Duration // upper bound for the title call of a new chat
	PersonaPath     string        // optional file overriding the built-in persona
	MaxPromptRunes  int
	TitleMaxLen     int
}

// AuthConfig configures session tokens and the Google sign-in flow.
type AuthConfig struct {
	SessionSecret     string
	SessionCookie     string
	SessionTTL        time.Duration
	CookieSecure      bool
	GoogleClientID    string
	GoogleSecret      string
	GoogleRedirectURL string
	PostLoginRedirect string
	UserCacheTTL      time.Duration
}

// LockConfig configures per-chat serialization.
type LockConfig struct {
	RedisURL string        // empty selects the in-process locker
	TTL      time.Duration // lease for a held chat lock
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 90s, model calls are slow
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	Version           string

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogFile        string // optional rotating log file
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	DB    DBConfig
	Model ModelConfig
	Auth  AuthConfig
	Lock  LockConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
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

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		Version:           getenv("APP_VERSION", "dev"),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogFile:        getenv("LOG_FILE", ""),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "app.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		Model: ModelConfig{
			APIKey:          getenv("GEMINI_API_KEY", ""),
			Name:            getenv("GEMINI_MODEL", "gemini-1.5-flash"),
			MaxOutputTokens: getint("MAX_OUTPUT_TOKENS", 1000),
			Timeout:         getdur("MODEL_TIMEOUT", 60*time.Second),
			TitleTimeout:    getdur("TITLE_TIMEOUT", 10*time.Second),
			PersonaPath:     getenv("PERSONA_PATH", ""),
			MaxPromptRunes:  getint("MAX_PROMPT_RUNES", 4000),
			TitleMaxLen:     getint("TITLE_MAX_LEN", 60),
		},
		Auth: AuthConfig{
			SessionSecret:     getenv("SESSION_SECRET", ""),
			SessionCookie:     getenv("SESSION_COOKIE", "bibion_session"),
			SessionTTL:        getdur("SESSION_TTL", 30*24*time.Hour),
			CookieSecure:      getbool("COOKIE_SECURE", true),
			GoogleClientID:    getenv("GOOGLE_CLIENT_ID", ""),
			GoogleSecret:      getenv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL: getenv("GOOGLE_REDIRECT_URL", ""),
			PostLoginRedirect: getenv("POST_LOGIN_REDIRECT", "/"),
			UserCacheTTL:      getdur("USER_CACHE_TTL", 10*time.Minute),
		},
		Lock: LockConfig{
			RedisURL: getenv("REDIS_URL", ""),
			TTL:      getdur("LOCK_TTL", 30*time.Second),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "bibion-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DB.Driver == "postgresql" || cfg.DB.Driver == "pg" {
		cfg.DB.Driver = "postgres"
	}

	// --- validation ---
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
			return cfg, errors.New("DATABASE_URL must be set when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if strings.TrimSpace(cfg.Model.Name) == "" {
		return cfg, errors.New("GEMINI_MODEL must not be empty")
	}
	if cfg.Model.MaxOutputTokens <= 0 {
		return cfg, errors.New("MAX_OUTPUT_TOKENS must be > 0")
	}
	if cfg.Model.Timeout <= 0 {
		return cfg, errors.New("MODEL_TIMEOUT must be > 0")
	}
	if cfg.Model.TitleTimeout <= 0 {
		return cfg, errors.New("TITLE_TIMEOUT must be > 0")
	}
	// A first turn makes both calls before answering.
	if cfg.WriteTimeout <= cfg.Model.Timeout+cfg.Model.TitleTimeout {
		return cfg, errors.New("WRITE_TIMEOUT must exceed MODEL_TIMEOUT + TITLE_TIMEOUT")
	}
	if cfg.Model.MaxPromptRunes < 0 {
		return cfg, errors.New("MAX_PROMPT_RUNES must be >= 0")
	}
	if cfg.Model.TitleMaxLen < 1 {
		return cfg, errors.New("TITLE_MAX_LEN must be >= 1")
	}
	if len(cfg.Auth.SessionSecret) < 32 {
		return cfg, errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	if strings.TrimSpace(cfg.Auth.SessionCookie) == "" {
		return cfg, errors.New("SESSION_COOKIE must not be empty")
	}
	if cfg.Auth.SessionTTL <= 0 || cfg.Auth.UserCacheTTL <= 0 {
		return cfg, errors.New("SESSION_TTL and USER_CACHE_TTL must be > 0")
	}
	if cfg.Auth.GoogleClientID != "" && (cfg.Auth.GoogleSecret == "" || cfg.Auth.GoogleRedirectURL == "") {
		return cfg, errors.New("GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL are required with GOOGLE_CLIENT_ID")
	}
	if cfg.Lock.TTL <= 0 {
		return cfg, errors.New("LOCK_TTL must be > 0")
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

// GoogleEnabled reports whether the Google sign-in routes should be mounted.
func (c AuthConfig) GoogleEnabled() bool { return c.GoogleClientID != "" }

// ---- env helpers ----

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
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := sysutil.ParseBool(os.Getenv(k)); ok {
		return v
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
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
