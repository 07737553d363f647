package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// withSecret sets the one key that has no usable default.
func withSecret(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	withSecret(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.WriteTimeout != 90*time.Second {
		t.Fatalf("server defaults unexpected: %+v", cfg)
	}
	if cfg.APIBasePath != "/api/v1" || cfg.LogLevel != "info" {
		t.Fatalf("logging/docs defaults unexpected: %+v", cfg)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "app.db" {
		t.Fatalf("db defaults unexpected: %+v", cfg.DB)
	}
	if cfg.Model.Name != "gemini-1.5-flash" || cfg.Model.MaxOutputTokens != 1000 || cfg.Model.Timeout != 60*time.Second {
		t.Fatalf("model defaults unexpected: %+v", cfg.Model)
	}
	if cfg.Model.TitleTimeout != 10*time.Second || cfg.WriteTimeout <= cfg.Model.Timeout+cfg.Model.TitleTimeout {
		t.Fatalf("default write timeout must cover a titled first turn: %+v", cfg.Model)
	}
	if cfg.Model.TitleMaxLen != 60 || cfg.Model.MaxPromptRunes != 4000 {
		t.Fatalf("prompt limits unexpected: %+v", cfg.Model)
	}
	if cfg.Auth.SessionCookie != "bibion_session" || !cfg.Auth.CookieSecure || cfg.Auth.GoogleEnabled() {
		t.Fatalf("auth defaults unexpected: %+v", cfg.Auth)
	}
	if cfg.Lock.RedisURL != "" || cfg.Lock.TTL != 30*time.Second {
		t.Fatalf("lock defaults unexpected: %+v", cfg.Lock)
	}
}

func TestLoad_Overrides_And_Normalization(t *testing.T) {
	withSecret(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("API_BASE_PATH", "v2/")
	t.Setenv("DB_DRIVER", "PostgreSQL")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/bibion")
	t.Setenv("GEMINI_MODEL", "gemini-pro")
	t.Setenv("MAX_OUTPUT_TOKENS", "512")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , ,http://b ")
	t.Setenv("ENABLE_HSTS", "yes")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("IDEMPOTENCY_TTL", "48h")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "sec")
	t.Setenv("GOOGLE_REDIRECT_URL", "http://localhost/auth/google/callback")
	t.Setenv("OTEL_ENABLED", "on")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9090" || cfg.GinMode != "release" || cfg.LogLevel != "warn" || cfg.APIBasePath != "/v2" {
		t.Fatalf("normalization unexpected: %+v", cfg)
	}
	if cfg.DB.Driver != "postgres" || cfg.DB.URL != "postgres://u:p@db/bibion" {
		t.Fatalf("db unexpected: %+v", cfg.DB)
	}
	if cfg.Model.Name != "gemini-pro" || cfg.Model.MaxOutputTokens != 512 {
		t.Fatalf("model unexpected: %+v", cfg.Model)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour || cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("security/idempotency unexpected: %+v", cfg)
	}
	if cfg.Lock.RedisURL != "redis://cache:6379/0" || !cfg.Auth.GoogleEnabled() {
		t.Fatalf("lock/auth unexpected: %+v %+v", cfg.Lock, cfg.Auth)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Insecure || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty PORT via spaces", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"non-positive timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"max header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"empty DB_PATH", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"max output tokens", map[string]string{"MAX_OUTPUT_TOKENS": "0"}, "MAX_OUTPUT_TOKENS"},
		{"model timeout", map[string]string{"MODEL_TIMEOUT": "0s"}, "MODEL_TIMEOUT"},
		{"title timeout", map[string]string{"TITLE_TIMEOUT": "0s"}, "TITLE_TIMEOUT"},
		{"write timeout below model budget", map[string]string{"MODEL_TIMEOUT": "60s", "TITLE_TIMEOUT": "30s", "WRITE_TIMEOUT": "90s"}, "WRITE_TIMEOUT must exceed"},
		{"title max len", map[string]string{"TITLE_MAX_LEN": "0"}, "TITLE_MAX_LEN"},
		{"short session secret", map[string]string{"SESSION_SECRET": "short"}, "SESSION_SECRET"},
		{"google half configured", map[string]string{"GOOGLE_CLIENT_ID": "cid"}, "GOOGLE_CLIENT_SECRET"},
		{"lock ttl", map[string]string{"LOCK_TTL": "0s"}, "LOCK_TTL"},
		{"hsts max age negative", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"idempotency ttl", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"otel sample ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withSecret(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got: %v", tc.want, err)
			}
		})
	}
}

func TestMustLoad_PanicsWithoutSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic when SESSION_SECRET is missing")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	withSecret(t)
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}
	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for _, v := range []string{"1", "TRUE", " yes ", "On"} {
		t.Setenv("B_T", v)
		if !getbool("B_T", false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for _, v := range []string{"0", "False", " no ", "off"} {
		t.Setenv("B_F", v)
		if getbool("B_F", true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_JUNK", "maybe")
	if !getbool("B_JUNK", true) {
		t.Fatalf("getbool should keep default on unknown value")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("GOOGLE_CLIENT_ID")
	os.Exit(m.Run())
}
