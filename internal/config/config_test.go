package config

import (
	"reflect"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// App
	t.Setenv("DB_PATH", "docent.db")
	t.Setenv("IMAGE_DEPOT_PATH", "stills")
	t.Setenv("PROMPT_PATH", "p.txt")
	t.Setenv("CONTEXT_MAX_ITEMS", "5")

	// Collector
	t.Setenv("COLLECTOR_QUEUE_SIZE", "16")
	t.Setenv("COLLECTOR_WORKERS", "3")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Auth
	t.Setenv("JWT_SECRET", "unit-secret")
	t.Setenv("SESSION_VALIDITY", "48h")

	// Generative upstream
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("AI_TIMEOUT", "20s")
	t.Setenv("AI_TEMPERATURE", "0.4")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging fields unexpected: %+v", cfg)
	}

	// App
	if cfg.DBPath != "docent.db" || cfg.ImageDepotPath != "stills" || cfg.PromptPath != "p.txt" || cfg.ContextMaxItems != 5 {
		t.Fatalf("app fields unexpected: %+v", cfg)
	}

	// Collector
	if cfg.CollectorQueueSize != 16 || cfg.CollectorWorkers != 3 {
		t.Fatalf("collector fields unexpected: %+v", cfg)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// Auth
	if cfg.Session.Secret != "unit-secret" || cfg.Session.Validity != 48*time.Hour {
		t.Fatalf("session unexpected: %+v", cfg.Session)
	}

	// AI
	if cfg.AI.APIKey != "key" || cfg.AI.Timeout != 20*time.Second || cfg.AI.Temperature != 0.4 {
		t.Fatalf("ai unexpected: %+v", cfg.AI)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure ||
		cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Validation errors ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad log level", map[string]string{"LOG_LEVEL": "chatty"}},
		{"zero read timeout", map[string]string{"READ_TIMEOUT": "0s"}},
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"bad session validity", map[string]string{"SESSION_VALIDITY": "-1h"}},
		{"context max items", map[string]string{"CONTEXT_MAX_ITEMS": "0"}},
		{"collector queue", map[string]string{"COLLECTOR_QUEUE_SIZE": "0"}},
		{"collector workers", map[string]string{"COLLECTOR_WORKERS": "-1"}},
		{"negative rps", map[string]string{"RATE_RPS": "-1"}},
		{"zero burst", map[string]string{"RATE_BURST": "0"}},
		{"ai temperature", map[string]string{"AI_TEMPERATURE": "3.5"}},
		{"sampler ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// A secret is required for the baseline to be otherwise valid.
			t.Setenv("JWT_SECRET", "s")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

// --- Helpers ---

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"api":     "/api",
		"/api":    "/api",
		"/api/":   "/api",
		"api/v2/": "/api/v2",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("B1", "on")
	t.Setenv("B2", "OFF")
	t.Setenv("B3", "maybe")
	if !getbool("B1", false) || getbool("B2", true) || !getbool("B3", true) {
		t.Fatalf("getbool parsing wrong")
	}
}

func TestSplitCSV(t *testing.T) {
	if got := splitCSV(""); got != nil {
		t.Fatalf("empty input should be nil, got %#v", got)
	}
	got := splitCSV(" a ,, b,")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("splitCSV = %#v", got)
	}
}
