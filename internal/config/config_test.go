package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"COINCAP_BASE_URL", "COINCAP_API_KEY", "COINCAP_REQUESTS_PER_MIN",
		"SEARCH_PAGE_SIZE", "SEARCH_DEBOUNCE_MS", "REQUEST_TIMEOUT_SECS",
		"CATALOG_CACHE_SECS", "DISPLAY_TIMEZONE", "INTERVAL_CODE_OVERRIDES",
		"HTTP_PORT", "API_KEY", "CORS_ALLOWED_ORIGINS", "SESSION_TTL_MINS",
		"SESSION_SWEEP_SECS", "REDIS_URL", "TELEGRAM_BOT_TOKEN", "SSH_PORT",
		"SSH_HOST_KEY_PATH", "SSH_ALLOWED_FINGERPRINTS", "MCP_TRANSPORT",
		"MCP_HTTP_BIND", "MCP_HTTP_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.CoinCapBaseURL != "https://api.coincap.io/v2" {
		t.Fatalf("expected default base url, got %s", cfg.CoinCapBaseURL)
	}
	if cfg.SearchPageSize != 1200 || cfg.SearchDebounceMs != 500 || cfg.RequestTimeoutSec != 10 {
		t.Fatalf("unexpected search defaults: %+v", cfg)
	}
	if cfg.DisplayTimezone != "Local" {
		t.Fatalf("expected Local timezone, got %s", cfg.DisplayTimezone)
	}
	if cfg.HTTPPort != 8080 || cfg.SSHPort != 2222 || cfg.MCPHTTPPort != 8090 {
		t.Fatalf("unexpected port defaults: %+v", cfg)
	}
	if cfg.SessionTTLMins != 30 || cfg.SessionSweepSecs != 60 {
		t.Fatalf("unexpected session defaults: %+v", cfg)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected stdio transport, got %s", cfg.MCPTransport)
	}
	if len(cfg.CORSAllowedOrigins) != 0 || len(cfg.SSHAllowedFingerprints) != 0 {
		t.Fatalf("expected empty lists: %+v", cfg)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("COINCAP_BASE_URL", "http://mirror/v2")
	t.Setenv("COINCAP_API_KEY", "key")
	t.Setenv("SEARCH_DEBOUNCE_MS", "250")
	t.Setenv("REQUEST_TIMEOUT_SECS", "3")
	t.Setenv("DISPLAY_TIMEZONE", "Europe/Berlin")
	t.Setenv("INTERVAL_CODE_OVERRIDES", "5 years=w1")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://charts.example ,")
	t.Setenv("SSH_ALLOWED_FINGERPRINTS", "SHA256:abc")
	t.Setenv("MCP_TRANSPORT", "HTTP")

	cfg := Load()
	if cfg.CoinCapBaseURL != "http://mirror/v2" || cfg.CoinCapAPIKey != "key" {
		t.Fatalf("unexpected upstream config: %+v", cfg)
	}
	if cfg.SearchDebounceMs != 250 || cfg.RequestTimeoutSec != 3 {
		t.Fatalf("unexpected timing config: %+v", cfg)
	}
	if cfg.DisplayTimezone != "Europe/Berlin" || cfg.IntervalOverrides != "5 years=w1" {
		t.Fatalf("unexpected display config: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://charts.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
	if len(cfg.SSHAllowedFingerprints) != 1 {
		t.Fatalf("unexpected fingerprints: %v", cfg.SSHAllowedFingerprints)
	}
	if cfg.MCPTransport != "http" {
		t.Fatalf("expected http transport, got %s", cfg.MCPTransport)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEARCH_DEBOUNCE_MS", "bad")
	t.Setenv("HTTP_PORT", "-1")
	t.Setenv("MCP_TRANSPORT", "carrier-pigeon")

	cfg := Load()
	if cfg.SearchDebounceMs != 500 {
		t.Fatalf("invalid debounce should fall back to default, got %d", cfg.SearchDebounceMs)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("invalid port should fall back to default, got %d", cfg.HTTPPort)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("unsupported transport should fall back to stdio, got %s", cfg.MCPTransport)
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{DisplayTimezone: "Local"}
	if loc, err := cfg.Location(); err != nil || loc != time.Local {
		t.Fatalf("expected local zone, got %v %v", loc, err)
	}

	cfg.DisplayTimezone = "UTC"
	if loc, err := cfg.Location(); err != nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %v %v", loc, err)
	}

	cfg.DisplayTimezone = "Mars/Olympus_Mons"
	if _, err := cfg.Location(); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}
