package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	CoinCapBaseURL    string
	CoinCapAPIKey     string
	CoinCapRPM        int
	SearchPageSize    int
	SearchDebounceMs  int
	RequestTimeoutSec int
	CatalogCacheSecs  int
	DisplayTimezone   string
	IntervalOverrides string

	HTTPPort           int
	APIKey             string
	CORSAllowedOrigins []string
	SessionTTLMins     int
	SessionSweepSecs   int

	RedisURL         string
	TelegramBotToken string

	SSHPort                int
	SSHHostKeyPath         string
	SSHAllowedFingerprints []string

	MCPTransport string
	MCPHTTPBind  string
	MCPHTTPPort  int
}

func Load() *Config {
	cfg := &Config{
		CoinCapAPIKey:     os.Getenv("COINCAP_API_KEY"),
		APIKey:            os.Getenv("API_KEY"),
		RedisURL:          os.Getenv("REDIS_URL"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		IntervalOverrides: strings.TrimSpace(os.Getenv("INTERVAL_CODE_OVERRIDES")),
	}

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, asset catalog will not be cached")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.CoinCapBaseURL = strings.TrimSpace(os.Getenv("COINCAP_BASE_URL"))
	if cfg.CoinCapBaseURL == "" {
		cfg.CoinCapBaseURL = "https://api.coincap.io/v2"
	}

	cfg.CoinCapRPM = 120
	if v := strings.TrimSpace(os.Getenv("COINCAP_REQUESTS_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CoinCapRPM = n
		}
	}

	cfg.SearchPageSize = 1200
	if v := strings.TrimSpace(os.Getenv("SEARCH_PAGE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SearchPageSize = n
		}
	}

	cfg.SearchDebounceMs = 500
	if v := strings.TrimSpace(os.Getenv("SEARCH_DEBOUNCE_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SearchDebounceMs = n
		}
	}

	cfg.RequestTimeoutSec = 10
	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RequestTimeoutSec = n
		}
	}

	cfg.CatalogCacheSecs = 300
	if v := strings.TrimSpace(os.Getenv("CATALOG_CACHE_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CatalogCacheSecs = n
		}
	}

	cfg.DisplayTimezone = strings.TrimSpace(os.Getenv("DISPLAY_TIMEZONE"))
	if cfg.DisplayTimezone == "" {
		cfg.DisplayTimezone = "Local"
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.SessionTTLMins = 30
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL_MINS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLMins = n
		}
	}

	cfg.SessionSweepSecs = 60
	if v := strings.TrimSpace(os.Getenv("SESSION_SWEEP_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionSweepSecs = n
		}
	}

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/coinchart_ed25519"
	}

	cfg.SSHAllowedFingerprints = splitList(os.Getenv("SSH_ALLOWED_FINGERPRINTS"))
	if len(cfg.SSHAllowedFingerprints) == 0 {
		log.Println("Warning: SSH_ALLOWED_FINGERPRINTS not set, any public key may open the SSH form")
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	return cfg
}

// splitList parses a comma separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Location resolves DisplayTimezone. "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.DisplayTimezone == "" || c.DisplayTimezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.DisplayTimezone)
}
