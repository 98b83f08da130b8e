// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Telemetry exporters accepted by OTEL_EXPORTER.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken     string
	DatabaseURL          string
	ZakaatAPIBaseURL     string
	ZakaatAPIToken       string
	ZakaatAPITimeout     time.Duration
	RateCacheTTL         time.Duration
	RateRefreshInterval  time.Duration
	DefaultCurrency      string
	GeminiAPIKey         string
	LogLevel             string
	LogFormat            string
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
	OTelExporter         string
	OTelServiceName      string

	bindMu        sync.Mutex
	usernameBinds map[string]int64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		ZakaatAPIBaseURL: strings.TrimSpace(os.Getenv("ZAKAAT_API_BASE_URL")),
		ZakaatAPIToken:   os.Getenv("ZAKAAT_API_TOKEN"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
		OTelServiceName:  strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")),
	}

	cfg.ZakaatAPITimeout = durationEnv("ZAKAAT_API_TIMEOUT", 10*time.Second)
	cfg.RateCacheTTL = durationEnv("RATE_CACHE_TTL", 12*time.Hour)
	cfg.RateRefreshInterval = durationEnv("RATE_REFRESH_INTERVAL", time.Hour)

	cfg.DefaultCurrency = strings.ToUpper(strings.TrimSpace(os.Getenv("DEFAULT_CURRENCY")))
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	if cfg.OTelServiceName == "" {
		cfg.OTelServiceName = "zakaat-bot"
	}
	cfg.OTelExporter = strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_EXPORTER")))
	if cfg.OTelExporter == "" {
		cfg.OTelExporter = ExporterNone
	}

	whitelistStr := os.Getenv("WHITELISTED_USER_IDS")
	if whitelistStr != "" {
		for idStr := range strings.SplitSeq(whitelistStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
		}
	}

	whitelistUsernames := os.Getenv("WHITELISTED_USERNAMES")
	if whitelistUsernames != "" {
		for username := range strings.SplitSeq(whitelistUsernames, ",") {
			username = strings.TrimSpace(username)
			if username == "" {
				continue
			}
			username = strings.TrimPrefix(username, "@")
			cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// durationEnv parses a Go duration, falling back to def on absence or error.
func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.ZakaatAPIBaseURL == "" {
		errs = append(errs, "ZAKAAT_API_BASE_URL is required")
	}

	if !isCurrencyCode(c.DefaultCurrency) {
		errs = append(errs, fmt.Sprintf("DEFAULT_CURRENCY %q is not a 3-letter currency code", c.DefaultCurrency))
	}

	switch c.OTelExporter {
	case ExporterNone, ExporterStdout, ExporterOTLPHTTP, ExporterOTLPGRPC:
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q must be one of none, stdout, otlp-http, otlp-grpc", c.OTelExporter))
	}

	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT %q must be console or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsOpen reports whether no whitelist is configured, in which case every
// Telegram user may use the bot.
func (c *Config) IsOpen() bool {
	return len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0
}

// IsUserWhitelisted checks if a Telegram user ID or username is allowed.
// A whitelisted username binds to the first user ID that presents it, so a
// recycled username cannot be reused by someone else.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if c.IsOpen() {
		return true
	}

	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	username = strings.ToLower(strings.TrimPrefix(username, "@"))
	if username == "" {
		return false
	}
	matched := slices.ContainsFunc(c.WhitelistedUsernames, func(w string) bool {
		return strings.EqualFold(w, username)
	})
	if !matched {
		return false
	}

	c.bindMu.Lock()
	defer c.bindMu.Unlock()
	if c.usernameBinds == nil {
		c.usernameBinds = make(map[string]int64)
	}
	bound, ok := c.usernameBinds[username]
	if !ok {
		if userID != 0 {
			c.usernameBinds[username] = userID
		}
		return true
	}
	return bound == userID
}
