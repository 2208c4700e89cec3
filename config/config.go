package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Browser   BrowserConfig
	Form      FormConfig
	Output    OutputConfig
	Log       LogConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: false

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL the browser is launched with.
	Proxy string

	// WindowWidth and WindowHeight size both the window and the viewport.
	WindowWidth  int // default: 1920
	WindowHeight int // default: 1080

	// Stealth masks navigator.webdriver and friends before each navigation.
	Stealth bool // default: true

	// AcceptLanguage, when set, is sent as an extra header on every request.
	AcceptLanguage string
}

// FormConfig controls timing and classification of each registration.
type FormConfig struct {
	// NavigationTimeout bounds the wait for a <form> element after navigating.
	NavigationTimeout time.Duration // default: 10s

	// ActionTimeout bounds each fill, select or click.
	ActionTimeout time.Duration // default: 10s

	// FillSettle is the pause after filling, before looking for the submit control.
	FillSettle time.Duration // default: 500ms

	// SubmitSettle is the pause after clicking submit, before classifying.
	SubmitSettle time.Duration // default: 2s

	// RecordPause is the politeness delay between records.
	RecordPause time.Duration // default: 2s

	// ClassifySource selects what the classifier reads: "html" (page source)
	// or "text" (visible text only).
	ClassifySource string // default: "html"
}

// OutputConfig controls where artifacts are written.
type OutputConfig struct {
	// ScreenshotDir receives one PNG per record.
	ScreenshotDir string // default: "screenshots"

	// ReportDir receives one text report per run.
	ReportDir string // default: "logs"

	// DumpPages writes a markdown transcript next to each screenshot.
	DumpPages bool // default: false
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"

	// File is the rotating log file; empty disables file logging.
	File       string // default: "logs/bot.log"
	MaxSizeMB  int    // default: 10
	MaxBackups int    // default: 3
	MaxAgeDays int    // default: 28
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "127.0.0.1"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// MaxRecords caps the number of records in one submitted run.
	MaxRecords int // default: 500
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting of run submissions.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// WebhookConfig controls run-completion callbacks.
type WebhookConfig struct {
	// Secret signs callback bodies with HMAC-SHA256 when non-empty.
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:       envBoolOr("REGBOT_HEADLESS", false),
			NoSandbox:      envBoolOr("REGBOT_NO_SANDBOX", true),
			BrowserBin:     os.Getenv("REGBOT_BROWSER_BIN"),
			Proxy:          os.Getenv("REGBOT_PROXY"),
			WindowWidth:    envIntOr("REGBOT_WINDOW_WIDTH", 1920),
			WindowHeight:   envIntOr("REGBOT_WINDOW_HEIGHT", 1080),
			Stealth:        envBoolOr("REGBOT_STEALTH", true),
			AcceptLanguage: os.Getenv("REGBOT_ACCEPT_LANGUAGE"),
		},
		Form: FormConfig{
			NavigationTimeout: envDurationOr("REGBOT_NAV_TIMEOUT", 10*time.Second),
			ActionTimeout:     envDurationOr("REGBOT_ACTION_TIMEOUT", 10*time.Second),
			FillSettle:        envDurationOr("REGBOT_FILL_SETTLE", 500*time.Millisecond),
			SubmitSettle:      envDurationOr("REGBOT_SUBMIT_SETTLE", 2*time.Second),
			RecordPause:       envDurationOr("REGBOT_RECORD_PAUSE", 2*time.Second),
			ClassifySource:    envOr("REGBOT_CLASSIFY_SOURCE", "html"),
		},
		Output: OutputConfig{
			ScreenshotDir: envOr("REGBOT_SCREENSHOT_DIR", "screenshots"),
			ReportDir:     envOr("REGBOT_REPORT_DIR", "logs"),
			DumpPages:     envBoolOr("REGBOT_DUMP_PAGES", false),
		},
		Log: LogConfig{
			Level:      envOr("REGBOT_LOG_LEVEL", "info"),
			Format:     envOr("REGBOT_LOG_FORMAT", "text"),
			File:       envOr("REGBOT_LOG_FILE", "logs/bot.log"),
			MaxSizeMB:  envIntOr("REGBOT_LOG_MAX_SIZE_MB", 10),
			MaxBackups: envIntOr("REGBOT_LOG_MAX_BACKUPS", 3),
			MaxAgeDays: envIntOr("REGBOT_LOG_MAX_AGE_DAYS", 28),
		},
		Server: ServerConfig{
			Host:       envOr("REGBOT_HOST", "127.0.0.1"),
			Port:       envIntOr("REGBOT_PORT", 8080),
			Mode:       envOr("REGBOT_MODE", "release"),
			MaxRecords: envIntOr("REGBOT_MAX_RECORDS", 500),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("REGBOT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("REGBOT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("REGBOT_RATE_RPS", 1.0),
			Burst:             envIntOr("REGBOT_RATE_BURST", 3),
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("REGBOT_WEBHOOK_SECRET"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
