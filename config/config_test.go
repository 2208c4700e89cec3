package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.NoSandbox)
	assert.True(t, cfg.Browser.Stealth)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 1080, cfg.Browser.WindowHeight)

	assert.Equal(t, 10*time.Second, cfg.Form.NavigationTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Form.FillSettle)
	assert.Equal(t, 2*time.Second, cfg.Form.SubmitSettle)
	assert.Equal(t, 2*time.Second, cfg.Form.RecordPause)
	assert.Equal(t, "html", cfg.Form.ClassifySource)

	assert.Equal(t, "screenshots", cfg.Output.ScreenshotDir)
	assert.Equal(t, "logs", cfg.Output.ReportDir)
	assert.Equal(t, "logs/bot.log", cfg.Log.File)
	assert.Nil(t, cfg.Auth.APIKeys)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REGBOT_HEADLESS", "true")
	t.Setenv("REGBOT_NAV_TIMEOUT", "3s")
	t.Setenv("REGBOT_RECORD_PAUSE", "0s")
	t.Setenv("REGBOT_CLASSIFY_SOURCE", "text")
	t.Setenv("REGBOT_API_KEYS", " a, ,b ")
	t.Setenv("REGBOT_PORT", "9090")
	t.Setenv("REGBOT_RATE_RPS", "2.5")

	cfg := Load()

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3*time.Second, cfg.Form.NavigationTimeout)
	assert.Equal(t, time.Duration(0), cfg.Form.RecordPause)
	assert.Equal(t, "text", cfg.Form.ClassifySource)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 2.5, cfg.RateLimit.RequestsPerSecond, 1e-9)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REGBOT_PORT", "not-a-number")
	t.Setenv("REGBOT_HEADLESS", "maybe")
	t.Setenv("REGBOT_SUBMIT_SETTLE", "soon")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 2*time.Second, cfg.Form.SubmitSettle)
}
