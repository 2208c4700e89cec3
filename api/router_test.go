package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/regbot/config"
	"github.com/use-agent/regbot/models"
)

type stubService struct{}

func (stubService) Submit(recs []models.Record, _ string) (models.RunStatus, error) {
	return models.RunStatus{ID: "r", Status: models.RunQueued, Total: len(recs)}, nil
}
func (stubService) Get(string) (models.RunStatus, bool) { return models.RunStatus{}, false }
func (stubService) Stats() models.QueueStats             { return models.QueueStats{Capacity: 1} }

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Server.Mode = "test"
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"k1"}}
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	return cfg
}

const runBody = `{"records":[{"name":"Ann","url":"https://x.test"}]}`

func do(h http.Handler, method, path, key, body string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestRouter_HealthIsPublic(t *testing.T) {
	r := NewRouter(stubService{}, testConfig(), time.Now(), "test")
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/health", "", ""))
}

func TestRouter_Auth(t *testing.T) {
	r := NewRouter(stubService{}, testConfig(), time.Now(), "test")

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/v1/runs", "", runBody))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/v1/runs", "wrong", runBody))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/runs/x", "", ""))
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/runs/x", "k1", ""))
}

func TestRouter_RateLimitsSubmissions(t *testing.T) {
	r := NewRouter(stubService{}, testConfig(), time.Now(), "test")

	assert.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/api/v1/runs", "k1", runBody))
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/api/v1/runs", "k1", runBody))

	// Status polling is not rate limited.
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/runs/x", "k1", ""))
	}
}

func TestRouter_AuthDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = false
	r := NewRouter(stubService{}, cfg, time.Now(), "test")
	assert.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/api/v1/runs", "", runBody))
}
