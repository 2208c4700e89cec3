package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/use-agent/regbot/models"
)

// apiClient talks to a running `regbot serve`.
type apiClient struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	interval time.Duration
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	return &apiClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		interval: 2 * time.Second,
	}
}

// do sends a request and decodes a 2xx body into out. Error bodies are
// turned into "[CODE] message" errors.
func (c *apiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e models.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != nil {
			return fmt.Errorf("[%s] %s", e.Error.Code, e.Error.Message)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *apiClient) submit(ctx context.Context, req models.RunRequest) (models.RunAccepted, error) {
	var out models.RunAccepted
	err := c.do(ctx, http.MethodPost, "/api/v1/runs", req, &out)
	return out, err
}

func (c *apiClient) get(ctx context.Context, id string) (models.RunStatus, error) {
	var out models.RunStatus
	err := c.do(ctx, http.MethodGet, "/api/v1/runs/"+id, nil, &out)
	return out, err
}

// wait polls run id until it has completed or ctx ends.
func (c *apiClient) wait(ctx context.Context, id string) (models.RunStatus, error) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		st, err := c.get(ctx, id)
		if err != nil {
			return st, err
		}
		if st.Status == models.RunCompleted {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}
