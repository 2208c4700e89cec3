package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// EventRunCompleted is sent once a queued run has finished.
const EventRunCompleted = "run.completed"

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Regbot-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	RunID     string `json:"run_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Sign returns the signature header value of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, client *http.Client, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Regbot-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DefaultDelays are the waits before each delivery attempt.
var DefaultDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Sender delivers events in the background with retries. Wait blocks until
// every delivery started so far has finished or given up.
type Sender struct {
	Client *http.Client
	Secret string
	Delays []time.Duration
	Logger *slog.Logger

	wg sync.WaitGroup
}

// NewSender returns a Sender with a 10s client timeout and DefaultDelays.
func NewSender(secret string, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		Client: &http.Client{Timeout: 10 * time.Second},
		Secret: secret,
		Delays: DefaultDelays,
		Logger: logger,
	}
}

// DeliverAsync sends event to url on a new goroutine, retrying per s.Delays.
// Pending retries are abandoned when ctx is done.
func (s *Sender) DeliverAsync(ctx context.Context, url string, event *Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for attempt, delay := range s.Delays {
			if delay > 0 {
				t := time.NewTimer(delay)
				select {
				case <-t.C:
				case <-ctx.Done():
					t.Stop()
					s.Logger.Warn("webhook delivery abandoned",
						"url", url, "event", event.Type, "run_id", event.RunID)
					return
				}
			}
			dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			err := Deliver(dctx, s.Client, url, s.Secret, event)
			cancel()
			if err == nil {
				s.Logger.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"run_id", event.RunID,
					"attempt", attempt+1,
				)
				return
			}
			s.Logger.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"run_id", event.RunID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		s.Logger.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"run_id", event.RunID,
		)
	}()
}

// Wait blocks until all in-flight deliveries are done.
func (s *Sender) Wait() { s.wg.Wait() }
