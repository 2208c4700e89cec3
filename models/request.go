package models

// RunRequest is the payload for POST /api/v1/runs.
//
// Exactly one of Records or CSV must be set.
type RunRequest struct {
	// Records are registration rows as JSON objects keyed by column name.
	Records []map[string]string `json:"records,omitempty"`

	// CSV is the same data as CSV text with a header row.
	CSV string `json:"csv,omitempty"`

	// WebhookURL receives a signed run.completed event when the run ends.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}
