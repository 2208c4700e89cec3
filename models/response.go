package models

import "time"

// RunState is the lifecycle state of a queued run.
type RunState string

const (
	RunQueued    RunState = "queued"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
)

// RunAccepted is the immediate response for POST /api/v1/runs.
type RunAccepted struct {
	ID     string   `json:"id"`
	Status RunState `json:"status"`
	Total  int      `json:"total"`
}

// RunStatus is the response for GET /api/v1/runs/:id and the data of the
// run.completed webhook event.
type RunStatus struct {
	ID        string   `json:"id"`
	Status    RunState `json:"status"`
	Total     int      `json:"total"`
	Completed int      `json:"completed"`

	// Summary and ReportPath are set once the run has completed.
	Summary    *Summary `json:"summary,omitempty"`
	ReportPath string   `json:"report_path,omitempty"`

	Results []RecordResult `json:"results,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ErrorResponse wraps an ErrorDetail for API error bodies.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string     `json:"status"`
	Uptime  string     `json:"uptime"`
	Queue   QueueStats `json:"queue"`
	Version string     `json:"version"`
}

// QueueStats is a snapshot of the run queue.
type QueueStats struct {
	Queued   int  `json:"queued"`
	Capacity int  `json:"capacity"`
	Running  bool `json:"running"`
	Stopped  bool `json:"stopped"`
}
