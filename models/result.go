package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the tag of a classified submission.
type Status int

const (
	StatusUnknown Status = iota
	StatusSuccess
	StatusFailure
)

// String returns the report label for the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the status as a lower-case string.
func (s Status) MarshalJSON() ([]byte, error) {
	switch s {
	case StatusSuccess:
		return []byte(`"success"`), nil
	case StatusFailure:
		return []byte(`"failure"`), nil
	default:
		return []byte(`"unknown"`), nil
	}
}

// UnmarshalJSON decodes the lower-case form written by MarshalJSON.
func (s *Status) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v {
	case "success":
		*s = StatusSuccess
	case "failure":
		*s = StatusFailure
	case "unknown":
		*s = StatusUnknown
	default:
		return fmt.Errorf("unknown status %q", v)
	}
	return nil
}

// MsgInterrupted is the message of records cut short by cancellation.
const MsgInterrupted = "Run interrupted"

// Outcome is the result of classifying one page, or of a stage that failed
// before classification was reached.
type Outcome struct {
	Status  Status
	Message string
	// Code is set for failures raised by a processing stage; classification
	// failures ("Error detected") leave it empty.
	Code string
}

// Succeeded returns a Success outcome.
func Succeeded(msg string) Outcome { return Outcome{Status: StatusSuccess, Message: msg} }

// Failed returns a Failure outcome.
func Failed(msg string) Outcome { return Outcome{Status: StatusFailure, Message: msg} }

// Undetermined returns an Unknown outcome.
func Undetermined(msg string) Outcome { return Outcome{Status: StatusUnknown, Message: msg} }

// FailedWith returns a Failure outcome carrying an error code.
func FailedWith(code, msg string) Outcome {
	return Outcome{Status: StatusFailure, Message: msg, Code: code}
}

// RecordResult is the per-record entry of a run. It is created once and
// never modified after it has been appended to the run's result slice.
type RecordResult struct {
	// Index is the 1-based position of the record in the input.
	Index int `json:"index"`

	// Fields echoes the record's name/email/phone/event/url.
	Fields map[string]string `json:"fields"`

	Status  Status `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// EvidencePath is the screenshot file, empty when capture failed.
	EvidencePath string `json:"evidence_path,omitempty"`

	// TranscriptPath is the markdown dump of the final page, when enabled.
	TranscriptPath string `json:"transcript_path,omitempty"`
}

// NewRecordResult builds the result entry for one record.
func NewRecordResult(index int, rec Record, out Outcome, at time.Time) RecordResult {
	return RecordResult{
		Index:     index,
		Fields:    rec.Echo(),
		Status:    out.Status,
		Message:   out.Message,
		Code:      out.Code,
		Timestamp: at,
	}
}

// Succeeded reports whether the record was classified as a success.
func (r RecordResult) Succeeded() bool { return r.Status == StatusSuccess }

// Summary holds the totals of a run.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Summarize counts results. Unknown outcomes count as not successful.
func Summarize(results []RecordResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Succeeded() {
			s.Successful++
		}
	}
	s.Failed = s.Total - s.Successful
	return s
}

// Rate returns the success rate as a percentage; 0 for an empty run.
func (s Summary) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total) * 100
}

func (s Summary) String() string {
	return fmt.Sprintf("Total: %d, Successful: %d, Failed: %d, Success Rate: %.1f%%",
		s.Total, s.Successful, s.Failed, s.Rate())
}
