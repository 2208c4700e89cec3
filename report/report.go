// Package report renders the plain-text results file of a registration run.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/use-agent/regbot/models"
)

const (
	title = "Event Registration Bot - Test Results"

	// TimestampLayout formats per-record timestamps.
	TimestampLayout = "2006-01-02T15:04:05.000000"

	// FileStampLayout is the timestamp embedded in report and evidence file names.
	FileStampLayout = "20060102_150405"
)

// Write renders results to w: a header, one block per record in order, and
// the summary. The success-rate line is omitted for an empty run.
func Write(w io.Writer, results []models.RecordResult) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, title)
	fmt.Fprintln(bw, strings.Repeat("=", 50))
	fmt.Fprintln(bw)

	for _, r := range results {
		fmt.Fprintf(bw, "Test Case #%d\n", r.Index)
		fmt.Fprintf(bw, "Name: %s\n", r.Fields[models.KeyName])
		fmt.Fprintf(bw, "Email: %s\n", r.Fields[models.KeyEmail])
		fmt.Fprintf(bw, "Phone: %s\n", r.Fields[models.KeyPhone])
		fmt.Fprintf(bw, "Event: %s\n", r.Fields[models.KeyEvent])
		fmt.Fprintf(bw, "URL: %s\n", r.Fields[models.KeyURL])
		fmt.Fprintf(bw, "Status: %s\n", r.Status)
		fmt.Fprintf(bw, "Message: %s\n", r.Message)
		fmt.Fprintf(bw, "Timestamp: %s\n", r.Timestamp.Format(TimestampLayout))
		if r.EvidencePath != "" {
			fmt.Fprintf(bw, "Evidence: %s\n", r.EvidencePath)
		}
		fmt.Fprintln(bw, strings.Repeat("-", 30))
	}

	s := models.Summarize(results)
	fmt.Fprintf(bw, "\nSUMMARY:\n")
	fmt.Fprintf(bw, "Total Tests: %d\n", s.Total)
	fmt.Fprintf(bw, "Successful: %d\n", s.Successful)
	fmt.Fprintf(bw, "Failed: %d\n", s.Failed)
	if s.Total > 0 {
		fmt.Fprintf(bw, "Success Rate: %.1f%%\n", s.Rate())
	}
	return bw.Flush()
}

// FileName returns the report file name for a run finished at t.
func FileName(t time.Time) string {
	return "test_results_" + t.Format(FileStampLayout) + ".txt"
}

// WriteFile writes the report into dir, creating it if needed, and returns
// the path written.
func WriteFile(dir string, now time.Time, results []models.RecordResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := Write(f, results); err != nil {
		f.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}
