// Package evidence writes the per-record screenshot and, optionally, a
// Markdown transcript of the page it shows.
package evidence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/use-agent/regbot/cleaner"
)

const stampLayout = "20060102_150405"

// Store saves evidence files under Dir. It satisfies form.EvidenceStore.
type Store struct {
	Dir string

	// Transcripts also writes test_case_<n>_<stamp>.md from the page source.
	Transcripts bool
}

// Name returns the base file name (without extension) for record index.
func Name(index int, at time.Time) string {
	return fmt.Sprintf("test_case_%d_%s", index, at.Format(stampLayout))
}

// Save writes png, and when enabled the transcript of html, for the record at
// index. The screenshot path is returned even when only the transcript fails.
func (s Store) Save(index int, png []byte, html string, at time.Time) (shot, transcript string, err error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create evidence dir: %w", err)
	}
	base := filepath.Join(s.Dir, Name(index, at))

	shot = base + ".png"
	if err := os.WriteFile(shot, png, 0o644); err != nil {
		return "", "", fmt.Errorf("write screenshot: %w", err)
	}

	if !s.Transcripts || strings.TrimSpace(html) == "" {
		return shot, "", nil
	}
	md, err := cleaner.Markdown(html, "")
	if err != nil {
		return shot, "", fmt.Errorf("convert transcript: %w", err)
	}
	transcript = base + ".md"
	if err := os.WriteFile(transcript, []byte(md), 0o644); err != nil {
		return shot, "", fmt.Errorf("write transcript: %w", err)
	}
	return shot, transcript, nil
}
