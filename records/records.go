// Package records loads registration records from CSV or API payloads.
package records

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/use-agent/regbot/models"
)

// ErrNoHeader is returned for input without a header row.
var ErrNoHeader = errors.New("records: missing header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses CSV with a header row into records, one per data row.
//
// Header names are trimmed. Rows may be shorter or longer than the header:
// missing trailing cells become absent keys and extra cells are dropped.
// Blank lines are skipped.
func Read(r io.Reader) ([]models.Record, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var out []models.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		out = append(out, models.NewRecord(header, row))
	}
	return out, nil
}

// Load reads records from the CSV file at path. A missing file yields an
// error wrapping os.ErrNotExist.
func Load(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	recs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// FromMaps builds records from decoded JSON objects. Keys listed in
// models.EchoKeys come first; any others follow in sorted order.
func FromMaps(rows []map[string]string) []models.Record {
	out := make([]models.Record, len(rows))
	for i, m := range rows {
		out[i] = models.RecordFromMap(models.EchoKeys, m)
	}
	return out
}
