package models

import "sort"

// Logical record keys. The CSV header row is expected to carry these names;
// any other column is passed through untouched.
const (
	KeyName  = "name"
	KeyEmail = "email"
	KeyPhone = "phone"
	KeyEvent = "event"
	KeyURL   = "url"
)

// RequiredKeys are the keys every record must carry before it can be processed.
var RequiredKeys = []string{KeyURL, KeyName, KeyEmail, KeyPhone, KeyEvent}

// EchoKeys are the fields copied into every RecordResult, in report order.
var EchoKeys = []string{KeyName, KeyEmail, KeyPhone, KeyEvent, KeyURL}

// unknownValue is echoed for keys a record does not carry.
const unknownValue = "Unknown"

// Record is one row of input data. It is immutable once constructed:
// accessors return copies and there are no setters.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord builds a Record from a header and the matching row cells.
// Cells beyond the header are dropped; header names without a cell are absent.
func NewRecord(columns, cells []string) Record {
	r := Record{
		keys:   make([]string, 0, len(columns)),
		values: make(map[string]string, len(columns)),
	}
	for i, col := range columns {
		if i >= len(cells) {
			break
		}
		if _, dup := r.values[col]; !dup {
			r.keys = append(r.keys, col)
		}
		r.values[col] = cells[i]
	}
	return r
}

// RecordFromMap builds a Record from a key/value map. columns fixes the
// leading key order; keys of m that are not listed follow in sorted order.
func RecordFromMap(columns []string, m map[string]string) Record {
	cols := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, c := range columns {
		if _, ok := m[c]; ok && !seen[c] {
			cols = append(cols, c)
			seen[c] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	cols = append(cols, rest...)

	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = m[c]
	}
	return NewRecord(cols, cells)
}

// Get returns the value for key and whether the record carries it.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value for key, or "Unknown" when the key is absent.
func (r Record) Value(key string) string {
	if v, ok := r.values[key]; ok {
		return v
	}
	return unknownValue
}

// Keys returns the record's keys in source column order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Missing returns the subset of keys the record does not carry.
func (r Record) Missing(keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := r.values[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Echo returns the report fields for this record, defaulting absent ones.
func (r Record) Echo() map[string]string {
	out := make(map[string]string, len(EchoKeys))
	for _, k := range EchoKeys {
		out[k] = r.Value(k)
	}
	return out
}
