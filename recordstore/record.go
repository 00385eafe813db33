// ABOUTME: Record type and typed field accessors
// ABOUTME: Normalizes values decoded from JSON, SQL, or set directly in Go
package recordstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is a single row of a table keyed by field name.
type Record map[string]any

// ID returns the record's system id or 0 when absent.
func (r Record) ID() int64 {
	return r.Int64(FieldID)
}

// Clone returns a copy that shares no mutable state with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		switch val := v.(type) {
		case []string:
			out[k] = append([]string(nil), val...)
		case []any:
			out[k] = append([]any(nil), val...)
		default:
			out[k] = v
		}
	}
	return out
}

// Project keeps only the named fields plus the id. An empty list keeps everything.
func (r Record) Project(fields []string) Record {
	if len(fields) == 0 {
		return r.Clone()
	}
	out := Record{}
	if v, ok := r[FieldID]; ok {
		out[FieldID] = v
	}
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

func (r Record) Int64(field string) int64 {
	n, _ := toFloat(r[field])
	return int64(n)
}

func (r Record) Float(field string) float64 {
	n, _ := toFloat(r[field])
	return n
}

// Time parses an RFC3339 (or date-only) field; unparseable values yield the zero time.
func (r Record) Time(field string) time.Time {
	v, ok := r[field]
	if !ok || v == nil {
		return time.Time{}
	}
	if t, ok := v.(time.Time); ok {
		return t
	}
	s := r.String(field)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// TimePtr is Time but nil for empty values.
func (r Record) TimePtr(field string) *time.Time {
	t := r.Time(field)
	if t.IsZero() {
		return nil
	}
	return &t
}

// Strings reads a multi-value field stored either as a list or a comma-separated string.
func (r Record) Strings(field string) []string {
	switch val := r[field].(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return SplitTags(val)
	}
	return []string{}
}

// SplitTags splits a comma-separated tag string, dropping empty entries.
func SplitTags(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
