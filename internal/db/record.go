package db

import (
	"fmt"
	"strconv"
	"time"
)

// Record is a loosely typed row as returned by the gateway. Keys are column
// names; values are int64, float64, string, bool or nil after normalization.
type Record map[string]any

// normalize folds driver-specific scan types into the small set Record
// accessors understand.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case time.Time:
		return formatTime(x)
	default:
		return v
	}
}

// Int64 returns the named column as an int64, or 0 when it is NULL.
func (r Record) Int64(key string) int64 {
	switch x := r[key].(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	default:
		return 0
	}
}

// Int returns the named column as an int.
func (r Record) Int(key string) int { return int(r.Int64(key)) }

// IntPtr returns nil for a NULL column.
func (r Record) IntPtr(key string) *int {
	if r[key] == nil {
		return nil
	}
	v := r.Int(key)
	return &v
}

// String returns the named column as a string, or "" when it is NULL.
func (r Record) String(key string) string {
	switch x := r[key].(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// Time parses an RFC3339 timestamp column.
func (r Record) Time(key string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, r.String(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", key, err)
	}
	return t, nil
}

// TimePtr is like Time but returns nil for a NULL column.
func (r Record) TimePtr(key string) (*time.Time, error) {
	if r[key] == nil {
		return nil, nil
	}
	t, err := r.Time(key)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// formatTime is the storage form of every timestamp column. Fixed-width UTC
// RFC3339 keeps lexical and chronological order identical.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nowString() string {
	return formatTime(time.Now())
}

// nullIfNil maps a nil *int to SQL NULL.
func nullIfNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
