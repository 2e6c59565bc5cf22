package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is an opaque JSON object returned by the dataset provider or a
// collaborator. Field access is tolerant: a missing key or an unexpected
// type yields the zero value instead of an error.
type Record map[string]any

// Value returns the raw value stored under key.
func (r Record) Value(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// String returns key as a trimmed string. Numbers and booleans are
// formatted; objects and arrays yield "".
func (r Record) String(key string) string {
	switch v := r.Value(key).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64, bool, json.Number:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Record returns key as a nested object, or nil.
func (r Record) Record(key string) Record {
	switch v := r.Value(key).(type) {
	case map[string]any:
		return Record(v)
	case Record:
		return v
	default:
		return nil
	}
}

// Records returns key as a list of objects, skipping non-object items.
func (r Record) Records(key string) []Record {
	items, ok := r.Value(key).([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// Strings returns key as a list of strings, skipping non-string items.
func (r Record) Strings(key string) []string {
	items, ok := r.Value(key).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
