// Package codec converts between stored hash field strings and Go values.
// Lists and vectors are JSON arrays, scores are decimal floats, times are RFC3339.
package codec

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// EncodeStrings returns a JSON array, "[]" for nil.
func EncodeStrings(s []string) string {
	if s == nil {
		s = []string{}
	}
	data, _ := json.Marshal(s) // []string marshaling cannot fail
	return string(data)
}

// DecodeStrings parses a JSON string array. Empty input yields an empty slice.
func DecodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}, fmt.Errorf("decode string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// EncodeVector returns a JSON float array.
func EncodeVector(v []float32) string {
	data, _ := json.Marshal(v) // finite []float32 marshaling cannot fail
	return string(data)
}

// DecodeVector parses a JSON float array and checks it has dim finite components
// (any length when dim <= 0). Empty input means "no vector".
func DecodeVector(raw string, dim int) ([]float32, error) {
	if raw == "" {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	if len(v) == 0 {
		return nil, nil
	}
	if dim > 0 && len(v) != dim {
		return nil, fmt.Errorf("vector has %d components, want %d", len(v), dim)
	}
	for i, x := range v {
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("vector component %d is not finite", i)
		}
	}
	return v, nil
}

// EncodeFloat formats f with the shortest exact representation.
func EncodeFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// DecodeFloat parses an optional float. Empty input yields nil.
func DecodeFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("decode float: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("decode float: %q is not finite", raw)
	}
	return &f, nil
}

// EncodeTime formats t as RFC3339 UTC, empty for the zero time.
func EncodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// DecodeTime parses an RFC3339 timestamp. Empty input yields the zero time.
func DecodeTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time: %w", err)
	}
	return t.UTC(), nil
}

// EncodeJSON marshals any value with goccy/go-json.
func EncodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeJSON unmarshals raw into v. Empty input leaves v untouched.
func DecodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}
