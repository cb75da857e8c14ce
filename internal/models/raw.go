package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawAlert is one upstream record as the detectors emit it. Every field is
// optional; empty values are filled in by the normalizer.
type RawAlert struct {
	ID          string
	Title       string
	Description string
	Location    string
	Timestamp   time.Time // zero when missing or unparseable
}

// UnmarshalJSON accepts ids as strings or numbers and timestamps as
// date strings or epoch numbers. A record that is not an object at all
// decodes to the empty record, so it is defaulted rather than failing the
// batch it arrived in.
func (r *RawAlert) UnmarshalJSON(data []byte) error {
	*r = RawAlert{}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	aux := struct {
		ID          json.RawMessage `json:"id"`
		Title       any             `json:"title"`
		Description any             `json:"description"`
		Location    any             `json:"location"`
		Timestamp   json.RawMessage `json:"timestamp"`
	}{}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.ID = rawScalar(aux.ID)
	r.Title = looseString(aux.Title)
	r.Description = looseString(aux.Description)
	r.Location = looseString(aux.Location)

	if ts, ok := parseRawTimestamp(aux.Timestamp); ok {
		r.Timestamp = ts
	}
	return nil
}

func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func looseString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func parseRawTimestamp(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := ParseTimestamp(s)
		return t, err == nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return EpochTime(f)
	}
	return time.Time{}, false
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTimestamp parses the date strings seen from the detectors and from
// persisted collections. Naive timestamps are read as UTC. Numeric strings
// are treated as epoch values.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if !representable(t) {
				return time.Time{}, fmt.Errorf("timestamp %q out of range", s)
			}
			return t, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if t, ok := EpochTime(f); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("timestamp %q out of range", s)
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// maxEpochMillis keeps the int64 conversion in EpochTime from overflowing.
// Anything this large is past year 9999 anyway.
const maxEpochMillis = 1e15

// EpochTime reads values below 1e12 as seconds and the rest as milliseconds.
// It reports false for non-finite values and instants outside years 0..9999,
// which cannot be written back out as RFC 3339.
func EpochTime(v float64) (time.Time, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= maxEpochMillis {
		return time.Time{}, false
	}

	var t time.Time
	if math.Abs(v) < 1e12 {
		sec, frac := math.Modf(v)
		t = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	} else {
		t = time.UnixMilli(int64(v)).UTC()
	}
	if !representable(t) {
		return time.Time{}, false
	}
	return t, true
}

func representable(t time.Time) bool {
	for _, y := range []int{t.Year(), t.UTC().Year()} {
		if y < 0 || y > 9999 {
			return false
		}
	}
	return true
}
