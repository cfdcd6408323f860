package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02",
}

// Epoch numbers above this magnitude are milliseconds, not seconds.
const msThreshold = 2e10

var (
	minUnix = float64(time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Unix())
	maxUnix = float64(time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix())
)

// ParseTime tries multiple timestamp formats and returns the instant in UTC.
// Inputs without a zone are taken to be UTC already.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return fromEpoch(n)
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

// fromEpoch reads n as Unix seconds, or milliseconds past msThreshold.
func fromEpoch(n float64) (time.Time, error) {
	secs := n
	if math.Abs(n) > msThreshold {
		secs = n / 1000
	}
	if secs < minUnix || secs > maxUnix {
		return time.Time{}, fmt.Errorf("timestamp %v outside years 0-9999", n)
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
}

// decodeTime leaves dst untouched when the field was absent or null.
func decodeTime(field string, raw json.RawMessage, dst *time.Time) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
	}

	t, err := ParseTime(s)
	if err != nil {
		return &ValidationError{Field: field, Message: err.Error()}
	}
	*dst = t
	return nil
}
