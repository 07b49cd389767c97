package utils

import (
	"time"
)

// Iso8601Now returns the current time in ISO8601 format
func Iso8601Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Iso8601FromTime formats t in ISO8601; the zero time yields "".
func Iso8601FromTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Iso8601FromUnixSeconds converts Unix timestamp to ISO8601 format
func Iso8601FromUnixSeconds(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

// ValidUntilFrom returns the time a poll result stays current: base plus one poll interval.
func ValidUntilFrom(base time.Time, interval time.Duration) string {
	if base.IsZero() || interval <= 0 {
		return ""
	}
	return base.Add(interval).UTC().Format(time.RFC3339)
}

// ParseTimestamp accepts RFC3339 and the zone-less layout the bus API emits
// ("2006-01-02T15:04:05" with optional fraction). Unparseable input yields
// the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
