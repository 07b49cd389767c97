package utils

import (
	"testing"
	"time"
)

func TestIso8601FromUnixSeconds(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected string
	}{
		{
			name:     "epoch",
			input:    0,
			expected: "1970-01-01T00:00:00Z",
		},
		{
			name:     "specific timestamp",
			input:    1696320000, // 2023-10-03 08:00:00 UTC
			expected: "2023-10-03T08:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Iso8601FromUnixSeconds(tt.input)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestIso8601FromTime_Zero(t *testing.T) {
	if got := Iso8601FromTime(time.Time{}); got != "" {
		t.Errorf("zero time should format as empty, got %q", got)
	}
}

func TestValidUntilFrom(t *testing.T) {
	base := time.Date(2025, 10, 3, 8, 0, 0, 0, time.UTC)
	if got := ValidUntilFrom(base, 10*time.Second); got != "2025-10-03T08:00:10Z" {
		t.Errorf("unexpected valid-until %s", got)
	}
	if got := ValidUntilFrom(base, 0); got != "" {
		t.Errorf("zero interval should yield empty, got %s", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "rfc3339", input: "2025-10-03T08:00:00Z", want: time.Date(2025, 10, 3, 8, 0, 0, 0, time.UTC)},
		{name: "local date time", input: "2025-10-03T08:00:00.123", want: time.Date(2025, 10, 3, 8, 0, 0, 123000000, time.UTC)},
		{name: "space separated", input: "2025-10-03 08:00:00", want: time.Date(2025, 10, 3, 8, 0, 0, 0, time.UTC)},
		{name: "empty", input: "", want: time.Time{}},
		{name: "garbage", input: "yesterday", want: time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
