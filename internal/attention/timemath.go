package attention

import (
	"math"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime is deliberately forgiving: records imported from the previous
// store carry a mix of timestamp shapes, and a date the engine cannot read
// must behave as "no date", never as an error.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// daysSince returns whole days elapsed from the given timestamp to now,
// floored. Future dates yield negative values, preserved not clamped.
func daysSince(s string, now time.Time) (int, bool) {
	t, ok := parseTime(s)
	if !ok {
		return 0, false
	}
	return int(math.Floor(now.Sub(t).Hours() / 24)), true
}

// hoursSince is daysSince with an hour divisor.
func hoursSince(s string, now time.Time) (int, bool) {
	t, ok := parseTime(s)
	if !ok {
		return 0, false
	}
	return int(math.Floor(now.Sub(t).Hours())), true
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// firstTimestamp returns the first non-empty candidate string.
func firstTimestamp(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
