package attention

import (
	"testing"
	"time"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestDaysSince(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
		ok   bool
	}{
		{"ten days ago", "2024-04-21T12:00:00Z", 10, true},
		{"partial day floors down", "2024-04-30T18:00:00Z", 0, true},
		{"future stays negative", "2024-05-04T12:00:00Z", -3, true},
		{"future partial floors toward minus", "2024-05-01T18:00:00Z", -1, true},
		{"date only", "2024-04-28", 3, true},
		{"empty", "", 0, false},
		{"garbage", "not-a-date", 0, false},
	}
	for _, tc := range cases {
		got, ok := daysSince(tc.in, testNow)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: daysSince(%q) = %d,%v want %d,%v", tc.name, tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHoursSince(t *testing.T) {
	got, ok := hoursSince("2024-05-01T09:00:00Z", testNow)
	if !ok || got != 3 {
		t.Fatalf("hoursSince three hours ago = %d,%v", got, ok)
	}
	got, ok = hoursSince("2024-05-01T15:00:00Z", testNow)
	if !ok || got != -3 {
		t.Fatalf("hoursSince three hours ahead = %d,%v", got, ok)
	}
	if _, ok := hoursSince("", testNow); ok {
		t.Fatal("empty input should not parse")
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"In Vehicle":     "invehicle",
		"in_loading-bay": "inloadingbay",
		"  Received ":    "received",
		"CANCELLED":      "cancelled",
	}
	for in, want := range cases {
		if got := normalizeStatus(in); got != want {
			t.Errorf("normalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
