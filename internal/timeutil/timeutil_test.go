package timeutil

import (
	"strings"
	"testing"
	"time"
)

func TestParseSinceDurations(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"hours", "3h", now.Add(-3 * time.Hour)},
		{"days", "7d", now.Add(-7 * 24 * time.Hour)},
		{"weeks", "2w", now.Add(-14 * 24 * time.Hour)},
		{"months are 30 days", "1m", now.Add(-30 * 24 * time.Hour)},
		{"whitespace trimmed", "  7d  ", now.Add(-7 * 24 * time.Hour)},
		{"case insensitive", "7D", now.Add(-7 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSince(tt.in, now)
			if err != nil {
				t.Fatalf("ParseSince(%q) error: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseSince(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSinceISODate(t *testing.T) {
	now := time.Now()

	got, err := ParseSince("2025-01-01", now)
	if err != nil {
		t.Fatalf("ParseSince error: %v", err)
	}
	if got.Year() != 2025 || got.Month() != time.January || got.Day() != 1 {
		t.Errorf("ParseSince(2025-01-01) = %v", got)
	}
	if got.Location() != now.Location() {
		t.Errorf("ParseSince location = %v, want %v", got.Location(), now.Location())
	}
}

func TestParseSinceDateTime(t *testing.T) {
	got, err := ParseSince("2025-01-15T10:30", time.Now())
	if err != nil {
		t.Fatalf("ParseSince error: %v", err)
	}
	if got.Hour() != 10 || got.Minute() != 30 {
		t.Errorf("ParseSince(2025-01-15T10:30) = %v", got)
	}
}

func TestParseSinceInvalid(t *testing.T) {
	for _, in := range []string{"bogus", "", "7y", "d7", "-3d"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSince(in, time.Now())
			if err == nil {
				t.Fatalf("ParseSince(%q) succeeded, want error", in)
			}
			if !strings.Contains(err.Error(), "invalid time spec") {
				t.Errorf("error = %q, want mention of invalid time spec", err)
			}
		})
	}
}

func TestMidnight(t *testing.T) {
	loc := time.FixedZone("TST", 5*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "midday collapses to midnight",
			in:   time.Date(2025, 3, 10, 15, 45, 30, 999, loc),
			want: time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
		},
		{
			name: "already midnight unchanged",
			in:   time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
			want: time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Midnight(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("Midnight(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Location() != loc {
				t.Errorf("Midnight location = %v, want %v", got.Location(), loc)
			}
		})
	}
}
