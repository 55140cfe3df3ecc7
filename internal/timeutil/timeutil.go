// Package timeutil parses the human time specs accepted on the command
// line and provides small local-time helpers used by window resolution.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationSpec = regexp.MustCompile(`^(\d+)([dhwm])$`)

// isoLayouts are tried in order for non-duration specs. Layouts without
// a zone are interpreted in local time.
var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseSince turns a spec like "7d", "2w", "3h", "1m" (months are 30
// days) or an ISO date into an absolute time. Relative specs are
// anchored at now.
func ParseSince(value string, now time.Time) (time.Time, error) {
	spec := strings.ToLower(strings.TrimSpace(value))

	if m := durationSpec.FindStringSubmatch(spec); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing time spec %q: %w", value, err)
		}
		var d time.Duration
		switch m[2] {
		case "h":
			d = time.Duration(n) * time.Hour
		case "d":
			d = time.Duration(n) * 24 * time.Hour
		case "w":
			d = time.Duration(n) * 7 * 24 * time.Hour
		case "m":
			d = time.Duration(n) * 30 * 24 * time.Hour
		}
		return now.Add(-d), nil
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(value), now.Location()); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(value)); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf(
		"invalid time spec %q: use '7d', '2w', '30d', '3h', or an ISO date", value,
	)
}

// Midnight returns the start of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
