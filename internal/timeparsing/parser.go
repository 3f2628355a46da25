// Package timeparsing parses the due dates typed on the command line.
//
// Expressions are tried in layers:
//  1. Compact duration (+6h, -1d, +2w)
//  2. Absolute timestamp (RFC3339, date-only)
//  3. Natural language (tomorrow, next monday)
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var compactDurationRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// ParseCompactDuration parses [+-]N followed by h, d, w, m or y ("+6h",
// "-1d", "2w") as an offset from now. No sign means forward.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	m := compactDurationRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration amount %q: %w", m[2], err)
	}
	if m[1] == "-" {
		n = -n
	}
	switch m[3] {
	case "h":
		return now.Add(time.Duration(n) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, n), nil
	case "w":
		return now.AddDate(0, 0, 7*n), nil
	case "m":
		return now.AddDate(0, n, 0), nil
	default:
		return now.AddDate(n, 0, 0), nil
	}
}

// IsCompactDuration reports whether s uses the compact offset syntax.
func IsCompactDuration(s string) bool {
	return compactDurationRe.MatchString(s)
}
