// Package duration parses durations with day and week units on top of
// time.ParseDuration.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var calendarUnits = map[string]time.Duration{
	"d": Day,
	"w": Week,
}

// calendarPattern matches leading components like "2w" or "3d".
var calendarPattern = regexp.MustCompile(`^(\d+)([dw])`)

// Parse accepts standard Go durations ("30m", "1h30m") and leading day or
// week components ("1d", "2w3d", "1d12h"). "0" is the zero duration.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if s == "0" {
		return 0, nil
	}

	var total time.Duration
	rest := s
	for {
		m := calendarPattern.FindStringSubmatch(rest)
		if m == nil {
			break
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration value %q in %q", m[1], s)
		}
		total += time.Duration(n) * calendarUnits[m[2]]
		rest = rest[len(m[0]):]
	}

	if rest != "" {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w (supported units: ns, us, ms, s, m, h, d, w)", s, err)
		}
		total += d
	}

	if total < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative value not allowed", s)
	}
	return total, nil
}
