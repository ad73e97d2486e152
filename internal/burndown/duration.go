package burndown

import (
	"regexp"
	"strconv"
	"strings"
)

// Work calendar convention used by the tracker.
const (
	SecondsPerMinute = 60
	SecondsPerHour   = 60 * SecondsPerMinute
	SecondsPerDay    = 8 * SecondsPerHour
	SecondsPerWeek   = 5 * SecondsPerDay
)

var (
	rawSecondsPattern = regexp.MustCompile(`^\d+$`)
	weeksPattern      = regexp.MustCompile(`(\d+)w`)
	daysPattern       = regexp.MustCompile(`(\d+)d`)
	hoursPattern      = regexp.MustCompile(`(\d+)h`)
	minutesPattern    = regexp.MustCompile(`(\d+)m`)
)

// ParseDuration converts a tracker duration ("2w 3d 4h 30m") or a raw seconds value ("86400")
// into seconds. Empty input and unrecognized tokens contribute nothing.
func ParseDuration(input string) int64 {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0
	}

	// Changelog values are sometimes raw seconds rather than formatted durations.
	if rawSecondsPattern.MatchString(trimmed) {
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0
		}
		return v
	}

	var total int64
	total += firstNumber(weeksPattern, trimmed) * SecondsPerWeek
	total += firstNumber(daysPattern, trimmed) * SecondsPerDay
	total += firstNumber(hoursPattern, trimmed) * SecondsPerHour
	total += firstNumber(minutesPattern, trimmed) * SecondsPerMinute
	return total
}

func firstNumber(re *regexp.Regexp, s string) int64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatDuration renders seconds in the tracker's "1w 2d 3h 4m" form. Sub-minute remainders
// are dropped; zero and negative values render as "0m".
func FormatDuration(seconds int64) string {
	if seconds < SecondsPerMinute {
		return "0m"
	}

	units := []struct {
		size   int64
		suffix string
	}{
		{SecondsPerWeek, "w"},
		{SecondsPerDay, "d"},
		{SecondsPerHour, "h"},
		{SecondsPerMinute, "m"},
	}

	var parts []string
	rest := seconds
	for _, u := range units {
		if n := rest / u.size; n > 0 {
			parts = append(parts, strconv.FormatInt(n, 10)+u.suffix)
			rest -= n * u.size
		}
	}
	return strings.Join(parts, " ")
}

// FormatHours renders seconds as hours with at most two decimals, e.g. "1h" or "1.5h".
func FormatHours(seconds int64) string {
	hours := float64(seconds) / SecondsPerHour
	rounded := float64(int64(hours*100+sign(hours)*0.5)) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + "h"
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}
