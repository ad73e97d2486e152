package visuals

import (
	"fmt"
	"math"
	"strings"

	"burndown-mcp/internal/burndown"
)

// BurndownMermaid creates a Mermaid xychart-beta with the remaining and ideal lines, in hours.
func BurndownMermaid(title string, points []burndown.TimelinePoint) string {
	if len(points) == 0 {
		return ""
	}

	var labels []string
	var remaining []string
	var ideal []string

	maxY := 0.0
	for _, p := range points {
		labels = append(labels, fmt.Sprintf("\"%s\"", shortDate(p.Date)))
		r := toHours(float64(p.RemainingWorkSeconds))
		i := toHours(p.IdealRemainingSeconds)
		remaining = append(remaining, fmt.Sprintf("%.1f", r))
		ideal = append(ideal, fmt.Sprintf("%.1f", i))
		maxY = math.Max(maxY, math.Max(r, i))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", strings.ReplaceAll(title, "\"", "'")))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	// Headroom above the highest point.
	sb.WriteString(fmt.Sprintf("    y-axis \"Remaining (hours)\" 0 --> %d\n", int(math.Ceil(math.Max(1, maxY*1.1)))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(remaining, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(ideal, ", ")))
	sb.WriteString("```")
	return sb.String()
}

func toHours(seconds float64) float64 {
	return seconds / burndown.SecondsPerHour
}

// shortDate turns "2025-01-03" into "01-03".
func shortDate(date string) string {
	if len(date) == len(burndown.DateLayout) {
		return date[5:]
	}
	return date
}
