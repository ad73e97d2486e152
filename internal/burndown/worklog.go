package burndown

import (
	"slices"
	"time"
)

// BuildDailyLoggedTime returns, for each day in days, the cumulative seconds logged per issue
// since the first day. Entries started before the first day are not attributed to the sprint.
func BuildDailyLoggedTime(worklogs map[string][]Worklog, days []time.Time, loc *time.Location) []map[string]int64 {
	out := make([]map[string]int64, len(days))
	for i := range out {
		out[i] = make(map[string]int64, len(worklogs))
	}
	if len(days) == 0 {
		return out
	}

	first := StartOfDay(days[0], loc)
	for key, entries := range worklogs {
		kept := make([]Worklog, 0, len(entries))
		for _, w := range entries {
			if w.Started.Before(first) {
				continue
			}
			kept = append(kept, w)
		}
		slices.SortStableFunc(kept, func(a, b Worklog) int { return a.Started.Compare(b.Started) })

		var running int64
		next := 0
		for i, day := range days {
			boundary := EndOfDay(day, loc)
			for next < len(kept) && !kept[next].Started.After(boundary) {
				running += kept[next].TimeSpentSeconds
				next++
			}
			out[i][key] = running
		}
	}
	return out
}

// GroupWorklogs indexes a flat work-log list by issue key.
func GroupWorklogs(entries []Worklog) map[string][]Worklog {
	grouped := make(map[string][]Worklog)
	for _, w := range entries {
		grouped[w.IssueKey] = append(grouped[w.IssueKey], w)
	}
	return grouped
}
