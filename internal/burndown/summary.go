package burndown

import (
	"cmp"
	"slices"
	"time"
)

// Totals are the sprint-wide roll-up numbers, in seconds.
type Totals struct {
	Estimate int64 `json:"totalEstimate"`
	Spent    int64 `json:"totalSpent"`
}

// SnapshotTotals sums the mode's current estimate field and current time spent of every issue.
func SnapshotTotals(issues []Issue, opts Options) Totals {
	mode := opts.mode()
	var t Totals
	for _, issue := range issues {
		t.Estimate += issue.currentEstimate(mode)
		t.Spent += issue.timeSpent()
	}
	return t
}

// HistoryTotals sums original estimates, or in remaining mode the remaining estimates as they
// were at the end of the window's first day. Time spent comes from worklogs when any were supplied,
// else from the snapshot field.
//
// Both sums cover every issue passed in, not only the day-0 sprint members, and worklog time
// includes entries started outside the window. Totals may therefore differ from the last
// timeline point.
func HistoryTotals(issues []Issue, window Window, worklogs map[string][]Worklog, opts Options) Totals {
	mode := opts.mode()
	at := EndOfDay(window.Start, window.Location())
	var t Totals
	for _, issue := range issues {
		if mode == ModeRemaining {
			t.Estimate += ReconstructEstimateAt(issue, FieldRemainingEstimate, at, issue.remainingEstimate())
		} else {
			t.Estimate += issue.originalEstimate()
		}
	}
	if len(worklogs) > 0 {
		for _, entries := range worklogs {
			for _, w := range entries {
				t.Spent += w.TimeSpentSeconds
			}
		}
		return t
	}
	for _, issue := range issues {
		t.Spent += issue.timeSpent()
	}
	return t
}

// CompletedIssue is one resolved issue in a completed-by-date group.
type CompletedIssue struct {
	Key           string `json:"key"`
	Summary       string `json:"summary"`
	Assignee      string `json:"assignee"`
	TimeSpent     int64  `json:"timeSpent"`
	CompletedDate string `json:"completedDate"`
}

// CompletedGroup holds the issues resolved on one calendar day.
type CompletedGroup struct {
	Date   string           `json:"date"`
	Issues []CompletedIssue `json:"issues"`
}

// Unassigned is shown for issues without an assignee.
const Unassigned = "Unassigned"

// CompletedIssuesByDate groups resolved issues by resolution day, newest day first and by key
// within a day.
func CompletedIssuesByDate(issues []Issue, loc *time.Location) []CompletedGroup {
	byDate := make(map[string][]CompletedIssue)
	for _, issue := range issues {
		if issue.ResolutionDate == nil {
			continue
		}
		date := StartOfDay(*issue.ResolutionDate, loc).Format(DateLayout)
		assignee := issue.Assignee
		if assignee == "" {
			assignee = Unassigned
		}
		byDate[date] = append(byDate[date], CompletedIssue{
			Key:           issue.Key,
			Summary:       issue.Summary,
			Assignee:      assignee,
			TimeSpent:     issue.timeSpent(),
			CompletedDate: date,
		})
	}

	groups := make([]CompletedGroup, 0, len(byDate))
	for date, list := range byDate {
		slices.SortFunc(list, func(a, b CompletedIssue) int { return cmp.Compare(a.Key, b.Key) })
		groups = append(groups, CompletedGroup{Date: date, Issues: list})
	}
	// DateLayout sorts lexically in date order.
	slices.SortFunc(groups, func(a, b CompletedGroup) int { return cmp.Compare(b.Date, a.Date) })
	return groups
}

// ChangeType tags a DailyIssueChange.
type ChangeType string

const (
	ChangeTimeSpent         ChangeType = "timeSpent"
	ChangeOriginalEstimate  ChangeType = "originalEstimate"
	ChangeRemainingEstimate ChangeType = "remainingEstimate"
)

// DailyIssueChange is one work-log entry or estimate change on a given day.
type DailyIssueChange struct {
	IssueKey      string     `json:"issueKey"`
	Summary       string     `json:"summary"`
	ChangeType    ChangeType `json:"changeType"`
	PreviousValue int64      `json:"previousValue"`
	NewValue      int64      `json:"newValue"`
	Delta         int64      `json:"delta"`
	Author        string     `json:"author,omitempty"`

	at time.Time
}

// DailyChangeSummary lists the changes of one day with per-type delta subtotals.
type DailyChangeSummary struct {
	Date                string             `json:"date"`
	Changes             []DailyIssueChange `json:"changes"`
	TotalTimeSpentDelta int64              `json:"totalTimeSpentDelta"`
	TotalEstimateDelta  int64              `json:"totalEstimateDelta"`
	TotalRemainingDelta int64              `json:"totalRemainingDelta"`
}

// BuildDailyChangeSummary lists, for every window day up to today, the work-log entries started
// that day and the estimate changes made that day. Work-log previous/new values are the issue's
// cumulative logged time since the window start.
func BuildDailyChangeSummary(issues []Issue, worklogs map[string][]Worklog, window Window, opts Options) []DailyChangeSummary {
	loc := window.Location()
	today := StartOfDay(opts.now(), loc)
	days := window.Days()

	summaries := make(map[string]string, len(issues))
	for _, issue := range issues {
		summaries[issue.Key] = issue.Summary
	}

	dayIndex := make(map[string]int, len(days))
	out := make([]DailyChangeSummary, 0, len(days))
	for _, day := range days {
		if day.After(today) {
			break
		}
		dayIndex[day.Format(DateLayout)] = len(out)
		out = append(out, DailyChangeSummary{Date: day.Format(DateLayout), Changes: []DailyIssueChange{}})
	}
	if len(out) == 0 {
		return out
	}

	for _, key := range sortedKeys(worklogs) {
		entries := slices.Clone(worklogs[key])
		slices.SortStableFunc(entries, func(a, b Worklog) int { return a.Started.Compare(b.Started) })
		var cumulative int64
		for _, w := range entries {
			if w.Started.Before(window.Start) {
				continue
			}
			idx, ok := dayIndex[StartOfDay(w.Started, loc).Format(DateLayout)]
			if !ok {
				continue
			}
			prev := cumulative
			cumulative += w.TimeSpentSeconds
			s := &out[idx]
			s.Changes = append(s.Changes, DailyIssueChange{
				IssueKey:      key,
				Summary:       summaries[key],
				ChangeType:    ChangeTimeSpent,
				PreviousValue: prev,
				NewValue:      cumulative,
				Delta:         w.TimeSpentSeconds,
				Author:        w.Author,
				at:            w.Started,
			})
			s.TotalTimeSpentDelta += w.TimeSpentSeconds
		}
	}

	for _, issue := range issues {
		for _, c := range ExtractEstimateChanges(issue) {
			idx, ok := dayIndex[StartOfDay(c.At, loc).Format(DateLayout)]
			if !ok {
				continue
			}
			change := DailyIssueChange{
				IssueKey:      issue.Key,
				Summary:       issue.Summary,
				PreviousValue: c.From,
				NewValue:      c.To,
				Delta:         c.To - c.From,
				Author:        c.Author,
				at:            c.At,
			}
			s := &out[idx]
			if c.Field == FieldOriginalEstimate {
				change.ChangeType = ChangeOriginalEstimate
				s.TotalEstimateDelta += change.Delta
			} else {
				change.ChangeType = ChangeRemainingEstimate
				s.TotalRemainingDelta += change.Delta
			}
			s.Changes = append(s.Changes, change)
		}
	}

	for i := range out {
		slices.SortStableFunc(out[i].Changes, func(a, b DailyIssueChange) int {
			if c := a.at.Compare(b.at); c != 0 {
				return c
			}
			return cmp.Compare(a.IssueKey, b.IssueKey)
		})
	}
	return out
}
