package jira

import (
	"time"

	"burndown-mcp/internal/burndown"
)

// MapIssue transforms a Jira DTO into a burndown Issue. Unparseable timestamps are left zero
// (or nil) rather than failing the whole issue.
func MapIssue(item IssueDTO) burndown.Issue {
	f := item.Fields
	issue := burndown.Issue{
		Key:            item.Key,
		Summary:        f.Summary,
		Status:         f.Status.Name,
		StatusCategory: f.Status.StatusCategory.Key,
	}
	if f.Assignee != nil {
		issue.Assignee = f.Assignee.DisplayName
	}
	if f.Parent != nil {
		issue.ParentKey = f.Parent.Key
	}
	if f.TimeTracking != nil {
		issue.TimeTracking = &burndown.TimeTracking{
			OriginalEstimateSeconds:  f.TimeTracking.OriginalEstimateSeconds,
			RemainingEstimateSeconds: f.TimeTracking.RemainingEstimateSeconds,
			TimeSpentSeconds:         f.TimeTracking.TimeSpentSeconds,
		}
	}

	if t, err := ParseTime(f.Created); err == nil {
		issue.Created = t
	}
	if t, err := ParseTime(f.Updated); err == nil {
		issue.Updated = t
	}
	if f.ResolutionDate != "" {
		if t, err := ParseTime(f.ResolutionDate); err == nil {
			issue.ResolutionDate = &t
		}
	}

	for _, s := range f.Sprint {
		issue.Sprints = append(issue.Sprints, MapSprint(s))
	}
	if item.Changelog != nil {
		issue.Changelog = MapHistories(item.Changelog.Histories)
	}
	return issue
}

// MapIssues maps a slice of DTOs, keeping the first occurrence of each key.
func MapIssues(items []IssueDTO) []burndown.Issue {
	seen := make(map[string]struct{}, len(items))
	issues := make([]burndown.Issue, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.Key]; dup {
			continue
		}
		seen[item.Key] = struct{}{}
		issues = append(issues, MapIssue(item))
	}
	return issues
}

// MapHistories converts changelog entries, dropping entries without a usable timestamp.
func MapHistories(histories []HistoryDTO) []burndown.HistoryEntry {
	entries := make([]burndown.HistoryEntry, 0, len(histories))
	for _, h := range histories {
		created, err := ParseTime(h.Created)
		if err != nil {
			continue
		}
		entry := burndown.HistoryEntry{Created: created}
		if h.Author != nil {
			entry.Author = h.Author.DisplayName
		}
		for _, itm := range h.Items {
			entry.Items = append(entry.Items, burndown.HistoryItem{
				Field:      itm.Field,
				From:       itm.From,
				FromString: itm.FromString,
				To:         itm.To,
				ToString:   itm.ToString,
			})
		}
		entries = append(entries, entry)
	}
	return entries
}

// MapSprint converts an agile sprint.
func MapSprint(s SprintDTO) burndown.Sprint {
	sprint := burndown.Sprint{
		ID:      s.ID,
		Name:    s.Name,
		State:   burndown.SprintState(s.State),
		BoardID: s.OriginBoardID,
	}
	sprint.StartDate = parseOptionalTime(s.StartDate)
	sprint.EndDate = parseOptionalTime(s.EndDate)
	sprint.CompleteDate = parseOptionalTime(s.CompleteDate)
	return sprint
}

// MapWorklogs converts the work-logs of one issue, dropping entries without a start time.
func MapWorklogs(issueKey string, items []WorklogDTO) []burndown.Worklog {
	worklogs := make([]burndown.Worklog, 0, len(items))
	for _, w := range items {
		started, err := ParseTime(w.Started)
		if err != nil {
			continue
		}
		worklogs = append(worklogs, burndown.Worklog{
			IssueKey:         issueKey,
			Author:           w.Author.DisplayName,
			Started:          started,
			TimeSpentSeconds: w.TimeSpentSeconds,
		})
	}
	return worklogs
}

// MapWorklogResult converts a FetchWorklogs result into the map the burndown engine consumes.
func MapWorklogResult(result WorklogResult) map[string][]burndown.Worklog {
	out := make(map[string][]burndown.Worklog, len(result.ByIssue))
	for key, items := range result.ByIssue {
		out[key] = MapWorklogs(key, items)
	}
	return out
}

func parseOptionalTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil
	}
	return &t
}
