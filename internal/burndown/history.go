package burndown

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// SprintEventType tells whether an issue entered or left a sprint.
type SprintEventType string

const (
	SprintAdded   SprintEventType = "added"
	SprintRemoved SprintEventType = "removed"
)

// SprintEvent is a membership transition of one issue for one sprint.
type SprintEvent struct {
	IssueKey string
	At       time.Time
	Type     SprintEventType
	SprintID int
}

// EstimateChange is a change of the original or remaining estimate, in seconds.
type EstimateChange struct {
	IssueKey string
	At       time.Time
	Field    FieldKind
	From     int64
	To       int64
	Author   string
}

// TimeSpentChange is a change of the cumulative time spent field, in seconds.
type TimeSpentChange struct {
	IssueKey string
	At       time.Time
	From     int64
	To       int64
	Delta    int64
	Author   string
}

var sprintIDPattern = regexp.MustCompile(`id=(\d+)`)

// parseSprintIDs collects the sprint ids referenced by a changelog value. Server descriptors embed
// "id=<n>" tokens; cloud instances emit plain comma-separated ids.
func parseSprintIDs(raw string) map[int]struct{} {
	ids := make(map[int]struct{})
	if matches := sprintIDPattern.FindAllStringSubmatch(raw, -1); len(matches) > 0 {
		for _, m := range matches {
			if id, err := strconv.Atoi(m[1]); err == nil {
				ids[id] = struct{}{}
			}
		}
		return ids
	}
	for _, part := range strings.Split(raw, ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// itemValue prefers the display value and falls back to the raw one.
func itemValue(display, raw string) string {
	if strings.TrimSpace(display) != "" {
		return display
	}
	return raw
}

// ExtractSprintEvents lists the times the issue was added to or removed from sprintID.
func ExtractSprintEvents(issue Issue, sprintID int) []SprintEvent {
	var events []SprintEvent
	for _, h := range issue.Changelog {
		for _, item := range h.Items {
			if ClassifyField(item.Field) != FieldSprint {
				continue
			}
			_, before := parseSprintIDs(item.From)[sprintID]
			_, after := parseSprintIDs(item.To)[sprintID]
			switch {
			case !before && after:
				events = append(events, SprintEvent{IssueKey: issue.Key, At: h.Created, Type: SprintAdded, SprintID: sprintID})
			case before && !after:
				events = append(events, SprintEvent{IssueKey: issue.Key, At: h.Created, Type: SprintRemoved, SprintID: sprintID})
			}
		}
	}
	slices.SortStableFunc(events, func(a, b SprintEvent) int { return a.At.Compare(b.At) })
	return events
}

// ExtractEstimateChanges lists original and remaining estimate changes of the issue.
func ExtractEstimateChanges(issue Issue) []EstimateChange {
	var changes []EstimateChange
	for _, h := range issue.Changelog {
		for _, item := range h.Items {
			kind := ClassifyField(item.Field)
			if kind != FieldOriginalEstimate && kind != FieldRemainingEstimate {
				continue
			}
			changes = append(changes, EstimateChange{
				IssueKey: issue.Key,
				At:       h.Created,
				Field:    kind,
				From:     ParseDuration(itemValue(item.FromString, item.From)),
				To:       ParseDuration(itemValue(item.ToString, item.To)),
				Author:   h.Author,
			})
		}
	}
	slices.SortStableFunc(changes, func(a, b EstimateChange) int { return a.At.Compare(b.At) })
	return changes
}

// ExtractTimeSpentChanges lists changes of the issue's time spent field.
func ExtractTimeSpentChanges(issue Issue) []TimeSpentChange {
	var changes []TimeSpentChange
	for _, h := range issue.Changelog {
		for _, item := range h.Items {
			if ClassifyField(item.Field) != FieldTimeSpent {
				continue
			}
			from := ParseDuration(itemValue(item.FromString, item.From))
			to := ParseDuration(itemValue(item.ToString, item.To))
			changes = append(changes, TimeSpentChange{
				IssueKey: issue.Key,
				At:       h.Created,
				From:     from,
				To:       to,
				Delta:    to - from,
				Author:   h.Author,
			})
		}
	}
	slices.SortStableFunc(changes, func(a, b TimeSpentChange) int { return a.At.Compare(b.At) })
	return changes
}

// estimateChangesFor keeps only the changes of one field, preserving order.
func estimateChangesFor(changes []EstimateChange, field FieldKind) []EstimateChange {
	var out []EstimateChange
	for _, c := range changes {
		if c.Field == field {
			out = append(out, c)
		}
	}
	return out
}

// issueEvents is the extracted history of one issue for one sprint.
type issueEvents struct {
	sprint    []SprintEvent
	estimates []EstimateChange
	timeSpent []TimeSpentChange
}

func extractAll(issues []Issue, sprintID int) (map[string]issueEvents, int) {
	events := make(map[string]issueEvents, len(issues))
	timeSpentTotal := 0
	for _, issue := range issues {
		ev := issueEvents{
			sprint:    ExtractSprintEvents(issue, sprintID),
			estimates: ExtractEstimateChanges(issue),
			timeSpent: ExtractTimeSpentChanges(issue),
		}
		timeSpentTotal += len(ev.timeSpent)
		events[issue.Key] = ev
	}
	return events, timeSpentTotal
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])
	return keys
}
