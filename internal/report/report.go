package report

import (
	"errors"
	"time"

	"burndown-mcp/internal/burndown"
)

// ErrNoBoards is returned when a request names no board and no default is configured.
var ErrNoBoards = errors.New("at least one board id is required")

// Empty-result messages.
const (
	MessageNoSprints     = "No sprints found for the selected boards"
	MessageNoIssuesFound = "Sprint found but has no issues: "
)

// Request selects the boards and calculation mode of one burndown.
type Request struct {
	BoardIDs []int
	// Mode defaults to the service's configured mode when empty.
	Mode burndown.Mode
	// Offline serves the last stored snapshot without contacting Jira.
	Offline bool
	// Progress receives status lines while boards and work-logs are fetched.
	Progress ProgressFunc
}

// ProgressFunc receives one status line. Boards resolve in parallel, so it may be called from
// several goroutines at once.
type ProgressFunc func(message string)

// SprintInfo describes the operative sprint resolved for one board.
type SprintInfo struct {
	BoardID      int    `json:"boardId"`
	ID           int    `json:"id"`
	Name         string `json:"name"`
	State        string `json:"state"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	CompleteDate string `json:"completeDate,omitempty"`
	Source       Source `json:"source"`
}

// Source tells where a board's data came from.
type Source string

const (
	SourceJira     Source = "jira"
	SourceSnapshot Source = "snapshot"
)

// Report is the burndown of the selected boards' operative sprints.
type Report struct {
	Sprints               []SprintInfo                  `json:"sprints"`
	SprintID              int                           `json:"sprintId,omitempty"`
	StartDate             string                        `json:"startDate,omitempty"`
	EndDate               string                        `json:"endDate,omitempty"`
	Mode                  burndown.Mode                 `json:"mode"`
	Strategy              string                        `json:"strategy,omitempty"`
	IssueCount            int                           `json:"issueCount"`
	TotalEstimate         int64                         `json:"totalEstimate"`
	TotalSpent            int64                         `json:"totalSpent"`
	Timeline              []burndown.TimelinePoint      `json:"timeline"`
	CompletedIssuesByDate []burndown.CompletedGroup     `json:"completedIssuesByDate"`
	DailyChangeSummary    []burndown.DailyChangeSummary `json:"dailyChangeSummary,omitempty"`
	Warnings              []string                      `json:"warnings,omitempty"`
	Message               string                        `json:"message,omitempty"`
	GeneratedAt           time.Time                     `json:"generatedAt"`
}

// Title is a one-line caption for charts and tables.
func (r *Report) Title() string {
	switch len(r.Sprints) {
	case 0:
		return "Sprint burndown"
	case 1:
		return r.Sprints[0].Name + " burndown"
	default:
		title := r.Sprints[0].Name
		for _, s := range r.Sprints[1:] {
			title += " + " + s.Name
		}
		return title + " burndown"
	}
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
