package burndown

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Mode selects which estimate field drives the remaining-work math.
type Mode string

const (
	// ModeOriginal burns down the original estimate of unfinished issues.
	ModeOriginal Mode = "original"
	// ModeRemaining sums the live remaining estimate of unfinished issues.
	ModeRemaining Mode = "remaining"
)

// ErrUnknownMode is returned by ParseMode for anything other than "original" or "remaining".
var ErrUnknownMode = errors.New("unknown calculation mode")

// ParseMode resolves a user supplied mode. The empty string selects ModeOriginal.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeOriginal):
		return ModeOriginal, nil
	case string(ModeRemaining):
		return ModeRemaining, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Status categories as reported by the tracker.
const (
	StatusCategoryNew           = "new"
	StatusCategoryIndeterminate = "indeterminate"
	StatusCategoryDone          = "done"
)

// TimeTracking holds the time-tracking fields of an issue, all in seconds.
type TimeTracking struct {
	OriginalEstimateSeconds  int64
	RemainingEstimateSeconds int64
	TimeSpentSeconds         int64
}

// Issue is a work item as seen by the burndown engine.
type Issue struct {
	Key            string
	Summary        string
	Status         string
	StatusCategory string
	Assignee       string
	ParentKey      string
	TimeTracking   *TimeTracking
	Created        time.Time
	Updated        time.Time
	ResolutionDate *time.Time
	Sprints        []Sprint
	// Changelog is nil when history was not fetched.
	Changelog []HistoryEntry
}

func (i Issue) originalEstimate() int64 {
	if i.TimeTracking == nil {
		return 0
	}
	return i.TimeTracking.OriginalEstimateSeconds
}

func (i Issue) remainingEstimate() int64 {
	if i.TimeTracking == nil {
		return 0
	}
	return i.TimeTracking.RemainingEstimateSeconds
}

func (i Issue) timeSpent() int64 {
	if i.TimeTracking == nil {
		return 0
	}
	return i.TimeTracking.TimeSpentSeconds
}

// currentEstimate returns the snapshot value of the estimate field selected by mode.
func (i Issue) currentEstimate(mode Mode) int64 {
	if mode == ModeRemaining {
		return i.remainingEstimate()
	}
	return i.originalEstimate()
}

// HistoryEntry is one changelog record: a timestamp and the fields changed at that instant.
type HistoryEntry struct {
	Created time.Time
	Author  string
	Items   []HistoryItem
}

// HistoryItem is a single field change. From/To are raw values, FromString/ToString the
// display values; either may be empty.
type HistoryItem struct {
	Field      string
	From       string
	FromString string
	To         string
	ToString   string
}

// SprintState is the lifecycle state of a sprint.
type SprintState string

const (
	SprintFuture SprintState = "future"
	SprintActive SprintState = "active"
	SprintClosed SprintState = "closed"
)

// Sprint describes a time-boxed iteration.
type Sprint struct {
	ID           int
	Name         string
	State        SprintState
	BoardID      int
	StartDate    *time.Time
	EndDate      *time.Time
	CompleteDate *time.Time
}

// Worklog is one logged-work entry. Started is when the work was performed.
type Worklog struct {
	IssueKey         string
	Author           string
	Started          time.Time
	TimeSpentSeconds int64
}

// TimelinePoint is the burndown state for one calendar day.
type TimelinePoint struct {
	Date                  string  `json:"date"`
	TimeSpentSeconds      int64   `json:"timeSpentSeconds"`
	TimeEstimateSeconds   int64   `json:"timeEstimateSeconds"`
	RemainingWorkSeconds  int64   `json:"remainingWorkSeconds"`
	IdealRemainingSeconds float64 `json:"idealRemainingSeconds"`
	Ratio                 float64 `json:"ratio"`
	IssuesCompleted       int     `json:"issuesCompleted"`
	TotalIssues           int     `json:"totalIssues"`
	DeltaSeconds          int64   `json:"deltaSeconds"`
	DeltaReason           string  `json:"deltaReason,omitempty"`
}

// Burndown is the output of a timeline assembler.
type Burndown struct {
	TotalEstimate int64           `json:"totalEstimate"`
	TotalSpent    int64           `json:"totalSpent"`
	Timeline      []TimelinePoint `json:"timeline"`
}

// Options tune one computation. The zero value is usable.
type Options struct {
	Mode Mode
	// Now is the invocation's current instant; zero means time.Now().
	Now time.Time
	// Location is the single zone used for every calendar-day bucketing; nil means UTC.
	Location *time.Location
	// Logger receives debug tracing; nil disables it.
	Logger *zerolog.Logger
}

func (o Options) mode() Mode {
	if o.Mode == ModeRemaining {
		return ModeRemaining
	}
	return ModeOriginal
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}
