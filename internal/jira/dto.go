package jira

import (
	"bytes"
	"encoding/json"
	"time"
)

// SearchResponse is the top-level container for Jira search results.
type SearchResponse struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []IssueDTO `json:"issues"`
}

// IssueDTO represents a single issue in the Jira search response.
type IssueDTO struct {
	ID        string        `json:"id,omitempty"`
	Key       string        `json:"key"`
	Fields    FieldsDTO     `json:"fields"`
	Changelog *ChangelogDTO `json:"changelog,omitempty"`
}

// FieldsDTO contains the specific fields we care about.
type FieldsDTO struct {
	Summary string `json:"summary"`
	Status  struct {
		Name           string `json:"name"`
		StatusCategory struct {
			Key string `json:"key"`
		} `json:"statusCategory"`
	} `json:"status"`
	Assignee       *UserDTO         `json:"assignee,omitempty"`
	Parent         *ParentDTO       `json:"parent,omitempty"`
	TimeTracking   *TimeTrackingDTO `json:"timetracking,omitempty"`
	Created        string           `json:"created"`
	Updated        string           `json:"updated"`
	ResolutionDate string           `json:"resolutiondate,omitempty"`
	Sprint         SprintList       `json:"sprint,omitempty"`
}

// UserDTO is the reduced user object embedded in issues, histories and worklogs.
type UserDTO struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// ParentDTO references the parent issue of a sub-task.
type ParentDTO struct {
	Key string `json:"key"`
}

// TimeTrackingDTO is the time tracking block; the *Seconds fields are authoritative.
type TimeTrackingDTO struct {
	OriginalEstimate         string `json:"originalEstimate,omitempty"`
	RemainingEstimate        string `json:"remainingEstimate,omitempty"`
	TimeSpent                string `json:"timeSpent,omitempty"`
	OriginalEstimateSeconds  int64  `json:"originalEstimateSeconds"`
	RemainingEstimateSeconds int64  `json:"remainingEstimateSeconds"`
	TimeSpentSeconds         int64  `json:"timeSpentSeconds"`
}

// ChangelogDTO contains historical transitions. Jira truncates embedded changelogs; Total
// tells how many histories exist.
type ChangelogDTO struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Histories  []HistoryDTO `json:"histories"`
}

// Truncated reports whether histories are missing from the embedded changelog.
func (c *ChangelogDTO) Truncated() bool {
	return c != nil && c.Total > len(c.Histories)
}

// HistoryDTO is a single entry in the changelog.
type HistoryDTO struct {
	ID      string    `json:"id,omitempty"`
	Author  *UserDTO  `json:"author,omitempty"`
	Created string    `json:"created"`
	Items   []ItemDTO `json:"items"`
}

// ItemDTO is a single field change within a history entry.
type ItemDTO struct {
	Field      string `json:"field"`
	FieldID    string `json:"fieldId,omitempty"`
	ToString   string `json:"toString"`
	FromString string `json:"fromString"`
	To         string `json:"to"`   // ID
	From       string `json:"from"` // ID
}

// ChangelogPage is one page of /issue/{key}/changelog.
type ChangelogPage struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	IsLast     bool         `json:"isLast"`
	Values     []HistoryDTO `json:"values"`
}

// WorklogPage is one page of /issue/{key}/worklog.
type WorklogPage struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Worklogs   []WorklogDTO `json:"worklogs"`
}

// WorklogDTO is one logged-work entry. Started is when the work happened.
type WorklogDTO struct {
	ID               string  `json:"id"`
	IssueID          string  `json:"issueId"`
	Author           UserDTO `json:"author"`
	Created          string  `json:"created"`
	Updated          string  `json:"updated"`
	Started          string  `json:"started"`
	TimeSpent        string  `json:"timeSpent,omitempty"`
	TimeSpentSeconds int64   `json:"timeSpentSeconds"`
}

// BoardDTO is an agile board.
type BoardDTO struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location *struct {
		ProjectKey  string `json:"projectKey"`
		DisplayName string `json:"displayName"`
	} `json:"location,omitempty"`
}

// BoardPage is one page of /rest/agile/1.0/board.
type BoardPage struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	IsLast     bool       `json:"isLast"`
	Values     []BoardDTO `json:"values"`
}

// SprintDTO is an agile sprint.
type SprintDTO struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	CompleteDate  string `json:"completeDate,omitempty"`
	OriginBoardID int    `json:"originBoardId,omitempty"`
	Goal          string `json:"goal,omitempty"`
}

// SprintPage is one page of /rest/agile/1.0/board/{id}/sprint.
type SprintPage struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	IsLast     bool        `json:"isLast"`
	Values     []SprintDTO `json:"values"`
}

// SprintList decodes the sprint field, which the agile API sends as a single object and the
// search API as an array. Legacy string descriptors are skipped.
type SprintList []SprintDTO

func (s *SprintList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	switch data[0] {
	case '{':
		var one SprintDTO
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = SprintList{one}
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		list := make(SprintList, 0, len(raw))
		for _, r := range raw {
			var one SprintDTO
			if err := json.Unmarshal(r, &one); err != nil {
				continue
			}
			list = append(list, one)
		}
		*s = list
	default:
		*s = nil
	}
	return nil
}

// TimeLayout is the timestamp layout of the Jira REST API.
const TimeLayout = "2006-01-02T15:04:05.000-0700"

var timeLayouts = []string{
	TimeLayout,
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// ParseTime parses the timestamp formats Jira emits: its own millisecond layout, RFC 3339 as
// used by the agile API, and plain dates.
func ParseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
