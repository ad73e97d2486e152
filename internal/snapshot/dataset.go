package snapshot

import (
	"time"

	"burndown-mcp/internal/jira"
)

// Dataset is everything fetched for one sprint.
type Dataset struct {
	Sprint    *jira.SprintDTO
	Issues    []jira.IssueDTO
	Worklogs  map[string][]jira.WorklogDTO
	FetchedAt time.Time
}

// HasWorklogs reports whether work-logs were stored with the dataset.
func (d Dataset) HasWorklogs() bool {
	return len(d.Worklogs) > 0
}

// Records flattens a dataset into store records stamped with fetchedAt.
func (d Dataset) Records(fetchedAt time.Time) []Record {
	var records []Record
	if d.Sprint != nil {
		sprint := *d.Sprint
		records = append(records, Record{Kind: KindSprint, Key: sprintKey(sprint.ID), FetchedAt: fetchedAt, Sprint: &sprint})
	}
	for i := range d.Issues {
		issue := d.Issues[i]
		records = append(records, Record{Kind: KindIssue, Key: issue.Key, FetchedAt: fetchedAt, Issue: &issue})
	}
	for key, worklogs := range d.Worklogs {
		records = append(records, Record{Kind: KindWorklogs, Key: key, FetchedAt: fetchedAt, Worklogs: worklogs})
	}
	return records
}

// Dataset assembles the records of a source. ok is false when nothing is stored.
func (s *Store) Dataset(sourceID string) (Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[sourceID]
	if len(records) == 0 {
		return Dataset{}, false
	}

	var d Dataset
	for _, r := range records {
		if r.FetchedAt.After(d.FetchedAt) {
			d.FetchedAt = r.FetchedAt
		}
		switch r.Kind {
		case KindSprint:
			if r.Sprint != nil {
				sprint := *r.Sprint
				d.Sprint = &sprint
			}
		case KindIssue:
			if r.Issue != nil {
				d.Issues = append(d.Issues, *r.Issue)
			}
		case KindWorklogs:
			if d.Worklogs == nil {
				d.Worklogs = make(map[string][]jira.WorklogDTO)
			}
			d.Worklogs[r.Key] = r.Worklogs
		}
	}
	return d, true
}

// PutDataset replaces the stored content of a source with d.
func (s *Store) PutDataset(sourceID string, d Dataset, fetchedAt time.Time) {
	s.Replace(sourceID, d.Records(fetchedAt))
}

func sprintKey(id int) string {
	return SprintSource(id)
}
