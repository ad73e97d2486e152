package report

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"burndown-mcp/internal/burndown"
	"burndown-mcp/internal/jira"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	jira.Client

	sprints      map[int][]jira.SprintDTO
	sprintErr    error
	issues       map[int][]jira.IssueDTO
	changelogErr error
	searchErr    error
	worklogs     map[string][]jira.WorklogDTO

	mu       sync.Mutex
	searches []bool
}

func (m *mockClient) GetSprints(_ context.Context, boardID int) ([]jira.SprintDTO, error) {
	if m.sprintErr != nil {
		return nil, m.sprintErr
	}
	return m.sprints[boardID], nil
}

func (m *mockClient) SearchSprintIssues(_ context.Context, sprintID int, withChangelog bool) ([]jira.IssueDTO, error) {
	m.mu.Lock()
	m.searches = append(m.searches, withChangelog)
	m.mu.Unlock()

	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if withChangelog && m.changelogErr != nil {
		return nil, m.changelogErr
	}
	issues := make([]jira.IssueDTO, len(m.issues[sprintID]))
	copy(issues, m.issues[sprintID])
	if !withChangelog {
		for i := range issues {
			issues[i].Changelog = nil
		}
	}
	return issues, nil
}

func (m *mockClient) GetIssueWorklogs(_ context.Context, key string) ([]jira.WorklogDTO, error) {
	return m.worklogs[key], nil
}

func (m *mockClient) GetBoards(_ context.Context) ([]jira.BoardDTO, error) {
	return []jira.BoardDTO{{ID: 1, Name: "Team board", Type: "scrum"}}, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
}

func sprintDTO(id int, name, state, start, end string) jira.SprintDTO {
	return jira.SprintDTO{ID: id, Name: name, State: state, StartDate: start, EndDate: end}
}

func issueDTO(key string, estimate, spent int64, resolved string) jira.IssueDTO {
	issue := jira.IssueDTO{Key: key}
	issue.Fields.Summary = "Work on " + key
	issue.Fields.Created = "2025-01-01T08:00:00.000+0000"
	issue.Fields.Updated = "2025-01-03T15:00:00.000+0000"
	issue.Fields.ResolutionDate = resolved
	issue.Fields.TimeTracking = &jira.TimeTrackingDTO{
		OriginalEstimateSeconds:  estimate,
		RemainingEstimateSeconds: estimate - spent,
		TimeSpentSeconds:         spent,
	}
	issue.Changelog = &jira.ChangelogDTO{Histories: []jira.HistoryDTO{}}
	return issue
}

func worklog(started string, seconds int64) jira.WorklogDTO {
	return jira.WorklogDTO{Author: jira.UserDTO{DisplayName: "Dana"}, Started: started, TimeSpentSeconds: seconds}
}

func januaryClient() *mockClient {
	return &mockClient{
		sprints: map[int][]jira.SprintDTO{
			1: {
				sprintDTO(9, "Sprint 9", "closed", "2024-12-16T09:00:00.000Z", "2024-12-27T17:00:00.000Z"),
				sprintDTO(10, "Sprint 10", "active", "2025-01-01T09:00:00.000Z", "2025-01-05T17:00:00.000Z"),
			},
		},
		issues: map[int][]jira.IssueDTO{
			10: {
				issueDTO("X-1", 28800, 28800, "2025-01-03T15:00:00.000+0000"),
				issueDTO("X-2", 14400, 0, ""),
			},
		},
		worklogs: map[string][]jira.WorklogDTO{
			"X-1": {
				worklog("2025-01-02T10:00:00.000+0000", 3600),
				worklog("2025-01-03T10:00:00.000+0000", 25200),
			},
		},
	}
}

func TestBuildUsesWorklogsAndPersistsSnapshot(t *testing.T) {
	dir := t.TempDir()
	client := januaryClient()
	svc := NewService(client, nil, Settings{SnapshotDir: dir, Now: fixedNow})

	rep, err := svc.Build(context.Background(), Request{BoardIDs: []int{1}})
	require.NoError(t, err)

	require.Len(t, rep.Sprints, 1)
	assert.Equal(t, 10, rep.Sprints[0].ID)
	assert.Equal(t, SourceJira, rep.Sprints[0].Source)
	assert.Equal(t, StrategyWorklog, rep.Strategy)
	assert.Equal(t, burndown.ModeOriginal, rep.Mode)
	assert.Equal(t, "2025-01-01", rep.StartDate)
	assert.Equal(t, "2025-01-05", rep.EndDate)
	assert.Equal(t, 2, rep.IssueCount)
	assert.Equal(t, int64(43200), rep.TotalEstimate)
	assert.Equal(t, int64(28800), rep.TotalSpent)

	require.Len(t, rep.Timeline, 5)
	assert.Equal(t, int64(43200), rep.Timeline[0].RemainingWorkSeconds)
	assert.Equal(t, int64(14400), rep.Timeline[2].RemainingWorkSeconds)
	assert.Equal(t, int64(28800), rep.Timeline[4].TimeSpentSeconds)

	require.Len(t, rep.DailyChangeSummary, 5)
	assert.Equal(t, int64(3600), rep.DailyChangeSummary[1].TotalTimeSpentDelta)
	require.Len(t, rep.CompletedIssuesByDate, 1)
	assert.Equal(t, "2025-01-03", rep.CompletedIssuesByDate[0].Date)
	assert.Empty(t, rep.Warnings)
	assert.Equal(t, []bool{true}, client.searches)

	assert.FileExists(t, filepath.Join(dir, "sprint-10.jsonl"))
	assert.FileExists(t, filepath.Join(dir, "board-1.jsonl"))
}

func TestBuildFallsBackToHistoryWithoutWorklogs(t *testing.T) {
	client := januaryClient()
	client.worklogs = nil
	svc := NewService(client, nil, Settings{Now: fixedNow})

	rep, err := svc.Build(context.Background(), Request{BoardIDs: []int{1}, Mode: burndown.ModeRemaining})
	require.NoError(t, err)
	assert.Equal(t, StrategyHistory, rep.Strategy)
	assert.Equal(t, burndown.ModeRemaining, rep.Mode)
	assert.Nil(t, rep.DailyChangeSummary)
}

func TestBuildRetriesWithoutChangelog(t *testing.T) {
	client := januaryClient()
	client.worklogs = nil
	client.changelogErr = errors.New("changelog expansion rejected")
	svc := NewService(client, nil, Settings{Now: fixedNow})

	rep, err := svc.Build(context.Background(), Request{BoardIDs: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, client.searches)
	assert.Equal(t, StrategySnapshot, rep.Strategy)
	require.Len(t, rep.Warnings, 1)
	assert.Contains(t, rep.Warnings[0], "change history unavailable")
	assert.Equal(t, int64(43200), rep.TotalEstimate)
}

func TestBuildServesStoredSnapshotOffline(t *testing.T) {
	dir := t.TempDir()
	_, err := NewService(januaryClient(), nil, Settings{SnapshotDir: dir, Now: fixedNow}).
		Build(context.Background(), Request{BoardIDs: []int{1}})
	require.NoError(t, err)

	offline := NewService(nil, nil, Settings{SnapshotDir: dir, Now: fixedNow})
	rep, err := offline.Build(context.Background(), Request{BoardIDs: []int{1}, Offline: true})
	require.NoError(t, err)

	require.Len(t, rep.Sprints, 1)
	assert.Equal(t, SourceSnapshot, rep.Sprints[0].Source)
	assert.Equal(t, "Sprint 10", rep.Sprints[0].Name)
	assert.Equal(t, 2, rep.IssueCount)
	assert.Equal(t, StrategyWorklog, rep.Strategy)
	assert.Equal(t, int64(28800), rep.TotalSpent)
	require.NotEmpty(t, rep.Warnings)
	assert.Contains(t, rep.Warnings[len(rep.Warnings)-1], "serving snapshot")
}

func TestBuildFallsBackToSnapshotWhenSearchFails(t *testing.T) {
	dir := t.TempDir()
	_, err := NewService(januaryClient(), nil, Settings{SnapshotDir: dir, Now: fixedNow}).
		Build(context.Background(), Request{BoardIDs: []int{1}})
	require.NoError(t, err)

	failing := januaryClient()
	failing.searchErr = &jira.APIError{StatusCode: 503, Endpoint: "/rest/api/2/search"}
	rep, err := NewService(failing, nil, Settings{SnapshotDir: dir, Now: fixedNow}).
		Build(context.Background(), Request{BoardIDs: []int{1}})
	require.NoError(t, err)

	require.Len(t, rep.Sprints, 1)
	assert.Equal(t, SourceSnapshot, rep.Sprints[0].Source)
	assert.Equal(t, 2, rep.IssueCount)
	assert.Contains(t, rep.Warnings[0], "failed to fetch issues of sprint 10")
}

func TestBuildFailsWhenNothingCanBeResolved(t *testing.T) {
	client := januaryClient()
	client.sprintErr = errors.New("connection refused")
	svc := NewService(client, nil, Settings{SnapshotDir: t.TempDir(), Now: fixedNow})

	_, err := svc.Build(context.Background(), Request{BoardIDs: []int{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBuildAggregatesBoards(t *testing.T) {
	client := januaryClient()
	client.sprints[2] = []jira.SprintDTO{
		sprintDTO(20, "Sprint 20", "active", "2025-01-03T09:00:00.000Z", "2025-01-08T17:00:00.000Z"),
	}
	client.issues[20] = []jira.IssueDTO{
		issueDTO("X-2", 14400, 0, ""),
		issueDTO("Y-1", 7200, 0, ""),
	}
	svc := NewService(client, nil, Settings{Now: fixedNow})

	rep, err := svc.Build(context.Background(), Request{BoardIDs: []int{1, 2}})
	require.NoError(t, err)

	require.Len(t, rep.Sprints, 2)
	assert.Equal(t, 1, rep.Sprints[0].BoardID)
	assert.Equal(t, 2, rep.Sprints[1].BoardID)
	assert.Equal(t, 10, rep.SprintID)
	assert.Equal(t, 3, rep.IssueCount)
	assert.Equal(t, "2025-01-01", rep.StartDate)
	assert.Equal(t, "2025-01-08", rep.EndDate)
	assert.Len(t, rep.Timeline, 8)
	assert.Equal(t, "Sprint 10 + Sprint 20 burndown", rep.Title())
}

func TestBuildEmptyResults(t *testing.T) {
	t.Run("no sprints", func(t *testing.T) {
		svc := NewService(&mockClient{}, nil, Settings{Now: fixedNow})
		rep, err := svc.Build(context.Background(), Request{BoardIDs: []int{5}})
		require.NoError(t, err)
		assert.Equal(t, MessageNoSprints, rep.Message)
		assert.NotNil(t, rep.Timeline)
		assert.Empty(t, rep.Timeline)
	})

	t.Run("sprint without issues", func(t *testing.T) {
		client := januaryClient()
		client.issues = nil
		svc := NewService(client, nil, Settings{Now: fixedNow})
		rep, err := svc.Build(context.Background(), Request{BoardIDs: []int{1}})
		require.NoError(t, err)
		assert.Equal(t, "Sprint found but has no issues: Sprint 10", rep.Message)
		assert.Zero(t, rep.IssueCount)
	})
}

func TestBuildValidatesRequest(t *testing.T) {
	svc := NewService(januaryClient(), nil, Settings{Now: fixedNow})

	_, err := svc.Build(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoBoards)

	_, err = svc.Build(context.Background(), Request{BoardIDs: []int{1}, Mode: "velocity"})
	assert.ErrorIs(t, err, burndown.ErrUnknownMode)

	withDefaults := NewService(januaryClient(), nil, Settings{Now: fixedNow, DefaultBoards: []int{1}, Mode: burndown.ModeRemaining})
	rep, err := withDefaults.Build(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, burndown.ModeRemaining, rep.Mode)
	assert.Equal(t, 10, rep.SprintID)
}

func TestBuildWithoutClientWarns(t *testing.T) {
	svc := NewService(nil, nil, Settings{Now: fixedNow})
	rep, err := svc.Build(context.Background(), Request{BoardIDs: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, MessageNoSprints, rep.Message)
	assert.Contains(t, rep.Warnings, "Jira is not configured, serving stored snapshots")

	_, err = svc.ListBoards(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestListBoards(t *testing.T) {
	boards, err := NewService(januaryClient(), nil, Settings{}).ListBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "Team board", boards[0].Name)
}

func TestSelectStrategyOrder(t *testing.T) {
	logs := map[string][]burndown.Worklog{"X-1": {{IssueKey: "X-1", TimeSpentSeconds: 60}}}

	assert.Equal(t, StrategySnapshot, selectStrategy(dataset{dated: true}).name)
	assert.Equal(t, StrategyHistory, selectStrategy(dataset{dated: true, historyAvailable: true}).name)
	assert.Equal(t, StrategyWorklog, selectStrategy(dataset{dated: true, worklogs: logs}).name)
	withEmptyLogs := dataset{dated: true, worklogs: map[string][]burndown.Worklog{"X-1": {}}}
	assert.Equal(t, StrategySnapshot, selectStrategy(withEmptyLogs).name)

	undated := dataset{historyAvailable: true, worklogs: logs}
	assert.Equal(t, StrategySnapshot, selectStrategy(undated).name)
}

func TestBuildWithoutSprintDatesUsesSnapshot(t *testing.T) {
	client := januaryClient()
	client.sprints[1] = []jira.SprintDTO{sprintDTO(10, "Sprint 10", "active", "", "")}
	svc := NewService(client, nil, Settings{Now: fixedNow})

	rep, err := svc.Build(context.Background(), Request{BoardIDs: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, StrategySnapshot, rep.Strategy)
	assert.Equal(t, "2025-01-01", rep.StartDate)
	assert.Equal(t, "2025-01-10", rep.EndDate)
	assert.Nil(t, rep.DailyChangeSummary)
	assert.Contains(t, rep.Warnings, "Sprint dates are missing, burndown uses current field values")
}

func TestBuildReportsProgress(t *testing.T) {
	client := januaryClient()
	client.changelogErr = errors.New("changelog too large")
	svc := NewService(client, nil, Settings{Now: fixedNow, WorklogBatchSize: 1})

	var mu sync.Mutex
	var messages []string
	rep, err := svc.Build(context.Background(), Request{BoardIDs: []int{1}, Progress: func(msg string) {
		mu.Lock()
		messages = append(messages, msg)
		mu.Unlock()
	}})
	require.NoError(t, err)
	require.NotEmpty(t, rep.Timeline)

	assert.Equal(t, []string{
		"Processing 1 board(s)",
		"Board 1: finding operative sprint",
		"Board 1: found Sprint 10 (active), fetching issues with changelog",
		"Board 1: changelog fetch failed, retrying without history",
		"Board 1: fetched 2 issues (no changelog)",
		"Total: 2 issues collected",
		"Fetching work-logs for 2 issues",
		"Work-logs fetched for 1/2 issues",
		"Work-logs fetched for 2/2 issues",
		"Calculating burndown with the worklog strategy",
		"Burndown complete",
	}, messages)
}

func TestBuildReportsOfflineProgress(t *testing.T) {
	svc := NewService(nil, nil, Settings{Now: fixedNow})

	var messages []string
	_, err := svc.Build(context.Background(), Request{BoardIDs: []int{3}, Offline: true, Progress: func(msg string) {
		messages = append(messages, msg)
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Processing 1 board(s)", "Board 3: loading stored snapshot"}, messages)
}
