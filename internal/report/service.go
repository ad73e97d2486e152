package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"burndown-mcp/internal/burndown"
	"burndown-mcp/internal/jira"
	"burndown-mcp/internal/snapshot"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNotConfigured is returned by operations that need Jira when no client is available.
var ErrNotConfigured = errors.New("jira is not configured")

// Settings tune a Service. Zero values select defaults.
type Settings struct {
	Mode              burndown.Mode
	Location          *time.Location
	DefaultBoards     []int
	SnapshotDir       string
	WorklogBatchSize  int
	WorklogBatchPause time.Duration
	// Now overrides the clock.
	Now func() time.Time
}

// Service builds burndown reports from Jira, falling back to stored snapshots.
type Service struct {
	client   jira.Client
	store    *snapshot.Store
	settings Settings
}

// NewService creates a Service. client may be nil, in which case only snapshots are served.
func NewService(client jira.Client, store *snapshot.Store, settings Settings) *Service {
	if store == nil {
		store = snapshot.NewStore()
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Service{client: client, store: store, settings: settings}
}

// DefaultBoards returns the configured fallback board ids.
func (s *Service) DefaultBoards() []int {
	return s.settings.DefaultBoards
}

// ListBoards returns the agile boards visible to the configured account.
func (s *Service) ListBoards(ctx context.Context) ([]jira.BoardDTO, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	boards, err := s.client.GetBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// boardData is what was resolved for one board.
type boardData struct {
	boardID          int
	sprint           *jira.SprintDTO
	issues           []jira.IssueDTO
	worklogs         map[string][]jira.WorklogDTO
	historyAvailable bool
	source           Source
	warnings         []string
	err              error
}

// Build resolves the operative sprint of every requested board, fetches its issues and work-logs
// and assembles the burndown with the most accurate strategy the data allows.
func (s *Service) Build(ctx context.Context, req Request) (*Report, error) {
	boardIDs := req.BoardIDs
	if len(boardIDs) == 0 {
		boardIDs = s.settings.DefaultBoards
	}
	if len(boardIDs) == 0 {
		return nil, ErrNoBoards
	}

	requested := req.Mode
	if requested == "" {
		requested = s.settings.Mode
	}
	mode, err := burndown.ParseMode(string(requested))
	if err != nil {
		return nil, err
	}

	req.progress("Processing %d board(s)", len(boardIDs))
	now := s.settings.Now()
	rep := &Report{
		Mode:                  mode,
		Timeline:              []burndown.TimelinePoint{},
		CompletedIssuesByDate: []burndown.CompletedGroup{},
		GeneratedAt:           now,
	}

	offline := req.Offline
	if s.client == nil && !offline {
		rep.warn("Jira is not configured, serving stored snapshots")
		offline = true
	}

	boards := make([]boardData, len(boardIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range boardIDs {
		g.Go(func() error {
			b, err := s.resolveBoard(gctx, req, id, offline)
			if err != nil {
				return err
			}
			boards[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		issueDTOs        []jira.IssueDTO
		storedWorklogs   = make(map[string][]jira.WorklogDTO)
		historyAvailable = true
		online           bool
		failures         []error
		names            []string
	)
	for _, b := range boards {
		rep.Warnings = append(rep.Warnings, b.warnings...)
		if b.err != nil {
			failures = append(failures, b.err)
			rep.warn(b.err.Error())
		}
		if b.sprint == nil {
			continue
		}
		rep.Sprints = append(rep.Sprints, sprintInfo(b))
		names = append(names, b.sprint.Name)
		issueDTOs = append(issueDTOs, b.issues...)
		historyAvailable = historyAvailable && b.historyAvailable
		for key, w := range b.worklogs {
			storedWorklogs[key] = w
		}
		if b.source == SourceJira {
			online = true
		}
	}

	if len(rep.Sprints) == 0 {
		if len(failures) == len(boardIDs) {
			return nil, fmt.Errorf("failed to resolve any sprint: %w", errors.Join(failures...))
		}
		rep.Message = MessageNoSprints
		return rep, nil
	}

	issues := jira.MapIssues(issueDTOs)
	rep.IssueCount = len(issues)
	req.progress("Total: %d issues collected", len(issues))
	if len(issues) == 0 {
		rep.Message = MessageNoIssuesFound + strings.Join(names, ", ")
		return rep, nil
	}

	window, dated := s.window(boards, issues, now)
	if !dated {
		rep.warn("Sprint dates are missing, burndown uses current field values")
	}
	rep.SprintID = window.SprintID
	rep.StartDate = window.Start.Format(burndown.DateLayout)
	rep.EndDate = window.End.Format(burndown.DateLayout)

	fetchedWorklogs := storedWorklogs
	if online {
		keys := make([]string, len(issues))
		for i, issue := range issues {
			keys[i] = issue.Key
		}
		req.progress("Fetching work-logs for %d issues", len(keys))
		result, err := jira.FetchWorklogs(ctx, s.client, keys, s.settings.WorklogBatchSize, s.settings.WorklogBatchPause, func(done, total int) {
			req.progress("Work-logs fetched for %d/%d issues", done, total)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch work-logs: %w", err)
		}
		if len(result.Failed) > 0 {
			rep.warn(fmt.Sprintf("Work-logs unavailable for %d issue(s): %s", len(result.Failed), strings.Join(result.Failed, ", ")))
		}
		fetchedWorklogs = result.ByIssue
	}
	worklogs := jira.MapWorklogResult(jira.WorklogResult{ByIssue: fetchedWorklogs})

	data := dataset{
		issues:           issues,
		window:           window,
		worklogs:         worklogs,
		historyAvailable: historyAvailable,
		dated:            dated,
	}
	logger := log.Logger.With().Str("component", "burndown").Logger()
	opts := burndown.Options{Mode: mode, Now: now, Location: s.settings.Location, Logger: &logger}

	strat := selectStrategy(data)
	req.progress("Calculating burndown with the %s strategy", strat.name)
	result := strat.run(data, opts)
	log.Info().
		Str("strategy", strat.name).
		Str("mode", string(mode)).
		Int("issues", len(issues)).
		Int("worklogs", data.worklogEntries()).
		Msg("Assembled burndown")

	rep.Strategy = strat.name
	rep.TotalEstimate = result.TotalEstimate
	rep.TotalSpent = result.TotalSpent
	rep.Timeline = result.Timeline
	rep.CompletedIssuesByDate = burndown.CompletedIssuesByDate(issues, s.settings.Location)
	if dated && data.worklogEntries() > 0 {
		rep.DailyChangeSummary = burndown.BuildDailyChangeSummary(issues, worklogs, window, opts)
	}

	for _, b := range boards {
		if b.sprint != nil && b.source == SourceJira {
			s.persist(b, fetchedWorklogs, now)
		}
	}
	req.progress("Burndown complete")
	return rep, nil
}

func (r Request) progress(format string, args ...any) {
	if r.Progress != nil {
		r.Progress(fmt.Sprintf(format, args...))
	}
}

// resolveBoard finds a board's operative sprint and its issues. Only context errors are returned;
// other failures end up in boardData.err or its warnings.
func (s *Service) resolveBoard(ctx context.Context, req Request, boardID int, offline bool) (boardData, error) {
	b := boardData{boardID: boardID}
	if offline {
		req.progress("Board %d: loading stored snapshot", boardID)
		return s.boardSnapshot(b, nil), nil
	}

	req.progress("Board %d: finding operative sprint", boardID)
	sprints, err := s.client.GetSprints(ctx, boardID)
	if err != nil {
		if ctx.Err() != nil {
			return b, ctx.Err()
		}
		log.Warn().Err(err).Int("board", boardID).Msg("Failed to list sprints, trying stored snapshot")
		req.progress("Board %d: sprint lookup failed, loading stored snapshot", boardID)
		return s.boardSnapshot(b, fmt.Errorf("board %d: failed to list sprints: %w", boardID, err)), nil
	}

	sprint, ok := operativeSprint(sprints)
	if !ok {
		log.Info().Int("board", boardID).Msg("Board has no sprints")
		req.progress("Board %d: no sprint found", boardID)
		return b, nil
	}
	b.sprint = &sprint
	b.source = SourceJira
	req.progress("Board %d: found %s (%s), fetching issues with changelog", boardID, sprint.Name, sprint.State)

	issues, err := s.client.SearchSprintIssues(ctx, sprint.ID, true)
	if err == nil {
		b.issues = issues
		b.historyAvailable = true
		req.progress("Board %d: fetched %d issues", boardID, len(issues))
		return b, nil
	}
	if ctx.Err() != nil {
		return b, ctx.Err()
	}
	log.Warn().Err(err).Int("board", boardID).Int("sprint", sprint.ID).Msg("Issue search with changelog failed, retrying without history")
	req.progress("Board %d: changelog fetch failed, retrying without history", boardID)

	issues, err = s.client.SearchSprintIssues(ctx, sprint.ID, false)
	if err == nil {
		b.issues = issues
		req.progress("Board %d: fetched %d issues (no changelog)", boardID, len(issues))
		b.warnings = append(b.warnings, fmt.Sprintf("Board %d: change history unavailable, burndown uses current field values", boardID))
		return b, nil
	}
	if ctx.Err() != nil {
		return b, ctx.Err()
	}
	log.Warn().Err(err).Int("board", boardID).Int("sprint", sprint.ID).Msg("Issue search failed, trying stored snapshot")
	req.progress("Board %d: issue fetch failed, loading stored snapshot", boardID)
	return s.sprintSnapshot(b, sprint.ID, fmt.Errorf("board %d: failed to fetch issues of sprint %d: %w", boardID, sprint.ID, err)), nil
}

// operativeSprint picks the sprint to report on and returns its DTO.
func operativeSprint(sprints []jira.SprintDTO) (jira.SprintDTO, bool) {
	mapped := make([]burndown.Sprint, len(sprints))
	for i, s := range sprints {
		mapped[i] = jira.MapSprint(s)
	}
	chosen, ok := burndown.SelectOperativeSprint(mapped)
	if !ok {
		return jira.SprintDTO{}, false
	}
	for _, s := range sprints {
		if s.ID == chosen.ID {
			return s, true
		}
	}
	return jira.SprintDTO{}, false
}

// window spans the earliest sprint start to the latest sprint end. Missing dates fall back to the
// earliest issue creation day and today; dated reports whether both ends came from sprints.
func (s *Service) window(boards []boardData, issues []burndown.Issue, now time.Time) (window burndown.Window, dated bool) {
	var start, end time.Time
	sprintID := 0
	for _, b := range boards {
		if b.sprint == nil {
			continue
		}
		sprint := jira.MapSprint(*b.sprint)
		if sprintID == 0 {
			sprintID = sprint.ID
		}
		if sprint.StartDate != nil && (start.IsZero() || sprint.StartDate.Before(start)) {
			start = *sprint.StartDate
		}
		if sprint.EndDate != nil && sprint.EndDate.After(end) {
			end = *sprint.EndDate
		}
	}
	dated = !start.IsZero() && !end.IsZero()
	if start.IsZero() {
		for _, issue := range issues {
			if !issue.Created.IsZero() && (start.IsZero() || issue.Created.Before(start)) {
				start = issue.Created
			}
		}
	}
	if start.IsZero() {
		start = now
	}
	if end.IsZero() {
		end = now
	}
	return burndown.NewWindow(sprintID, start, end, s.settings.Location), dated
}

func sprintInfo(b boardData) SprintInfo {
	return SprintInfo{
		BoardID:      b.boardID,
		ID:           b.sprint.ID,
		Name:         b.sprint.Name,
		State:        b.sprint.State,
		StartDate:    b.sprint.StartDate,
		EndDate:      b.sprint.EndDate,
		CompleteDate: b.sprint.CompleteDate,
		Source:       b.source,
	}
}
