package report

import (
	"fmt"
	"time"

	"burndown-mcp/internal/jira"
	"burndown-mcp/internal/snapshot"

	"github.com/rs/zerolog/log"
)

// boardSnapshot serves a board from the sprint last resolved for it. cause, when set, is the
// failure that led here and is reported if nothing is stored.
func (s *Service) boardSnapshot(b boardData, cause error) boardData {
	source := snapshot.BoardSource(b.boardID)
	s.load(source)
	stored, ok := s.store.Dataset(source)
	if !ok || stored.Sprint == nil {
		if cause != nil {
			b.err = cause
		} else {
			b.warnings = append(b.warnings, fmt.Sprintf("Board %d: no stored snapshot", b.boardID))
		}
		return b
	}
	return s.sprintSnapshot(b, stored.Sprint.ID, cause)
}

// sprintSnapshot replaces b's issues with the stored dataset of sprintID.
func (s *Service) sprintSnapshot(b boardData, sprintID int, cause error) boardData {
	source := snapshot.SprintSource(sprintID)
	s.load(source)
	stored, ok := s.store.Dataset(source)
	if !ok || stored.Sprint == nil {
		b.sprint = nil
		if cause != nil {
			b.err = cause
		} else {
			b.warnings = append(b.warnings, fmt.Sprintf("Board %d: no stored snapshot for sprint %d", b.boardID, sprintID))
		}
		return b
	}

	b.sprint = stored.Sprint
	b.issues = stored.Issues
	b.worklogs = stored.Worklogs
	b.historyAvailable = allHaveChangelog(stored.Issues)
	b.source = SourceSnapshot
	if cause != nil {
		b.warnings = append(b.warnings, cause.Error())
	}
	b.warnings = append(b.warnings, fmt.Sprintf("Board %d: serving snapshot fetched %s", b.boardID, stored.FetchedAt.Format(time.RFC3339)))
	return b
}

func (s *Service) load(source string) {
	if s.settings.SnapshotDir == "" {
		return
	}
	if err := s.store.Load(s.settings.SnapshotDir, source); err != nil {
		log.Warn().Err(err).Str("source", source).Msg("Failed to load snapshot")
	}
}

// persist stores the board's sprint and issues, with the work-logs of those issues, as the
// board's latest snapshot.
func (s *Service) persist(b boardData, worklogs map[string][]jira.WorklogDTO, at time.Time) {
	if s.settings.SnapshotDir == "" {
		return
	}

	own := make(map[string][]jira.WorklogDTO)
	for _, issue := range b.issues {
		if w, ok := worklogs[issue.Key]; ok {
			own[issue.Key] = w
		}
	}

	sprintSource := snapshot.SprintSource(b.sprint.ID)
	boardSource := snapshot.BoardSource(b.boardID)
	s.store.PutDataset(sprintSource, snapshot.Dataset{Sprint: b.sprint, Issues: b.issues, Worklogs: own}, at)
	s.store.PutDataset(boardSource, snapshot.Dataset{Sprint: b.sprint}, at)

	for _, source := range []string{sprintSource, boardSource} {
		if err := s.store.Save(s.settings.SnapshotDir, source); err != nil {
			log.Warn().Err(err).Str("source", source).Msg("Failed to save snapshot")
		}
	}
}

func allHaveChangelog(issues []jira.IssueDTO) bool {
	for _, issue := range issues {
		if issue.Changelog == nil {
			return false
		}
	}
	return true
}
