package engine

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"burndown-mcp/internal/burndown"
	"burndown-mcp/internal/jira"
	"burndown-mcp/internal/snapshot"
)

// Scenarios the generator understands.
const (
	ScenarioSteady = "steady"
	ScenarioCreep  = "creep"
	ScenarioStall  = "stall"
)

// GeneratorConfig describes the synthetic sprint to produce.
type GeneratorConfig struct {
	Scenario string
	BoardID  int
	SprintID int
	Days     int
	Count    int
	Seed     int64
	// Start is the first sprint day; zero places today in the middle of the sprint.
	Start time.Time
	Now   time.Time
}

var assignees = []string{"Ada Lovelace", "Grace Hopper", "Linus Torvalds", ""}

// Generate builds a sprint dataset with changelogs and work-logs consistent with the scenario.
// Nothing is dated after the end of cfg.Now's day.
func Generate(cfg GeneratorConfig) snapshot.Dataset {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}
	if cfg.Days < 2 {
		cfg.Days = 10
	}
	if cfg.Count <= 0 {
		cfg.Count = 12
	}
	if cfg.SprintID <= 0 {
		cfg.SprintID = 1
	}
	if cfg.Start.IsZero() {
		cfg.Start = cfg.Now.AddDate(0, 0, -cfg.Days/2)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	start := atHour(cfg.Start, 0, 9)
	end := atHour(cfg.Start, cfg.Days-1, 17)
	sprint := &jira.SprintDTO{
		ID:            cfg.SprintID,
		Name:          cfg.Name(),
		State:         "active",
		StartDate:     start.Format(jira.TimeLayout),
		EndDate:       end.Format(jira.TimeLayout),
		OriginBoardID: cfg.BoardID,
	}
	if cfg.Now.After(end) {
		sprint.State = "closed"
		sprint.CompleteDate = end.Format(jira.TimeLayout)
	}

	// Last day on which anything may have happened.
	elapsed := int(burndown.StartOfDay(cfg.Now, time.UTC).Sub(burndown.StartOfDay(start, time.UTC)).Hours() / 24)
	elapsed = max(0, min(elapsed, cfg.Days-1))

	completion, lateShare := 0.9, 0.0
	switch cfg.Scenario {
	case ScenarioCreep:
		completion, lateShare = 0.7, 0.25
	case ScenarioStall:
		completion = 0.3
	}
	lateFrom := cfg.Count - int(float64(cfg.Count)*lateShare)

	d := snapshot.Dataset{Sprint: sprint, Worklogs: make(map[string][]jira.WorklogDTO)}
	for i := range cfg.Count {
		g := issueGen{
			rng:     rng,
			cfg:     cfg,
			start:   start,
			key:     fmt.Sprintf("MOCK-%d", i+1),
			elapsed: elapsed,
		}
		issue, worklogs := g.build(i >= lateFrom && elapsed > 0, rng.Float64() < completion, cfg.Scenario == ScenarioCreep && rng.Float64() < 0.3)
		d.Issues = append(d.Issues, issue)
		if len(worklogs) > 0 {
			d.Worklogs[issue.Key] = worklogs
		}
	}
	return d
}

type issueGen struct {
	rng       *rand.Rand
	cfg       GeneratorConfig
	start     time.Time
	key       string
	elapsed   int
	histories []jira.HistoryDTO
}

func (g *issueGen) build(late, done, bump bool) (jira.IssueDTO, []jira.WorklogDTO) {
	estimate := int64(1+g.rng.Intn(8)) * burndown.SecondsPerHour
	assignee := assignees[g.rng.Intn(len(assignees))]
	created := g.start.AddDate(0, 0, -2)

	joinDay := 0
	if late {
		joinDay = 1 + g.rng.Intn(g.elapsed)
		created = atHour(g.start, joinDay, 9)
		sprintID := strconv.Itoa(g.cfg.SprintID)
		g.record(atHour(g.start, joinDay, 10), jira.ItemDTO{Field: "Sprint", To: sprintID, ToString: g.cfg.Name()})
	}

	remaining := estimate
	lastDay := g.elapsed
	toLog := remaining / 2
	if done {
		lastDay = joinDay + g.rng.Intn(g.elapsed-joinDay+1)
		toLog = remaining
	}

	var worklogs []jira.WorklogDTO
	var spent int64
	days := int64(lastDay - joinDay + 1)
	for day := joinDay; day <= lastDay; day++ {
		if bump && day == joinDay+1 {
			g.record(atHour(g.start, day, 11), durationItem("timeestimate", remaining, remaining+2*burndown.SecondsPerHour))
			remaining += 2 * burndown.SecondsPerHour
			if done {
				toLog += 2 * burndown.SecondsPerHour
			} else {
				toLog += burndown.SecondsPerHour
			}
		}
		chunk := roundQuarter(toLog / days)
		if day == lastDay || chunk > toLog {
			chunk = toLog
		}
		days--
		if chunk <= 0 {
			continue
		}
		at := atHour(g.start, day, 15)
		worklogs = append(worklogs, jira.WorklogDTO{
			ID:               fmt.Sprintf("%s-w%d", g.key, len(worklogs)+1),
			Author:           jira.UserDTO{DisplayName: orUnassigned(assignee)},
			Started:          atHour(g.start, day, 13).Format(jira.TimeLayout),
			Created:          at.Format(jira.TimeLayout),
			Updated:          at.Format(jira.TimeLayout),
			TimeSpentSeconds: chunk,
		})
		g.record(at,
			durationItem("timespent", spent, spent+chunk),
			durationItem("timeestimate", remaining, max(0, remaining-chunk)),
		)
		spent += chunk
		toLog -= chunk
		remaining = max(0, remaining-chunk)
	}

	issue := jira.IssueDTO{Key: g.key}
	f := &issue.Fields
	f.Summary = "Synthetic work item " + g.key
	f.Status.Name = "In Progress"
	f.Status.StatusCategory.Key = burndown.StatusCategoryIndeterminate
	if assignee != "" {
		f.Assignee = &jira.UserDTO{DisplayName: assignee}
	}
	f.Created = created.Format(jira.TimeLayout)
	updated := created
	if done {
		resolved := atHour(g.start, lastDay, 16)
		g.record(resolved, jira.ItemDTO{Field: "resolution", ToString: "Done"})
		f.Status.Name = "Done"
		f.Status.StatusCategory.Key = burndown.StatusCategoryDone
		f.ResolutionDate = resolved.Format(jira.TimeLayout)
		remaining = 0
	}
	if n := len(g.histories); n > 0 {
		if t, err := jira.ParseTime(g.histories[n-1].Created); err == nil {
			updated = t
		}
	}
	f.Updated = updated.Format(jira.TimeLayout)
	f.TimeTracking = &jira.TimeTrackingDTO{
		OriginalEstimate:         burndown.FormatDuration(estimate),
		RemainingEstimate:        burndown.FormatDuration(remaining),
		TimeSpent:                burndown.FormatDuration(spent),
		OriginalEstimateSeconds:  estimate,
		RemainingEstimateSeconds: remaining,
		TimeSpentSeconds:         spent,
	}
	issue.Changelog = &jira.ChangelogDTO{Total: len(g.histories), MaxResults: len(g.histories), Histories: g.histories}
	return issue, worklogs
}

func (g *issueGen) record(at time.Time, items ...jira.ItemDTO) {
	g.histories = append(g.histories, jira.HistoryDTO{
		ID:      fmt.Sprintf("%s-h%d", g.key, len(g.histories)+1),
		Created: at.Format(jira.TimeLayout),
		Items:   items,
	})
}

// Name is the sprint name used in generated Sprint field changes.
func (c GeneratorConfig) Name() string {
	return fmt.Sprintf("Mock Sprint %d", c.SprintID)
}

func durationItem(field string, from, to int64) jira.ItemDTO {
	return jira.ItemDTO{
		Field:      field,
		From:       strconv.FormatInt(from, 10),
		FromString: strconv.FormatInt(from, 10),
		To:         strconv.FormatInt(to, 10),
		ToString:   strconv.FormatInt(to, 10),
	}
}

func atHour(start time.Time, day, hour int) time.Time {
	y, m, d := start.UTC().Date()
	return time.Date(y, m, d+day, hour, 0, 0, 0, time.UTC)
}

func roundQuarter(seconds int64) int64 {
	const quarter = 15 * burndown.SecondsPerMinute
	return (seconds + quarter/2) / quarter * quarter
}

func orUnassigned(name string) string {
	if name == "" {
		return burndown.Unassigned
	}
	return name
}

// Save stores the dataset as the board's latest snapshot, readable with --offline.
func Save(outDir string, boardID int, d snapshot.Dataset, at time.Time) error {
	store := snapshot.NewStore()
	sprintSource := snapshot.SprintSource(d.Sprint.ID)
	boardSource := snapshot.BoardSource(boardID)
	store.PutDataset(sprintSource, d, at)
	store.PutDataset(boardSource, snapshot.Dataset{Sprint: d.Sprint}, at)
	for _, source := range []string{sprintSource, boardSource} {
		if err := store.Save(outDir, source); err != nil {
			return err
		}
	}
	return nil
}
