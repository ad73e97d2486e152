package burndown

import (
	"time"

	"github.com/rs/zerolog"
)

// Delta reason tags attached to each observed day after the first.
const (
	reasonNoChange  = "No change"
	reasonCompleted = "Completed work: "
	reasonAdded     = "Scope added: +"
)

// dayTotals is the aggregate of one observed day.
type dayTotals struct {
	spent     int64
	estimate  int64
	remaining int64
	completed int
	members   int
}

// BuildSnapshotTimeline assembles a timeline from current field values only. An issue counts from
// its creation day; its time spent counts from its last update.
func BuildSnapshotTimeline(issues []Issue, window Window, opts Options) Burndown {
	loc := window.Location()
	mode := opts.mode()
	log := opts.logger()
	today := StartOfDay(opts.now(), loc)
	days := window.Days()

	totals := SnapshotTotals(issues, opts)
	out := Burndown{TotalEstimate: totals.Estimate, TotalSpent: totals.Spent, Timeline: make([]TimelinePoint, 0, len(days))}
	if len(days) == 0 {
		return out
	}

	// The ideal line starts from what was in scope on day 0.
	var initialTotal int64
	for _, issue := range issues {
		if onOrBefore(issue.Created, days[0], loc) {
			initialTotal += issue.currentEstimate(mode)
		}
	}

	var observed []dayTotals
	for i, day := range days {
		if day.After(today) {
			observed = append(observed, dayTotals{})
			continue
		}
		var t dayTotals
		for _, issue := range issues {
			if !onOrBefore(issue.Created, day, loc) {
				continue
			}
			t.members++
			if onOrBefore(issue.Updated, day, loc) {
				t.spent += issue.timeSpent()
			}
			est := issue.currentEstimate(mode)
			t.estimate += est
			if isDoneBy(issue, day, today, loc) {
				t.completed++
				continue
			}
			t.remaining += est
		}
		observed = append(observed, t)
		log.Debug().Str("day", day.Format(DateLayout)).Int("index", i).Int64("remaining", t.remaining).Msg("snapshot day")
	}

	out.Timeline = composeTimeline(days, today, observed, initialTotal)
	return out
}

// BuildHistoryTimeline assembles a timeline by replaying each issue's changelog over the sprint
// window. Time spent follows changelog time spent changes, or the snapshot approximation when the
// whole issue set has none.
func BuildHistoryTimeline(issues []Issue, window Window, opts Options) Burndown {
	totals := HistoryTotals(issues, window, nil, opts)
	return Burndown{
		TotalEstimate: totals.Estimate,
		TotalSpent:    totals.Spent,
		Timeline:      buildDailyTimeline(issues, window, nil, opts),
	}
}

// BuildWorklogTimeline is BuildHistoryTimeline with time spent sourced from work-log entries.
// worklogs is keyed by issue key; an issue without entries logged nothing.
func BuildWorklogTimeline(issues []Issue, window Window, worklogs map[string][]Worklog, opts Options) Burndown {
	loc := window.Location()
	totals := HistoryTotals(issues, window, worklogs, opts)
	if worklogs == nil {
		worklogs = map[string][]Worklog{}
	}
	daily := BuildDailyLoggedTime(worklogs, window.Days(), loc)
	return Burndown{
		TotalEstimate: totals.Estimate,
		TotalSpent:    totals.Spent,
		Timeline:      buildDailyTimeline(issues, window, daily, opts),
	}
}

// buildDailyTimeline walks the window day by day. dailyLogged, when not nil, replaces the
// changelog as the source of cumulative time spent.
func buildDailyTimeline(issues []Issue, window Window, dailyLogged []map[string]int64, opts Options) []TimelinePoint {
	loc := window.Location()
	mode := opts.mode()
	field := estimateField(mode)
	log := opts.logger()
	today := StartOfDay(opts.now(), loc)
	days := window.Days()
	if len(days) == 0 {
		return []TimelinePoint{}
	}

	byKey := make(map[string]Issue, len(issues))
	for _, issue := range issues {
		byKey[issue.Key] = issue
	}
	events, timeSpentEvents := extractAll(issues, window.SprintID)
	keys := sortedKeys(byKey)

	// Original estimates are taken as they are now; see DESIGN.md.
	estimateAt := func(key string, at time.Time) int64 {
		issue := byKey[key]
		if mode == ModeOriginal {
			return issue.originalEstimate()
		}
		return ReconstructAt(estimateChangesFor(events[key].estimates, FieldRemainingEstimate), at, issue.remainingEstimate())
	}

	approximateSpent := dailyLogged == nil && timeSpentEvents == 0
	if approximateSpent {
		log.Debug().Msg("no time spent history, attributing snapshot time spent to resolution or update day")
	}

	state := seedDayState(keys, events, days[0], loc, estimateAt, log)
	var initialTotal int64
	for key := range state.members {
		initialTotal += state.estimate[key]
	}

	observed := make([]dayTotals, len(days))
	for i, day := range days {
		if i > 0 {
			state = state.clone()
			applyDayEvents(state, keys, events, day, loc, field, dailyLogged == nil && !approximateSpent, estimateAt, log)
		}
		if day.After(today) {
			continue
		}

		var t dayTotals
		for _, key := range keys {
			if !state.isMember(key) {
				continue
			}
			issue := byKey[key]
			t.members++
			est := state.estimate[key]
			t.estimate += est

			switch {
			case dailyLogged != nil:
				t.spent += dailyLogged[i][key]
			case approximateSpent:
				if i > 0 && onOrBefore(lastActivity(issue), day, loc) {
					t.spent += issue.timeSpent()
				}
			default:
				t.spent += state.logged[key]
			}

			if isDoneBy(issue, day, today, loc) {
				t.completed++
				continue
			}
			t.remaining += est
		}
		observed[i] = t
		log.Debug().
			Str("day", day.Format(DateLayout)).
			Int("members", t.members).
			Int64("estimate", t.estimate).
			Int64("remaining", t.remaining).
			Int64("spent", t.spent).
			Msg("burndown day")
	}

	return composeTimeline(days, today, observed, initialTotal)
}

// seedDayState replays sprint events up to the first day to decide the initial members. An issue
// never added to the sprint has been a member since before it started.
func seedDayState(keys []string, events map[string]issueEvents, first time.Time, loc *time.Location, estimateAt func(string, time.Time) int64, log *zerolog.Logger) dayState {
	state := newDayState()
	at := EndOfDay(first, loc)
	for _, key := range keys {
		ev := events[key]
		member := true
		for _, e := range ev.sprint {
			if e.Type == SprintAdded {
				member = false
				break
			}
		}
		for _, e := range ev.sprint {
			if !onOrBefore(e.At, first, loc) {
				break
			}
			member = e.Type == SprintAdded
		}
		if !member {
			continue
		}
		state.add(key, estimateAt(key, at))
		log.Debug().Str("issue", key).Int64("estimate", state.estimate[key]).Msg("initial sprint member")
	}
	return state
}

// applyDayEvents applies the membership, estimate and time spent changes dated on day.
func applyDayEvents(state dayState, keys []string, events map[string]issueEvents, day time.Time, loc *time.Location, field FieldKind, trackSpent bool, estimateAt func(string, time.Time) int64, log *zerolog.Logger) {
	for _, key := range keys {
		for _, e := range events[key].sprint {
			if !sameDay(e.At, day, loc) {
				continue
			}
			switch e.Type {
			case SprintAdded:
				if !state.isMember(key) {
					state.add(key, estimateAt(key, EndOfDay(day, loc)))
					log.Debug().Str("issue", key).Str("day", day.Format(DateLayout)).Msg("added to sprint")
				}
			case SprintRemoved:
				state.remove(key)
				log.Debug().Str("issue", key).Str("day", day.Format(DateLayout)).Msg("removed from sprint")
			}
		}
	}

	for _, key := range keys {
		if !state.isMember(key) {
			continue
		}
		for _, c := range events[key].estimates {
			if c.Field == field && sameDay(c.At, day, loc) {
				state.estimate[key] = c.To
			}
		}
		if !trackSpent {
			continue
		}
		for _, c := range events[key].timeSpent {
			if sameDay(c.At, day, loc) {
				state.logged[key] = c.To
			}
		}
	}
}

// composeTimeline turns per-day totals into timeline points with the ideal line and deltas.
func composeTimeline(days []time.Time, today time.Time, observed []dayTotals, initialTotal int64) []TimelinePoint {
	points := make([]TimelinePoint, len(days))
	intervals := len(days) - 1
	for i, day := range days {
		t := observed[i]
		p := TimelinePoint{
			Date:                 day.Format(DateLayout),
			TimeSpentSeconds:     t.spent,
			TimeEstimateSeconds:  t.estimate,
			RemainingWorkSeconds: t.remaining,
			IssuesCompleted:      t.completed,
			TotalIssues:          t.members,
		}
		if intervals > 0 {
			p.IdealRemainingSeconds = float64(initialTotal) * (1 - float64(i)/float64(intervals))
		}
		if t.estimate > 0 {
			p.Ratio = float64(t.spent) / float64(t.estimate) * 100
		}
		if i > 0 {
			p.DeltaSeconds = p.RemainingWorkSeconds - points[i-1].RemainingWorkSeconds
			if !day.After(today) {
				p.DeltaReason = deltaReason(p.DeltaSeconds)
			}
		}
		points[i] = p
	}
	return points
}

func deltaReason(delta int64) string {
	switch {
	case delta < 0:
		return reasonCompleted + FormatHours(-delta)
	case delta > 0:
		return reasonAdded + FormatHours(delta)
	default:
		return reasonNoChange
	}
}

// isDoneBy reports whether the issue was resolved on or before day. A resolution stamped after
// today is not trusted.
func isDoneBy(issue Issue, day, today time.Time, loc *time.Location) bool {
	if issue.ResolutionDate == nil {
		return false
	}
	if StartOfDay(*issue.ResolutionDate, loc).After(today) {
		return false
	}
	return onOrBefore(*issue.ResolutionDate, day, loc)
}

// lastActivity is the resolution time of a done issue, else its last update.
func lastActivity(issue Issue) time.Time {
	if issue.ResolutionDate != nil {
		return *issue.ResolutionDate
	}
	return issue.Updated
}
