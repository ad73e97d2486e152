package report

import "burndown-mcp/internal/burndown"

// Strategy names recorded in Report.Strategy.
const (
	StrategyWorklog  = "worklog"
	StrategyHistory  = "history"
	StrategySnapshot = "snapshot"
)

// dataset is everything the assemblers may draw on. dated is false when the window was not
// taken from sprint start and end dates.
type dataset struct {
	issues           []burndown.Issue
	window           burndown.Window
	worklogs         map[string][]burndown.Worklog
	historyAvailable bool
	dated            bool
}

func (d dataset) worklogEntries() int {
	n := 0
	for _, entries := range d.worklogs {
		n += len(entries)
	}
	return n
}

// strategy is one way of assembling a timeline, tried in order until one is usable.
type strategy struct {
	name   string
	usable func(d dataset) bool
	run    func(d dataset, opts burndown.Options) burndown.Burndown
}

// strategies run from most to least accurate; the last one is always usable. Replaying history
// needs real sprint boundaries, so without them only the snapshot strategy applies.
var strategies = []strategy{
	{
		name:   StrategyWorklog,
		usable: func(d dataset) bool { return d.dated && d.worklogEntries() > 0 },
		run: func(d dataset, opts burndown.Options) burndown.Burndown {
			return burndown.BuildWorklogTimeline(d.issues, d.window, d.worklogs, opts)
		},
	},
	{
		name:   StrategyHistory,
		usable: func(d dataset) bool { return d.dated && d.historyAvailable },
		run: func(d dataset, opts burndown.Options) burndown.Burndown {
			return burndown.BuildHistoryTimeline(d.issues, d.window, opts)
		},
	},
	{
		name:   StrategySnapshot,
		usable: func(dataset) bool { return true },
		run: func(d dataset, opts burndown.Options) burndown.Burndown {
			return burndown.BuildSnapshotTimeline(d.issues, d.window, opts)
		},
	},
}

// selectStrategy returns the first usable strategy.
func selectStrategy(d dataset) strategy {
	for _, s := range strategies {
		if s.usable(d) {
			return s
		}
	}
	return strategies[len(strategies)-1]
}
