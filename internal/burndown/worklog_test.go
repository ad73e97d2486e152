package burndown

import (
	"testing"
	"time"
)

func TestBuildDailyLoggedTime(t *testing.T) {
	window, _ := januarySprint()
	worklogs := map[string][]Worklog{
		"A-1": {
			{IssueKey: "A-1", Started: at(time.January, 3, 9, 0), TimeSpentSeconds: 7200},
			{IssueKey: "A-1", Started: time.Date(2024, time.December, 31, 9, 0, 0, 0, time.UTC), TimeSpentSeconds: 7200},
			{IssueKey: "A-1", Started: time.Date(2025, time.January, 1, 23, 59, 59, 0, time.UTC), TimeSpentSeconds: 3600},
			{IssueKey: "A-1", Started: at(time.January, 1, 10, 0), TimeSpentSeconds: 3600},
		},
		"A-2": nil,
	}

	daily := BuildDailyLoggedTime(worklogs, window.Days(), time.UTC)
	if len(daily) != 5 {
		t.Fatalf("expected 5 days, got %d", len(daily))
	}
	want := []int64{7200, 7200, 14400, 14400, 14400}
	for i, w := range want {
		if got := daily[i]["A-1"]; got != w {
			t.Errorf("day %d: A-1 cumulative = %d, want %d", i, got, w)
		}
		if got := daily[i]["A-2"]; got != 0 {
			t.Errorf("day %d: A-2 cumulative = %d, want 0", i, got)
		}
	}
}

func TestBuildDailyLoggedTimeIsMonotonic(t *testing.T) {
	window := NewWindow(1, day(time.March, 1), day(time.March, 14), time.UTC)
	var entries []Worklog
	for i := 0; i < 40; i++ {
		entries = append(entries, Worklog{
			IssueKey:         "M-1",
			Started:          day(time.February, 25).Add(time.Duration(i*13) * time.Hour),
			TimeSpentSeconds: int64((i%4 + 1) * 900),
		})
	}

	daily := BuildDailyLoggedTime(GroupWorklogs(entries), window.Days(), time.UTC)
	for i := 1; i < len(daily); i++ {
		if daily[i]["M-1"] < daily[i-1]["M-1"] {
			t.Fatalf("cumulative decreased on day %d: %d < %d", i, daily[i]["M-1"], daily[i-1]["M-1"])
		}
	}
}

func TestBuildDailyLoggedTimeEmptyWindow(t *testing.T) {
	window := NewWindow(1, day(time.March, 5), day(time.March, 1), time.UTC)
	if got := BuildDailyLoggedTime(map[string][]Worklog{"A-1": {{Started: day(time.March, 2)}}}, window.Days(), time.UTC); len(got) != 0 {
		t.Errorf("inverted window should have no days, got %d", len(got))
	}
}
