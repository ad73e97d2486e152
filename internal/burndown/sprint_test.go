package burndown

import (
	"testing"
	"time"
)

func TestSelectOperativeSprint(t *testing.T) {
	closedOld := Sprint{ID: 1, State: SprintClosed, CompleteDate: ptr(day(time.January, 14))}
	closedNew := Sprint{ID: 2, State: SprintClosed, EndDate: ptr(day(time.January, 28))}
	active := Sprint{ID: 3, State: SprintActive}
	futureLate := Sprint{ID: 4, State: SprintFuture, StartDate: ptr(day(time.March, 1))}
	futureSoon := Sprint{ID: 5, State: SprintFuture, StartDate: ptr(day(time.February, 1))}

	tests := []struct {
		name    string
		sprints []Sprint
		want    int
		ok      bool
	}{
		{"active wins", []Sprint{closedNew, futureSoon, active}, 3, true},
		{"earliest future", []Sprint{closedNew, futureLate, futureSoon}, 5, true},
		{"latest closed", []Sprint{closedNew, closedOld}, 2, true},
		{"none", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectOperativeSprint(tt.sprints)
			if ok != tt.ok || got.ID != tt.want {
				t.Errorf("SelectOperativeSprint = (%d, %v), want (%d, %v)", got.ID, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestWindowDays(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	w := NewWindow(7, time.Date(2024, time.December, 31, 23, 30, 0, 0, time.UTC), time.Date(2025, time.January, 3, 1, 0, 0, 0, time.UTC), loc)
	days := w.Days()
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if days[0].Format(DateLayout) != "2025-01-01" || days[2].Format(DateLayout) != "2025-01-03" {
		t.Errorf("days = %s .. %s", days[0].Format(DateLayout), days[2].Format(DateLayout))
	}
}
