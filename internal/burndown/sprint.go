package burndown

import "time"

// SelectOperativeSprint picks the sprint a board is working on: the active one, else the next
// future one, else the most recently closed one.
func SelectOperativeSprint(sprints []Sprint) (Sprint, bool) {
	var (
		future, closed     *Sprint
		futureAt, closedAt time.Time
	)
	for i := range sprints {
		s := &sprints[i]
		switch s.State {
		case SprintActive:
			return *s, true
		case SprintFuture:
			at := timeOr(s.StartDate, time.Time{})
			if future == nil || (!at.IsZero() && (futureAt.IsZero() || at.Before(futureAt))) {
				future, futureAt = s, at
			}
		case SprintClosed:
			at := timeOr(s.CompleteDate, timeOr(s.EndDate, time.Time{}))
			if closed == nil || at.After(closedAt) {
				closed, closedAt = s, at
			}
		}
	}
	switch {
	case future != nil:
		return *future, true
	case closed != nil:
		return *closed, true
	default:
		return Sprint{}, false
	}
}

func timeOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil {
		return fallback
	}
	return *t
}
