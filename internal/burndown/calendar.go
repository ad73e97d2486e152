package burndown

import "time"

// DateLayout is the calendar-day format used at the output boundary.
const DateLayout = "2006-01-02"

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns the last representable instant of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

// onOrBefore reports whether t's calendar day is not after day's.
func onOrBefore(t, day time.Time, loc *time.Location) bool {
	return !StartOfDay(t, loc).After(StartOfDay(day, loc))
}

// Window is the inclusive calendar-day range of a sprint.
type Window struct {
	SprintID int
	Start    time.Time
	End      time.Time
	loc      *time.Location
}

// NewWindow normalizes start and end to calendar days in loc (nil means UTC).
func NewWindow(sprintID int, start, end time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	return Window{
		SprintID: sprintID,
		Start:    StartOfDay(start, loc),
		End:      StartOfDay(end, loc),
		loc:      loc,
	}
}

// Location returns the zone the window was normalized in.
func (w Window) Location() *time.Location {
	if w.loc == nil {
		return time.UTC
	}
	return w.loc
}

// Days lists every calendar day from Start to End inclusive. An inverted window has no days.
func (w Window) Days() []time.Time {
	if w.Start.IsZero() || w.End.IsZero() || w.End.Before(w.Start) {
		return nil
	}
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
