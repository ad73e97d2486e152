package burndown

import "time"

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func at(m time.Month, d, hour, minute int) time.Time {
	return time.Date(2025, m, d, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func tracked(original, remaining, spent int64) *TimeTracking {
	return &TimeTracking{
		OriginalEstimateSeconds:  original,
		RemainingEstimateSeconds: remaining,
		TimeSpentSeconds:         spent,
	}
}

// januarySprint is Jan 1 to Jan 5 inclusive, observed from Jan 10.
func januarySprint() (Window, Options) {
	return NewWindow(42, day(time.January, 1), day(time.January, 5), time.UTC),
		Options{Now: at(time.January, 10, 12, 0)}
}
