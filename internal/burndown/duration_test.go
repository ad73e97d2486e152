package burndown

import "testing"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"   ", 0},
		{"86400", 86400},
		{" 3600 ", 3600},
		{"1d 2h", 36000},
		{"2w", 2 * SecondsPerWeek},
		{"2w 3d 4h 30m", 2*SecondsPerWeek + 3*SecondsPerDay + 4*SecondsPerHour + 30*SecondsPerMinute},
		{"30m 1h", 5400},
		{"45m", 2700},
		{"soon", 0},
		{"1x 2h", 7200},
	}
	for _, tt := range tests {
		if got := ParseDuration(tt.in); got != tt.want {
			t.Errorf("ParseDuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0m"},
		{-60, "0m"},
		{59, "0m"},
		{60, "1m"},
		{3600, "1h"},
		{SecondsPerDay, "1d"},
		{SecondsPerWeek + 2*SecondsPerDay + 3*SecondsPerHour + 4*SecondsPerMinute, "1w 2d 3h 4m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	for minutes := int64(0); minutes < 20000; minutes += 37 {
		s := minutes * SecondsPerMinute
		if got := ParseDuration(FormatDuration(s)); got != s {
			t.Fatalf("round trip of %d gave %d (formatted %q)", s, got, FormatDuration(s))
		}
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0h"},
		{3600, "1h"},
		{5400, "1.5h"},
		{1234, "0.34h"},
		{28800, "8h"},
	}
	for _, tt := range tests {
		if got := FormatHours(tt.in); got != tt.want {
			t.Errorf("FormatHours(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeOriginal, "original": ModeOriginal, "Remaining": ModeRemaining} {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseMode("velocity"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
