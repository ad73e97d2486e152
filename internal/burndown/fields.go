package burndown

import "strings"

// FieldKind is the normalized identity of a changelog field.
type FieldKind int

const (
	FieldOther FieldKind = iota
	FieldSprint
	FieldOriginalEstimate
	FieldRemainingEstimate
	FieldTimeSpent
)

func (k FieldKind) String() string {
	switch k {
	case FieldSprint:
		return "sprint"
	case FieldOriginalEstimate:
		return "originalEstimate"
	case FieldRemainingEstimate:
		return "remainingEstimate"
	case FieldTimeSpent:
		return "timeSpent"
	default:
		return "other"
	}
}

// Tracker API versions name the same field differently.
var fieldAliases = map[string]FieldKind{
	"sprint":               FieldSprint,
	"original estimate":    FieldOriginalEstimate,
	"timeoriginalestimate": FieldOriginalEstimate,
	"remaining estimate":   FieldRemainingEstimate,
	"timeestimate":         FieldRemainingEstimate,
	"time spent":           FieldTimeSpent,
	"timespent":            FieldTimeSpent,
}

// ClassifyField maps a changelog field name to its FieldKind, ignoring case and surrounding space.
func ClassifyField(name string) FieldKind {
	if k, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k
	}
	return FieldOther
}

// estimateField maps a calculation mode to the changelog field it follows.
func estimateField(mode Mode) FieldKind {
	if mode == ModeRemaining {
		return FieldRemainingEstimate
	}
	return FieldOriginalEstimate
}
