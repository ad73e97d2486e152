package burndown

import "time"

// ReconstructAt returns the value a field had at target, given its changes sorted ascending.
// A change stamped exactly at target is already in effect. Without changes the current value stands.
func ReconstructAt(changes []EstimateChange, target time.Time, current int64) int64 {
	if len(changes) == 0 {
		return current
	}
	for i := len(changes) - 1; i >= 0; i-- {
		if !changes[i].At.After(target) {
			return changes[i].To
		}
	}
	// Every change happened after target: the value before the first one.
	return changes[0].From
}

// ReconstructEstimateAt reconstructs the issue's original or remaining estimate at target.
// current is the snapshot value used when the issue has no recorded change of that field.
func ReconstructEstimateAt(issue Issue, field FieldKind, target time.Time, current int64) int64 {
	return ReconstructAt(estimateChangesFor(ExtractEstimateChanges(issue), field), target, current)
}
