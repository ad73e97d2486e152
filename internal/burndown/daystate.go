package burndown

import "maps"

// dayState is the per-issue burndown state for one calendar day. Each day starts from a clone of
// the previous day so no map is shared between days.
type dayState struct {
	members  map[string]struct{}
	estimate map[string]int64
	logged   map[string]int64
}

func newDayState() dayState {
	return dayState{
		members:  make(map[string]struct{}),
		estimate: make(map[string]int64),
		logged:   make(map[string]int64),
	}
}

func (s dayState) clone() dayState {
	return dayState{
		members:  maps.Clone(s.members),
		estimate: maps.Clone(s.estimate),
		logged:   maps.Clone(s.logged),
	}
}

func (s dayState) isMember(key string) bool {
	_, ok := s.members[key]
	return ok
}

func (s dayState) add(key string, estimate int64) {
	s.members[key] = struct{}{}
	s.estimate[key] = estimate
	if _, ok := s.logged[key]; !ok {
		s.logged[key] = 0
	}
}

func (s dayState) remove(key string) {
	delete(s.members, key)
	delete(s.estimate, key)
	delete(s.logged, key)
}
