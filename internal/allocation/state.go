// internal/allocation/state.go
//
// AllocationState tracks which parcel, if any, each candidate item belongs
// to. It is the single source of truth for the selection dialog: the UI
// renders from it and forwards toggles into it, never the other way round.

package allocation

// State maps item keys to their assigned parcel. Absent keys are
// unassigned. Invariant: every present key maps to exactly one parcel.
//
// A State is owned by one interactive invocation; the bubbletea update loop
// serializes all mutations, so there is no locking here.
type State struct {
	assigned map[ItemKey]int
}

// Assignment describes the outcome of one toggle.
type Assignment struct {
	// Parcel the item is now in; 0 when the toggle cleared it.
	Parcel int
	// Moved is true when the item was taken from another parcel.
	Moved bool
	// From is the previous parcel when Moved is true.
	From int
}

// NewState creates an empty allocation state.
func NewState() *State {
	return &State{assigned: make(map[ItemKey]int)}
}

// Toggle flips the item's membership in the given parcel. Unassigned items
// are assigned and become ineligible everywhere else. Toggling the item's
// own parcel clears it. Toggling a different parcel moves the item there —
// an implicit clear-then-set, so the item is never in two parcels at once.
func (s *State) Toggle(key ItemKey, parcel int) Assignment {
	current, ok := s.assigned[key]
	switch {
	case !ok:
		s.assigned[key] = parcel
		return Assignment{Parcel: parcel}
	case current == parcel:
		delete(s.assigned, key)
		return Assignment{}
	default:
		s.assigned[key] = parcel
		return Assignment{Parcel: parcel, Moved: true, From: current}
	}
}

// IsEligible reports whether the item may be placed in the given parcel.
// False only when the item is currently held by a different parcel; an item
// already in this parcel stays eligible so re-renders are idempotent.
func (s *State) IsEligible(key ItemKey, parcel int) bool {
	current, ok := s.assigned[key]
	return !ok || current == parcel
}

// ParcelOf returns the parcel the item is assigned to, if any.
func (s *State) ParcelOf(key ItemKey) (int, bool) {
	parcel, ok := s.assigned[key]
	return parcel, ok
}

// AssignedCount returns the number of items with an assignment.
func (s *State) AssignedCount() int {
	return len(s.assigned)
}

// Snapshot returns a read-only copy of the assignments for rendering.
func (s *State) Snapshot() map[ItemKey]int {
	copyMap := make(map[ItemKey]int, len(s.assigned))
	for key, parcel := range s.assigned {
		copyMap[key] = parcel
	}
	return copyMap
}
