// internal/workflow/phase.go
//
// Phase machine for one allocation workflow invocation. Unlike document
// state, phases are never persisted: allocation lives and dies with the
// interactive session.

package workflow

// Phase represents a stage in the allocation workflow
type Phase int

const (
	PhaseNone Phase = iota
	PhaseServiceSelection
	PhaseAllocation
	PhaseDispatch
	PhaseComplete
)

// String returns a human-readable name for the phase
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "Not Started"
	case PhaseServiceSelection:
		return "Service Selection"
	case PhaseAllocation:
		return "Parcel Allocation"
	case PhaseDispatch:
		return "Dispatch"
	case PhaseComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// FriendlyName returns a short description suitable for menu display
func (p Phase) FriendlyName() string {
	switch p {
	case PhaseServiceSelection:
		return "Select Service"
	case PhaseAllocation:
		return "Allocate Items"
	case PhaseDispatch:
		return "Creating Shipment"
	default:
		return p.String()
	}
}

// Next returns the next phase in the workflow
func (p Phase) Next() Phase {
	if p >= PhaseComplete {
		return PhaseComplete
	}
	return p + 1
}

// IsTerminal returns true if this phase represents workflow completion
func (p Phase) IsTerminal() bool {
	return p == PhaseComplete || p == PhaseNone
}
