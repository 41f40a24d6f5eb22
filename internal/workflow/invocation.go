// internal/workflow/invocation.go
//
// Invocation is the explicit context object for one run of the allocation
// workflow. Everything that used to hang off an ambient "current document"
// travels here instead, so components never reach for globals.

package workflow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Path selects which of the two mutually exclusive creation strategies an
// invocation will use. Chosen once, never both.
type Path int

const (
	// PathService creates a shipment against a user-selected carrier
	// service offering.
	PathService Path = iota

	// PathRuleBased delegates carrier selection to the backend's rule
	// engine; the invocation carries no offering.
	PathRuleBased
)

// String returns the path name used in logs.
func (p Path) String() string {
	switch p {
	case PathService:
		return "service"
	case PathRuleBased:
		return "rule-based"
	default:
		return "unknown"
	}
}

// Invocation ties one interactive workflow run to its shipment document.
// ParcelCount is fixed for the invocation's lifetime.
type Invocation struct {
	ID           string
	ShipmentName string
	ParcelCount  int
	Path         Path
}

// NewInvocation starts a workflow run for the named shipment.
func NewInvocation(shipmentName string, parcelCount int, path Path) (*Invocation, error) {
	if shipmentName == "" {
		return nil, fmt.Errorf("workflow: shipment name is required")
	}
	return &Invocation{
		ID:           uuid.NewString(),
		ShipmentName: shipmentName,
		ParcelCount:  parcelCount,
		Path:         path,
	}, nil
}

// ShortID returns the first segment of the invocation ID, used to tag the
// run's logbook entries.
func (inv *Invocation) ShortID() string {
	if i := strings.Index(inv.ID, "-"); i > 0 {
		return inv.ID[:i]
	}
	return inv.ID
}

// EntryPhase returns the phase an invocation starts in: the service path
// opens the catalog first, the rule-based path goes straight to allocation.
func (inv *Invocation) EntryPhase() Phase {
	if inv.Path == PathService {
		return PhaseServiceSelection
	}
	return PhaseAllocation
}
