// internal/dispatch/dispatcher.go
//
// CreationDispatcher: the single point where a finalized partition leaves
// the workflow. Exactly one of the two creation strategies fires per
// dispatch, decided by the invocation's path and validated against the
// presence of an offering.

package dispatch

import (
	"context"

	"github.com/fruttersoft/shipdeck/internal/allocation"
	"github.com/fruttersoft/shipdeck/internal/carrier"
	"github.com/fruttersoft/shipdeck/internal/document"
	"github.com/fruttersoft/shipdeck/internal/logbook"
	"github.com/fruttersoft/shipdeck/internal/workflow"
)

// Dispatcher sends finalized partitions to the carrier backend.
type Dispatcher struct {
	backend carrier.Backend
	log     *logbook.Logbook
}

// New creates a dispatcher. The logbook may be nil.
func New(backend carrier.Backend, log *logbook.Logbook) *Dispatcher {
	return &Dispatcher{backend: backend, log: log}
}

// Dispatch validates the parcel count and the (path, offering) pairing,
// then fires the matching creation call. On failure the caller's allocation state is untouched, so
// the user can resubmit without redoing item selection.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *workflow.Invocation, doc *document.Shipment, part allocation.Partition, offering *carrier.ServiceOffering) (carrier.CreationResult, error) {
	if inv.ParcelCount <= 0 {
		return carrier.CreationResult{}, workflow.InvalidSelection("at least one parcel is required")
	}
	switch inv.Path {
	case workflow.PathService:
		if offering == nil {
			return carrier.CreationResult{}, workflow.InvalidSelection("no service offering chosen")
		}
		d.logInfo("Dispatch %s · service path · %s/%s · %d item(s)",
			inv.ID, offering.Slug, offering.ServiceType, part.ItemCount())
		result, err := d.backend.CreateShipment(ctx, doc, *offering, part)
		if err != nil {
			d.logError("Dispatch %s failed: %v", inv.ID, err)
			return carrier.CreationResult{}, err
		}
		return result, nil

	case workflow.PathRuleBased:
		if offering != nil {
			return carrier.CreationResult{}, workflow.InvalidSelection("rule-based path cannot carry an offering")
		}
		d.logInfo("Dispatch %s · rule-based path · %d item(s)", inv.ID, part.ItemCount())
		result, err := d.backend.CreateRuleBased(ctx, doc, part)
		if err != nil {
			d.logError("Dispatch %s failed: %v", inv.ID, err)
			return carrier.CreationResult{}, err
		}
		return result, nil

	default:
		return carrier.CreationResult{}, workflow.InvalidSelection("unknown creation path")
	}
}

func (d *Dispatcher) logInfo(format string, args ...any) {
	if d.log == nil {
		return
	}
	d.log.Info(format, args...)
}

func (d *Dispatcher) logError(format string, args ...any) {
	if d.log == nil {
		return
	}
	d.log.Error(format, args...)
}
