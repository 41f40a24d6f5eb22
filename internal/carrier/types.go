// internal/carrier/types.go
//
// Types exchanged with the carrier-integration backend. The backend's
// operation set is closed: five typed calls, one request/response each.

package carrier

import (
	"context"
	"time"

	"github.com/fruttersoft/shipdeck/internal/allocation"
	"github.com/fruttersoft/shipdeck/internal/document"
)

// Offering is one selectable sub-option under a service.
type Offering struct {
	ServiceType string `json:"service_type"`
}

// Service is one carrier service returned by the catalog, with its ordered
// offerings under the backend's "technicality" key.
type Service struct {
	Description  string     `json:"description"`
	Slug         string     `json:"slug"`
	VendorID     string     `json:"vendor_id"`
	Technicality []Offering `json:"technicality"`
}

// ServiceOffering is the flat (service, offering) projection the user picks
// in the catalog dialog.
type ServiceOffering struct {
	ServiceType string
	Description string
	Slug        string
	VendorID    string
}

// Flatten expands services into one row per (service, offering) pair,
// preserving catalog order.
func Flatten(services []Service) []ServiceOffering {
	var rows []ServiceOffering
	for _, svc := range services {
		for _, off := range svc.Technicality {
			rows = append(rows, ServiceOffering{
				ServiceType: off.ServiceType,
				Description: svc.Description,
				Slug:        svc.Slug,
				VendorID:    svc.VendorID,
			})
		}
	}
	return rows
}

// CreationResult is the usable part of a successful creation response.
type CreationResult struct {
	LabelURL        string
	AWBNumber       string
	ServiceProvider string
	ServiceType     string
	TrackingStatus  string
	ShipmentID      string
}

// Checkpoint is one scan event in a tracking response.
type Checkpoint struct {
	Date   string `json:"date"`
	City   string `json:"city"`
	Remark string `json:"remark"`
	Tag    string `json:"tag"`
}

// checkpointTimeLayout matches the backend's RFC-1123 style timestamps.
const checkpointTimeLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// Time parses the checkpoint timestamp; the zero time when unparseable.
func (c Checkpoint) Time() time.Time {
	t, err := time.Parse(checkpointTimeLayout, c.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// TrackingResult is one tracked consignment's state.
type TrackingResult struct {
	Checkpoints          []Checkpoint `json:"checkpoints"`
	DeliveryDate         string       `json:"delivery_date"`
	ExpectedDeliveryDate string       `json:"expected_delivery_date"`
	ShipmentStatus       string       `json:"shipment_status"`
	Tag                  string       `json:"tag"`
}

// Latest returns the newest checkpoint by scan time.
func (t TrackingResult) Latest() (Checkpoint, bool) {
	if len(t.Checkpoints) == 0 {
		return Checkpoint{}, false
	}
	latest := t.Checkpoints[0]
	for _, cp := range t.Checkpoints[1:] {
		if cp.Time().After(latest.Time()) {
			latest = cp
		}
	}
	return latest, true
}

// Backend is the carrier-integration API consumed by the workflow. Every
// call blocks the initiating UI action and is bounded by the client's
// timeout; there is no streaming.
type Backend interface {
	// FetchServices returns the carrier services available for the
	// shipment, in catalog order.
	FetchServices(ctx context.Context, doc *document.Shipment) ([]Service, error)

	// CreateShipment books the partition against the selected offering.
	CreateShipment(ctx context.Context, doc *document.Shipment, offering ServiceOffering, part allocation.Partition) (CreationResult, error)

	// CreateRuleBased books the partition with carrier selection delegated
	// entirely to the backend's rule engine.
	CreateRuleBased(ctx context.Context, doc *document.Shipment, part allocation.Partition) (CreationResult, error)

	// Cancel voids the booking identified by the backend shipment ID.
	Cancel(ctx context.Context, shipmentID string) error

	// Track returns the current tracking state for an AWB number.
	Track(ctx context.Context, awbNumber string) (TrackingResult, error)
}
