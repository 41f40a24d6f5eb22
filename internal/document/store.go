// internal/document/store.go
//
// Store is the narrow surface shipdeck consumes from the host document
// system. FileStore is the bundled implementation: a directory of YAML
// documents, one file per record, so a workspace can be inspected and
// version-controlled like any other project state.
//
// Layout:
//   <root>/settings.yaml
//   <root>/shipments/<name>.yaml
//   <root>/delivery-notes/<ref>.yaml

package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store is the host document system as seen by the allocation workflow.
type Store interface {
	// Settings returns the integration settings document.
	Settings() (Settings, error)

	// Shipment loads one shipment document by name.
	Shipment(name string) (*Shipment, error)

	// SourceItems returns the line-items of one source document. The call
	// may go over the wire in other implementations, hence the context.
	SourceItems(ctx context.Context, ref string) ([]SourceItem, error)

	// Reload re-reads the shipment after an external mutation.
	Reload(name string) (*Shipment, error)

	// ApplyBooking writes the fields of a successful creation.
	ApplyBooking(name string, update BookingUpdate) error

	// ApplyCancellation clears the booking fields.
	ApplyCancellation(name string) error

	// ApplyTracking writes the fields of a status refresh.
	ApplyTracking(name string, update TrackingUpdate) error
}

const (
	shipmentsDir     = "shipments"
	deliveryNotesDir = "delivery-notes"
	settingsFile     = "settings.yaml"
)

// FileStore implements Store over a directory of YAML documents.
type FileStore struct {
	root string
}

// NewFileStore opens a document directory. The directory must exist; the
// store never creates records, only updates shipment fields in place.
func NewFileStore(root string) (*FileStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("document: open store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document: %s is not a directory", root)
	}
	return &FileStore{root: root}, nil
}

// Root returns the backing directory.
func (s *FileStore) Root() string {
	return s.root
}

// Settings implements Store.
func (s *FileStore) Settings() (Settings, error) {
	var settings Settings
	data, err := os.ReadFile(filepath.Join(s.root, settingsFile))
	if err != nil {
		if os.IsNotExist(err) {
			// No settings document means the integration is disabled.
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("document: read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("document: parse settings: %w", err)
	}
	return settings, nil
}

// Shipment implements Store.
func (s *FileStore) Shipment(name string) (*Shipment, error) {
	path, err := s.shipmentPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: read shipment %s: %w", name, err)
	}
	var doc Shipment
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document: parse shipment %s: %w", name, err)
	}
	if strings.TrimSpace(doc.Name) == "" {
		doc.Name = name
	}
	return &doc, nil
}

// SourceItems implements Store.
func (s *FileStore) SourceItems(ctx context.Context, ref string) ([]SourceItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := recordPath(s.root, deliveryNotesDir, ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: read delivery note %s: %w", ref, err)
	}
	var note struct {
		Items []SourceItem `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &note); err != nil {
		return nil, fmt.Errorf("document: parse delivery note %s: %w", ref, err)
	}
	return note.Items, nil
}

// Reload implements Store.
func (s *FileStore) Reload(name string) (*Shipment, error) {
	return s.Shipment(name)
}

// ApplyBooking implements Store.
func (s *FileStore) ApplyBooking(name string, update BookingUpdate) error {
	return s.mutate(name, func(doc *Shipment) {
		doc.TrackingURL = update.LabelURL
		doc.AWBNumber = update.AWBNumber
		doc.Status = StatusBooked
		doc.TrackingStatus = TrackingInProgress
		doc.ServiceProvider = update.ServiceProvider
		doc.CarrierService = update.CarrierService
		doc.ShipmentID = update.ShipmentID
		doc.TrackingStatusInfo = update.TrackingStatusInfo
	})
}

// ApplyCancellation implements Store.
func (s *FileStore) ApplyCancellation(name string) error {
	return s.mutate(name, func(doc *Shipment) {
		doc.TrackingURL = ""
		doc.Status = StatusCancelled
		doc.TrackingStatus = ""
		doc.ServiceProvider = ""
		doc.TrackingStatusInfo = StatusCancelled
		doc.CarrierService = ""
	})
}

// ApplyTracking implements Store.
func (s *FileStore) ApplyTracking(name string, update TrackingUpdate) error {
	return s.mutate(name, func(doc *Shipment) {
		if update.LatestLocation != "" {
			doc.LatestLocation = update.LatestLocation
		}
		switch update.Tag {
		case TrackingDelivered:
			doc.Status = StatusCompleted
			doc.TrackingStatus = TrackingDelivered
		case "InTransit":
			doc.TrackingStatus = TrackingInProgress
		}
		if update.DeliveryDate != "" {
			doc.DeliveryDate = update.DeliveryDate
		}
		if update.ExpectedDeliveryDate != "" {
			doc.ExpectedDeliveryDate = update.ExpectedDeliveryDate
		}
		if update.Remark != "" {
			doc.TrackingStatusInfo = update.Remark
		}
		doc.LastUpdateReceived = update.LastUpdateReceived
	})
}

// mutate reads, edits and rewrites one shipment document.
func (s *FileStore) mutate(name string, apply func(*Shipment)) error {
	doc, err := s.Shipment(name)
	if err != nil {
		return err
	}
	apply(doc)
	path, err := s.shipmentPath(name)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("document: encode shipment %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("document: write shipment %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) shipmentPath(name string) (string, error) {
	return recordPath(s.root, shipmentsDir, name)
}

// recordPath joins a record name into the store, rejecting names that would
// escape the directory.
func recordPath(root, dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("document: record name is required")
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", fmt.Errorf("document: invalid record name %q", name)
	}
	return filepath.Join(root, dir, name+".yaml"), nil
}

var _ Store = (*FileStore)(nil)
