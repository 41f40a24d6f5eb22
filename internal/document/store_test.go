package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{shipmentsDir, deliveryNotesDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	store, err := NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func writeRecord(t *testing.T, store *FileStore, dir, name, content string) {
	t.Helper()
	path := filepath.Join(store.Root(), dir, name+".yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const shipmentYAML = `
name: SHIP-001
docstatus: 1
purpose: commercial
parcels:
  - count: 1
    weight: 2.5
delivery_notes:
  - DN-001
`

func TestSettingsMissingFileMeansDisabled(t *testing.T) {
	store := newTestStore(t)
	settings, err := store.Settings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Enabled || settings.EnableAllocation {
		t.Fatalf("missing settings must read as disabled, got %+v", settings)
	}
}

func TestSettingsRead(t *testing.T) {
	store := newTestStore(t)
	path := filepath.Join(store.Root(), settingsFile)
	content := "enabled: true\nenable_allocation: true\napi_token: tkn-1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	settings, err := store.Settings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settings.Enabled || !settings.EnableAllocation || settings.APIToken != "tkn-1" {
		t.Fatalf("unexpected settings: %+v", settings)
	}
}

func TestShipmentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	writeRecord(t, store, shipmentsDir, "SHIP-001", shipmentYAML)

	doc, err := store.Shipment("SHIP-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "SHIP-001" || doc.DocStatus != DocStatusSubmitted {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if len(doc.Parcels) != 1 || doc.Parcels[0].Weight != 2.5 {
		t.Fatalf("parcels not parsed: %+v", doc.Parcels)
	}
	if doc.Booked() {
		t.Fatalf("fresh document must not read as booked")
	}
}

func TestSourceItemsParsesDedupTuple(t *testing.T) {
	store := newTestStore(t)
	writeRecord(t, store, deliveryNotesDir, "DN-001", `
items:
  - item_name: Widget
    qty: 2
    uom: Nos
    tax_code: "8471"
    amount: 100
`)
	items, err := store.SourceItems(context.Background(), "DN-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.Name != "Widget" || got.Quantity != 2 || got.UnitOfMeasure != "Nos" ||
		got.TaxCode != "8471" || got.Amount != 100 {
		t.Fatalf("tuple fields not parsed: %+v", got)
	}
}

func TestRecordNameCannotEscapeStore(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"../secrets", "a/b", `a\b`, "  ", ""} {
		if _, err := store.Shipment(name); err == nil {
			t.Fatalf("expected rejection for record name %q", name)
		}
	}
}

func TestApplyBookingWritesCarrierFields(t *testing.T) {
	store := newTestStore(t)
	writeRecord(t, store, shipmentsDir, "SHIP-001", shipmentYAML)

	err := store.ApplyBooking("SHIP-001", BookingUpdate{
		LabelURL:        "https://labels/l1.pdf",
		AWBNumber:       "AWB-9",
		ServiceProvider: "fedex",
		CarrierService:  "priority",
		ShipmentID:      "ord-77",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := store.Reload("SHIP-001")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !doc.Booked() || doc.AWBNumber != "AWB-9" {
		t.Fatalf("booking not applied: %+v", doc)
	}
	if doc.Status != StatusBooked || doc.TrackingStatus != TrackingInProgress {
		t.Fatalf("status fields wrong: status=%s tracking=%s", doc.Status, doc.TrackingStatus)
	}
	if doc.TrackingURL != "https://labels/l1.pdf" || doc.ShipmentID != "ord-77" {
		t.Fatalf("label/order fields wrong: %+v", doc)
	}
	// Original fields survive the rewrite.
	if doc.Purpose != "commercial" || len(doc.DeliveryNotes) != 1 {
		t.Fatalf("rewrite lost document fields: %+v", doc)
	}
}

func TestApplyCancellationClearsBooking(t *testing.T) {
	store := newTestStore(t)
	writeRecord(t, store, shipmentsDir, "SHIP-001", shipmentYAML)
	if err := store.ApplyBooking("SHIP-001", BookingUpdate{AWBNumber: "AWB-9", ServiceProvider: "fedex"}); err != nil {
		t.Fatalf("ApplyBooking: %v", err)
	}

	if err := store.ApplyCancellation("SHIP-001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, _ := store.Reload("SHIP-001")
	if doc.Status != StatusCancelled {
		t.Fatalf("expected status Cancelled, got %s", doc.Status)
	}
	if doc.TrackingURL != "" || doc.ServiceProvider != "" || doc.TrackingStatus != "" {
		t.Fatalf("booking fields not cleared: %+v", doc)
	}
}

func TestApplyTrackingDeliveredCompletesShipment(t *testing.T) {
	store := newTestStore(t)
	writeRecord(t, store, shipmentsDir, "SHIP-001", shipmentYAML)

	err := store.ApplyTracking("SHIP-001", TrackingUpdate{
		LatestLocation:     "Chennai",
		Remark:             "Delivered to consignee",
		Tag:                TrackingDelivered,
		DeliveryDate:       "2024-02-06 18:30:00",
		LastUpdateReceived: "2024-02-06 19:00:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, _ := store.Reload("SHIP-001")
	if doc.Status != StatusCompleted || doc.TrackingStatus != TrackingDelivered {
		t.Fatalf("delivered tag not applied: status=%s tracking=%s", doc.Status, doc.TrackingStatus)
	}
	if doc.LatestLocation != "Chennai" || doc.DeliveryDate != "2024-02-06 18:30:00" {
		t.Fatalf("tracking fields wrong: %+v", doc)
	}
}

func TestApplyTrackingInTransitKeepsStatus(t *testing.T) {
	store := newTestStore(t)
	writeRecord(t, store, shipmentsDir, "SHIP-001", shipmentYAML)

	if err := store.ApplyTracking("SHIP-001", TrackingUpdate{Tag: "InTransit", LatestLocation: "Pune"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, _ := store.Reload("SHIP-001")
	if doc.TrackingStatus != TrackingInProgress {
		t.Fatalf("expected tracking In Progress, got %s", doc.TrackingStatus)
	}
	if doc.Status == StatusCompleted {
		t.Fatalf("in-transit update must not complete the shipment")
	}
}
