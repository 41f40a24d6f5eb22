package parcel_allocation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fruttersoft/shipdeck/internal/allocation"
	"github.com/fruttersoft/shipdeck/internal/carrier"
	"github.com/fruttersoft/shipdeck/internal/document"
	"github.com/fruttersoft/shipdeck/internal/modes"
	"github.com/fruttersoft/shipdeck/internal/workflow"
)

type fakeStore struct {
	items    map[string][]document.SourceItem
	bookings []document.BookingUpdate
}

func (s *fakeStore) Settings() (document.Settings, error)        { return document.Settings{}, nil }
func (s *fakeStore) Shipment(string) (*document.Shipment, error) { return nil, nil }
func (s *fakeStore) Reload(string) (*document.Shipment, error)   { return nil, nil }
func (s *fakeStore) ApplyCancellation(string) error              { return nil }
func (s *fakeStore) ApplyTracking(string, document.TrackingUpdate) error { return nil }

func (s *fakeStore) SourceItems(_ context.Context, ref string) ([]document.SourceItem, error) {
	items, ok := s.items[ref]
	if !ok {
		return nil, fmt.Errorf("record %s missing", ref)
	}
	return items, nil
}

func (s *fakeStore) ApplyBooking(_ string, update document.BookingUpdate) error {
	s.bookings = append(s.bookings, update)
	return nil
}

type fakeBackend struct {
	serviceCalls   int
	ruleBasedCalls int
	lastPartition  allocation.Partition
	err            error
}

func (b *fakeBackend) FetchServices(context.Context, *document.Shipment) ([]carrier.Service, error) {
	return nil, nil
}

func (b *fakeBackend) CreateShipment(_ context.Context, _ *document.Shipment, _ carrier.ServiceOffering, part allocation.Partition) (carrier.CreationResult, error) {
	b.serviceCalls++
	b.lastPartition = part
	if b.err != nil {
		return carrier.CreationResult{}, b.err
	}
	return carrier.CreationResult{AWBNumber: "AWB-9", ServiceProvider: "fedex", LabelURL: "https://labels/l1.pdf"}, nil
}

func (b *fakeBackend) CreateRuleBased(_ context.Context, _ *document.Shipment, part allocation.Partition) (carrier.CreationResult, error) {
	b.ruleBasedCalls++
	b.lastPartition = part
	if b.err != nil {
		return carrier.CreationResult{}, b.err
	}
	return carrier.CreationResult{AWBNumber: "AWB-10"}, nil
}

func (b *fakeBackend) Cancel(context.Context, string) error { return nil }

func (b *fakeBackend) Track(context.Context, string) (carrier.TrackingResult, error) {
	return carrier.TrackingResult{}, nil
}

func item(name string, qty float64) document.SourceItem {
	return document.SourceItem{Name: name, Quantity: qty, UnitOfMeasure: "Nos", TaxCode: "8471", Amount: qty * 10}
}

func testContext(store document.Store, backend carrier.Backend, path workflow.Path) *modes.ModeContext {
	inv, _ := workflow.NewInvocation("SHIP-001", 2, path)
	return &modes.ModeContext{
		Store:      store,
		Backend:    backend,
		Invocation: inv,
		Shipment: &document.Shipment{
			Name:          "SHIP-001",
			Parcels:       []document.Parcel{{Count: 1, Weight: 1}, {Count: 1, Weight: 2}},
			DeliveryNotes: []string{"DN-001"},
		},
	}
}

func loadedMode(t *testing.T, offering *carrier.ServiceOffering, store *fakeStore, backend *fakeBackend, path workflow.Path) *Mode {
	t.Helper()
	m := New(offering)
	cmd := m.Init(testContext(store, backend, path))
	if cmd == nil {
		t.Fatalf("Init must return a load command")
	}
	msg := cmd()
	if errMsg, ok := msg.(modes.ModeErrorMsg); ok {
		t.Fatalf("candidate load failed: %v", errMsg.Error)
	}
	m.Update(msg)
	if !m.loaded {
		t.Fatalf("mode did not finish loading")
	}
	return m
}

func press(m *Mode, key string) tea.Cmd {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func TestSpaceTogglesAssignmentInCursorParcel(t *testing.T) {
	store := &fakeStore{items: map[string][]document.SourceItem{
		"DN-001": {item("Widget", 2), item("Gadget", 1)},
	}}
	m := loadedMode(t, &carrier.ServiceOffering{Slug: "fedex"}, store, &fakeBackend{}, workflow.PathService)

	press(m, " ")
	if parcel, ok := m.state.ParcelOf(m.keys[0]); !ok || parcel != 1 {
		t.Fatalf("expected first item in parcel 1, got %d (%v)", parcel, ok)
	}
	press(m, " ")
	if _, ok := m.state.ParcelOf(m.keys[0]); ok {
		t.Fatalf("second toggle must clear the assignment")
	}
}

func TestItemHeldElsewhereIsInert(t *testing.T) {
	store := &fakeStore{items: map[string][]document.SourceItem{
		"DN-001": {item("Widget", 2)},
	}}
	m := loadedMode(t, &carrier.ServiceOffering{Slug: "fedex"}, store, &fakeBackend{}, workflow.PathService)

	press(m, " ") // assign to parcel 1
	press(m, "l") // cursor to parcel 2
	press(m, " ") // must be ignored
	if parcel, _ := m.state.ParcelOf(m.keys[0]); parcel != 1 {
		t.Fatalf("disabled cell must not steal the item, got parcel %d", parcel)
	}
	if got := m.checkbox(m.keys[0], 2); got != "[-]" {
		t.Fatalf("expected disabled checkbox in parcel 2, got %s", got)
	}
	if got := m.checkbox(m.keys[0], 1); got != "[x]" {
		t.Fatalf("expected checked box in parcel 1, got %s", got)
	}
}

func TestSubmitDispatchesPartitionAndAppliesBooking(t *testing.T) {
	store := &fakeStore{items: map[string][]document.SourceItem{
		"DN-001": {item("Widget", 2), item("Gadget", 1)},
	}}
	backend := &fakeBackend{}
	m := loadedMode(t, &carrier.ServiceOffering{Slug: "fedex", ServiceType: "priority"}, store, backend, workflow.PathService)

	press(m, " ") // Widget → parcel 1
	press(m, "j")
	press(m, "l")
	press(m, " ") // Gadget → parcel 2

	cmd := press(m, "enter")
	if cmd == nil {
		t.Fatalf("expected dispatch command")
	}
	if !m.busy {
		t.Fatalf("mode must be busy while dispatching")
	}

	msg := cmd()
	done, ok := msg.(dispatchFinishedMsg)
	if !ok || done.err != nil {
		t.Fatalf("unexpected dispatch result: %T %v", msg, done.err)
	}
	if backend.serviceCalls != 1 || backend.ruleBasedCalls != 0 {
		t.Fatalf("expected exactly one service creation call")
	}
	if len(backend.lastPartition) != 2 || backend.lastPartition.ItemCount() != 2 {
		t.Fatalf("unexpected partition: %+v", backend.lastPartition)
	}
	if len(store.bookings) != 1 || store.bookings[0].AWBNumber != "AWB-9" {
		t.Fatalf("booking fields not applied: %+v", store.bookings)
	}

	_, completeCmd := m.Update(msg)
	if completeCmd == nil {
		t.Fatalf("expected completion command")
	}
	complete, ok := completeCmd().(modes.ModeCompleteMsg)
	if !ok || complete.NextPhase != workflow.PhaseComplete {
		t.Fatalf("expected completion to PhaseComplete, got %+v", complete)
	}
}

func TestDispatchFailureKeepsStateForResubmit(t *testing.T) {
	store := &fakeStore{items: map[string][]document.SourceItem{
		"DN-001": {item("Widget", 2)},
	}}
	backend := &fakeBackend{err: workflow.CreationFailed("create shipment", errors.New("upstream 500"))}
	m := loadedMode(t, &carrier.ServiceOffering{Slug: "fedex"}, store, backend, workflow.PathService)

	press(m, " ")
	cmd := press(m, "enter")
	m.Update(cmd())

	if m.busy || m.IsComplete() {
		t.Fatalf("failed dispatch must return to an open, idle mode")
	}
	if m.errorMsg == "" {
		t.Fatalf("failure must be surfaced in the view")
	}
	if parcel, _ := m.state.ParcelOf(m.keys[0]); parcel != 1 {
		t.Fatalf("allocation state must survive a failed dispatch")
	}
	if len(store.bookings) != 0 {
		t.Fatalf("no booking may be applied on failure")
	}
}

func TestZeroCandidatesStillSubmitsEmptyPartition(t *testing.T) {
	store := &fakeStore{items: map[string][]document.SourceItem{"DN-001": {}}}
	backend := &fakeBackend{}
	m := loadedMode(t, nil, store, backend, workflow.PathRuleBased)

	if !strings.Contains(m.renderMatrix(), "No items found") {
		t.Fatalf("empty candidate notice missing from view")
	}
	cmd := press(m, "enter")
	if cmd == nil {
		t.Fatalf("expected dispatch command")
	}
	done := cmd().(dispatchFinishedMsg)
	if done.err != nil {
		t.Fatalf("unexpected error: %v", done.err)
	}
	if backend.ruleBasedCalls != 1 {
		t.Fatalf("expected one rule-based call, got %d", backend.ruleBasedCalls)
	}
	if backend.lastPartition.ItemCount() != 0 || len(backend.lastPartition) != 2 {
		t.Fatalf("expected empty two-parcel partition, got %+v", backend.lastPartition)
	}
}

func TestEscBeforeSubmitCancelsWithoutSideEffects(t *testing.T) {
	store := &fakeStore{items: map[string][]document.SourceItem{
		"DN-001": {item("Widget", 2)},
	}}
	backend := &fakeBackend{}
	m := loadedMode(t, &carrier.ServiceOffering{Slug: "fedex"}, store, backend, workflow.PathService)

	press(m, " ")
	cmd := press(m, "esc")
	if cmd == nil {
		t.Fatalf("expected cancellation command")
	}
	msg, ok := cmd().(modes.ModeErrorMsg)
	if !ok || !errors.Is(msg.Error, workflow.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %+v", msg)
	}
	if backend.serviceCalls+backend.ruleBasedCalls != 0 || len(store.bookings) != 0 {
		t.Fatalf("cancel must leave no side effects")
	}
}

func TestFetchFailureAbortsMode(t *testing.T) {
	store := &fakeStore{items: map[string][]document.SourceItem{}}
	m := New(nil)
	cmd := m.Init(testContext(store, &fakeBackend{}, workflow.PathRuleBased))
	msg, ok := cmd().(modes.ModeErrorMsg)
	if !ok || !errors.Is(msg.Error, workflow.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %T %v", msg, msg.Error)
	}
}
