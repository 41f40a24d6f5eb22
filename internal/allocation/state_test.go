package allocation

import "testing"

func TestToggleAssignsAndClears(t *testing.T) {
	state := NewState()
	key := ItemKey("widget")

	got := state.Toggle(key, 1)
	if got.Parcel != 1 || got.Moved {
		t.Fatalf("expected fresh assignment to parcel 1, got %+v", got)
	}
	if parcel, ok := state.ParcelOf(key); !ok || parcel != 1 {
		t.Fatalf("expected item in parcel 1, got %d (%v)", parcel, ok)
	}

	got = state.Toggle(key, 1)
	if got.Parcel != 0 {
		t.Fatalf("expected toggle-off to clear, got %+v", got)
	}
	if _, ok := state.ParcelOf(key); ok {
		t.Fatalf("expected item unassigned after second toggle")
	}
}

func TestToggleMovesBetweenParcels(t *testing.T) {
	state := NewState()
	key := ItemKey("widget")

	state.Toggle(key, 1)
	got := state.Toggle(key, 2)
	if !got.Moved || got.From != 1 || got.Parcel != 2 {
		t.Fatalf("expected move from 1 to 2, got %+v", got)
	}
	if parcel, _ := state.ParcelOf(key); parcel != 2 {
		t.Fatalf("expected item in parcel 2, got %d", parcel)
	}
	if state.AssignedCount() != 1 {
		t.Fatalf("item is in %d parcels, want exactly 1", state.AssignedCount())
	}
}

func TestEligibilityFollowsAssignment(t *testing.T) {
	state := NewState()
	key := ItemKey("widget")

	if !state.IsEligible(key, 1) || !state.IsEligible(key, 2) {
		t.Fatalf("unassigned item must be eligible everywhere")
	}
	state.Toggle(key, 1)
	if !state.IsEligible(key, 1) {
		t.Fatalf("item must stay eligible in its own parcel")
	}
	if state.IsEligible(key, 2) {
		t.Fatalf("item held by parcel 1 must be ineligible in parcel 2")
	}
	state.Toggle(key, 1) // clear
	if !state.IsEligible(key, 2) {
		t.Fatalf("cleared item must regain eligibility")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	state := NewState()
	state.Toggle(ItemKey("widget"), 1)

	snap := state.Snapshot()
	snap[ItemKey("widget")] = 9
	snap[ItemKey("gadget")] = 2

	if parcel, _ := state.ParcelOf(ItemKey("widget")); parcel != 1 {
		t.Fatalf("snapshot mutation leaked into state: parcel %d", parcel)
	}
	if state.AssignedCount() != 1 {
		t.Fatalf("snapshot mutation changed assignment count: %d", state.AssignedCount())
	}
}

func TestBuildPartitionCoversAllParcels(t *testing.T) {
	candidates := CandidateSet{
		item("Alpha", 1, "Nos", "1", 10),
		item("Beta", 2, "Nos", "2", 20),
		item("Gamma", 3, "Nos", "3", 30),
	}
	keys := candidates.Keys()
	state := NewState()
	state.Toggle(keys[0], 2)
	state.Toggle(keys[2], 2)
	// keys[1] stays unassigned.

	part := Build(candidates, 3, state)
	if len(part) != 3 {
		t.Fatalf("expected 3 parcels in partition, got %d", len(part))
	}
	if len(part[1]) != 0 || len(part[3]) != 0 {
		t.Fatalf("empty parcels must still be present with empty sequences")
	}
	if len(part[2]) != 2 {
		t.Fatalf("expected 2 items in parcel 2, got %d", len(part[2]))
	}
	// Candidate order, not toggle order.
	if part[2][0].Name != "Alpha" || part[2][1].Name != "Gamma" {
		t.Fatalf("expected candidate order Alpha,Gamma in parcel 2, got %s,%s",
			part[2][0].Name, part[2][1].Name)
	}
	if part.ItemCount() != 2 {
		t.Fatalf("expected 2 assigned items, got %d", part.ItemCount())
	}
}

func TestBuildPartitionZeroItems(t *testing.T) {
	part := Build(nil, 2, NewState())
	if len(part) != 2 {
		t.Fatalf("expected 2 parcels, got %d", len(part))
	}
	if part.ItemCount() != 0 {
		t.Fatalf("expected no items, got %d", part.ItemCount())
	}
}
