// internal/allocation/partition.go

package allocation

import "github.com/fruttersoft/shipdeck/internal/document"

// Partition is the workflow's terminal artifact: parcel index (1-based) to
// the items assigned there. Every parcel 1..N is present even when empty;
// candidates left unassigned are simply omitted. Immutable after Build and
// consumed exactly once by the dispatcher.
type Partition map[int][]document.SourceItem

// Build derives the partition from the current allocation state. Item order
// within each parcel follows candidate order, so the result is stable for a
// given toggle history.
func Build(candidates CandidateSet, parcelCount int, state *State) Partition {
	part := make(Partition, parcelCount)
	for parcel := 1; parcel <= parcelCount; parcel++ {
		part[parcel] = []document.SourceItem{}
	}
	for _, item := range candidates {
		parcel, ok := state.ParcelOf(KeyFor(item))
		if !ok {
			continue
		}
		if _, valid := part[parcel]; !valid {
			continue
		}
		part[parcel] = append(part[parcel], item)
	}
	return part
}

// ItemCount returns the number of items placed across all parcels.
func (p Partition) ItemCount() int {
	var n int
	for _, items := range p {
		n += len(items)
	}
	return n
}
