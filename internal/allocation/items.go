// internal/allocation/items.go
//
// Candidate items and deduplication. Items pulled from multiple delivery
// notes often repeat; the allocation dialog must offer each distinct item
// exactly once, in a stable order.

package allocation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/fruttersoft/shipdeck/internal/document"
	"github.com/fruttersoft/shipdeck/internal/workflow"
)

// ItemKey identifies an item for deduplication and assignment. Two items
// with equal keys are the same candidate no matter which source document
// they came from.
type ItemKey string

// KeyFor derives the identity key from the dedup tuple
// (name, quantity, uom, tax code, amount).
func KeyFor(item document.SourceItem) ItemKey {
	parts := []string{
		item.Name,
		strconv.FormatFloat(item.Quantity, 'f', -1, 64),
		item.UnitOfMeasure,
		item.TaxCode,
		strconv.FormatFloat(item.Amount, 'f', -1, 64),
	}
	return ItemKey(strings.Join(parts, "|"))
}

// CandidateSet is an ordered sequence of unique items, first-seen order.
// Invariant: no two elements share a key.
type CandidateSet []document.SourceItem

// Keys returns the candidate keys in set order.
func (c CandidateSet) Keys() []ItemKey {
	keys := make([]ItemKey, len(c))
	for i, item := range c {
		keys[i] = KeyFor(item)
	}
	return keys
}

// Deduplicate fetches the items of every source document and collapses them
// into a CandidateSet. Fetches fan out concurrently, but the dedup pass runs
// over a concatenation ordered by document position, so the result is
// reproducible regardless of arrival order. Any failed fetch fails the whole
// call; partial results are discarded.
func Deduplicate(ctx context.Context, store document.Store, refs []string) (CandidateSet, error) {
	fetched := make([][]document.SourceItem, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			items, err := store.SourceItems(gctx, ref)
			if err != nil {
				return workflow.FetchFailed(ref, err)
			}
			fetched[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[ItemKey]struct{})
	var unique CandidateSet
	for _, items := range fetched {
		for _, item := range items {
			key := KeyFor(item)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			unique = append(unique, item)
		}
	}
	return unique, nil
}

// Label renders an item the way the selection dialog shows it.
func Label(item document.SourceItem) string {
	return fmt.Sprintf("%s (%s %s)",
		item.Name,
		strconv.FormatFloat(item.Quantity, 'f', -1, 64),
		item.UnitOfMeasure,
	)
}
