package composer

import (
	"sort"

	"github.com/algorandfoundation/algokit-go/transaction"
)

// feePriority orders deficit transactions for surplus allocation.
// Transactions whose fee cannot be raised (non app calls, and app calls
// already at their logical max) must consume group surplus before app
// calls that still have headroom, so the rescuable deficits are the ones
// left to self-fund.
type feePriority int

const (
	priorityCovered feePriority = iota
	priorityModifiableDeficit
	priorityImmutableDeficit
)

// rewriteFees applies the per-transaction required fee deltas from group
// analysis: group surplus is summed, deficit transactions are
// walked in priority order (immutable first, larger deficits first within
// a priority), and whatever surplus cannot cover is paid by raising the
// transaction's own fee — only legal on an app call, and only up to its
// logical max fee.
func (c *Composer) rewriteFees(built []transaction.Transaction, flat []Request, feeDeltas []int64) ([]transaction.Transaction, error) {
	out := make([]transaction.Transaction, len(built))
	for i := range built {
		out[i] = built[i].Clone()
	}

	var surplusGroupFees uint64
	type entry struct {
		index    int
		deficit  uint64
		priority feePriority
	}
	entries := make([]entry, 0, len(out))

	for i, delta := range feeDeltas {
		if delta < 0 {
			surplusGroupFees += uint64(-delta)
			entries = append(entries, entry{index: i, priority: priorityCovered})
			continue
		}
		if delta == 0 {
			entries = append(entries, entry{index: i, priority: priorityCovered})
			continue
		}

		currentFee := uint64(0)
		if out[i].Header.Fee != nil {
			currentFee = *out[i].Header.Fee
		}
		immutableFee := false
		if max := flat[i].Common.EffectiveMaxFee(); max != nil {
			immutableFee = *max == currentFee
		}

		p := priorityModifiableDeficit
		if immutableFee || !out[i].IsAppCall() {
			p = priorityImmutableDeficit
		}
		entries = append(entries, entry{index: i, deficit: uint64(delta), priority: p})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].priority != entries[b].priority {
			return entries[a].priority > entries[b].priority
		}
		return entries[a].deficit > entries[b].deficit
	})

	for _, e := range entries {
		if e.deficit == 0 {
			continue
		}

		var additionalDeficit uint64
		switch {
		case surplusGroupFees == 0:
			additionalDeficit = e.deficit
		case surplusGroupFees >= e.deficit:
			surplusGroupFees -= e.deficit
		default:
			additionalDeficit = e.deficit - surplusGroupFees
			surplusGroupFees = 0
		}
		if additionalDeficit == 0 {
			continue
		}

		if !out[e.index].IsAppCall() {
			return nil, transactionErrorf(e.index,
				"an additional fee of %d µALGO is required for non app call transaction %d", additionalDeficit, e.index)
		}

		currentFee := uint64(0)
		if out[e.index].Header.Fee != nil {
			currentFee = *out[e.index].Header.Fee
		}
		newFee := currentFee + additionalDeficit
		max := flat[e.index].Common.EffectiveMaxFee()
		if max == nil || newFee > *max {
			maxVal := uint64(0)
			if max != nil {
				maxVal = *max
			}
			return nil, transactionErrorf(e.index,
				"calculated transaction fee %d µALGO is greater than max of %d for transaction %d", newFee, maxVal, e.index)
		}
		out[e.index].Header.Fee = &newFee
	}

	return out, nil
}
