package composer

import (
	"context"
	"strconv"
	"strings"

	"github.com/algorandfoundation/algokit-go/transaction"
)

// groupAnalysis is the outcome of the pre-submission simulate round trip:
// per-transaction fee deltas (when fee coverage is on), per-transaction
// unnamed resources, and the group-level unnamed resources the simulator
// could not attribute to a single transaction (when population is on).
type groupAnalysis struct {
	// feeDeltas[i] > 0 is a deficit, < 0 a surplus. Nil when fee coverage
	// is disabled.
	feeDeltas []int64

	txnResources   []*UnnamedResourcesAccessed
	groupResources *UnnamedResourcesAccessed
}

// analyzeGroup dry-runs the tentative group to learn what the final fees
// and reference arrays must be. Simulate sees a copy of the
// group in which every application call's fee is pinned to its logical
// max fee (so inner transactions execute rather than failing early on
// fee), group fields are recomputed over the adjusted copies, and each
// transaction carries the empty signature.
func (c *Composer) analyzeGroup(ctx context.Context, built []transaction.Transaction, flat []Request) (groupAnalysis, error) {
	toSimulate := make([]transaction.Transaction, len(built))
	var missingMaxFee []int
	for i, t := range built {
		s := t.Clone()
		s.Header.Group = nil
		if c.config.CoverAppCallInnerTransactionFees && s.IsAppCall() {
			if max := flat[i].Common.EffectiveMaxFee(); max != nil {
				fee := *max
				s.Header.Fee = &fee
			} else {
				missingMaxFee = append(missingMaxFee, i)
			}
		}
		toSimulate[i] = s
	}
	if c.config.CoverAppCallInnerTransactionFees && len(missingMaxFee) > 0 {
		return groupAnalysis{}, stateErrorf(
			"please provide a max fee for each app call transaction when inner transaction fee coverage is enabled; required for transaction %s",
			joinInts(missingMaxFee))
	}

	toSimulate, err := transaction.AssignGroup(toSimulate)
	if err != nil {
		return groupAnalysis{}, stateErrorf("failed to assign group for simulate: %v", err)
	}

	req := SimulateRequest{
		AllowUnnamedResources: true,
		AllowEmptySignatures:  true,
		FixSigners:            true,
	}
	for _, t := range toSimulate {
		req.Transactions = append(req.Transactions, SignedTransaction{Transaction: t})
	}

	resp, err := c.node.Simulate(ctx, req)
	if err != nil {
		return groupAnalysis{}, stateErrorf("simulate: %v", err)
	}
	if resp.FailureMessage != "" {
		if c.config.CoverAppCallInnerTransactionFees && strings.Contains(resp.FailureMessage, "fee too small") {
			return groupAnalysis{}, stateErrorf(
				"fees were too small to analyze group requirements via simulate; you may need to increase an app call transaction max fee")
		}
		return groupAnalysis{}, stateErrorf(
			"error analyzing group requirements via simulate in transaction %s: %s",
			joinInts(resp.FailedAt), resp.FailureMessage)
	}

	analysis := groupAnalysis{txnResources: make([]*UnnamedResourcesAccessed, len(built))}

	if c.config.CoverAppCallInnerTransactionFees {
		analysis.feeDeltas = make([]int64, len(built))
	}

	params := c.suggested
	for i := range built {
		if c.config.CoverAppCallInnerTransactionFees {
			minFeeTxn, err := built[i].AssignFee(transaction.FeeParams{
				FeePerByte: params.FeePerByte,
				MinFee:     params.MinFee,
			})
			if err != nil {
				return groupAnalysis{}, &TransactionError{Index: i, Message: "failed to calculate min transaction fee: " + err.Error()}
			}
			currentFee := uint64(0)
			if built[i].Header.Fee != nil {
				currentFee = *built[i].Header.Fee
			}
			delta := int64(*minFeeTxn.Header.Fee) - int64(currentFee)
			if built[i].IsAppCall() && i < len(resp.TxnResults) {
				delta += innerFeeDelta(resp.TxnResults[i].Txn.InnerTxns, params.MinFee, 0)
			}
			analysis.feeDeltas[i] = delta
		}
		if c.config.PopulateAppCallResources && i < len(resp.TxnResults) {
			analysis.txnResources[i] = resp.TxnResults[i].UnnamedResourcesAccessed
		}
	}
	if c.config.PopulateAppCallResources {
		analysis.groupResources = resp.UnnamedResourcesAccessed
	}

	return analysis, nil
}

// innerFeeDelta folds a simulated application call's inner transactions
// right to left, accumulating the extra fee the outer call must carry.
// Inner transactions owe only the flat network minimum (no per-byte
// component). A running surplus is reset to zero at each step: a
// sibling's surplus covers only deficits accumulated from siblings sent
// after it (to its right), never earlier siblings and never upward
// through the enclosing call. acc threads the accumulated delta through
// nested levels.
func innerFeeDelta(inners []PendingTransactionInfo, minFee uint64, acc int64) int64 {
	for i := len(inners) - 1; i >= 0; i-- {
		in := inners[i]
		rec := innerFeeDelta(in.InnerTxns, minFee, acc)
		cur := rec + int64(minFee) - int64(in.Fee)
		if cur < 0 {
			cur = 0
		}
		acc = cur
	}
	return acc
}

func joinInts(xs []int) string {
	if len(xs) == 0 {
		return "unknown"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
