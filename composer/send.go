package composer

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	sdkmsgpack "github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/algorandfoundation/algokit-go/transaction"
)

// abiReturnSentinel prefixes every ARC-4 method return value logged by the
// AVM, distinguishing it from an application's own debug logging.
var abiReturnSentinel = [4]byte{0x15, 0x1f, 0x7c, 0x75}

// MethodCallReturn is one ABI method call's decoded return value, matched
// back to its position in the submitted group. DecodeErr is set instead of
// Value when the confirmation carried no sentinel log or the payload did
// not decode as the method's declared return type; a failed slot never
// invalidates the other confirmations.
type MethodCallReturn struct {
	Index     int
	Method    string
	Value     interface{}
	DecodeErr error
}

// SendResult is Send's output: the confirmed group's transaction ids, its
// confirmation round, per-transaction confirmation detail (in group
// order, sibling transactions included), and any ABI method return values
// it produced.
type SendResult struct {
	TxIDs          []string
	ConfirmedRound uint64
	Confirmations  []PendingTransactionInfo
	ABIReturns     []MethodCallReturn
}

func (c *Composer) encodeSignedGroup() ([]byte, error) {
	var buf bytes.Buffer
	for i, s := range c.signed {
		sdkTxn, err := s.Transaction.ToSDK()
		if err != nil {
			return nil, fmt.Errorf("encode transaction %d: %w", i, err)
		}
		stxn := sdktypes.SignedTxn{Txn: sdkTxn}
		if len(s.Signature) == len(stxn.Sig) {
			copy(stxn.Sig[:], s.Signature)
		}
		if s.AuthAddr != nil {
			stxn.AuthAddr = sdktypes.Address(*s.AuthAddr)
		}
		buf.Write(sdkmsgpack.Encode(&stxn))
	}
	return buf.Bytes(), nil
}

// Send builds and signs the group if that has not already happened,
// submits it, waits for confirmation, and decodes any ABI method call
// return values. Send is idempotent: once Confirmed, it returns the
// cached result.
func (c *Composer) Send(ctx context.Context) (*SendResult, error) {
	if c.state == StateConfirmed {
		return c.sendResult, nil
	}
	if c.state < StateBuilt {
		if _, err := c.Build(ctx); err != nil {
			return nil, err
		}
	}
	if c.state < StateSigned {
		if _, err := c.Sign(ctx); err != nil {
			return nil, err
		}
	}

	raw, err := c.encodeSignedGroup()
	if err != nil {
		return nil, err
	}

	if c.state < StateSubmitted {
		if err := c.node.SubmitRaw(ctx, raw); err != nil {
			return nil, fmt.Errorf("submit transaction group: %w", err)
		}
		c.state = StateSubmitted

		txIDs := make([]string, len(c.built))
		for i, t := range c.built {
			id, idErr := transaction.ID(t)
			if idErr != nil {
				return nil, idErr
			}
			txIDs[i] = id
		}
		c.txIDs = txIDs
		c.log.Info("composer submitted group", "composer", c.id, "txid", txIDs[0])
	}

	confirmations, err := c.waitForConfirmations(ctx, c.txIDs)
	if err != nil {
		return nil, err
	}

	returns := c.decodeMethodReturns(confirmations)

	round := uint64(0)
	if len(confirmations) > 0 && confirmations[0].ConfirmedRound != nil {
		round = *confirmations[0].ConfirmedRound
	}

	result := &SendResult{TxIDs: c.txIDs, ConfirmedRound: round, Confirmations: confirmations, ABIReturns: returns}
	c.sendResult = result
	c.state = StateConfirmed
	c.log.Info("composer confirmed group", "composer", c.id, "round", round)
	return result, nil
}

// waitRounds resolves how many rounds Send may poll before giving up: the
// configured maximum if set, otherwise the distance from the current round
// to the group's furthest last-valid round, floored to the network's
// default validity window.
func (c *Composer) waitRounds() uint64 {
	if c.config.MaxRoundsToWaitForConfirmation > 0 {
		return c.config.MaxRoundsToWaitForConfirmation
	}
	var maxLastValid uint64
	for _, t := range c.built {
		if t.Header.LastValid > maxLastValid {
			maxLastValid = t.Header.LastValid
		}
	}
	rounds := uint64(0)
	if maxLastValid > c.suggested.LastRound {
		rounds = maxLastValid - c.suggested.LastRound
	}
	if floor := defaultValidityWindow(c.suggested.GenesisID); rounds < floor {
		rounds = floor
	}
	return rounds
}

// waitForConfirmations polls pending-transaction-info for every submitted
// id in the group, not just the first, long-polling between rounds, until
// all are confirmed or the round budget is exhausted.
func (c *Composer) waitForConfirmations(ctx context.Context, txIDs []string) ([]PendingTransactionInfo, error) {
	start := c.suggested.LastRound

	results := make([]PendingTransactionInfo, len(txIDs))
	confirmed := make([]bool, len(txIDs))
	remaining := len(txIDs)

	budget := c.waitRounds()
	var rounds uint64
	for rounds = 0; rounds < budget; rounds++ {
		for i, txID := range txIDs {
			if confirmed[i] {
				continue
			}
			info, ok, err := c.node.PendingTransactionInfo(ctx, txID)
			if err != nil {
				return nil, fmt.Errorf("poll pending transaction info for %s: %w", txID, err)
			}
			if !ok {
				// Not yet in the pool from this node's view; retry next round.
				continue
			}
			if info.PoolError != "" {
				return nil, &PoolError{TxID: txID, Message: info.PoolError}
			}
			if info.ConfirmedRound != nil {
				results[i] = info
				confirmed[i] = true
				remaining--
			}
		}
		if remaining == 0 {
			return results, nil
		}
		if err := c.node.WaitForBlock(ctx, start+rounds); err != nil {
			return nil, fmt.Errorf("wait for block %d: %w", start+rounds, err)
		}
	}

	for i, ok := range confirmed {
		if !ok {
			return nil, &MaxWaitRoundExpired{TxID: txIDs[i], RoundsWaited: rounds}
		}
	}
	return results, nil
}

// decodeMethodReturns extracts each ABI method call's return value from
// its confirmation's logs. Failures are recorded per slot and never abort
// the send.
func (c *Composer) decodeMethodReturns(confirmations []PendingTransactionInfo) []MethodCallReturn {
	if len(c.methodCalls) == 0 {
		return nil
	}
	indices := make([]int, 0, len(c.methodCalls))
	for i := range c.methodCalls {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var out []MethodCallReturn
	for _, i := range indices {
		mc := c.methodCalls[i]
		if mc.Method.Returns == nil {
			continue
		}
		ret := MethodCallReturn{Index: i, Method: mc.Method.Name}
		if i >= len(confirmations) {
			ret.DecodeErr = fmt.Errorf("no confirmation for method call %d (%s)", i, mc.Method.Name)
			out = append(out, ret)
			continue
		}
		payload, found := lastReturnLog(confirmations[i].Logs)
		if !found {
			ret.DecodeErr = fmt.Errorf("no return value log found for method call %d (%s)", i, mc.Method.Name)
			out = append(out, ret)
			continue
		}
		value, err := c.methodCodec.DecodeReturn(mc.Method.Returns.Type, payload)
		if err != nil {
			ret.DecodeErr = fmt.Errorf("decode return value for method call %d (%s): %w", i, mc.Method.Name, err)
		} else {
			ret.Value = value
		}
		out = append(out, ret)
	}
	return out
}

// lastReturnLog finds the last log entry carrying the ARC-4 return
// sentinel; contracts may log freely before returning, so only the final
// sentinel-prefixed entry is the method's return value.
func lastReturnLog(logs [][]byte) ([]byte, bool) {
	for i := len(logs) - 1; i >= 0; i-- {
		if len(logs[i]) >= 4 && bytes.Equal(logs[i][:4], abiReturnSentinel[:]) {
			return logs[i][4:], true
		}
	}
	return nil, false
}
