package composer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/algorandfoundation/algokit-go/applog"
	"github.com/algorandfoundation/algokit-go/methodcall"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// State is the composer's position in its Open -> Built -> Signed ->
// Submitted -> Confirmed state machine. Every state transition is
// one-directional; once past Open no further requests may be enqueued.
type State int

const (
	StateOpen State = iota
	StateBuilt
	StateSigned
	StateSubmitted
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateBuilt:
		return "built"
	case StateSigned:
		return "signed"
	case StateSubmitted:
		return "submitted"
	case StateConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Config tunes the two optional simulate-backed passes Build performs.
type Config struct {
	// CoverAppCallInnerTransactionFees enables the fee-pooling simulate
	// round trip and fee rewrite.
	CoverAppCallInnerTransactionFees bool
	// PopulateAppCallResources enables the resource-population simulate
	// round trip.
	PopulateAppCallResources bool
	// MaxRoundsToWaitForConfirmation bounds Send's confirmation poll. Zero
	// means derive it from the group's last-valid rounds, floored to the
	// network's default validity window.
	MaxRoundsToWaitForConfirmation uint64
}

// DefaultConfig populates app call resources automatically but leaves
// inner-transaction fee coverage opt-in, since enabling it obliges every
// app call in the group to carry a max fee.
func DefaultConfig() Config {
	return Config{
		CoverAppCallInnerTransactionFees: false,
		PopulateAppCallResources:         true,
	}
}

// Composer accumulates Requests, then builds, signs, and submits them as a
// single atomic transaction group.
type Composer struct {
	// id correlates every log line and notification this composer emits
	// across its build/sign/send lifecycle.
	id            string
	node          NodeClient
	methodCodec   methodcall.Codec
	defaultSigner SignerGetter
	log           applog.Logger
	config        Config

	state     State
	requests  []Request
	flat      []Request
	flatCount int

	suggested   SuggestedParams
	built       []transaction.Transaction
	methodCalls map[int]*MethodCallParams // index into built -> originating method call, for return decoding
	signed      []SignedTransaction
	txIDs       []string
	sendResult  *SendResult
}

// New builds a Composer ready to accept requests.
func New(node NodeClient, methodCodec methodcall.Codec, defaultSigner SignerGetter, log applog.Logger, config Config) *Composer {
	if log == nil {
		log = applog.Nop{}
	}
	return &Composer{
		id:            uuid.NewString(),
		node:          node,
		methodCodec:   methodCodec,
		defaultSigner: defaultSigner,
		log:           log,
		config:        config,
		state:         StateOpen,
	}
}

// ID returns the composer's correlation id, present on every log record
// it emits.
func (c *Composer) ID() string { return c.id }

func (c *Composer) requireOpen(op string) error {
	if c.state != StateOpen {
		return &StateError{Operation: op, State: c.state}
	}
	return nil
}

// enqueue appends one request after checking that the flattened group
// (the request plus every transaction-carrying method call argument it
// brings along, recursively) still fits in one atomic group. The check
// happens before any mutation so a failed enqueue leaves the composer
// unchanged.
func (c *Composer) enqueue(op string, r Request) error {
	if err := c.requireOpen(op); err != nil {
		return err
	}
	n := flattenedCount(r)
	if c.flatCount+n > transaction.MaxTxGroupSize {
		return &GroupSizeError{Size: c.flatCount + n, Max: transaction.MaxTxGroupSize}
	}
	c.requests = append(c.requests, r)
	c.flatCount += n
	return nil
}

// flattenedCount is the number of group slots a request occupies once its
// sibling transactions are expanded, depth first.
func flattenedCount(r Request) int {
	if r.Kind != ReqMethodCall || r.MethodCall == nil {
		return 1
	}
	n := 1
	for _, arg := range r.MethodCall.Args {
		switch arg.Kind {
		case MethodArgTransaction, MethodArgTransactionWithSigner:
			n++
		case MethodArgSibling:
			if arg.Sibling != nil {
				n += flattenedCount(*arg.Sibling)
			}
		}
	}
	return n
}

// Count returns the number of top-level requests enqueued so far (before
// sibling flattening).
func (c *Composer) Count() int { return len(c.requests) }

// State returns the composer's current state-machine position.
func (c *Composer) State() State { return c.state }

// GroupID returns the built group's hash, or nil for a single-transaction
// group (which never carries one) or a composer not yet built.
func (c *Composer) GroupID() *[32]byte {
	if len(c.built) == 0 {
		return nil
	}
	return c.built[0].Header.Group
}

// AddPayment enqueues a payment transaction.
func (c *Composer) AddPayment(common CommonParams, p transaction.PaymentParams) error {
	return c.enqueue("add payment", Request{Kind: ReqPayment, Common: common, Payment: &p})
}

// AddAssetTransfer enqueues an asset transfer (including opt-in/opt-out/clawback variants).
func (c *Composer) AddAssetTransfer(common CommonParams, p transaction.AssetTransferParams) error {
	return c.enqueue("add asset transfer", Request{Kind: ReqAssetTransfer, Common: common, AssetTransfer: &p})
}

// AddAssetCreate enqueues an asset-creation transaction.
func (c *Composer) AddAssetCreate(common CommonParams, p transaction.AssetCreateParams) error {
	return c.enqueue("add asset create", Request{Kind: ReqAssetCreate, Common: common, AssetCreate: &p})
}

// AddAssetConfig enqueues an asset-reconfiguration transaction.
func (c *Composer) AddAssetConfig(common CommonParams, p transaction.AssetConfigParams) error {
	return c.enqueue("add asset config", Request{Kind: ReqAssetConfig, Common: common, AssetConfig: &p})
}

// AddAssetDestroy enqueues an asset-destruction transaction.
func (c *Composer) AddAssetDestroy(common CommonParams, p transaction.AssetDestroyParams) error {
	return c.enqueue("add asset destroy", Request{Kind: ReqAssetDestroy, Common: common, AssetDestroy: &p})
}

// AddAssetFreeze enqueues an asset freeze/unfreeze transaction.
func (c *Composer) AddAssetFreeze(common CommonParams, p transaction.AssetFreezeParams) error {
	return c.enqueue("add asset freeze", Request{Kind: ReqAssetFreeze, Common: common, AssetFreeze: &p})
}

// AddAppCall enqueues a non-create, non-update, non-delete application call.
func (c *Composer) AddAppCall(common CommonParams, p transaction.AppCallParams) error {
	return c.enqueue("add app call", Request{Kind: ReqAppCall, Common: common, AppCall: &p})
}

// AddAppCreate enqueues an application-creation transaction.
func (c *Composer) AddAppCreate(common CommonParams, p transaction.AppCreateParams) error {
	return c.enqueue("add app create", Request{Kind: ReqAppCreate, Common: common, AppCreate: &p})
}

// AddAppUpdate enqueues an application-update transaction.
func (c *Composer) AddAppUpdate(common CommonParams, p transaction.AppUpdateParams) error {
	return c.enqueue("add app update", Request{Kind: ReqAppUpdate, Common: common, AppUpdate: &p})
}

// AddAppDelete enqueues an application-deletion transaction.
func (c *Composer) AddAppDelete(common CommonParams, p transaction.AppDeleteParams) error {
	return c.enqueue("add app delete", Request{Kind: ReqAppDelete, Common: common, AppDelete: &p})
}

// AddOnlineKeyRegistration enqueues an online participation key registration.
func (c *Composer) AddOnlineKeyRegistration(common CommonParams, p transaction.OnlineKeyRegistrationParams) error {
	return c.enqueue("add online key registration", Request{Kind: ReqOnlineKeyReg, Common: common, OnlineKeyReg: &p})
}

// AddMethodCall enqueues an ARC-4 ABI method call layered over one of the
// four application-call shapes.
func (c *Composer) AddMethodCall(common CommonParams, p MethodCallParams) error {
	return c.enqueue("add method call", Request{Kind: ReqMethodCall, Common: common, MethodCall: &p})
}

// AddOfflineKeyRegistration enqueues a key registration that takes the
// sender offline.
func (c *Composer) AddOfflineKeyRegistration(common CommonParams) error {
	return c.enqueue("add offline key registration", Request{Kind: ReqOfflineKeyReg, Common: common})
}

// AddNonParticipationKeyRegistration enqueues a key registration that
// permanently marks the sender as non-participating.
func (c *Composer) AddNonParticipationKeyRegistration(common CommonParams) error {
	return c.enqueue("add non-participation key registration", Request{Kind: ReqNonParticipationKeyReg, Common: common})
}

// AddRawTransaction enqueues a fully pre-built transaction, signed by the
// default signer resolved for its header's sender.
func (c *Composer) AddRawTransaction(t transaction.Transaction) error {
	return c.enqueue("add raw transaction", Request{Kind: ReqRawTransaction, RawTransaction: &t})
}

// AddTransactionWithSigner enqueues a pre-built transaction paired with an
// explicit signer, bypassing header synthesis entirely.
func (c *Composer) AddTransactionWithSigner(t transaction.Transaction, signer Signer) error {
	return c.enqueue("add transaction with signer",
		Request{Kind: ReqTransactionWithSigner, TransactionWithSigner: &TransactionWithSigner{Transaction: t, Signer: signer}})
}

// flatten expands the enqueued requests into build order: every
// transaction-carrying method call argument (a raw transaction, a
// transaction with signer, or a nested sibling request) is inserted
// immediately ahead of the method call that references it,
// depth-first so a sibling's own siblings precede it in turn.
func flatten(requests []Request) ([]Request, error) {
	var out []Request

	var walk func(r Request) error
	walk = func(r Request) error {
		if r.Kind == ReqMethodCall && r.MethodCall != nil {
			for i, arg := range r.MethodCall.Args {
				switch arg.Kind {
				case MethodArgTransaction:
					if arg.Transaction == nil {
						return fmt.Errorf("method call argument %d: transaction is nil", i)
					}
					out = append(out, Request{Kind: ReqRawTransaction, RawTransaction: arg.Transaction})
				case MethodArgTransactionWithSigner:
					if arg.TransactionWithSigner == nil {
						return fmt.Errorf("method call argument %d: transaction with signer is nil", i)
					}
					out = append(out, Request{Kind: ReqTransactionWithSigner, TransactionWithSigner: arg.TransactionWithSigner})
				case MethodArgSibling:
					if arg.Sibling == nil {
						return fmt.Errorf("method call argument %d: sibling request is nil", i)
					}
					if err := walk(*arg.Sibling); err != nil {
						return err
					}
				}
			}
		}
		out = append(out, r)
		return nil
	}

	for _, r := range requests {
		if err := walk(r); err != nil {
			return nil, err
		}
	}
	if len(out) > transaction.MaxTxGroupSize {
		return nil, &GroupSizeError{Size: len(out), Max: transaction.MaxTxGroupSize}
	}
	return out, nil
}

func (c *Composer) resolveSigner(r Request) (Signer, error) {
	if r.Kind == ReqTransactionWithSigner {
		return r.TransactionWithSigner.Signer, nil
	}
	if r.Common.Signer != nil {
		return r.Common.Signer, nil
	}
	if r.Kind == ReqRawTransaction {
		if c.defaultSigner == nil {
			return nil, fmt.Errorf("no signer available for raw transaction")
		}
		return c.defaultSigner(r.RawTransaction.Header.Sender)
	}
	if c.defaultSigner == nil {
		return nil, fmt.Errorf("no signer available for sender %s", r.Common.Sender)
	}
	return c.defaultSigner(r.Common.Sender)
}
