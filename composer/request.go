package composer

import (
	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/methodcall"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// RequestKind tags which payload field of a Request is populated, the same
// sum-type-via-struct-of-pointers shape transaction.Transaction uses.
type RequestKind string

const (
	ReqPayment                RequestKind = "payment"
	ReqAssetTransfer          RequestKind = "asset_transfer"
	ReqAssetCreate            RequestKind = "asset_create"
	ReqAssetConfig            RequestKind = "asset_config"
	ReqAssetDestroy           RequestKind = "asset_destroy"
	ReqAssetFreeze            RequestKind = "asset_freeze"
	ReqAppCall                RequestKind = "app_call"
	ReqAppCreate              RequestKind = "app_create"
	ReqAppUpdate              RequestKind = "app_update"
	ReqAppDelete              RequestKind = "app_delete"
	ReqMethodCall             RequestKind = "method_call"
	ReqOnlineKeyReg           RequestKind = "online_key_registration"
	ReqOfflineKeyReg          RequestKind = "offline_key_registration"
	ReqNonParticipationKeyReg RequestKind = "non_participation_key_registration"
	ReqRawTransaction         RequestKind = "raw_transaction"
	ReqTransactionWithSigner  RequestKind = "transaction_with_signer"
)

// CommonParams carries the fields every request kind shares: sender,
// optional per-request signer override, and the fee/validity knobs every
// builder honors.
type CommonParams struct {
	Sender          address.Address
	Signer          Signer
	RekeyTo         *address.Address
	Note            []byte
	Lease           *[32]byte
	StaticFee       *uint64
	ExtraFee        *uint64
	MaxFee          *uint64
	FirstValidRound *uint64
	LastValidRound  *uint64
	ValidityWindow  *uint64
}

// MethodCallKind distinguishes which underlying application-call shape an
// ABI method call resolves to.
type MethodCallKind int

const (
	MethodCallOnApp MethodCallKind = iota
	MethodCallCreate
	MethodCallUpdate
	MethodCallDelete
)

// MethodArgKind tags one positional argument to an ABI method call before
// it has been resolved to a methodcall.ProcessedArg.
type MethodArgKind int

const (
	// MethodArgValue carries a plain ABI value for a non-reference,
	// non-transaction declared argument.
	MethodArgValue MethodArgKind = iota
	// MethodArgAccount/Asset/App carry a resolved reference target.
	MethodArgAccount
	MethodArgAsset
	MethodArgApp
	// MethodArgTransaction supplies an already-built transaction for a
	// transaction-typed argument.
	MethodArgTransaction
	// MethodArgTransactionWithSigner supplies a transaction and its signer
	// for a transaction-typed argument.
	MethodArgTransactionWithSigner
	// MethodArgSibling supplies a nested Request (payment, asset transfer,
	// or another method call) to be built and flattened immediately ahead
	// of this method call, then substituted in as the transaction
	// argument.
	MethodArgSibling
)

// MethodArg is one positional argument to an ABI method call, in whichever
// unresolved shape the caller supplied it.
type MethodArg struct {
	Kind MethodArgKind

	Value interface{}

	Account address.Address
	AssetID uint64
	AppID   uint64

	Transaction           *transaction.Transaction
	TransactionWithSigner *TransactionWithSigner
	Sibling               *Request
}

// MethodCallParams describes an ABI method call layered over one of the
// four application-call shapes.
type MethodCallParams struct {
	Kind    MethodCallKind
	AppID   uint64 // ignored when Kind == MethodCallCreate
	Method  methodcall.Method
	Args    []MethodArg

	OnCompletion      transaction.OnCompletion
	ApprovalProgram   []byte // create/update only
	ClearStateProgram []byte // create/update only
	GlobalStateSchema transaction.StateSchema
	LocalStateSchema  transaction.StateSchema
	ExtraProgramPages uint32

	AccountReferences []address.Address
	AppReferences     []uint64
	AssetReferences   []uint64
	BoxReferences     []transaction.BoxReference
}

// TransactionWithSigner is a pre-built transaction paired with the signer
// that must sign it, the composer's lowest-level enqueue primitive besides
// RawTransaction.
type TransactionWithSigner struct {
	Transaction transaction.Transaction
	Signer      Signer
}

// Request is one queued item: a closed sum type over every way a caller
// can ask the composer to include a transaction in the group.
type Request struct {
	Kind   RequestKind
	Common CommonParams

	Payment       *transaction.PaymentParams
	AssetTransfer *transaction.AssetTransferParams
	AssetCreate   *transaction.AssetCreateParams
	AssetConfig   *transaction.AssetConfigParams
	AssetDestroy  *transaction.AssetDestroyParams
	AssetFreeze   *transaction.AssetFreezeParams
	AppCall       *transaction.AppCallParams
	AppCreate     *transaction.AppCreateParams
	AppUpdate     *transaction.AppUpdateParams
	AppDelete     *transaction.AppDeleteParams
	MethodCall    *MethodCallParams

	OnlineKeyReg *transaction.OnlineKeyRegistrationParams

	RawTransaction        *transaction.Transaction
	TransactionWithSigner *TransactionWithSigner
}

// EffectiveMaxFee returns the caller's ceiling on the assigned fee: the
// larger of StaticFee and MaxFee when both are set (so a StaticFee above
// MaxFee becomes the ceiling), otherwise whichever one is set, otherwise
// nil (no cap).
func (c CommonParams) EffectiveMaxFee() *uint64 {
	switch {
	case c.StaticFee != nil && c.MaxFee != nil:
		v := *c.StaticFee
		if *c.MaxFee > v {
			v = *c.MaxFee
		}
		return &v
	case c.StaticFee != nil:
		return c.StaticFee
	case c.MaxFee != nil:
		return c.MaxFee
	default:
		return nil
	}
}
