package transaction

import "github.com/algorandfoundation/algokit-go/address"

// Kind tags which payload a Transaction carries.
type Kind string

const (
	KindPayment         Kind = "pay"
	KindAssetConfig     Kind = "acfg"
	KindAssetTransfer   Kind = "axfer"
	KindAssetFreeze     Kind = "afrz"
	KindAppCall         Kind = "appl"
	KindKeyRegistration Kind = "keyreg"
)

// PaymentFields is the payload of a Payment transaction.
type PaymentFields struct {
	Receiver         address.Address
	Amount           uint64
	CloseRemainderTo *address.Address
}

// AssetParams describes a fungible asset's mutable and immutable
// configuration.
type AssetParams struct {
	Total         uint64
	Decimals      uint32
	DefaultFrozen bool
	UnitName      string
	AssetName     string
	URL           string
	MetadataHash  *[32]byte
	Manager       *address.Address
	Reserve       *address.Address
	Freeze        *address.Address
	Clawback      *address.Address
}

// AssetConfigFields is the payload of an asset create/reconfigure/destroy
// transaction. AssetID == 0 means creation; Params == nil with AssetID != 0
// means destroy; otherwise it is a reconfiguration.
type AssetConfigFields struct {
	AssetID uint64
	Params  *AssetParams
}

// AssetTransferFields is the payload of an asset transfer (including
// opt-in: Amount == 0, Receiver == Sender; opt-out/clawback via CloseTo and
// ClawbackFrom respectively).
type AssetTransferFields struct {
	AssetID       uint64
	Amount        uint64
	Receiver      address.Address
	CloseTo       *address.Address
	ClawbackFrom  *address.Address // set only for clawback transfers
}

// AssetFreezeFields is the payload of an asset freeze/unfreeze transaction.
type AssetFreezeFields struct {
	AssetID uint64
	Target  address.Address
	Frozen  bool
}

// OnCompletion enumerates the side effect of an application call.
type OnCompletion uint64

const (
	NoOp OnCompletion = iota
	OptIn
	CloseOut
	ClearState
	UpdateApplication
	DeleteApplication
)

func (oc OnCompletion) String() string {
	switch oc {
	case NoOp:
		return "NoOp"
	case OptIn:
		return "OptIn"
	case CloseOut:
		return "CloseOut"
	case ClearState:
		return "ClearState"
	case UpdateApplication:
		return "UpdateApplication"
	case DeleteApplication:
		return "DeleteApplication"
	default:
		return "Unknown"
	}
}

// StateSchema bounds the number of uint/byte-slice values an application
// may store in global or local state.
type StateSchema struct {
	NumUints      uint64
	NumByteSlices uint64
}

func (s StateSchema) total() uint64 { return s.NumUints + s.NumByteSlices }

// BoxReference addresses contract-owned key/value storage. AppID uses the
// in-memory (real application id) convention; the wire-level 1-based index
// transform happens only at encode/decode time (see ToSDK/FromSDK).
type BoxReference struct {
	AppID uint64
	Name  []byte
}

// AppCallFields is the payload of every application-call variant (create,
// update, delete, noop, opt-in, close-out, clear-state); On-completion
// distinguishes which.
type AppCallFields struct {
	AppID              uint64 // 0 means create
	OnCompletion       OnCompletion
	ApprovalProgram    []byte
	ClearStateProgram  []byte
	GlobalStateSchema  *StateSchema
	LocalStateSchema   *StateSchema
	ExtraProgramPages  *uint32
	Args               [][]byte
	AccountReferences  []address.Address
	AppReferences      []uint64
	AssetReferences    []uint64
	BoxReferences      []BoxReference
}

// KeyRegFields is the payload of a key-registration transaction. A zero
// VoteKey/SelectionKey with NonParticipation == false signals "offline".
type KeyRegFields struct {
	VoteKey          *[32]byte
	SelectionKey     *[32]byte
	StateProofKey    []byte
	VoteFirst        uint64
	VoteLast         uint64
	VoteKeyDilution  uint64
	NonParticipation bool
}

// Transaction is the closed sum type over every supported Algorand
// transaction kind: exactly one of the payload pointers matching Kind is
// non-nil.
type Transaction struct {
	Kind   Kind
	Header Header

	Payment       *PaymentFields
	AssetConfig   *AssetConfigFields
	AssetTransfer *AssetTransferFields
	AssetFreeze   *AssetFreezeFields
	AppCall       *AppCallFields
	KeyReg        *KeyRegFields
}

// HeaderMut returns a pointer to the transaction's header for in-place
// rewriting (fee/reference-array mutation during composition).
func (t *Transaction) HeaderMut() *Header { return &t.Header }

// IsAppCall reports whether this transaction is an application call.
func (t *Transaction) IsAppCall() bool { return t.Kind == KindAppCall && t.AppCall != nil }

// Clone returns a deep-enough copy for safe independent mutation of the
// header and reference-array slices.
func (t Transaction) Clone() Transaction {
	out := t
	if t.Header.RekeyTo != nil {
		v := *t.Header.RekeyTo
		out.Header.RekeyTo = &v
	}
	if t.Header.Lease != nil {
		v := *t.Header.Lease
		out.Header.Lease = &v
	}
	if t.Header.Fee != nil {
		v := *t.Header.Fee
		out.Header.Fee = &v
	}
	if t.Header.Group != nil {
		v := *t.Header.Group
		out.Header.Group = &v
	}
	if t.Header.Note != nil {
		out.Header.Note = append([]byte(nil), t.Header.Note...)
	}
	if t.AppCall != nil {
		ac := *t.AppCall
		ac.Args = append([][]byte(nil), t.AppCall.Args...)
		ac.AccountReferences = append([]address.Address(nil), t.AppCall.AccountReferences...)
		ac.AppReferences = append([]uint64(nil), t.AppCall.AppReferences...)
		ac.AssetReferences = append([]uint64(nil), t.AppCall.AssetReferences...)
		ac.BoxReferences = append([]BoxReference(nil), t.AppCall.BoxReferences...)
		out.AppCall = &ac
	}
	return out
}
