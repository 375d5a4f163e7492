package transaction

import "github.com/algorandfoundation/algokit-go/address"

// PaymentParams are the caller-supplied parameters for a payment
// transaction, independent of the resolved header.
type PaymentParams struct {
	Receiver         address.Address
	Amount           uint64
	CloseRemainderTo *address.Address
}

// BuildPayment constructs and validates a Payment transaction.
func BuildPayment(p PaymentParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:   KindPayment,
		Header: header,
		Payment: &PaymentFields{
			Receiver:         p.Receiver,
			Amount:           p.Amount,
			CloseRemainderTo: p.CloseRemainderTo,
		},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// AssetCreateParams are the parameters for creating a new asset.
type AssetCreateParams struct {
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

// BuildAssetCreate constructs an asset-creation transaction.
func BuildAssetCreate(p AssetCreateParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:   KindAssetConfig,
		Header: header,
		AssetConfig: &AssetConfigFields{
			AssetID: 0,
			Params: &AssetParams{
				Total:         p.Total,
				Decimals:      p.Decimals,
				DefaultFrozen: p.DefaultFrozen,
				UnitName:      p.UnitName,
				AssetName:     p.AssetName,
				URL:           p.URL,
				MetadataHash:  p.MetadataHash,
				Manager:       p.Manager,
				Reserve:       p.Reserve,
				Freeze:        p.Freeze,
				Clawback:      p.Clawback,
			},
		},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// AssetConfigParams reconfigures the mutable roles of an existing asset.
type AssetConfigParams struct {
	AssetID  uint64
	Manager  *address.Address
	Reserve  *address.Address
	Freeze   *address.Address
	Clawback *address.Address
}

// BuildAssetConfig constructs an asset-reconfiguration transaction.
func BuildAssetConfig(p AssetConfigParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:   KindAssetConfig,
		Header: header,
		AssetConfig: &AssetConfigFields{
			AssetID: p.AssetID,
			Params: &AssetParams{
				Manager:  p.Manager,
				Reserve:  p.Reserve,
				Freeze:   p.Freeze,
				Clawback: p.Clawback,
			},
		},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// AssetDestroyParams destroys an existing asset.
type AssetDestroyParams struct {
	AssetID uint64
}

// BuildAssetDestroy constructs an asset-destruction transaction.
func BuildAssetDestroy(p AssetDestroyParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:        KindAssetConfig,
		Header:      header,
		AssetConfig: &AssetConfigFields{AssetID: p.AssetID, Params: nil},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// AssetTransferParams covers transfer, opt-in (Amount=0, Receiver=sender),
// opt-out (CloseTo set), and clawback (ClawbackFrom set) variants.
type AssetTransferParams struct {
	AssetID      uint64
	Amount       uint64
	Receiver     address.Address
	CloseTo      *address.Address
	ClawbackFrom *address.Address
}

// BuildAssetTransfer constructs an asset transfer transaction.
func BuildAssetTransfer(p AssetTransferParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:   KindAssetTransfer,
		Header: header,
		AssetTransfer: &AssetTransferFields{
			AssetID:      p.AssetID,
			Amount:       p.Amount,
			Receiver:     p.Receiver,
			CloseTo:      p.CloseTo,
			ClawbackFrom: p.ClawbackFrom,
		},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// AssetFreezeParams freezes or unfreezes an account's holding of an asset.
type AssetFreezeParams struct {
	AssetID uint64
	Target  address.Address
	Frozen  bool
}

// BuildAssetFreeze constructs an asset freeze/unfreeze transaction.
func BuildAssetFreeze(p AssetFreezeParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:        KindAssetFreeze,
		Header:      header,
		AssetFreeze: &AssetFreezeFields{AssetID: p.AssetID, Target: p.Target, Frozen: p.Frozen},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// AppCallParams covers a call to an existing application (noop, opt-in,
// close-out, clear-state); see AppCreateParams, AppUpdateParams and
// AppDeleteParams for the other shapes. It carries no programs, so an
// UpdateApplication call built from it fails validation.
type AppCallParams struct {
	AppID             uint64
	OnCompletion      OnCompletion
	Args              [][]byte
	AccountReferences []address.Address
	AppReferences     []uint64
	AssetReferences   []uint64
	BoxReferences     []BoxReference
}

// BuildAppCall constructs a non-create, non-update, non-delete application
// call transaction.
func BuildAppCall(p AppCallParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:   KindAppCall,
		Header: header,
		AppCall: &AppCallFields{
			AppID:             p.AppID,
			OnCompletion:      p.OnCompletion,
			Args:              p.Args,
			AccountReferences: p.AccountReferences,
			AppReferences:     p.AppReferences,
			AssetReferences:   p.AssetReferences,
			BoxReferences:     p.BoxReferences,
		},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// AppCreateParams creates a new application.
type AppCreateParams struct {
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

// BuildAppCreate constructs an application-creation transaction.
func BuildAppCreate(p AppCreateParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:   KindAppCall,
		Header: header,
		AppCall: &AppCallFields{
			AppID:              0,
			OnCompletion:       p.OnCompletion,
			ApprovalProgram:    p.ApprovalProgram,
			ClearStateProgram:  p.ClearStateProgram,
			GlobalStateSchema:  p.GlobalStateSchema,
			LocalStateSchema:   p.LocalStateSchema,
			ExtraProgramPages:  p.ExtraProgramPages,
			Args:               p.Args,
			AccountReferences:  p.AccountReferences,
			AppReferences:      p.AppReferences,
			AssetReferences:    p.AssetReferences,
			BoxReferences:      p.BoxReferences,
		},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// AppUpdateParams updates an existing application's programs.
type AppUpdateParams struct {
	AppID             uint64
	ApprovalProgram   []byte
	ClearStateProgram []byte
	Args              [][]byte
	AccountReferences []address.Address
	AppReferences     []uint64
	AssetReferences   []uint64
	BoxReferences     []BoxReference
}

// BuildAppUpdate constructs an application-update transaction.
func BuildAppUpdate(p AppUpdateParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:   KindAppCall,
		Header: header,
		AppCall: &AppCallFields{
			AppID:             p.AppID,
			OnCompletion:      UpdateApplication,
			ApprovalProgram:   p.ApprovalProgram,
			ClearStateProgram: p.ClearStateProgram,
			Args:              p.Args,
			AccountReferences: p.AccountReferences,
			AppReferences:     p.AppReferences,
			AssetReferences:   p.AssetReferences,
			BoxReferences:     p.BoxReferences,
		},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// AppDeleteParams deletes an existing application.
type AppDeleteParams struct {
	AppID             uint64
	Args              [][]byte
	AccountReferences []address.Address
	AppReferences     []uint64
	AssetReferences   []uint64
	BoxReferences     []BoxReference
}

// BuildAppDelete constructs an application-deletion transaction.
func BuildAppDelete(p AppDeleteParams, header Header) (Transaction, error) {
	t := Transaction{
		Kind:   KindAppCall,
		Header: header,
		AppCall: &AppCallFields{
			AppID:             p.AppID,
			OnCompletion:      DeleteApplication,
			Args:              p.Args,
			AccountReferences: p.AccountReferences,
			AppReferences:     p.AppReferences,
			AssetReferences:   p.AssetReferences,
			BoxReferences:     p.BoxReferences,
		},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// OnlineKeyRegistrationParams registers a participation key.
type OnlineKeyRegistrationParams struct {
	VoteKey         [32]byte
	SelectionKey    [32]byte
	StateProofKey   []byte
	VoteFirst       uint64
	VoteLast        uint64
	VoteKeyDilution uint64
}

// BuildOnlineKeyRegistration constructs an online key-registration
// transaction.
func BuildOnlineKeyRegistration(p OnlineKeyRegistrationParams, header Header) (Transaction, error) {
	vk, sk := p.VoteKey, p.SelectionKey
	t := Transaction{
		Kind:   KindKeyRegistration,
		Header: header,
		KeyReg: &KeyRegFields{
			VoteKey:         &vk,
			SelectionKey:    &sk,
			StateProofKey:   p.StateProofKey,
			VoteFirst:       p.VoteFirst,
			VoteLast:        p.VoteLast,
			VoteKeyDilution: p.VoteKeyDilution,
		},
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// BuildOfflineKeyRegistration constructs a key-registration transaction
// that takes the sender offline (clears participation keys).
func BuildOfflineKeyRegistration(header Header) (Transaction, error) {
	t := Transaction{Kind: KindKeyRegistration, Header: header, KeyReg: &KeyRegFields{}}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// BuildNonParticipationKeyRegistration constructs a key-registration
// transaction that permanently marks the sender as non-participating.
func BuildNonParticipationKeyRegistration(header Header) (Transaction, error) {
	t := Transaction{Kind: KindKeyRegistration, Header: header, KeyReg: &KeyRegFields{NonParticipation: true}}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}
