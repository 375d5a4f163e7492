package transaction

import (
	"fmt"

	sdkcrypto "github.com/algorand/go-algorand-sdk/v2/crypto"
	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/algorandfoundation/algokit-go/address"
)

// ToSDK converts our Transaction into the wire-format
// github.com/algorand/go-algorand-sdk/v2/types.Transaction, performing the
// box-reference real-id -> wire-index transform. It is the
// boundary at which this module hands off to the external transaction
// codec (the algosdk msgpack/crypto stack).
func (t Transaction) ToSDK() (sdktypes.Transaction, error) {
	var out sdktypes.Transaction

	out.Header = sdktypes.Header{
		Sender:      sdktypes.Address(t.Header.Sender),
		Note:        t.Header.Note,
		FirstValid:  sdktypes.Round(t.Header.FirstValid),
		LastValid:   sdktypes.Round(t.Header.LastValid),
		GenesisID:   t.Header.GenesisID,
		GenesisHash: sdktypes.Digest(t.Header.GenesisHash),
	}
	if t.Header.Fee != nil {
		out.Fee = sdktypes.MicroAlgos(*t.Header.Fee)
	}
	if t.Header.RekeyTo != nil {
		out.RekeyTo = sdktypes.Address(*t.Header.RekeyTo)
	}
	if t.Header.Lease != nil {
		out.Lease = *t.Header.Lease
	}
	if t.Header.Group != nil {
		out.Group = sdktypes.Digest(*t.Header.Group)
	}

	switch t.Kind {
	case KindPayment:
		out.Type = sdktypes.PaymentTx
		out.PaymentTxnFields = sdktypes.PaymentTxnFields{
			Receiver: sdktypes.Address(t.Payment.Receiver),
			Amount:   sdktypes.MicroAlgos(t.Payment.Amount),
		}
		if t.Payment.CloseRemainderTo != nil {
			out.CloseRemainderTo = sdktypes.Address(*t.Payment.CloseRemainderTo)
		}

	case KindAssetConfig:
		out.Type = sdktypes.AssetConfigTx
		out.ConfigAsset = sdktypes.AssetIndex(t.AssetConfig.AssetID)
		if t.AssetConfig.Params != nil {
			p := t.AssetConfig.Params
			ap := sdktypes.AssetParams{
				Total:         p.Total,
				Decimals:      p.Decimals,
				DefaultFrozen: p.DefaultFrozen,
				UnitName:      p.UnitName,
				AssetName:     p.AssetName,
				URL:           p.URL,
			}
			if p.MetadataHash != nil {
				ap.MetadataHash = *p.MetadataHash
			}
			if p.Manager != nil {
				ap.Manager = sdktypes.Address(*p.Manager)
			}
			if p.Reserve != nil {
				ap.Reserve = sdktypes.Address(*p.Reserve)
			}
			if p.Freeze != nil {
				ap.Freeze = sdktypes.Address(*p.Freeze)
			}
			if p.Clawback != nil {
				ap.Clawback = sdktypes.Address(*p.Clawback)
			}
			out.AssetParams = ap
		}

	case KindAssetTransfer:
		out.Type = sdktypes.AssetTransferTx
		out.XferAsset = sdktypes.AssetIndex(t.AssetTransfer.AssetID)
		out.AssetAmount = t.AssetTransfer.Amount
		out.AssetReceiver = sdktypes.Address(t.AssetTransfer.Receiver)
		if t.AssetTransfer.CloseTo != nil {
			out.AssetCloseTo = sdktypes.Address(*t.AssetTransfer.CloseTo)
		}
		if t.AssetTransfer.ClawbackFrom != nil {
			out.AssetSender = sdktypes.Address(*t.AssetTransfer.ClawbackFrom)
		}

	case KindAssetFreeze:
		out.Type = sdktypes.AssetFreezeTx
		out.FreezeAccount = sdktypes.Address(t.AssetFreeze.Target)
		out.FreezeAsset = sdktypes.AssetIndex(t.AssetFreeze.AssetID)
		out.AssetFrozen = t.AssetFreeze.Frozen

	case KindKeyRegistration:
		out.Type = sdktypes.KeyRegistrationTx
		if t.KeyReg.VoteKey != nil {
			out.VotePK = sdktypes.VotePK(*t.KeyReg.VoteKey)
		}
		if t.KeyReg.SelectionKey != nil {
			out.SelectionPK = sdktypes.VRFPK(*t.KeyReg.SelectionKey)
		}
		if len(t.KeyReg.StateProofKey) == len(out.StateProofPK) {
			copy(out.StateProofPK[:], t.KeyReg.StateProofKey)
		}
		out.VoteFirst = sdktypes.Round(t.KeyReg.VoteFirst)
		out.VoteLast = sdktypes.Round(t.KeyReg.VoteLast)
		out.VoteKeyDilution = t.KeyReg.VoteKeyDilution
		out.Nonparticipation = t.KeyReg.NonParticipation

	case KindAppCall:
		out.Type = sdktypes.ApplicationCallTx
		f := t.AppCall
		out.ApplicationID = sdktypes.AppIndex(f.AppID)
		out.OnCompletion = sdktypes.OnCompletion(f.OnCompletion)
		out.ApplicationArgs = f.Args
		out.ApprovalProgram = f.ApprovalProgram
		out.ClearStateProgram = f.ClearStateProgram
		if f.GlobalStateSchema != nil {
			out.GlobalStateSchema = sdktypes.StateSchema{NumUint: f.GlobalStateSchema.NumUints, NumByteSlice: f.GlobalStateSchema.NumByteSlices}
		}
		if f.LocalStateSchema != nil {
			out.LocalStateSchema = sdktypes.StateSchema{NumUint: f.LocalStateSchema.NumUints, NumByteSlice: f.LocalStateSchema.NumByteSlices}
		}
		if f.ExtraProgramPages != nil {
			out.ExtraProgramPages = uint32(*f.ExtraProgramPages)
		}
		for _, a := range f.AccountReferences {
			out.Accounts = append(out.Accounts, sdktypes.Address(a))
		}
		for _, a := range f.AppReferences {
			out.ForeignApps = append(out.ForeignApps, sdktypes.AppIndex(a))
		}
		for _, a := range f.AssetReferences {
			out.ForeignAssets = append(out.ForeignAssets, sdktypes.AssetIndex(a))
		}
		boxes, err := encodeBoxReferences(f.AppID, f.AppReferences, f.BoxReferences)
		if err != nil {
			return sdktypes.Transaction{}, err
		}
		out.BoxReferences = boxes

	default:
		return sdktypes.Transaction{}, fmt.Errorf("unknown transaction kind %q", t.Kind)
	}

	return out, nil
}

// encodeBoxReferences translates real application ids into the wire-level
// 1-based index into appReferences (0 == selfAppID).
func encodeBoxReferences(selfAppID uint64, appReferences []uint64, boxes []BoxReference) ([]sdktypes.BoxReference, error) {
	if len(boxes) == 0 {
		return nil, nil
	}
	out := make([]sdktypes.BoxReference, 0, len(boxes))
	for _, b := range boxes {
		if b.AppID == 0 || b.AppID == selfAppID {
			out = append(out, sdktypes.BoxReference{ForeignAppIdx: 0, Name: b.Name})
			continue
		}
		idx := -1
		for i, a := range appReferences {
			if a == b.AppID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("Box reference with app id %d not found in app references", b.AppID)
		}
		out = append(out, sdktypes.BoxReference{ForeignAppIdx: uint64(idx + 1), Name: b.Name})
	}
	return out, nil
}

// FromSDK is the inverse of ToSDK: it interprets a wire-format transaction
// back into this module's representation, including the box-reference
// index -> real-app-id transform.
func FromSDK(in sdktypes.Transaction) (Transaction, error) {
	var out Transaction

	out.Header = Header{
		Sender:      address.Address(in.Sender),
		Note:        in.Note,
		FirstValid:  uint64(in.FirstValid),
		LastValid:   uint64(in.LastValid),
		GenesisID:   in.GenesisID,
		GenesisHash: [32]byte(in.GenesisHash),
	}
	fee := uint64(in.Fee)
	out.Header.Fee = &fee
	if in.RekeyTo != (sdktypes.Address{}) {
		a := address.Address(in.RekeyTo)
		out.Header.RekeyTo = &a
	}
	if in.Lease != ([32]byte{}) {
		l := in.Lease
		out.Header.Lease = &l
	}
	if in.Group != (sdktypes.Digest{}) {
		g := [32]byte(in.Group)
		out.Header.Group = &g
	}

	switch in.Type {
	case sdktypes.PaymentTx:
		out.Kind = KindPayment
		out.Payment = &PaymentFields{
			Receiver: address.Address(in.Receiver),
			Amount:   uint64(in.Amount),
		}
		if in.CloseRemainderTo != (sdktypes.Address{}) {
			a := address.Address(in.CloseRemainderTo)
			out.Payment.CloseRemainderTo = &a
		}

	case sdktypes.AssetConfigTx:
		out.Kind = KindAssetConfig
		fields := &AssetConfigFields{AssetID: uint64(in.ConfigAsset)}
		if in.AssetParams != (sdktypes.AssetParams{}) {
			p := &AssetParams{
				Total:         in.AssetParams.Total,
				Decimals:      in.AssetParams.Decimals,
				DefaultFrozen: in.AssetParams.DefaultFrozen,
				UnitName:      in.AssetParams.UnitName,
				AssetName:     in.AssetParams.AssetName,
				URL:           in.AssetParams.URL,
			}
			if in.AssetParams.MetadataHash != ([32]byte{}) {
				h := in.AssetParams.MetadataHash
				p.MetadataHash = &h
			}
			if in.AssetParams.Manager != (sdktypes.Address{}) {
				a := address.Address(in.AssetParams.Manager)
				p.Manager = &a
			}
			if in.AssetParams.Reserve != (sdktypes.Address{}) {
				a := address.Address(in.AssetParams.Reserve)
				p.Reserve = &a
			}
			if in.AssetParams.Freeze != (sdktypes.Address{}) {
				a := address.Address(in.AssetParams.Freeze)
				p.Freeze = &a
			}
			if in.AssetParams.Clawback != (sdktypes.Address{}) {
				a := address.Address(in.AssetParams.Clawback)
				p.Clawback = &a
			}
			fields.Params = p
		}
		out.AssetConfig = fields

	case sdktypes.AssetTransferTx:
		out.Kind = KindAssetTransfer
		out.AssetTransfer = &AssetTransferFields{
			AssetID:  uint64(in.XferAsset),
			Amount:   in.AssetAmount,
			Receiver: address.Address(in.AssetReceiver),
		}
		if in.AssetCloseTo != (sdktypes.Address{}) {
			a := address.Address(in.AssetCloseTo)
			out.AssetTransfer.CloseTo = &a
		}
		if in.AssetSender != (sdktypes.Address{}) {
			a := address.Address(in.AssetSender)
			out.AssetTransfer.ClawbackFrom = &a
		}

	case sdktypes.AssetFreezeTx:
		out.Kind = KindAssetFreeze
		out.AssetFreeze = &AssetFreezeFields{
			AssetID: uint64(in.FreezeAsset),
			Target:  address.Address(in.FreezeAccount),
			Frozen:  in.AssetFrozen,
		}

	case sdktypes.KeyRegistrationTx:
		out.Kind = KindKeyRegistration
		kr := &KeyRegFields{
			VoteFirst:        uint64(in.VoteFirst),
			VoteLast:         uint64(in.VoteLast),
			VoteKeyDilution:  in.VoteKeyDilution,
			NonParticipation: in.Nonparticipation,
		}
		if in.VotePK != (sdktypes.VotePK{}) {
			vk := [32]byte(in.VotePK)
			kr.VoteKey = &vk
		}
		if in.SelectionPK != (sdktypes.VRFPK{}) {
			sk := [32]byte(in.SelectionPK)
			kr.SelectionKey = &sk
		}
		if in.StateProofPK != (sdktypes.MerkleVerifier{}) {
			kr.StateProofKey = append([]byte(nil), in.StateProofPK[:]...)
		}
		out.KeyReg = kr

	case sdktypes.ApplicationCallTx:
		out.Kind = KindAppCall
		f := &AppCallFields{
			AppID:             uint64(in.ApplicationID),
			OnCompletion:      OnCompletion(in.OnCompletion),
			Args:              in.ApplicationArgs,
			ApprovalProgram:   in.ApprovalProgram,
			ClearStateProgram: in.ClearStateProgram,
		}
		if in.GlobalStateSchema != (sdktypes.StateSchema{}) {
			f.GlobalStateSchema = &StateSchema{NumUints: in.GlobalStateSchema.NumUint, NumByteSlices: in.GlobalStateSchema.NumByteSlice}
		}
		if in.LocalStateSchema != (sdktypes.StateSchema{}) {
			f.LocalStateSchema = &StateSchema{NumUints: in.LocalStateSchema.NumUint, NumByteSlices: in.LocalStateSchema.NumByteSlice}
		}
		if in.ExtraProgramPages != 0 {
			pages := in.ExtraProgramPages
			f.ExtraProgramPages = &pages
		}
		for _, a := range in.Accounts {
			f.AccountReferences = append(f.AccountReferences, address.Address(a))
		}
		for _, a := range in.ForeignApps {
			f.AppReferences = append(f.AppReferences, uint64(a))
		}
		for _, a := range in.ForeignAssets {
			f.AssetReferences = append(f.AssetReferences, uint64(a))
		}
		boxes, err := decodeBoxReferences(f.AppID, f.AppReferences, in.BoxReferences)
		if err != nil {
			return Transaction{}, err
		}
		f.BoxReferences = boxes
		out.AppCall = f

	default:
		return Transaction{}, fmt.Errorf("unknown wire transaction type %q", in.Type)
	}

	return out, nil
}

// decodeBoxReferences is the inverse transform, used when interpreting a
// transaction read off the wire: wire index -> real application id.
func decodeBoxReferences(selfAppID uint64, appReferences []uint64, boxes []sdktypes.BoxReference) ([]BoxReference, error) {
	if len(boxes) == 0 {
		return nil, nil
	}
	out := make([]BoxReference, 0, len(boxes))
	for _, b := range boxes {
		if b.ForeignAppIdx == 0 {
			out = append(out, BoxReference{AppID: selfAppID, Name: b.Name})
			continue
		}
		i := int(b.ForeignAppIdx) - 1
		if i < 0 || i >= len(appReferences) {
			return nil, fmt.Errorf("box reference index %d out of range of %d app references", b.ForeignAppIdx, len(appReferences))
		}
		out = append(out, BoxReference{AppID: appReferences[i], Name: b.Name})
	}
	return out, nil
}

// EncodedSize returns the canonical encoded size of the transaction, as
// produced by the external signer/codec (algosdk), by signing with a
// throwaway keypair: signing is the only way the SDK exposes a
// deterministic wire-size estimate without a real account.
func EncodedSize(t Transaction) (uint64, error) {
	sdkTxn, err := t.ToSDK()
	if err != nil {
		return 0, err
	}
	account := sdkcrypto.GenerateAccount()
	_, stx, err := sdkcrypto.SignTransaction(account.PrivateKey, sdkTxn)
	if err != nil {
		return 0, fmt.Errorf("estimate encoded size: %w", err)
	}
	return uint64(len(stx)), nil
}

// AssignFee returns a copy of t with Header.Fee set to
// max(params.MinFee, params.FeePerByte*encodedSize) + params.ExtraFee,
// or ErrFeeExceedsMax if that exceeds params.MaxFee.
func (t Transaction) AssignFee(params FeeParams) (Transaction, error) {
	out := t.Clone()
	size, err := EncodedSize(out)
	if err != nil {
		return Transaction{}, err
	}
	fee, err := assignFee(params.FeePerByte*size, params)
	if err != nil {
		return Transaction{}, err
	}
	out.Header.Fee = &fee
	return out, nil
}

// ID returns the canonical base32 (no checksum, no padding) rendering of
// the transaction's 32-byte hash.
func ID(t Transaction) (string, error) {
	sdkTxn, err := t.ToSDK()
	if err != nil {
		return "", err
	}
	txid, _, err := sdkcrypto.SignTransaction(sdkcrypto.GenerateAccount().PrivateKey, sdkTxn)
	if err != nil {
		return "", fmt.Errorf("compute transaction id: %w", err)
	}
	return txid, nil
}

// AssignGroup hashes the canonical encoding of every transaction with its
// Group field cleared, derives one 32-byte group hash, and returns copies
// with Header.Group set. Required whenever len(txs) > 1; single-transaction
// groups are returned unchanged.
func AssignGroup(txs []Transaction) ([]Transaction, error) {
	if len(txs) <= 1 {
		return txs, nil
	}
	sdkTxs := make([]sdktypes.Transaction, len(txs))
	for i, t := range txs {
		cleared := t.Clone()
		cleared.Header.Group = nil
		sdkTxn, err := cleared.ToSDK()
		if err != nil {
			return nil, fmt.Errorf("assign group: transaction %d: %w", i, err)
		}
		sdkTxs[i] = sdkTxn
	}

	gid, err := sdkcrypto.ComputeGroupID(sdkTxs)
	if err != nil {
		return nil, fmt.Errorf("compute group id: %w", err)
	}

	out := make([]Transaction, len(txs))
	for i, t := range txs {
		c := t.Clone()
		g := [32]byte(gid)
		c.Header.Group = &g
		out[i] = c
	}
	return out, nil
}
