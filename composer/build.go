package composer

import (
	"context"
	"fmt"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/methodcall"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// defaultValidityWindow returns the validity window applied when neither
// CommonParams.LastValidRound nor CommonParams.ValidityWindow was
// supplied: 10 rounds on public networks, 1000 on a LocalNet where rounds
// advance on demand and a short window strands transactions.
func defaultValidityWindow(genesisID string) uint64 {
	if genesisIDIsLocalNet(genesisID) {
		return 1000
	}
	return 10
}

func genesisIDIsLocalNet(genesisID string) bool {
	switch genesisID {
	case "devnet-v1", "sandnet-v1", "dockernet-v1":
		return true
	}
	return false
}

// BuildResult is Build's output: the finalized, grouped transaction list
// alongside bookkeeping needed by Sign/Send (which request produced which
// built index, for ABI return decoding).
type BuildResult struct {
	Transactions []transaction.Transaction
	MethodCalls  map[int]*MethodCallParams
}

// Build resolves suggested network parameters, constructs every queued
// request into a concrete transaction, optionally populates application
// call resources and covers inner-transaction fees via simulate round
// trips, assigns the atomic group, and transitions the composer to Built.
// Build is idempotent: a second call returns the cached result without
// re-running simulate.
func (c *Composer) Build(ctx context.Context) (BuildResult, error) {
	if c.state != StateOpen {
		if c.state >= StateBuilt && c.built != nil {
			return BuildResult{Transactions: c.built, MethodCalls: c.methodCalls}, nil
		}
		return BuildResult{}, &StateError{Operation: "build", State: c.state}
	}

	flat, err := flatten(c.requests)
	if err != nil {
		return BuildResult{}, err
	}

	params, err := c.node.SuggestedParams(ctx)
	if err != nil {
		return BuildResult{}, fmt.Errorf("fetch suggested params: %w", err)
	}
	c.suggested = params

	built := make([]transaction.Transaction, len(flat))
	methodCalls := make(map[int]*MethodCallParams)

	for i, r := range flat {
		t, err := c.buildOne(r, params)
		if err != nil {
			return BuildResult{}, &TransactionError{Index: i, Message: err.Error()}
		}
		built[i] = t
		if r.Kind == ReqMethodCall {
			methodCalls[i] = r.MethodCall
		}
	}

	if c.config.CoverAppCallInnerTransactionFees || c.config.PopulateAppCallResources {
		hasAppCall := false
		for i := range built {
			if built[i].IsAppCall() {
				hasAppCall = true
				break
			}
		}
		if hasAppCall {
			analysis, err := c.analyzeGroup(ctx, built, flat)
			if err != nil {
				return BuildResult{}, err
			}
			if analysis.feeDeltas != nil {
				built, err = c.rewriteFees(built, flat, analysis.feeDeltas)
				if err != nil {
					return BuildResult{}, err
				}
			}
			if c.config.PopulateAppCallResources {
				for i := range built {
					if err := applyTxnResources(&built[i], analysis.txnResources[i], i); err != nil {
						return BuildResult{}, err
					}
				}
				if err := populateGroupResources(built, analysis.groupResources); err != nil {
					return BuildResult{}, err
				}
			}
		}
	}

	grouped, err := transaction.AssignGroup(built)
	if err != nil {
		return BuildResult{}, fmt.Errorf("assign group: %w", err)
	}

	c.built = grouped
	c.flat = flat
	c.methodCalls = methodCalls
	c.state = StateBuilt
	c.log.Info("composer built group", "composer", c.id, "size", len(grouped))
	return BuildResult{Transactions: grouped, MethodCalls: methodCalls}, nil
}

func header(common CommonParams, params SuggestedParams) transaction.Header {
	firstValid := params.LastRound
	if common.FirstValidRound != nil {
		firstValid = *common.FirstValidRound
	}
	window := defaultValidityWindow(params.GenesisID)
	if common.ValidityWindow != nil {
		window = *common.ValidityWindow
	}
	lastValid := firstValid + window
	if common.LastValidRound != nil {
		lastValid = *common.LastValidRound
	}
	return transaction.Header{
		Sender:      common.Sender,
		RekeyTo:     common.RekeyTo,
		Note:        common.Note,
		Lease:       common.Lease,
		FirstValid:  firstValid,
		LastValid:   lastValid,
		GenesisID:   params.GenesisID,
		GenesisHash: params.GenesisHash,
	}
}

func feeParams(common CommonParams, params SuggestedParams) transaction.FeeParams {
	fp := transaction.FeeParams{FeePerByte: params.FeePerByte, MinFee: params.MinFee}
	if common.ExtraFee != nil {
		fp.ExtraFee = *common.ExtraFee
	}
	fp.MaxFee = common.EffectiveMaxFee()
	if common.StaticFee != nil {
		// A static fee pins the fee exactly: model it as a minimum equal to
		// itself with zero per-byte contribution, still honoring MaxFee.
		fp.FeePerByte = 0
		fp.MinFee = *common.StaticFee
		fp.ExtraFee = 0
	}
	return fp
}

func (c *Composer) buildOne(r Request, params SuggestedParams) (transaction.Transaction, error) {
	switch r.Kind {
	case ReqRawTransaction:
		return *r.RawTransaction, nil
	case ReqTransactionWithSigner:
		return r.TransactionWithSigner.Transaction, nil
	}

	h := header(r.Common, params)
	fp := feeParams(r.Common, params)

	var t transaction.Transaction
	var err error

	switch r.Kind {
	case ReqPayment:
		t, err = transaction.BuildPayment(*r.Payment, h)
	case ReqAssetTransfer:
		t, err = transaction.BuildAssetTransfer(*r.AssetTransfer, h)
	case ReqAssetCreate:
		t, err = transaction.BuildAssetCreate(*r.AssetCreate, h)
	case ReqAssetConfig:
		t, err = transaction.BuildAssetConfig(*r.AssetConfig, h)
	case ReqAssetDestroy:
		t, err = transaction.BuildAssetDestroy(*r.AssetDestroy, h)
	case ReqAssetFreeze:
		t, err = transaction.BuildAssetFreeze(*r.AssetFreeze, h)
	case ReqAppCall:
		t, err = transaction.BuildAppCall(*r.AppCall, h)
	case ReqAppCreate:
		t, err = transaction.BuildAppCreate(*r.AppCreate, h)
	case ReqAppUpdate:
		t, err = transaction.BuildAppUpdate(*r.AppUpdate, h)
	case ReqAppDelete:
		t, err = transaction.BuildAppDelete(*r.AppDelete, h)
	case ReqOnlineKeyReg:
		t, err = transaction.BuildOnlineKeyRegistration(*r.OnlineKeyReg, h)
	case ReqOfflineKeyReg:
		t, err = transaction.BuildOfflineKeyRegistration(h)
	case ReqNonParticipationKeyReg:
		t, err = transaction.BuildNonParticipationKeyRegistration(h)
	case ReqMethodCall:
		t, err = c.buildMethodCall(r, h)
	default:
		return transaction.Transaction{}, fmt.Errorf("unsupported request kind %q", r.Kind)
	}
	if err != nil {
		return transaction.Transaction{}, err
	}

	return t.AssignFee(fp)
}

func (c *Composer) buildMethodCall(r Request, h transaction.Header) (transaction.Transaction, error) {
	mc := r.MethodCall

	processed := make([]methodcall.ProcessedArg, len(mc.Args))
	for i, a := range mc.Args {
		switch a.Kind {
		case MethodArgValue:
			processed[i] = methodcall.ProcessedArg{Kind: methodcall.ProcessedValue, Value: a.Value}
		case MethodArgAccount:
			processed[i] = methodcall.ProcessedArg{Kind: methodcall.ProcessedReference, Account: a.Account}
		case MethodArgAsset:
			processed[i] = methodcall.ProcessedArg{Kind: methodcall.ProcessedReference, AssetID: a.AssetID}
		case MethodArgApp:
			processed[i] = methodcall.ProcessedArg{Kind: methodcall.ProcessedReference, AppID: a.AppID}
		case MethodArgTransaction, MethodArgTransactionWithSigner, MethodArgSibling:
			processed[i] = methodcall.ProcessedArg{Kind: methodcall.ProcessedTransactionPlaceholder}
		default:
			return transaction.Transaction{}, fmt.Errorf("unresolved method argument %d", i)
		}
	}

	selfAppID := mc.AppID
	if mc.Kind == MethodCallCreate {
		selfAppID = 0
	}

	res, err := methodcall.Encode(c.methodCodec, mc.Method, processed, selfAppID, r.Common.Sender)
	if err != nil {
		return transaction.Transaction{}, err
	}

	accountRefs := mergeAddresses(mc.AccountReferences, res.AccountRefs)
	appRefs := mergeUint64(mc.AppReferences, res.AppRefs)
	assetRefs := mergeUint64(mc.AssetReferences, res.AssetRefs)
	boxRefs := mc.BoxReferences

	switch mc.Kind {
	case MethodCallOnApp:
		return transaction.BuildAppCall(transaction.AppCallParams{
			AppID:             mc.AppID,
			OnCompletion:      mc.OnCompletion,
			Args:              res.EncodedArgs,
			AccountReferences: accountRefs,
			AppReferences:     appRefs,
			AssetReferences:   assetRefs,
			BoxReferences:     boxRefs,
		}, h)
	case MethodCallCreate:
		return transaction.BuildAppCreate(transaction.AppCreateParams{
			OnCompletion:      mc.OnCompletion,
			ApprovalProgram:   mc.ApprovalProgram,
			ClearStateProgram: mc.ClearStateProgram,
			GlobalStateSchema: &mc.GlobalStateSchema,
			LocalStateSchema:  &mc.LocalStateSchema,
			ExtraProgramPages: &mc.ExtraProgramPages,
			Args:              res.EncodedArgs,
			AccountReferences: accountRefs,
			AppReferences:     appRefs,
			AssetReferences:   assetRefs,
			BoxReferences:     boxRefs,
		}, h)
	case MethodCallUpdate:
		return transaction.BuildAppUpdate(transaction.AppUpdateParams{
			AppID:             mc.AppID,
			ApprovalProgram:   mc.ApprovalProgram,
			ClearStateProgram: mc.ClearStateProgram,
			Args:              res.EncodedArgs,
			AccountReferences: accountRefs,
			AppReferences:     appRefs,
			AssetReferences:   assetRefs,
			BoxReferences:     boxRefs,
		}, h)
	case MethodCallDelete:
		return transaction.BuildAppDelete(transaction.AppDeleteParams{
			AppID:             mc.AppID,
			Args:              res.EncodedArgs,
			AccountReferences: accountRefs,
			AppReferences:     appRefs,
			AssetReferences:   assetRefs,
			BoxReferences:     boxRefs,
		}, h)
	default:
		return transaction.Transaction{}, fmt.Errorf("unknown method call kind %d", mc.Kind)
	}
}

func mergeAddresses(explicit []address.Address, derived []address.Address) []address.Address {
	out := append([]address.Address(nil), explicit...)
	for _, a := range derived {
		if !containsAddress(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func mergeUint64(explicit []uint64, derived []uint64) []uint64 {
	out := append([]uint64(nil), explicit...)
	for _, v := range derived {
		if !containsUint64(out, v) {
			out = append(out, v)
		}
	}
	return out
}
