package composer

import (
	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// applyTxnResources rewrites one application call's reference arrays with
// the resources the simulator attributed to that transaction alone:
// accounts, apps, and assets are appended (dedup) and the
// per-transaction limits re-checked. Box, asset-holding, and app-local
// resources are never attributed to a single transaction by the
// simulator; seeing one here means the response is malformed.
func applyTxnResources(t *transaction.Transaction, res *UnnamedResourcesAccessed, index int) error {
	if res == nil || !t.IsAppCall() {
		return nil
	}
	if len(res.Boxes) > 0 || res.ExtraBoxRefs > 0 {
		return transactionErrorf(index, "unexpected boxes at the transaction level")
	}
	if len(res.AppLocals) > 0 {
		return transactionErrorf(index, "unexpected app locals at the transaction level")
	}
	if len(res.AssetHoldings) > 0 {
		return transactionErrorf(index, "unexpected asset holdings at the transaction level")
	}

	ac := t.AppCall
	for _, a := range res.Accounts {
		if !containsAddress(ac.AccountReferences, a) {
			ac.AccountReferences = append(ac.AccountReferences, a)
		}
	}
	for _, id := range res.Apps {
		if !containsUint64(ac.AppReferences, id) {
			ac.AppReferences = append(ac.AppReferences, id)
		}
	}
	for _, id := range res.Assets {
		if !containsUint64(ac.AssetReferences, id) {
			ac.AssetReferences = append(ac.AssetReferences, id)
		}
	}

	if len(ac.AccountReferences) > transaction.MaxAccountReferences {
		return transactionErrorf(index, "account reference limit of %d exceeded in transaction %d",
			transaction.MaxAccountReferences, index)
	}
	if overallRefs(ac) > transaction.MaxOverallReferences {
		return transactionErrorf(index, "resource reference limit of %d exceeded in transaction %d",
			transaction.MaxOverallReferences, index)
	}
	return nil
}

// populateGroupResources places the simulator's group-level unnamed
// resources onto whichever application calls in the group can still hold
// them, most constrained first: the (account, asset) and (account, app)
// cross products cost up to two slots each, accounts are bounded at 4,
// boxes of a foreign app cost two slots, then plain assets and apps, then
// the opaque extra box refs.
func populateGroupResources(txns []transaction.Transaction, group *UnnamedResourcesAccessed) error {
	if group == nil {
		return nil
	}

	remainingAccounts := append([]address.Address(nil), group.Accounts...)
	remainingApps := append([]uint64(nil), group.Apps...)
	remainingAssets := append([]uint64(nil), group.Assets...)

	for _, al := range group.AppLocals {
		if err := placeGroupResource(txns, groupResource{kind: resAppLocal, account: al.Account, id: al.App}); err != nil {
			return err
		}
		remainingAccounts = removeAddress(remainingAccounts, al.Account)
		remainingApps = removeUint64(remainingApps, al.App)
	}
	for _, ah := range group.AssetHoldings {
		if err := placeGroupResource(txns, groupResource{kind: resAssetHolding, account: ah.Account, id: ah.Asset}); err != nil {
			return err
		}
		remainingAccounts = removeAddress(remainingAccounts, ah.Account)
		remainingAssets = removeUint64(remainingAssets, ah.Asset)
	}

	for _, a := range remainingAccounts {
		if err := placeGroupResource(txns, groupResource{kind: resAccount, account: a}); err != nil {
			return err
		}
	}
	for _, b := range group.Boxes {
		if err := placeGroupResource(txns, groupResource{kind: resBox, id: b.AppID, boxName: b.Name}); err != nil {
			return err
		}
		remainingApps = removeUint64(remainingApps, b.AppID)
	}
	for _, id := range remainingAssets {
		if err := placeGroupResource(txns, groupResource{kind: resAsset, id: id}); err != nil {
			return err
		}
	}
	for _, id := range remainingApps {
		if err := placeGroupResource(txns, groupResource{kind: resApp, id: id}); err != nil {
			return err
		}
	}
	for i := 0; i < group.ExtraBoxRefs; i++ {
		if err := placeGroupResource(txns, groupResource{kind: resExtraBoxRef}); err != nil {
			return err
		}
	}
	return nil
}

type groupResourceKind int

const (
	resAccount groupResourceKind = iota
	resApp
	resAsset
	resBox
	resExtraBoxRef
	resAssetHolding
	resAppLocal
)

type groupResource struct {
	kind    groupResourceKind
	account address.Address
	id      uint64 // app id, asset id, or a box's app id depending on kind
	boxName []byte
}

func overallRefs(ac *transaction.AppCallFields) int {
	return len(ac.AccountReferences) + len(ac.AppReferences) + len(ac.AssetReferences) + len(ac.BoxReferences)
}

func belowOverallLimit(t *transaction.Transaction) bool {
	return t.IsAppCall() && overallRefs(t.AppCall) < transaction.MaxOverallReferences
}

// accountAvailable reports whether the app call can already name the
// account without a reference slot: it is the sender, it is listed in the
// accounts array, or it is the escrow address of a referenced app.
func accountAvailable(t *transaction.Transaction, a address.Address) bool {
	if t.Header.Sender == a {
		return true
	}
	if containsAddress(t.AppCall.AccountReferences, a) {
		return true
	}
	for _, appID := range t.AppCall.AppReferences {
		if address.FromAppID(appID) == a {
			return true
		}
	}
	return false
}

// placeGroupResource finds a host application call for one group-level
// resource and rewrites its reference arrays in place.
func placeGroupResource(txns []transaction.Transaction, r groupResource) error {
	// Cross-product resources prefer a call that already has the account
	// available, so only the asset/app side costs a slot.
	if r.kind == resAssetHolding || r.kind == resAppLocal {
		for i := range txns {
			if !belowOverallLimit(&txns[i]) || !accountAvailable(&txns[i], r.account) {
				continue
			}
			ac := txns[i].AppCall
			if r.kind == resAssetHolding {
				if !containsUint64(ac.AssetReferences, r.id) {
					ac.AssetReferences = append(ac.AssetReferences, r.id)
				}
			} else {
				if !containsUint64(ac.AppReferences, r.id) {
					ac.AppReferences = append(ac.AppReferences, r.id)
				}
			}
			return nil
		}
		// Next best: a call that already has the asset/app and room for
		// the account.
		for i := range txns {
			if !belowOverallLimit(&txns[i]) {
				continue
			}
			ac := txns[i].AppCall
			if len(ac.AccountReferences) >= transaction.MaxAccountReferences {
				continue
			}
			var has bool
			if r.kind == resAssetHolding {
				has = containsUint64(ac.AssetReferences, r.id)
			} else {
				has = containsUint64(ac.AppReferences, r.id) || ac.AppID == r.id
			}
			if !has {
				continue
			}
			if !containsAddress(ac.AccountReferences, r.account) {
				ac.AccountReferences = append(ac.AccountReferences, r.account)
			}
			return nil
		}
	}

	// A box of a foreign app prefers a call that already references (or
	// is) that app, so only the box itself costs a slot.
	if r.kind == resBox {
		for i := range txns {
			if !belowOverallLimit(&txns[i]) {
				continue
			}
			ac := txns[i].AppCall
			if !containsUint64(ac.AppReferences, r.id) && ac.AppID != r.id {
				continue
			}
			appendBox(ac, transaction.BoxReference{AppID: r.id, Name: r.boxName})
			return nil
		}
	}

	// Generic first-fit, accounting for how many slots this placement
	// actually consumes.
	for i := range txns {
		if !txns[i].IsAppCall() {
			continue
		}
		ac := txns[i].AppCall
		used := overallRefs(ac)

		var fits bool
		switch r.kind {
		case resAccount:
			fits = len(ac.AccountReferences) < transaction.MaxAccountReferences
		case resAssetHolding, resAppLocal:
			fits = used < transaction.MaxOverallReferences-1 &&
				len(ac.AccountReferences) < transaction.MaxAccountReferences
		case resBox:
			if r.id != 0 {
				fits = used < transaction.MaxOverallReferences-1
			} else {
				fits = used < transaction.MaxOverallReferences
			}
		default:
			fits = used < transaction.MaxOverallReferences
		}
		if !fits {
			continue
		}

		switch r.kind {
		case resAccount:
			if !containsAddress(ac.AccountReferences, r.account) {
				ac.AccountReferences = append(ac.AccountReferences, r.account)
			}
		case resApp:
			if !containsUint64(ac.AppReferences, r.id) {
				ac.AppReferences = append(ac.AppReferences, r.id)
			}
		case resAsset:
			if !containsUint64(ac.AssetReferences, r.id) {
				ac.AssetReferences = append(ac.AssetReferences, r.id)
			}
		case resBox:
			appendBox(ac, transaction.BoxReference{AppID: r.id, Name: r.boxName})
			if r.id != 0 && !containsUint64(ac.AppReferences, r.id) {
				ac.AppReferences = append(ac.AppReferences, r.id)
			}
		case resExtraBoxRef:
			ac.BoxReferences = append(ac.BoxReferences, transaction.BoxReference{AppID: 0, Name: nil})
		case resAssetHolding:
			if !containsUint64(ac.AssetReferences, r.id) {
				ac.AssetReferences = append(ac.AssetReferences, r.id)
			}
			if !containsAddress(ac.AccountReferences, r.account) {
				ac.AccountReferences = append(ac.AccountReferences, r.account)
			}
		case resAppLocal:
			if !containsUint64(ac.AppReferences, r.id) {
				ac.AppReferences = append(ac.AppReferences, r.id)
			}
			if !containsAddress(ac.AccountReferences, r.account) {
				ac.AccountReferences = append(ac.AccountReferences, r.account)
			}
		}
		return nil
	}

	return transactionErrorf(-1, "no more transactions below reference limit; add another app call to the group")
}

func appendBox(ac *transaction.AppCallFields, b transaction.BoxReference) {
	for _, x := range ac.BoxReferences {
		if x.AppID == b.AppID && string(x.Name) == string(b.Name) {
			return
		}
	}
	ac.BoxReferences = append(ac.BoxReferences, b)
}

func containsAddress(s []address.Address, v address.Address) bool {
	for _, a := range s {
		if a == v {
			return true
		}
	}
	return false
}

func containsUint64(s []uint64, v uint64) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func removeAddress(s []address.Address, v address.Address) []address.Address {
	out := s[:0]
	for _, a := range s {
		if a != v {
			out = append(out, a)
		}
	}
	return out
}

func removeUint64(s []uint64, v uint64) []uint64 {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
