package methodcall

import "github.com/algorandfoundation/algokit-go/address"

// ProcessedKind tags a resolved per-position call argument, mirroring the
// spec's ProcessedAppMethodCallArg: by the time it reaches Encode, any
// sibling-transaction or ARC-56 DefaultValue variant has already been
// resolved into one of these three shapes by the caller (the composer for
// siblings, the app client for defaults).
type ProcessedKind int

const (
	ProcessedValue ProcessedKind = iota
	ProcessedReference
	ProcessedTransactionPlaceholder
)

// ProcessedArg is one fully-resolved method-call argument, positionally
// aligned 1:1 with Method.Args.
type ProcessedArg struct {
	Kind ProcessedKind

	// Value holds the Go value to ABI-encode when Kind == ProcessedValue.
	Value interface{}

	// Account/AssetID/AppID hold the reference target when
	// Kind == ProcessedReference, selected by the matching MethodArg's
	// ReferenceKind.
	Account address.Address
	AssetID uint64
	AppID   uint64
}

// Result is the encoder's output: the args byte list (selector first, one
// entry per encoded slot, transaction-typed positions contributing no
// bytes) plus the reference arrays Phase 1 populated.
type Result struct {
	EncodedArgs      [][]byte
	AccountRefs      []address.Address
	AppRefs          []uint64
	AssetRefs        []uint64
}

const maxIndividualArgs = 14 // selector occupies encoded slot 0

// Encode runs the two-phase algorithm: reference placement, then
// argument encoding with the 14-arg ARC-4 tuple-packing rule.
func Encode(codec Codec, method Method, args []ProcessedArg, selfAppID uint64, sender address.Address) (Result, error) {
	if len(args) != len(method.Args) {
		return Result{}, encErr(method, "length mismatch: %d args supplied for %d declared", len(args), len(method.Args))
	}

	res := Result{}

	// Phase 1: reference placement.
	for i, decl := range method.Args {
		if decl.Kind != ArgReference {
			continue
		}
		arg := args[i]
		if arg.Kind != ProcessedReference {
			return Result{}, encErr(method, "argument %d (%s) must be a reference value", i, decl.Name)
		}
		switch decl.ReferenceKind {
		case ReferenceAccount:
			if arg.Account == sender {
				continue
			}
			if !containsAddress(res.AccountRefs, arg.Account) {
				res.AccountRefs = append(res.AccountRefs, arg.Account)
			}
		case ReferenceAsset:
			if !containsUint64(res.AssetRefs, arg.AssetID) {
				res.AssetRefs = append(res.AssetRefs, arg.AssetID)
			}
		case ReferenceApplication:
			if arg.AppID == selfAppID {
				continue
			}
			if !containsUint64(res.AppRefs, arg.AppID) {
				res.AppRefs = append(res.AppRefs, arg.AppID)
			}
		}
	}

	// Phase 2: argument encoding. Build the ordered list of non-transaction
	// slots first (value to encode + its ABI type string), then apply the
	// tuple-packing rule, then actually encode.
	type slot struct {
		abiType string
		value   interface{}
	}
	var slots []slot

	for i, decl := range method.Args {
		arg := args[i]
		switch decl.Kind {
		case ArgTransaction:
			if arg.Kind != ProcessedTransactionPlaceholder {
				return Result{}, encErr(method, "argument %d (%s) must be a transaction placeholder", i, decl.Name)
			}
			// Contributes no bytes.
			continue
		case ArgValue:
			if arg.Kind != ProcessedValue {
				return Result{}, encErr(method, "argument %d (%s) must be an ABI value", i, decl.Name)
			}
			slots = append(slots, slot{abiType: decl.Type, value: arg.Value})
		case ArgReference:
			idx, err := referenceIndex(method, decl, arg, res, sender, selfAppID)
			if err != nil {
				return Result{}, err
			}
			slots = append(slots, slot{abiType: "uint8", value: idx})
		}
	}

	res.EncodedArgs = append(res.EncodedArgs, method.Selector[:])

	if len(slots) <= maxIndividualArgs {
		for _, s := range slots {
			enc, err := codec.EncodeValue(s.abiType, s.value)
			if err != nil {
				return Result{}, encErr(method, "failed to encode %s: %v", s.abiType, err)
			}
			res.EncodedArgs = append(res.EncodedArgs, enc)
		}
		return res, nil
	}

	// Tuple-packing rule: first 14 individually, 15..N packed as one tuple.
	for _, s := range slots[:maxIndividualArgs] {
		enc, err := codec.EncodeValue(s.abiType, s.value)
		if err != nil {
			return Result{}, encErr(method, "failed to encode %s: %v", s.abiType, err)
		}
		res.EncodedArgs = append(res.EncodedArgs, enc)
	}

	tail := slots[maxIndividualArgs:]
	tailTypes := make([]string, len(tail))
	tailValues := make([]interface{}, len(tail))
	for i, s := range tail {
		tailTypes[i] = s.abiType
		tailValues[i] = s.value
	}
	packed, err := codec.EncodeTuple(tailTypes, tailValues)
	if err != nil {
		return Result{}, encErr(method, "failed to pack tuple of %d trailing args: %v", len(tail), err)
	}
	res.EncodedArgs = append(res.EncodedArgs, packed)

	return res, nil
}

func referenceIndex(method Method, decl MethodArg, arg ProcessedArg, res Result, sender address.Address, selfAppID uint64) (uint8, error) {
	switch decl.ReferenceKind {
	case ReferenceAccount:
		if arg.Account == sender {
			return 0, nil
		}
		i := indexOfAddress(res.AccountRefs, arg.Account)
		if i < 0 {
			return 0, encErr(method, "account reference %s not found in account references", arg.Account)
		}
		return uint8(1 + i), nil
	case ReferenceAsset:
		i := indexOfUint64(res.AssetRefs, arg.AssetID)
		if i < 0 {
			return 0, encErr(method, "asset reference %d not found in asset references", arg.AssetID)
		}
		return uint8(i), nil
	case ReferenceApplication:
		if arg.AppID == selfAppID {
			return 0, nil
		}
		i := indexOfUint64(res.AppRefs, arg.AppID)
		if i < 0 {
			return 0, encErr(method, "app reference %d not found in app references", arg.AppID)
		}
		return uint8(1 + i), nil
	default:
		return 0, encErr(method, "unknown reference kind")
	}
}

func containsAddress(s []address.Address, v address.Address) bool { return indexOfAddress(s, v) >= 0 }

func indexOfAddress(s []address.Address, v address.Address) int {
	for i, a := range s {
		if a == v {
			return i
		}
	}
	return -1
}

func containsUint64(s []uint64, v uint64) bool { return indexOfUint64(s, v) >= 0 }

func indexOfUint64(s []uint64, v uint64) int {
	for i, a := range s {
		if a == v {
			return i
		}
	}
	return -1
}
