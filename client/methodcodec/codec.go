// Package methodcodec provides the default methodcall.Codec, backed by the
// real Algorand ABI implementation
// (github.com/algorand/go-algorand-sdk/v2/abi). It is the "MethodCodec"
// external collaborator named in the design: the composer and the
// method-call encoder never touch ABI byte layout directly, only through
// this interface.
package methodcodec

import (
	"fmt"

	sdkabi "github.com/algorand/go-algorand-sdk/v2/abi"

	"github.com/algorandfoundation/algokit-go/methodcall"
)

// SDK adapts github.com/algorand/go-algorand-sdk/v2/abi to
// methodcall.Codec.
type SDK struct{}

var _ methodcall.Codec = SDK{}

// EncodeValue ABI-encodes value using the ARC-4 type described by abiType.
func (SDK) EncodeValue(abiType string, value interface{}) ([]byte, error) {
	t, err := sdkabi.TypeOf(abiType)
	if err != nil {
		return nil, fmt.Errorf("parse abi type %q: %w", abiType, err)
	}
	enc, err := t.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("encode abi value as %q: %w", abiType, err)
	}
	return enc, nil
}

// EncodeTuple packs values as a single ARC-4 tuple of the given
// element types, used for arguments 15..N under the tuple-packing rule.
func (SDK) EncodeTuple(abiTypes []string, values []interface{}) ([]byte, error) {
	elems := make([]sdkabi.Type, len(abiTypes))
	for i, s := range abiTypes {
		t, err := sdkabi.TypeOf(s)
		if err != nil {
			return nil, fmt.Errorf("parse abi type %q at tuple position %d: %w", s, i, err)
		}
		elems[i] = t
	}
	tupleType, err := sdkabi.MakeTupleType(elems)
	if err != nil {
		return nil, fmt.Errorf("build tuple type: %w", err)
	}
	enc, err := tupleType.Encode(values)
	if err != nil {
		return nil, fmt.Errorf("encode packed tuple: %w", err)
	}
	return enc, nil
}

// DecodeReturn ABI-decodes the payload of a method's return value (the
// bytes following the 4-byte log sentinel).
func (SDK) DecodeReturn(abiType string, data []byte) (interface{}, error) {
	t, err := sdkabi.TypeOf(abiType)
	if err != nil {
		return nil, fmt.Errorf("parse abi return type %q: %w", abiType, err)
	}
	v, err := t.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode abi return value as %q: %w", abiType, err)
	}
	return v, nil
}

// Selector computes the 4-byte ARC-4 method selector from a method
// signature (e.g. "add(uint64,uint64)uint64").
func Selector(signature string) ([4]byte, error) {
	m, err := sdkabi.MethodFromSignature(signature)
	if err != nil {
		return [4]byte{}, fmt.Errorf("parse method signature %q: %w", signature, err)
	}
	sel := m.GetSelector()
	var out [4]byte
	copy(out[:], sel)
	return out, nil
}
