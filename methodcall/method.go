// Package methodcall implements the ABI method-call argument encoder:
// reference-argument placement into an application call's
// reference arrays, and the ARC-4 tuple-packing rule for argument lists
// longer than 14 non-transaction arguments. The byte-level ABI value
// encoding itself is delegated to a Codec, consistent with this module
// treating the ABI type codec as an external collaborator.
package methodcall

import "fmt"

// ReferenceKind distinguishes the three kinds of non-transaction reference
// argument an ABI method may declare.
type ReferenceKind int

const (
	ReferenceAccount ReferenceKind = iota
	ReferenceApplication
	ReferenceAsset
)

// ArgKind tags a declared method argument's shape, independent of the
// underlying ABI type string, so the encoder knows which of the three
// value-producing paths (encode, reference-index, transaction-slot) to
// take for each position.
type ArgKind int

const (
	ArgValue ArgKind = iota
	ArgReference
	ArgTransaction
)

// MethodArg is one declared argument of an ABI method.
type MethodArg struct {
	Name string
	// Type is the raw ABI type string ("uint64", "(uint64,byte[])", ...)
	// when Kind == ArgValue; unused otherwise.
	Type string
	Kind ArgKind
	// ReferenceKind is meaningful only when Kind == ArgReference.
	ReferenceKind ReferenceKind
}

// MethodReturn describes an ABI method's return slot. Void methods have a
// nil *MethodReturn on Method.
type MethodReturn struct {
	Type string
}

// Method is the subset of ARC-4 method metadata the encoder needs: its
// declared argument shapes (in order) and its 4-byte selector.
type Method struct {
	Name     string
	Args     []MethodArg
	Returns  *MethodReturn
	Selector [4]byte
}

// String renders a human-readable signature for error messages.
func (m Method) String() string {
	return fmt.Sprintf("%s/%d-arg", m.Name, len(m.Args))
}
