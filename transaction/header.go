package transaction

import (
	"fmt"

	"github.com/algorandfoundation/algokit-go/address"
)

// Header carries the fields common to every transaction kind.
type Header struct {
	Sender     address.Address
	RekeyTo    *address.Address
	Note       []byte
	Lease      *[32]byte
	Fee        *uint64 // nil means "compute from encoded size"
	FirstValid uint64
	LastValid  uint64
	GenesisID  string
	GenesisHash [32]byte
	Group      *[32]byte
}

// FeeParams controls AssignFee's size-based fee computation.
type FeeParams struct {
	FeePerByte uint64
	MinFee     uint64
	ExtraFee   uint64
	MaxFee     *uint64
}

// validateCommon checks header-level invariants shared by every kind.
func (h Header) validateCommon() []error {
	var errs []error
	if h.FirstValid > h.LastValid {
		errs = append(errs, fmt.Errorf("first_valid (%d) must be <= last_valid (%d)", h.FirstValid, h.LastValid))
	}
	if len(h.Note) > MaxNoteBytes {
		errs = append(errs, fmt.Errorf("note exceeds %d bytes (got %d)", MaxNoteBytes, len(h.Note)))
	}
	return errs
}

// assignFee computes header.Fee = max(minFee, feePerByte*encodedSize) + extraFee,
// returning ErrFeeExceedsMax if the result exceeds params.MaxFee.
func assignFee(fee uint64, params FeeParams) (uint64, error) {
	if fee < params.MinFee {
		fee = params.MinFee
	}
	fee += params.ExtraFee
	if params.MaxFee != nil && fee > *params.MaxFee {
		return 0, fmt.Errorf("%w: computed fee %d microAlgos exceeds max fee %d", ErrFeeExceedsMax, fee, *params.MaxFee)
	}
	return fee, nil
}
