package transaction

// Protocol-level limits governing a single transaction and a transaction
// group. These mirror the Algorand consensus parameters this module targets;
// they are not configurable because the composer must reason about them to
// decide where resources and fees can be placed.
const (
	// MaxTxGroupSize is the largest number of transactions allowed in one
	// atomic group.
	MaxTxGroupSize = 16

	// MaxAppArgs is the largest number of application call arguments.
	MaxAppArgs = 16

	// MaxAccountReferences is the largest number of extra accounts an
	// application call may reference.
	MaxAccountReferences = 4

	// MaxOverallReferences bounds the combined count of account, app, asset,
	// and box references on a single application call.
	MaxOverallReferences = 8

	// MaxArgsSize bounds the total encoded size, in bytes, of all
	// application call arguments combined.
	MaxArgsSize = 2048

	// MaxExtraProgramPages bounds the number of extra program pages an
	// application may request at creation.
	MaxExtraProgramPages = 3

	// ProgramPageSize is the number of bytes in one program page; total
	// program size is bounded by ProgramPageSize*(1+ExtraProgramPages).
	ProgramPageSize = 2048

	// MaxGlobalSchemaEntries and MaxLocalSchemaEntries bound the sum of
	// uint and byte-slice counters in the respective state schema.
	MaxGlobalSchemaEntries = 64
	MaxLocalSchemaEntries  = 16

	// MaxNoteBytes bounds the size of a transaction note.
	MaxNoteBytes = 1000

	// MinTxnFee is the network's standard minimum fee per transaction, in
	// microAlgos. AssignFee floors a computed fee at FeeParams.MinFee, not
	// at this constant, and a caller-supplied static fee is used as given.
	MinTxnFee = 1000
)
