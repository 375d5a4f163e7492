// Package composer implements the group-aware transaction composer: the
// hard core of this module. It turns an ordered list of heterogeneous
// high-level transaction requests into a deterministic, wire-compatible
// signed transaction group, automatically solving inner-transaction fee
// coverage and application-call resource population via round trips to a
// node's simulate endpoint.
package composer

import (
	"context"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// SuggestedParams is the subset of algod's current network parameters the
// composer needs to synthesize transaction headers and fees.
type SuggestedParams struct {
	LastRound   uint64
	FeePerByte  uint64
	MinFee      uint64
	GenesisID   string
	GenesisHash [32]byte
}

// SignedTransaction pairs a built Transaction with its signature bytes (nil
// signature means "empty", used only for simulate requests).
type SignedTransaction struct {
	Transaction transaction.Transaction
	Signature   []byte
	AuthAddr    *address.Address
}

// AssetHoldingResource names an (account, asset) pair the simulator
// reported as accessed but not attributable to a single transaction.
type AssetHoldingResource struct {
	Account address.Address
	Asset   uint64
}

// AppLocalResource names an (account, app) pair the simulator reported as
// accessed but not attributable to a single transaction.
type AppLocalResource struct {
	Account address.Address
	App     uint64
}

// UnnamedResourcesAccessed is the simulator's report of resources a
// transaction (or the group as a whole) touched without naming them in a
// reference array.
type UnnamedResourcesAccessed struct {
	Accounts      []address.Address
	Apps          []uint64
	Assets        []uint64
	Boxes         []transaction.BoxReference
	ExtraBoxRefs  int
	AssetHoldings []AssetHoldingResource
	AppLocals     []AppLocalResource
}

// PendingTransactionInfo is the result of polling a submitted transaction,
// and also the shape of a simulated transaction's execution result
// (including inner transactions) for fee-delta computation.
type PendingTransactionInfo struct {
	PoolError      string
	ConfirmedRound *uint64
	ApplicationID  *uint64
	Logs           [][]byte
	Fee            uint64
	InnerTxns      []PendingTransactionInfo
}

// TxnSimulateResult is one transaction's result within a simulated group.
type TxnSimulateResult struct {
	Txn                      PendingTransactionInfo
	UnnamedResourcesAccessed *UnnamedResourcesAccessed
}

// SimulateRequest is what the composer asks the node to dry-run.
type SimulateRequest struct {
	Transactions          []SignedTransaction
	AllowUnnamedResources bool
	AllowEmptySignatures  bool
	FixSigners            bool
}

// SimulateResponse is the node's dry-run report for one transaction group.
type SimulateResponse struct {
	FailureMessage           string
	FailedAt                 []int
	TxnResults               []TxnSimulateResult
	UnnamedResourcesAccessed *UnnamedResourcesAccessed
}

// ApplicationInfo is the subset of on-chain application state the deployer
// needs to detect program and schema changes.
type ApplicationInfo struct {
	ApprovalProgram   []byte
	ClearStateProgram []byte
	GlobalStateSchema transaction.StateSchema
	LocalStateSchema  transaction.StateSchema
	ExtraProgramPages uint32
}

// NodeClient is the external algod collaborator: suggested params,
// simulate, raw submission, confirmation polling, long-poll wait, app
// lookup, and TEAL compilation.
type NodeClient interface {
	SuggestedParams(ctx context.Context) (SuggestedParams, error)
	Simulate(ctx context.Context, req SimulateRequest) (SimulateResponse, error)
	SubmitRaw(ctx context.Context, stxns []byte) error
	PendingTransactionInfo(ctx context.Context, txID string) (PendingTransactionInfo, bool, error)
	WaitForBlock(ctx context.Context, round uint64) error
	GetApplication(ctx context.Context, appID uint64) (ApplicationInfo, error)
	CompileTeal(ctx context.Context, source []byte) ([]byte, error)
}

// Signer signs a subset (by index into the full group) of a transaction
// group, returning one SignedTransaction per requested index in order.
type Signer interface {
	Sign(ctx context.Context, group []transaction.Transaction, indicesToSign []int) ([]SignedTransaction, error)
}

// SignerGetter resolves a default signer for a sender address when a
// request did not carry an explicit one.
type SignerGetter func(sender address.Address) (Signer, error)
