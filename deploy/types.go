// Package deploy implements the idempotent application deployer:
// given a logical application identity (creator + name) and a target
// program/schema, it decides whether the on-chain app must be created,
// updated, replaced, appended alongside, or left alone, and drives the
// composer through whichever transactions that decision requires.
package deploy

import (
	"context"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/composer"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// NoteDeployPrefix is the ARC-2 note prefix every create/update transaction
// issued by this package carries, followed by ":j" and the JSON-encoded
// AppDeployMetadata.
const NoteDeployPrefix = "ALGOKIT_DEPLOYER"

// OnSchemaBreak selects what to do when a deploy would change an app's
// storage schema or extra program pages in a way the existing app cannot
// accommodate.
type OnSchemaBreak int

const (
	// OnSchemaBreakFail aborts the deployment with DeploymentFailed.
	OnSchemaBreakFail OnSchemaBreak = iota
	// OnSchemaBreakReplace deletes the old app and creates a new one in a
	// single group.
	OnSchemaBreakReplace
	// OnSchemaBreakAppend creates a new app and leaves the old one as is.
	OnSchemaBreakAppend
)

// OnUpdate selects what to do when a deploy detects a program change that
// is not a schema break.
type OnUpdate int

const (
	// OnUpdateFail aborts the deployment with DeploymentFailed.
	OnUpdateFail OnUpdate = iota
	// OnUpdateUpdate issues an UpdateApplication call against the existing app.
	OnUpdateUpdate
	// OnUpdateReplace deletes the old app and creates a new one in a
	// single group.
	OnUpdateReplace
	// OnUpdateAppend creates a new app and leaves the old one as is.
	OnUpdateAppend
)

// AppDeployMetadata is the caller-supplied identity and version of a
// logical application, serialized verbatim into the ARC-2 deploy note.
type AppDeployMetadata struct {
	Name       string
	Version    string
	Updatable  *bool
	Deletable  *bool
}

// appDeployMetadataJSON is the wire shape of AppDeployMetadata: field names
// match the note format produced by every algokit deploy-note producer,
// regardless of source language.
type appDeployMetadataJSON struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Updatable *bool  `json:"updatable,omitempty"`
	Deletable *bool  `json:"deletable,omitempty"`
}

// AppMetadata is everything this package can reconstruct about a deployed
// application from its creation and update notes.
type AppMetadata struct {
	AppID         uint64
	AppAddress    address.Address
	CreatedRound  uint64
	UpdatedRound  uint64
	CreatedMetadata AppDeployMetadata
	Name          string
	Version       string
	Updatable     *bool
	Deletable     *bool
	Deleted       bool
}

// AppLookup is the name -> metadata index for one creator, as returned by
// GetCreatorAppsByName and cached per creator string form.
type AppLookup struct {
	Creator address.Address
	Apps    map[string]AppMetadata
}

// IndexerClient is the external collaborator used to discover a creator's
// deployed applications and their ARC-2 deploy history.
type IndexerClient interface {
	// LookupAccountCreatedApplications returns every application the given
	// creator address has ever created, including deleted ones.
	LookupAccountCreatedApplications(ctx context.Context, creator string) ([]CreatedApplication, error)
	// SearchTransactions returns application-call transactions matching
	// the given note prefix, sender, and application id, confirmed at or
	// after minRound.
	SearchTransactions(ctx context.Context, params SearchTransactionsParams) ([]IndexerTransaction, error)
}

// CreatedApplication is one entry of a creator's created-applications list.
type CreatedApplication struct {
	ID              uint64
	CreatedAtRound  uint64
	Deleted         bool
}

// SearchTransactionsParams narrows an indexer transaction search to one
// application's deploy-note history from one creator.
type SearchTransactionsParams struct {
	NotePrefix    []byte
	TxType        string
	MinRound      uint64
	Sender        string
	ApplicationID uint64
}

// IndexerTransaction is the subset of an indexer transaction record the
// deployer inspects to reconstruct deploy history.
type IndexerTransaction struct {
	Sender            string
	Note              []byte
	ConfirmedRound    uint64
	IntraRoundOffset  uint64
	ApplicationID     *uint64 // ApplicationTransaction.ApplicationID; 0 == creation
}

// ProgramSource is an application's approval or clear-state program,
// either already-compiled bytecode or TEAL source requiring compilation.
type ProgramSource struct {
	Teal   string
	Bytes  []byte
}

// IsTeal reports whether this source must be compiled before use.
func (p ProgramSource) IsTeal() bool { return p.Teal != "" }

// CreateParams is the request used to (re)create an application as part of
// a deploy decision, either as a plain app-call or an ABI method call.
type CreateParams struct {
	OnCompletion      transaction.OnCompletion
	Approval          ProgramSource
	ClearState        ProgramSource
	GlobalStateSchema *transaction.StateSchema
	LocalStateSchema  *transaction.StateSchema
	ExtraProgramPages *uint32
	Args              [][]byte
	AccountReferences []address.Address
	AppReferences     []uint64
	AssetReferences   []uint64
	BoxReferences     []transaction.BoxReference
	MethodCall        *composer.MethodCallParams // non-nil to issue as a method call instead of a plain app create
}

// UpdateParams is the request used to update an existing application's
// programs as part of a deploy decision.
type UpdateParams struct {
	Args              [][]byte
	AccountReferences []address.Address
	AppReferences     []uint64
	AssetReferences   []uint64
	BoxReferences     []transaction.BoxReference
	MethodCall        *composer.MethodCallParams
}

// DeleteParams is the request used to delete an existing application as
// part of a Replace decision.
type DeleteParams struct {
	Args              [][]byte
	AccountReferences []address.Address
	AppReferences     []uint64
	AssetReferences   []uint64
	BoxReferences     []transaction.BoxReference
	MethodCall        *composer.MethodCallParams
}

// DeployParams is one idempotent deploy request.
type DeployParams struct {
	Metadata        AppDeployMetadata
	OnSchemaBreak   OnSchemaBreak
	OnUpdate        OnUpdate
	Sender          address.Address
	Signer          composer.Signer
	CreateParams    CreateParams
	UpdateParams    UpdateParams
	DeleteParams    DeleteParams
	ExistingLookup  *AppLookup // caller-supplied cache; nil triggers an indexer lookup
	IgnoreCache     bool
}

// Action is the effectful decision Deploy made, for callers that want to
// branch on it without a type switch over Result.
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
	ActionReplace
)

// Result is the outcome of a Deploy call. Exactly the fields relevant to
// Action are meaningful; others are zero.
type Result struct {
	Action         Action
	App            AppMetadata
	CreateResult   *composer.SendResult
	UpdateResult   *composer.SendResult
	DeleteResult   *composer.SendResult
	GroupResult    *composer.SendResult // the Replace group (create+delete) or whichever single-op group ran
	GroupHash      *[32]byte
	CompiledApproval []byte
	CompiledClear    []byte
}
