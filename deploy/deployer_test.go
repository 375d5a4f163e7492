package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/composer"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// fakeNode services the deployer's composer round trips offline: suggested
// params are fixed, every simulate succeeds, and each confirmation carries
// a fresh application id so create decisions can be observed.
type fakeNode struct {
	app       composer.ApplicationInfo
	appErr    error
	nextAppID uint64

	submitted [][]byte
	compiled  [][]byte
}

func newFakeNode() *fakeNode {
	return &fakeNode{nextAppID: 100}
}

func (f *fakeNode) SuggestedParams(ctx context.Context) (composer.SuggestedParams, error) {
	return composer.SuggestedParams{
		LastRound:   500,
		MinFee:      transaction.MinTxnFee,
		GenesisID:   "testnet-v1.0",
		GenesisHash: [32]byte{3},
	}, nil
}

func (f *fakeNode) Simulate(ctx context.Context, req composer.SimulateRequest) (composer.SimulateResponse, error) {
	resp := composer.SimulateResponse{}
	for range req.Transactions {
		resp.TxnResults = append(resp.TxnResults, composer.TxnSimulateResult{})
	}
	return resp, nil
}

func (f *fakeNode) SubmitRaw(ctx context.Context, stxns []byte) error {
	f.submitted = append(f.submitted, stxns)
	return nil
}

func (f *fakeNode) PendingTransactionInfo(ctx context.Context, txID string) (composer.PendingTransactionInfo, bool, error) {
	round := uint64(600)
	appID := f.nextAppID
	return composer.PendingTransactionInfo{ConfirmedRound: &round, ApplicationID: &appID}, true, nil
}

func (f *fakeNode) WaitForBlock(ctx context.Context, round uint64) error { return nil }

func (f *fakeNode) GetApplication(ctx context.Context, appID uint64) (composer.ApplicationInfo, error) {
	if f.appErr != nil {
		return composer.ApplicationInfo{}, f.appErr
	}
	return f.app, nil
}

func (f *fakeNode) CompileTeal(ctx context.Context, source []byte) ([]byte, error) {
	f.compiled = append(f.compiled, source)
	return append([]byte("compiled:"), source...), nil
}

type fakeSigner struct{}

func (fakeSigner) Sign(ctx context.Context, group []transaction.Transaction, indicesToSign []int) ([]composer.SignedTransaction, error) {
	out := make([]composer.SignedTransaction, len(indicesToSign))
	for i, idx := range indicesToSign {
		out[i] = composer.SignedTransaction{Transaction: group[idx], Signature: make([]byte, 64)}
	}
	return out, nil
}

type fakeIndexer struct {
	created     []CreatedApplication
	txns        map[uint64][]IndexerTransaction
	lookupCalls int
	searchCalls int
}

func (f *fakeIndexer) LookupAccountCreatedApplications(ctx context.Context, creator string) ([]CreatedApplication, error) {
	f.lookupCalls++
	return f.created, nil
}

func (f *fakeIndexer) SearchTransactions(ctx context.Context, params SearchTransactionsParams) ([]IndexerTransaction, error) {
	f.searchCalls++
	return f.txns[params.ApplicationID], nil
}

var (
	creator  = address.FromAppID(900)
	approval = []byte("approval-program-1")
	clear    = []byte("clear-program-1.0")
)

func testDeployer(node composer.NodeClient, indexer IndexerClient) *Deployer {
	getter := func(sender address.Address) (composer.Signer, error) { return fakeSigner{}, nil }
	return New(node, indexer, nil, getter, nil)
}

func boolp(v bool) *bool { return &v }

func metadata(version string) AppDeployMetadata {
	return AppDeployMetadata{Name: "APP_NAME", Version: version, Updatable: boolp(true), Deletable: boolp(true)}
}

func deployParams(version string) DeployParams {
	return DeployParams{
		Metadata: metadata(version),
		Sender:   creator,
		Signer:   fakeSigner{},
		CreateParams: CreateParams{
			OnCompletion: transaction.NoOp,
			Approval:     ProgramSource{Bytes: approval},
			ClearState:   ProgramSource{Bytes: clear},
		},
		ExistingLookup: &AppLookup{Creator: creator, Apps: map[string]AppMetadata{}},
	}
}

func existingLookup(appID uint64) *AppLookup {
	return &AppLookup{Creator: creator, Apps: map[string]AppMetadata{
		"APP_NAME": {
			AppID:           appID,
			AppAddress:      address.FromAppID(appID),
			CreatedRound:    10,
			UpdatedRound:    10,
			CreatedMetadata: metadata("1.0"),
			Name:            "APP_NAME",
			Version:         "1.0",
			Updatable:       boolp(true),
			Deletable:       boolp(true),
		},
	}}
}

func TestDeployCreatesWhenAppUnknown(t *testing.T) {
	node := newFakeNode()
	d := testDeployer(node, nil)

	result, err := d.Deploy(context.Background(), deployParams("1.0"))
	require.NoError(t, err)

	assert.Equal(t, ActionCreate, result.Action)
	assert.EqualValues(t, 100, result.App.AppID)
	assert.Equal(t, address.FromAppID(100), result.App.AppAddress)
	assert.EqualValues(t, 600, result.App.CreatedRound)
	assert.Equal(t, "1.0", result.App.Version)
	require.NotNil(t, result.CreateResult)
	assert.Len(t, node.submitted, 1)
}

func TestDeployNothingWhenUnchanged(t *testing.T) {
	node := newFakeNode()
	node.app = composer.ApplicationInfo{ApprovalProgram: approval, ClearStateProgram: clear}
	d := testDeployer(node, nil)

	params := deployParams("1.0")
	params.ExistingLookup = existingLookup(55)

	result, err := d.Deploy(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, result.Action)
	assert.EqualValues(t, 55, result.App.AppID)
	assert.Empty(t, node.submitted)
}

func TestDeployUpdatesOnProgramChange(t *testing.T) {
	node := newFakeNode()
	node.app = composer.ApplicationInfo{ApprovalProgram: []byte("old"), ClearStateProgram: clear}
	d := testDeployer(node, nil)

	params := deployParams("2.0")
	params.ExistingLookup = existingLookup(55)
	params.OnUpdate = OnUpdateUpdate

	result, err := d.Deploy(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, result.Action)
	assert.EqualValues(t, 55, result.App.AppID)
	assert.Equal(t, "2.0", result.App.Version)
	require.NotNil(t, result.UpdateResult)
}

func TestDeployFailPolicyStopsUpdate(t *testing.T) {
	node := newFakeNode()
	node.app = composer.ApplicationInfo{ApprovalProgram: []byte("old"), ClearStateProgram: clear}
	d := testDeployer(node, nil)

	params := deployParams("2.0")
	params.ExistingLookup = existingLookup(55)
	params.OnUpdate = OnUpdateFail

	_, err := d.Deploy(context.Background(), params)
	var failed *DeploymentFailedError
	require.ErrorAs(t, err, &failed)
	assert.Empty(t, node.submitted)
}

func TestDeployReplaceBuildsCreateAndDeleteGroup(t *testing.T) {
	node := newFakeNode()
	node.app = composer.ApplicationInfo{ApprovalProgram: []byte("old"), ClearStateProgram: clear}
	d := testDeployer(node, nil)

	params := deployParams("2.0")
	params.ExistingLookup = existingLookup(55)
	params.OnUpdate = OnUpdateReplace

	result, err := d.Deploy(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, ActionReplace, result.Action)
	assert.Greater(t, result.App.AppID, uint64(55))
	require.NotNil(t, result.GroupResult)
	assert.Len(t, result.GroupResult.TxIDs, 2)
	require.NotNil(t, result.GroupHash)
	require.NotNil(t, result.CreateResult)
	require.NotNil(t, result.DeleteResult)
	assert.Len(t, node.submitted, 1)
}

func TestDeployAppendCreatesNewAppOnSchemaBreak(t *testing.T) {
	node := newFakeNode()
	node.app = composer.ApplicationInfo{ApprovalProgram: approval, ClearStateProgram: clear}
	d := testDeployer(node, nil)

	params := deployParams("2.0")
	params.ExistingLookup = existingLookup(55)
	params.OnSchemaBreak = OnSchemaBreakAppend
	params.CreateParams.GlobalStateSchema = &transaction.StateSchema{NumUints: 5}

	result, err := d.Deploy(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, result.Action)
	assert.EqualValues(t, 100, result.App.AppID)
}

func TestDeploySchemaBreakFailPolicy(t *testing.T) {
	node := newFakeNode()
	node.app = composer.ApplicationInfo{ApprovalProgram: approval, ClearStateProgram: clear}
	d := testDeployer(node, nil)

	params := deployParams("2.0")
	params.ExistingLookup = existingLookup(55)
	params.OnSchemaBreak = OnSchemaBreakFail
	params.CreateParams.LocalStateSchema = &transaction.StateSchema{NumByteSlices: 3}

	_, err := d.Deploy(context.Background(), params)
	var failed *DeploymentFailedError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, err.Error(), "schema break")
}

func TestDeployRejectsForeignExistingLookup(t *testing.T) {
	node := newFakeNode()
	d := testDeployer(node, nil)

	params := deployParams("1.0")
	params.ExistingLookup = &AppLookup{Creator: address.FromAppID(901), Apps: map[string]AppMetadata{}}

	_, err := d.Deploy(context.Background(), params)
	var failed *DeploymentFailedError
	require.ErrorAs(t, err, &failed)
}

func TestDeployCompilesTealSources(t *testing.T) {
	node := newFakeNode()
	d := testDeployer(node, nil)

	params := deployParams("1.0")
	params.CreateParams.Approval = ProgramSource{Teal: "#pragma version 10\nint 1"}
	params.CreateParams.ClearState = ProgramSource{Teal: "#pragma version 10\nint 1"}

	result, err := d.Deploy(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, node.compiled, 2)
	assert.Contains(t, string(result.CompiledApproval), "compiled:")
}

func TestIsSchemaBreak(t *testing.T) {
	existing := composer.ApplicationInfo{
		GlobalStateSchema: transaction.StateSchema{NumUints: 2, NumByteSlices: 2},
		LocalStateSchema:  transaction.StateSchema{NumUints: 1, NumByteSlices: 1},
	}

	assert.False(t, isSchemaBreak(CreateParams{
		GlobalStateSchema: &transaction.StateSchema{NumUints: 2, NumByteSlices: 2},
		LocalStateSchema:  &transaction.StateSchema{NumUints: 1, NumByteSlices: 1},
	}, existing, approval, clear))

	assert.True(t, isSchemaBreak(CreateParams{
		GlobalStateSchema: &transaction.StateSchema{NumUints: 3},
	}, existing, approval, clear))

	assert.True(t, isSchemaBreak(CreateParams{
		LocalStateSchema: &transaction.StateSchema{NumByteSlices: 2},
	}, existing, approval, clear))

	// Programs big enough to need an extra page the existing app lacks.
	big := make([]byte, transaction.ProgramPageSize+1)
	assert.True(t, isSchemaBreak(CreateParams{}, existing, big, clear))
}

func TestCalculateExtraProgramPages(t *testing.T) {
	assert.EqualValues(t, 0, calculateExtraProgramPages(make([]byte, 100), make([]byte, 100)))
	assert.EqualValues(t, 0, calculateExtraProgramPages(make([]byte, transaction.ProgramPageSize), nil))
	assert.EqualValues(t, 1, calculateExtraProgramPages(make([]byte, transaction.ProgramPageSize+1), nil))
	assert.EqualValues(t, transaction.MaxExtraProgramPages,
		calculateExtraProgramPages(make([]byte, 100*transaction.ProgramPageSize), nil))
}

func TestDeployNoteRoundTrip(t *testing.T) {
	note, err := buildDeployNote(metadata("1.0"))
	require.NoError(t, err)
	assert.Equal(t, "ALGOKIT_DEPLOYER:j", string(note[:len(notePrefix)]))

	parsed, ok := parseDeployNote(note)
	require.True(t, ok)
	assert.Equal(t, "APP_NAME", parsed.Name)
	assert.Equal(t, "1.0", parsed.Version)
	require.NotNil(t, parsed.Updatable)
	assert.True(t, *parsed.Updatable)
}

func TestParseDeployNoteRejectsForeignNotes(t *testing.T) {
	_, ok := parseDeployNote([]byte("some other note"))
	assert.False(t, ok)
	_, ok = parseDeployNote([]byte("ALGOKIT_DEPLOYER:jnot-json"))
	assert.False(t, ok)
	_, ok = parseDeployNote(nil)
	assert.False(t, ok)
}

func TestGetCreatorAppsByName(t *testing.T) {
	node := newFakeNode()
	createNote, err := buildDeployNote(metadata("1.0"))
	require.NoError(t, err)
	updateNote, err := buildDeployNote(metadata("2.0"))
	require.NoError(t, err)

	zero := uint64(0)
	fiftyFive := uint64(55)
	indexer := &fakeIndexer{
		created: []CreatedApplication{{ID: 55, CreatedAtRound: 10}},
		txns: map[uint64][]IndexerTransaction{
			55: {
				{Sender: creator.String(), Note: createNote, ConfirmedRound: 10, IntraRoundOffset: 0, ApplicationID: &zero},
				{Sender: creator.String(), Note: updateNote, ConfirmedRound: 20, IntraRoundOffset: 1, ApplicationID: &fiftyFive},
			},
		},
	}
	d := testDeployer(node, indexer)

	lookup, err := d.GetCreatorAppsByName(context.Background(), creator, false)
	require.NoError(t, err)

	app, ok := lookup.Apps["APP_NAME"]
	require.True(t, ok)
	assert.EqualValues(t, 55, app.AppID)
	assert.EqualValues(t, 10, app.CreatedRound)
	assert.EqualValues(t, 20, app.UpdatedRound)
	assert.Equal(t, "1.0", app.CreatedMetadata.Version)
	assert.Equal(t, "2.0", app.Version)

	// Second call hits the cache.
	_, err = d.GetCreatorAppsByName(context.Background(), creator, false)
	require.NoError(t, err)
	assert.Equal(t, 1, indexer.lookupCalls)

	// ignoreCache refreshes.
	_, err = d.GetCreatorAppsByName(context.Background(), creator, true)
	require.NoError(t, err)
	assert.Equal(t, 2, indexer.lookupCalls)
}

func TestGetCreatorAppsSkipsAppsWithoutDeployNotes(t *testing.T) {
	node := newFakeNode()
	indexer := &fakeIndexer{
		created: []CreatedApplication{{ID: 77, CreatedAtRound: 5}},
		txns:    map[uint64][]IndexerTransaction{},
	}
	d := testDeployer(node, indexer)

	lookup, err := d.GetCreatorAppsByName(context.Background(), creator, false)
	require.NoError(t, err)
	assert.Empty(t, lookup.Apps)
}

func TestDeployRequiresIndexerOrLookup(t *testing.T) {
	node := newFakeNode()
	d := testDeployer(node, nil)

	params := deployParams("1.0")
	params.ExistingLookup = nil

	_, err := d.Deploy(context.Background(), params)
	var failed *DeploymentFailedError
	require.ErrorAs(t, err, &failed)
}
