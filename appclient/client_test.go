package appclient

import (
	"context"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/composer"
	"github.com/algorandfoundation/algokit-go/deploy"
	"github.com/algorandfoundation/algokit-go/methodcall"
	"github.com/algorandfoundation/algokit-go/transaction"
)

type fakeNode struct {
	logs      [][]byte
	submitted int
}

func (f *fakeNode) SuggestedParams(ctx context.Context) (composer.SuggestedParams, error) {
	return composer.SuggestedParams{
		LastRound:   100,
		MinFee:      transaction.MinTxnFee,
		GenesisID:   "testnet-v1.0",
		GenesisHash: [32]byte{7},
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
	f.submitted++
	return nil
}

func (f *fakeNode) PendingTransactionInfo(ctx context.Context, txID string) (composer.PendingTransactionInfo, bool, error) {
	round := uint64(101)
	appID := uint64(500)
	return composer.PendingTransactionInfo{ConfirmedRound: &round, ApplicationID: &appID, Logs: f.logs}, true, nil
}

func (f *fakeNode) WaitForBlock(ctx context.Context, round uint64) error { return nil }

func (f *fakeNode) GetApplication(ctx context.Context, appID uint64) (composer.ApplicationInfo, error) {
	return composer.ApplicationInfo{}, nil
}

func (f *fakeNode) CompileTeal(ctx context.Context, source []byte) ([]byte, error) {
	return source, nil
}

type fakeSigner struct{}

func (fakeSigner) Sign(ctx context.Context, group []transaction.Transaction, indicesToSign []int) ([]composer.SignedTransaction, error) {
	out := make([]composer.SignedTransaction, len(indicesToSign))
	for i, idx := range indicesToSign {
		out[i] = composer.SignedTransaction{Transaction: group[idx], Signature: make([]byte, 64)}
	}
	return out, nil
}

type fakeCodec struct{}

func (fakeCodec) EncodeValue(abiType string, value interface{}) ([]byte, error) {
	if abiType == "uint64" {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, value.(uint64))
		return buf, nil
	}
	return []byte(fmt.Sprintf("%v", value)), nil
}

func (c fakeCodec) EncodeTuple(abiTypes []string, values []interface{}) ([]byte, error) {
	var out []byte
	for i, t := range abiTypes {
		enc, err := c.EncodeValue(t, values[i])
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

func (fakeCodec) DecodeReturn(abiType string, data []byte) (interface{}, error) {
	if abiType == "uint64" && len(data) == 8 {
		return binary.BigEndian.Uint64(data), nil
	}
	return nil, fmt.Errorf("cannot decode %q", abiType)
}

// fakeIndexer reports a creator with no deploy history, so every deploy
// decision resolves to Create.
type fakeIndexer struct{}

func (fakeIndexer) LookupAccountCreatedApplications(ctx context.Context, creator string) ([]deploy.CreatedApplication, error) {
	return nil, nil
}

func (fakeIndexer) SearchTransactions(ctx context.Context, params deploy.SearchTransactionsParams) ([]deploy.IndexerTransaction, error) {
	return nil, nil
}

var abiSentinel = []byte{0x15, 0x1f, 0x7c, 0x75}

func addMethod() methodcall.Method {
	return methodcall.Method{
		Name:     "add",
		Selector: [4]byte{1, 2, 3, 4},
		Args: []methodcall.MethodArg{
			{Name: "a", Type: "uint64", Kind: methodcall.ArgValue},
			{Name: "b", Type: "uint64", Kind: methodcall.ArgValue},
		},
		Returns: &methodcall.MethodReturn{Type: "uint64"},
	}
}

func testSpec() AppSpec {
	return AppSpec{
		Name:       "APP_NAME",
		Approval:   deploy.ProgramSource{Bytes: []byte("approval-program-x")},
		ClearState: deploy.ProgramSource{Bytes: []byte("clear-program-x.0")},
		Methods:    map[string]methodcall.Method{"add": addMethod()},
		Defaults:   map[string]map[int]interface{}{"add": {1: uint64(40)}},
	}
}

func testFactory(node *fakeNode) *Factory {
	creator := address.FromAppID(900)
	getter := func(sender address.Address) (composer.Signer, error) { return fakeSigner{}, nil }
	return NewFactory(testSpec(), creator, fakeSigner{}, node, fakeIndexer{}, fakeCodec{}, getter, nil)
}

func TestFactoryDeployCreatesAndBindsClient(t *testing.T) {
	node := &fakeNode{}
	f := testFactory(node)

	client, result, err := f.Deploy(context.Background(), DeployParams{
		Version: "1.0",
		Create:  CreateParams{OnCompletion: transaction.NoOp},
	})
	require.NoError(t, err)
	assert.Equal(t, deploy.ActionCreate, result.Action)
	assert.EqualValues(t, 500, client.AppID())
	assert.Equal(t, address.FromAppID(500), client.AppAddress())
}

func TestClientCallDecodesReturn(t *testing.T) {
	node := &fakeNode{logs: [][]byte{append(append([]byte{}, abiSentinel...), 0, 0, 0, 0, 0, 0, 0, 3)}}
	f := testFactory(node)
	client := f.Client(500)

	ret, result, err := client.Call(context.Background(), "add", CallParams{
		Args: []MethodArg{
			{Kind: ArgValue, Value: uint64(1)},
			{Kind: ArgValue, Value: uint64(2)},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, uint64(3), ret)
	assert.Equal(t, 1, node.submitted)
}

func TestClientResolvesDefaultValue(t *testing.T) {
	client := testFactory(&fakeNode{}).Client(500)

	resolved, err := client.resolveArg("add", 1, MethodArg{Kind: ArgDefaultValue})
	require.NoError(t, err)
	assert.Equal(t, composer.MethodArgValue, resolved.Kind)
	assert.Equal(t, uint64(40), resolved.Value)
}

func TestClientDefaultValueMissingIsError(t *testing.T) {
	client := testFactory(&fakeNode{}).Client(500)

	_, err := client.resolveArg("add", 0, MethodArg{Kind: ArgDefaultValue})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registered default value")

	_, err = client.resolveArg("unknown", 0, MethodArg{Kind: ArgDefaultValue})
	require.Error(t, err)
}

func TestClientCallUnknownMethod(t *testing.T) {
	client := testFactory(&fakeNode{}).Client(500)

	_, _, err := client.Call(context.Background(), "missing", CallParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares no method")
}

func TestClientOptIn(t *testing.T) {
	node := &fakeNode{}
	client := testFactory(node).Client(500)

	result, err := client.OptIn(context.Background(), CallParams{}, nil)
	require.NoError(t, err)
	require.Len(t, result.Confirmations, 1)
	assert.Equal(t, 1, node.submitted)
}

func TestFactoryMethodByName(t *testing.T) {
	f := testFactory(&fakeNode{})

	m, err := f.MethodByName("add")
	require.NoError(t, err)
	assert.Equal(t, "add", m.Name)

	_, err = f.MethodByName("missing")
	require.Error(t, err)
}
