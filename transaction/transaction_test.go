package transaction

import (
	"testing"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader(t *testing.T) Header {
	t.Helper()
	return Header{
		Sender:      address.FromAppID(1),
		FirstValid:  1000,
		LastValid:   1010,
		GenesisID:   "testnet-v1.0",
		GenesisHash: [32]byte{1, 2, 3},
	}
}

func TestBuildPaymentAndAssignFee(t *testing.T) {
	h := testHeader(t)
	tx, err := BuildPayment(PaymentParams{Receiver: h.Sender, Amount: 1000}, h)
	require.NoError(t, err)

	fee, err := tx.AssignFee(FeeParams{FeePerByte: 10, MinFee: MinTxnFee})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, *fee.Header.Fee, uint64(MinTxnFee))
}

func TestAssignFeeExceedsMax(t *testing.T) {
	h := testHeader(t)
	tx, err := BuildPayment(PaymentParams{Receiver: h.Sender, Amount: 1000}, h)
	require.NoError(t, err)

	max := uint64(1)
	_, err = tx.AssignFee(FeeParams{FeePerByte: 10, MinFee: MinTxnFee, MaxFee: &max})
	require.ErrorIs(t, err, ErrFeeExceedsMax)
}

func TestValidateFirstValidAfterLastValid(t *testing.T) {
	h := testHeader(t)
	h.LastValid = h.FirstValid - 1
	tx, err := BuildPayment(PaymentParams{Receiver: h.Sender, Amount: 1}, h)
	assert.Error(t, err)
	assert.Zero(t, tx)
}

func TestAppCreateRequiresPrograms(t *testing.T) {
	h := testHeader(t)
	_, err := BuildAppCreate(AppCreateParams{OnCompletion: NoOp}, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approval program")
}

func TestAppUpdateRejectsImmutableFields(t *testing.T) {
	h := testHeader(t)
	schema := &StateSchema{NumUints: 1}
	_, err := BuildAppCreate(AppCreateParams{
		OnCompletion:      NoOp,
		ApprovalProgram:   []byte{1, 2, 3},
		ClearStateProgram: []byte{4, 5, 6},
	}, h)
	require.NoError(t, err)

	_, err = BuildAppUpdate(AppUpdateParams{AppID: 1, ApprovalProgram: []byte{1}, ClearStateProgram: []byte{2}}, h)
	require.NoError(t, err)

	t2 := Transaction{
		Kind:   KindAppCall,
		Header: h,
		AppCall: &AppCallFields{
			AppID:             1,
			OnCompletion:      UpdateApplication,
			ApprovalProgram:   []byte{1},
			ClearStateProgram: []byte{2},
			GlobalStateSchema: schema,
		},
	}
	err = t2.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not set")
}

func TestBoxReferenceMissingAppReferenceFails(t *testing.T) {
	h := testHeader(t)
	tx, err := BuildAppCall(AppCallParams{
		AppID:         1,
		OnCompletion:  NoOp,
		AppReferences: []uint64{54321},
		BoxReferences: []BoxReference{{AppID: 55555, Name: []byte("b1")}},
	}, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Box reference with app id 55555 not found in app references")
	assert.Zero(t, tx)
}

func TestBoxReferenceEncodeDecodeRoundTrip(t *testing.T) {
	h := testHeader(t)
	tx, err := BuildAppCall(AppCallParams{
		AppID:         1,
		OnCompletion:  NoOp,
		AppReferences: []uint64{54321},
		BoxReferences: []BoxReference{
			{AppID: 54321, Name: []byte("b1")},
			{AppID: 1, Name: []byte("b2")},
			{AppID: 0, Name: []byte("b3")},
		},
	}, h)
	require.NoError(t, err)

	sdkTxn, err := tx.ToSDK()
	require.NoError(t, err)
	require.Len(t, sdkTxn.BoxReferences, 3)
	assert.EqualValues(t, 1, sdkTxn.BoxReferences[0].ForeignAppIdx)
	assert.EqualValues(t, 0, sdkTxn.BoxReferences[1].ForeignAppIdx)
	assert.EqualValues(t, 0, sdkTxn.BoxReferences[2].ForeignAppIdx)

	decoded, err := decodeBoxReferences(1, []uint64{54321}, sdkTxn.BoxReferences)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	assert.EqualValues(t, 54321, decoded[0].AppID)
	assert.EqualValues(t, 1, decoded[1].AppID)
	assert.EqualValues(t, 1, decoded[2].AppID)
}

func TestAssignGroupSingleTransactionLeavesGroupUnset(t *testing.T) {
	h := testHeader(t)
	tx, err := BuildPayment(PaymentParams{Receiver: h.Sender, Amount: 1}, h)
	require.NoError(t, err)

	out, err := AssignGroup([]Transaction{tx})
	require.NoError(t, err)
	assert.Nil(t, out[0].Header.Group)
}

func TestAssignGroupMultipleTransactionsShareHash(t *testing.T) {
	h := testHeader(t)
	a, err := BuildPayment(PaymentParams{Receiver: h.Sender, Amount: 1}, h)
	require.NoError(t, err)
	b, err := BuildPayment(PaymentParams{Receiver: h.Sender, Amount: 2}, h)
	require.NoError(t, err)

	out, err := AssignGroup([]Transaction{a, b})
	require.NoError(t, err)
	require.NotNil(t, out[0].Header.Group)
	require.NotNil(t, out[1].Header.Group)
	assert.Equal(t, *out[0].Header.Group, *out[1].Header.Group)
}
