package transaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algorandfoundation/algokit-go/address"
)

func TestPaymentSDKRoundTrip(t *testing.T) {
	h := testHeader(t)
	closeTo := address.FromAppID(2)
	fee := uint64(1500)
	h.Fee = &fee

	tx, err := BuildPayment(PaymentParams{Receiver: address.FromAppID(3), Amount: 250, CloseRemainderTo: &closeTo}, h)
	require.NoError(t, err)

	sdkTxn, err := tx.ToSDK()
	require.NoError(t, err)
	back, err := FromSDK(sdkTxn)
	require.NoError(t, err)

	assert.Equal(t, tx.Kind, back.Kind)
	assert.Equal(t, tx.Header.Sender, back.Header.Sender)
	assert.Equal(t, *tx.Header.Fee, *back.Header.Fee)
	assert.Equal(t, tx.Payment.Receiver, back.Payment.Receiver)
	assert.Equal(t, tx.Payment.Amount, back.Payment.Amount)
	require.NotNil(t, back.Payment.CloseRemainderTo)
	assert.Equal(t, closeTo, *back.Payment.CloseRemainderTo)
}

func TestAppCallSDKRoundTripRestoresBoxAppIDs(t *testing.T) {
	h := testHeader(t)
	fee := uint64(1000)
	h.Fee = &fee

	tx, err := BuildAppCall(AppCallParams{
		AppID:             7,
		OnCompletion:      NoOp,
		Args:              [][]byte{{1, 2}},
		AccountReferences: []address.Address{address.FromAppID(9)},
		AppReferences:     []uint64{54321},
		AssetReferences:   []uint64{77},
		BoxReferences: []BoxReference{
			{AppID: 54321, Name: []byte("other")},
			{AppID: 7, Name: []byte("self")},
		},
	}, h)
	require.NoError(t, err)

	sdkTxn, err := tx.ToSDK()
	require.NoError(t, err)
	back, err := FromSDK(sdkTxn)
	require.NoError(t, err)

	require.NotNil(t, back.AppCall)
	assert.Equal(t, tx.AppCall.AppID, back.AppCall.AppID)
	assert.Equal(t, tx.AppCall.AppReferences, back.AppCall.AppReferences)
	assert.Equal(t, tx.AppCall.AssetReferences, back.AppCall.AssetReferences)
	require.Len(t, back.AppCall.BoxReferences, 2)
	assert.EqualValues(t, 54321, back.AppCall.BoxReferences[0].AppID)
	assert.EqualValues(t, 7, back.AppCall.BoxReferences[1].AppID)
}

func TestAssetTransferSDKRoundTrip(t *testing.T) {
	h := testHeader(t)
	fee := uint64(1000)
	h.Fee = &fee
	clawback := address.FromAppID(4)

	tx, err := BuildAssetTransfer(AssetTransferParams{
		AssetID:      55,
		Amount:       10,
		Receiver:     address.FromAppID(3),
		ClawbackFrom: &clawback,
	}, h)
	require.NoError(t, err)

	sdkTxn, err := tx.ToSDK()
	require.NoError(t, err)
	back, err := FromSDK(sdkTxn)
	require.NoError(t, err)

	assert.Equal(t, tx.AssetTransfer.AssetID, back.AssetTransfer.AssetID)
	require.NotNil(t, back.AssetTransfer.ClawbackFrom)
	assert.Equal(t, clawback, *back.AssetTransfer.ClawbackFrom)
}

func TestKeyRegistrationBuilders(t *testing.T) {
	h := testHeader(t)

	online, err := BuildOnlineKeyRegistration(OnlineKeyRegistrationParams{
		VoteKey:         [32]byte{1},
		SelectionKey:    [32]byte{2},
		VoteFirst:       100,
		VoteLast:        200,
		VoteKeyDilution: 10,
	}, h)
	require.NoError(t, err)
	require.NotNil(t, online.KeyReg.VoteKey)
	assert.False(t, online.KeyReg.NonParticipation)

	offline, err := BuildOfflineKeyRegistration(h)
	require.NoError(t, err)
	assert.Nil(t, offline.KeyReg.VoteKey)
	assert.False(t, offline.KeyReg.NonParticipation)

	nonpart, err := BuildNonParticipationKeyRegistration(h)
	require.NoError(t, err)
	assert.True(t, nonpart.KeyReg.NonParticipation)

	sdkTxn, err := online.ToSDK()
	require.NoError(t, err)
	back, err := FromSDK(sdkTxn)
	require.NoError(t, err)
	require.NotNil(t, back.KeyReg.VoteKey)
	assert.Equal(t, *online.KeyReg.VoteKey, *back.KeyReg.VoteKey)
	assert.EqualValues(t, 10, back.KeyReg.VoteKeyDilution)
}

func TestEncodedSizeIsStable(t *testing.T) {
	h := testHeader(t)
	tx, err := BuildPayment(PaymentParams{Receiver: h.Sender, Amount: 1}, h)
	require.NoError(t, err)

	a, err := EncodedSize(tx)
	require.NoError(t, err)
	b, err := EncodedSize(tx)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Greater(t, a, uint64(0))
}

func TestTransactionIDIsDeterministic(t *testing.T) {
	h := testHeader(t)
	tx, err := BuildPayment(PaymentParams{Receiver: h.Sender, Amount: 1}, h)
	require.NoError(t, err)

	a, err := ID(tx)
	require.NoError(t, err)
	b, err := ID(tx)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 52)
}
