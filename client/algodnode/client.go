// Package algodnode adapts the real Algorand node client
// (github.com/algorand/go-algorand-sdk/v2/client/v2/algod) to the
// composer.NodeClient interface, so the composer never imports algod
// directly.
package algodnode

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/composer"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// Client adapts *algod.Client to composer.NodeClient.
type Client struct {
	algod *algod.Client
}

var _ composer.NodeClient = (*Client)(nil)

// New wraps an already-constructed algod client.
func New(c *algod.Client) *Client { return &Client{algod: c} }

// SuggestedParams fetches algod's current network parameters.
func (c *Client) SuggestedParams(ctx context.Context) (composer.SuggestedParams, error) {
	sp, err := c.algod.SuggestedParams().Do(ctx)
	if err != nil {
		return composer.SuggestedParams{}, fmt.Errorf("fetch suggested params: %w", err)
	}
	var genesisHash [32]byte
	copy(genesisHash[:], sp.GenesisHash)
	return composer.SuggestedParams{
		LastRound:   uint64(sp.FirstRoundValid),
		FeePerByte:  uint64(sp.Fee),
		MinFee:      sp.MinFee,
		GenesisID:   sp.GenesisID,
		GenesisHash: genesisHash,
	}, nil
}

func signedTxnToWire(s composer.SignedTransaction) (sdktypes.SignedTxn, error) {
	sdkTxn, err := s.Transaction.ToSDK()
	if err != nil {
		return sdktypes.SignedTxn{}, err
	}
	stxn := sdktypes.SignedTxn{Txn: sdkTxn}
	if len(s.Signature) == len(stxn.Sig) {
		copy(stxn.Sig[:], s.Signature)
	}
	if s.AuthAddr != nil {
		stxn.AuthAddr = sdktypes.Address(*s.AuthAddr)
	}
	return stxn, nil
}

// Simulate dry-runs a tentative group to derive fee deltas and accessed
// resources before anything is signed or submitted.
func (c *Client) Simulate(ctx context.Context, req composer.SimulateRequest) (composer.SimulateResponse, error) {
	txns := make([]sdktypes.SignedTxn, len(req.Transactions))
	for i, s := range req.Transactions {
		stxn, err := signedTxnToWire(s)
		if err != nil {
			return composer.SimulateResponse{}, fmt.Errorf("encode transaction %d for simulate: %w", i, err)
		}
		txns[i] = stxn
	}

	simReq := models.SimulateRequest{
		TxnGroups:             []models.SimulateRequestTransactionGroup{{Txns: txns}},
		AllowUnnamedResources: req.AllowUnnamedResources,
		AllowEmptySignatures:  req.AllowEmptySignatures,
		FixSigners:            req.FixSigners,
	}

	resp, err := c.algod.SimulateTransaction(simReq).Do(ctx)
	if err != nil {
		return composer.SimulateResponse{}, fmt.Errorf("simulate transaction group: %w", err)
	}
	if len(resp.TxnGroups) == 0 {
		return composer.SimulateResponse{}, fmt.Errorf("simulate response carried no transaction groups")
	}
	group := resp.TxnGroups[0]

	out := composer.SimulateResponse{
		FailureMessage:           group.FailureMessage,
		UnnamedResourcesAccessed: convertUnnamedResources(group.UnnamedResourcesAccessed),
	}
	for _, idx := range group.FailedAt {
		out.FailedAt = append(out.FailedAt, int(idx))
	}
	for _, r := range group.TxnResults {
		out.TxnResults = append(out.TxnResults, composer.TxnSimulateResult{
			Txn:                      convertPendingTxn(r.TxnResult),
			UnnamedResourcesAccessed: convertUnnamedResources(r.UnnamedResourcesAccessed),
		})
	}
	return out, nil
}

// convertUnnamedResources maps the wire report to the composer's shape,
// returning nil when the simulator reported nothing so callers can treat
// "no report" and "empty report" the same way.
func convertUnnamedResources(r models.SimulateUnnamedResourcesAccessed) *composer.UnnamedResourcesAccessed {
	out := &composer.UnnamedResourcesAccessed{
		Apps:         r.Apps,
		Assets:       r.Assets,
		ExtraBoxRefs: int(r.ExtraBoxRefs),
	}
	for _, a := range r.Accounts {
		addr, err := sdktypes.DecodeAddress(a)
		if err == nil {
			out.Accounts = append(out.Accounts, address.Address(addr))
		}
	}
	for _, b := range r.Boxes {
		out.Boxes = append(out.Boxes, transaction.BoxReference{AppID: b.App, Name: b.Name})
	}
	for _, h := range r.AssetHoldings {
		addr, err := sdktypes.DecodeAddress(h.Account)
		if err == nil {
			out.AssetHoldings = append(out.AssetHoldings, composer.AssetHoldingResource{Account: address.Address(addr), Asset: h.Asset})
		}
	}
	for _, l := range r.AppLocals {
		addr, err := sdktypes.DecodeAddress(l.Account)
		if err == nil {
			out.AppLocals = append(out.AppLocals, composer.AppLocalResource{Account: address.Address(addr), App: l.App})
		}
	}
	if len(out.Accounts) == 0 && len(out.Apps) == 0 && len(out.Assets) == 0 &&
		len(out.Boxes) == 0 && out.ExtraBoxRefs == 0 &&
		len(out.AssetHoldings) == 0 && len(out.AppLocals) == 0 {
		return nil
	}
	return out
}

func convertPendingTxn(p models.PendingTransactionResponse) composer.PendingTransactionInfo {
	out := composer.PendingTransactionInfo{
		PoolError: p.PoolError,
		Logs:      p.Logs,
		Fee:       uint64(p.Transaction.Txn.Fee),
	}
	if p.ConfirmedRound != 0 {
		round := p.ConfirmedRound
		out.ConfirmedRound = &round
	}
	if p.ApplicationIndex != 0 {
		appID := p.ApplicationIndex
		out.ApplicationID = &appID
	}
	for _, inner := range p.InnerTxns {
		out.InnerTxns = append(out.InnerTxns, convertPendingTxn(inner))
	}
	return out
}

// SubmitRaw posts an already-encoded signed transaction group.
func (c *Client) SubmitRaw(ctx context.Context, stxns []byte) error {
	_, err := c.algod.SendRawTransaction(stxns).Do(ctx)
	if err != nil {
		return fmt.Errorf("submit raw transaction group: %w", err)
	}
	return nil
}

// PendingTransactionInfo polls a single submitted transaction's status.
// ok is false only on the node's "not found" response (the composer
// interprets that as "try again next round").
func (c *Client) PendingTransactionInfo(ctx context.Context, txID string) (composer.PendingTransactionInfo, bool, error) {
	resp, stxn, err := c.algod.PendingTransactionInformation(txID).Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return composer.PendingTransactionInfo{}, false, nil
		}
		return composer.PendingTransactionInfo{}, false, fmt.Errorf("pending transaction information for %s: %w", txID, err)
	}
	out := composer.PendingTransactionInfo{
		PoolError: resp.PoolError,
		Logs:      resp.Logs,
		Fee:       uint64(stxn.Txn.Fee),
	}
	if resp.ConfirmedRound != 0 {
		round := resp.ConfirmedRound
		out.ConfirmedRound = &round
	}
	if resp.ApplicationIndex != 0 {
		appID := resp.ApplicationIndex
		out.ApplicationID = &appID
	}
	for _, inner := range resp.InnerTxns {
		out.InnerTxns = append(out.InnerTxns, convertPendingTxn(inner))
	}
	return out, true, nil
}

func isNotFound(err error) bool {
	// The SDK surfaces 404s as a generic error; match on message since it
	// does not export a typed sentinel.
	return strings.Contains(err.Error(), "404")
}

// WaitForBlock long-polls until the given round is available.
func (c *Client) WaitForBlock(ctx context.Context, round uint64) error {
	_, err := c.algod.StatusAfterBlock(round).Do(ctx)
	if err != nil {
		return fmt.Errorf("wait for block %d: %w", round, err)
	}
	return nil
}

// GetApplication fetches the on-chain state the deployer needs to detect
// program and schema changes.
func (c *Client) GetApplication(ctx context.Context, appID uint64) (composer.ApplicationInfo, error) {
	app, err := c.algod.GetApplicationByID(appID).Do(ctx)
	if err != nil {
		return composer.ApplicationInfo{}, fmt.Errorf("get application %d: %w", appID, err)
	}
	return composer.ApplicationInfo{
		ApprovalProgram:   app.Params.ApprovalProgram,
		ClearStateProgram: app.Params.ClearStateProgram,
		GlobalStateSchema: transaction.StateSchema{
			NumUints:      app.Params.GlobalStateSchema.NumUint,
			NumByteSlices: app.Params.GlobalStateSchema.NumByteSlice,
		},
		LocalStateSchema: transaction.StateSchema{
			NumUints:      app.Params.LocalStateSchema.NumUint,
			NumByteSlices: app.Params.LocalStateSchema.NumByteSlice,
		},
		ExtraProgramPages: uint32(app.Params.ExtraProgramPages),
	}, nil
}

// CompileTeal compiles TEAL source into bytecode.
func (c *Client) CompileTeal(ctx context.Context, source []byte) ([]byte, error) {
	resp, err := c.algod.TealCompile(source).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile teal program: %w", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("decode compiled teal program: %w", err)
	}
	return decoded, nil
}
