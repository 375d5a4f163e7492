// Package indexernode adapts the real Algorand indexer client
// (github.com/algorand/go-algorand-sdk/v2/client/v2/indexer) to the
// deploy.IndexerClient interface, so the deployer never imports the
// indexer SDK directly.
package indexernode

import (
	"context"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/indexer"

	"github.com/algorandfoundation/algokit-go/deploy"
)

// Client adapts *indexer.Client to deploy.IndexerClient.
type Client struct {
	indexer *indexer.Client
}

var _ deploy.IndexerClient = (*Client)(nil)

// New wraps an already-constructed indexer client.
func New(c *indexer.Client) *Client { return &Client{indexer: c} }

// LookupAccountCreatedApplications returns every application the given
// creator has ever created, including deleted ones.
func (c *Client) LookupAccountCreatedApplications(ctx context.Context, creator string) ([]deploy.CreatedApplication, error) {
	resp, err := c.indexer.LookupAccountCreatedApplications(creator).IncludeAll(true).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup account created applications for %s: %w", creator, err)
	}
	out := make([]deploy.CreatedApplication, 0, len(resp.Applications))
	for _, app := range resp.Applications {
		out = append(out, deploy.CreatedApplication{
			ID:             app.Id,
			CreatedAtRound: app.CreatedAtRound,
			Deleted:        app.Deleted,
		})
	}
	return out, nil
}

// SearchTransactions returns application-call transactions matching the
// given note prefix, sender, and application id, confirmed at or after
// MinRound.
func (c *Client) SearchTransactions(ctx context.Context, params deploy.SearchTransactionsParams) ([]deploy.IndexerTransaction, error) {
	query := c.indexer.SearchForTransactions().
		NotePrefix(params.NotePrefix).
		TxType(params.TxType).
		MinRound(params.MinRound).
		AddressString(params.Sender).
		AddressRole("sender").
		ApplicationId(params.ApplicationID)

	resp, err := query.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search for transactions: %w", err)
	}

	out := make([]deploy.IndexerTransaction, 0, len(resp.Transactions))
	for _, txn := range resp.Transactions {
		out = append(out, convertTransaction(txn))
	}
	return out, nil
}

func convertTransaction(txn models.Transaction) deploy.IndexerTransaction {
	out := deploy.IndexerTransaction{
		Sender:           txn.Sender,
		Note:             txn.Note,
		ConfirmedRound:   txn.ConfirmedRound,
		IntraRoundOffset: txn.IntraRoundOffset,
	}
	if txn.Type == "appl" {
		appID := txn.ApplicationTransaction.ApplicationId
		out.ApplicationID = &appID
	}
	return out
}
