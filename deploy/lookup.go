package deploy

import (
	"context"
	"sort"

	"github.com/algorandfoundation/algokit-go/address"
)

// GetCreatorAppsByName reconstructs the name -> AppMetadata index for every
// application the given creator has ever created, by replaying each app's
// ARC-2 deploy notes. Results are cached per creator
// string form; ignoreCache bypasses and refreshes the cache.
func (d *Deployer) GetCreatorAppsByName(ctx context.Context, creator address.Address, ignoreCache bool) (AppLookup, error) {
	key := creator.String()

	if !ignoreCache {
		d.mu.Lock()
		cached, ok := d.lookups[key]
		d.mu.Unlock()
		if ok {
			return cached, nil
		}
	}

	if d.indexer == nil {
		return AppLookup{}, deploymentLookupFailedf("no indexer client or existing deployments cache provided")
	}

	created, err := d.indexer.LookupAccountCreatedApplications(ctx, key)
	if err != nil {
		return AppLookup{}, deploymentLookupFailedf("lookup account created applications for %s: %v", key, err)
	}

	sort.Slice(created, func(i, j int) bool {
		return created[i].CreatedAtRound < created[j].CreatedAtRound
	})

	apps := make(map[string]AppMetadata)
	for _, app := range created {
		txns, err := d.indexer.SearchTransactions(ctx, SearchTransactionsParams{
			NotePrefix:    []byte(NoteDeployPrefix),
			TxType:        "appl",
			MinRound:      app.CreatedAtRound,
			Sender:        key,
			ApplicationID: app.ID,
		})
		if err != nil {
			return AppLookup{}, deploymentLookupFailedf("search transactions for app %d: %v", app.ID, err)
		}

		sort.Slice(txns, func(i, j int) bool {
			if txns[i].ConfirmedRound != txns[j].ConfirmedRound {
				return txns[i].ConfirmedRound > txns[j].ConfirmedRound
			}
			return txns[i].IntraRoundOffset > txns[j].IntraRoundOffset
		})

		var creation, latestUpdate *IndexerTransaction
		for i := range txns {
			t := &txns[i]
			if t.Sender != key || t.ApplicationID == nil {
				continue
			}
			if *t.ApplicationID == 0 {
				creation = t
			} else if latestUpdate == nil {
				latestUpdate = t
			}
		}
		if creation == nil {
			continue
		}
		creationMeta, ok := parseDeployNote(creation.Note)
		if !ok {
			continue
		}
		current := creationMeta
		updatedRound := creation.ConfirmedRound
		if latestUpdate != nil {
			if updateMeta, ok := parseDeployNote(latestUpdate.Note); ok {
				current = updateMeta
			}
			updatedRound = latestUpdate.ConfirmedRound
		}

		apps[creationMeta.Name] = AppMetadata{
			AppID:           app.ID,
			AppAddress:      address.FromAppID(app.ID),
			CreatedRound:    app.CreatedAtRound,
			UpdatedRound:    updatedRound,
			CreatedMetadata: creationMeta,
			Name:            current.Name,
			Version:         current.Version,
			Updatable:       current.Updatable,
			Deletable:       current.Deletable,
			Deleted:         app.Deleted,
		}
	}

	lookup := AppLookup{Creator: creator, Apps: apps}
	d.mu.Lock()
	d.lookups[key] = lookup
	d.mu.Unlock()
	return lookup, nil
}
