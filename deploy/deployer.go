package deploy

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/applog"
	"github.com/algorandfoundation/algokit-go/composer"
	"github.com/algorandfoundation/algokit-go/methodcall"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// Deployer orchestrates a Composer and an IndexerClient to implement
// idempotent application deployment: it decides between
// Create/Update/Replace/Append/Nothing for a logical (creator, name) app
// and executes that decision.
type Deployer struct {
	node         composer.NodeClient
	indexer      IndexerClient
	methodCodec  methodcall.Codec
	defaultSigner composer.SignerGetter
	log          applog.Logger
	composerCfg  composer.Config

	mu      sync.Mutex
	lookups map[string]AppLookup
}

// New builds a Deployer. indexer may be nil if every Deploy call supplies
// ExistingLookup explicitly.
func New(node composer.NodeClient, indexer IndexerClient, methodCodec methodcall.Codec, defaultSigner composer.SignerGetter, log applog.Logger) *Deployer {
	if log == nil {
		log = applog.Nop{}
	}
	return &Deployer{
		node:          node,
		indexer:       indexer,
		methodCodec:   methodCodec,
		defaultSigner: defaultSigner,
		log:           log,
		composerCfg:   composer.DefaultConfig(),
		lookups:       make(map[string]AppLookup),
	}
}

func (d *Deployer) newComposer() *composer.Composer {
	return composer.New(d.node, d.methodCodec, d.defaultSigner, d.log, d.composerCfg)
}

// resolveProgram returns program bytes, compiling TEAL source via the node
// if necessary.
func (d *Deployer) resolveProgram(ctx context.Context, src ProgramSource) ([]byte, error) {
	if !src.IsTeal() {
		return src.Bytes, nil
	}
	compiled, err := d.node.CompileTeal(ctx, []byte(src.Teal))
	if err != nil {
		return nil, fmt.Errorf("compile teal program: %w", err)
	}
	return compiled, nil
}

// calculateExtraProgramPages computes the minimal extra pages needed to
// hold both programs, clamped to the protocol maximum.
func calculateExtraProgramPages(approval, clearState []byte) uint32 {
	total := len(approval) + len(clearState)
	pages := uint32((total + transaction.ProgramPageSize - 1) / transaction.ProgramPageSize)
	if pages > 0 {
		pages--
	}
	if pages > transaction.MaxExtraProgramPages {
		pages = transaction.MaxExtraProgramPages
	}
	return pages
}

// Deploy idempotently creates, updates, replaces, appends alongside, or
// leaves alone the logical application named in params.Metadata, per the
// decision table.
func (d *Deployer) Deploy(ctx context.Context, params DeployParams) (Result, error) {
	if params.ExistingLookup != nil && !params.ExistingLookup.Creator.Equal(params.Sender) {
		return Result{}, deploymentFailedf(
			"invalid existing deployments: received invalid existingDeployments value for creator %s when attempting to deploy for creator %s",
			params.ExistingLookup.Creator, params.Sender,
		)
	}
	if params.ExistingLookup == nil && d.indexer == nil {
		return Result{}, deploymentFailedf("either an indexer client or existing deployments must be provided")
	}

	note, err := buildDeployNote(params.Metadata)
	if err != nil {
		return Result{}, err
	}

	approval, err := d.resolveProgram(ctx, params.CreateParams.Approval)
	if err != nil {
		return Result{}, err
	}
	clearState, err := d.resolveProgram(ctx, params.CreateParams.ClearState)
	if err != nil {
		return Result{}, err
	}

	d.log.Info("deploying app", "name", params.Metadata.Name, "creator", params.Sender.String(),
		"approval_bytes", len(approval), "clear_bytes", len(clearState))

	lookup := AppLookup{}
	if params.ExistingLookup != nil {
		lookup = *params.ExistingLookup
	} else {
		lookup, err = d.GetCreatorAppsByName(ctx, params.Sender, params.IgnoreCache)
		if err != nil {
			return Result{}, err
		}
	}

	existing, found := lookup.Apps[params.Metadata.Name]
	if !found || existing.Deleted {
		d.log.Info("app not found or deleted, creating", "name", params.Metadata.Name, "version", params.Metadata.Version)
		return d.createApp(ctx, params, note, approval, clearState)
	}

	appInfo, err := d.node.GetApplication(ctx, existing.AppID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch existing application %d: %w", existing.AppID, err)
	}

	schemaBreak := isSchemaBreak(params.CreateParams, appInfo, approval, clearState)
	programDiff := isProgramDifferent(appInfo, approval, clearState)

	switch {
	case schemaBreak:
		d.log.Warn("detected breaking schema change", "app_id", existing.AppID)
		return d.handleSchemaBreak(ctx, params, existing, note, approval, clearState)
	case programDiff:
		d.log.Info("detected program update", "app_id", existing.AppID)
		return d.handleUpdate(ctx, params, existing, note, approval, clearState)
	default:
		d.log.Debug("no detected changes, nothing to do", "app_id", existing.AppID)
		return Result{Action: ActionNone, App: existing}, nil
	}
}

func isProgramDifferent(existing composer.ApplicationInfo, approval, clearState []byte) bool {
	return !bytes.Equal(existing.ApprovalProgram, approval) || !bytes.Equal(existing.ClearStateProgram, clearState)
}

func isSchemaBreak(create CreateParams, existing composer.ApplicationInfo, approval, clearState []byte) bool {
	newExtraPages := calculateExtraProgramPages(approval, clearState)
	existingExtraPages := existing.ExtraProgramPages

	globalBreak := create.GlobalStateSchema != nil && (
		create.GlobalStateSchema.NumUints > existing.GlobalStateSchema.NumUints ||
			create.GlobalStateSchema.NumByteSlices > existing.GlobalStateSchema.NumByteSlices)
	localBreak := create.LocalStateSchema != nil && (
		create.LocalStateSchema.NumUints > existing.LocalStateSchema.NumUints ||
			create.LocalStateSchema.NumByteSlices > existing.LocalStateSchema.NumByteSlices)
	extraPagesBreak := newExtraPages > existingExtraPages

	return globalBreak || localBreak || extraPagesBreak
}

func (d *Deployer) handleSchemaBreak(ctx context.Context, params DeployParams, existing AppMetadata, note, approval, clearState []byte) (Result, error) {
	switch params.OnSchemaBreak {
	case OnSchemaBreakFail:
		return Result{}, deploymentFailedf(
			"schema break detected on app %d: executing the fail-on-schema-break strategy, stopping deployment; re-run with the replace strategy to delete and recreate",
			existing.AppID)
	case OnSchemaBreakAppend:
		d.log.Info("append on schema break: creating a new app", "name", params.Metadata.Name)
		return d.createApp(ctx, params, note, approval, clearState)
	case OnSchemaBreakReplace:
		return d.replaceApp(ctx, params, existing, note, approval, clearState)
	default:
		return Result{}, deploymentFailedf("unknown on-schema-break strategy %v", params.OnSchemaBreak)
	}
}

func (d *Deployer) handleUpdate(ctx context.Context, params DeployParams, existing AppMetadata, note, approval, clearState []byte) (Result, error) {
	switch params.OnUpdate {
	case OnUpdateFail:
		return Result{}, deploymentFailedf(
			"update detected on app %d: executing the fail-on-update strategy, stopping deployment",
			existing.AppID)
	case OnUpdateAppend:
		d.log.Info("append on update: creating a new app", "name", params.Metadata.Name)
		return d.createApp(ctx, params, note, approval, clearState)
	case OnUpdateUpdate:
		return d.updateApp(ctx, params, existing, note, approval, clearState)
	case OnUpdateReplace:
		return d.replaceApp(ctx, params, existing, note, approval, clearState)
	default:
		return Result{}, deploymentFailedf("unknown on-update strategy %v", params.OnUpdate)
	}
}

func (d *Deployer) common(params DeployParams, note []byte) composer.CommonParams {
	return composer.CommonParams{Sender: params.Sender, Signer: params.Signer, Note: note}
}

func (d *Deployer) createApp(ctx context.Context, params DeployParams, note, approval, clearState []byte) (Result, error) {
	c := d.newComposer()
	cp := params.CreateParams
	extraPages := cp.ExtraProgramPages
	if extraPages == nil {
		computed := calculateExtraProgramPages(approval, clearState)
		extraPages = &computed
	}

	if cp.MethodCall != nil {
		mc := *cp.MethodCall
		mc.Kind = composer.MethodCallCreate
		mc.OnCompletion = cp.OnCompletion
		mc.ApprovalProgram = approval
		mc.ClearStateProgram = clearState
		mc.GlobalStateSchema = derefSchema(cp.GlobalStateSchema)
		mc.LocalStateSchema = derefSchema(cp.LocalStateSchema)
		mc.ExtraProgramPages = *extraPages
		if err := c.AddMethodCall(d.common(params, note), mc); err != nil {
			return Result{}, fmt.Errorf("enqueue app create method call: %w", err)
		}
	} else {
		if err := c.AddAppCreate(d.common(params, note), transaction.AppCreateParams{
			OnCompletion:      cp.OnCompletion,
			ApprovalProgram:   approval,
			ClearStateProgram: clearState,
			GlobalStateSchema: cp.GlobalStateSchema,
			LocalStateSchema:  cp.LocalStateSchema,
			ExtraProgramPages: extraPages,
			Args:              cp.Args,
			AccountReferences: cp.AccountReferences,
			AppReferences:     cp.AppReferences,
			AssetReferences:   cp.AssetReferences,
			BoxReferences:     cp.BoxReferences,
		}); err != nil {
			return Result{}, fmt.Errorf("enqueue app create: %w", err)
		}
	}

	sendResult, err := c.Send(ctx)
	if err != nil {
		return Result{}, err
	}
	app, err := d.metadataFromCreate(params.Metadata, sendResult)
	if err != nil {
		return Result{}, err
	}
	d.invalidateCache(params.Sender, app)

	return Result{
		Action:           ActionCreate,
		App:              app,
		CreateResult:     sendResult,
		GroupResult:      sendResult,
		CompiledApproval: approval,
		CompiledClear:    clearState,
	}, nil
}

func (d *Deployer) updateApp(ctx context.Context, params DeployParams, existing AppMetadata, note, approval, clearState []byte) (Result, error) {
	c := d.newComposer()
	up := params.UpdateParams

	if up.MethodCall != nil {
		mc := *up.MethodCall
		mc.Kind = composer.MethodCallUpdate
		mc.AppID = existing.AppID
		mc.OnCompletion = transaction.UpdateApplication
		mc.ApprovalProgram = approval
		mc.ClearStateProgram = clearState
		if err := c.AddMethodCall(d.common(params, note), mc); err != nil {
			return Result{}, fmt.Errorf("enqueue app update method call: %w", err)
		}
	} else {
		if err := c.AddAppUpdate(d.common(params, note), transaction.AppUpdateParams{
			AppID:             existing.AppID,
			ApprovalProgram:   approval,
			ClearStateProgram: clearState,
			Args:              up.Args,
			AccountReferences: up.AccountReferences,
			AppReferences:     up.AppReferences,
			AssetReferences:   up.AssetReferences,
			BoxReferences:     up.BoxReferences,
		}); err != nil {
			return Result{}, fmt.Errorf("enqueue app update: %w", err)
		}
	}

	sendResult, err := c.Send(ctx)
	if err != nil {
		return Result{}, err
	}

	app := existing
	app.Name = params.Metadata.Name
	app.Version = params.Metadata.Version
	app.Updatable = params.Metadata.Updatable
	app.Deletable = params.Metadata.Deletable
	if sendResult.ConfirmedRound != 0 {
		app.UpdatedRound = sendResult.ConfirmedRound
	}
	d.invalidateCache(params.Sender, app)

	return Result{
		Action:           ActionUpdate,
		App:              app,
		UpdateResult:     sendResult,
		GroupResult:      sendResult,
		CompiledApproval: approval,
		CompiledClear:    clearState,
	}, nil
}

func (d *Deployer) replaceApp(ctx context.Context, params DeployParams, existing AppMetadata, note, approval, clearState []byte) (Result, error) {
	c := d.newComposer()
	cp := params.CreateParams
	dp := params.DeleteParams
	extraPages := cp.ExtraProgramPages
	if extraPages == nil {
		computed := calculateExtraProgramPages(approval, clearState)
		extraPages = &computed
	}

	if cp.MethodCall != nil {
		mc := *cp.MethodCall
		mc.Kind = composer.MethodCallCreate
		mc.OnCompletion = cp.OnCompletion
		mc.ApprovalProgram = approval
		mc.ClearStateProgram = clearState
		mc.GlobalStateSchema = derefSchema(cp.GlobalStateSchema)
		mc.LocalStateSchema = derefSchema(cp.LocalStateSchema)
		mc.ExtraProgramPages = *extraPages
		if err := c.AddMethodCall(d.common(params, note), mc); err != nil {
			return Result{}, fmt.Errorf("enqueue replace create method call: %w", err)
		}
	} else {
		if err := c.AddAppCreate(d.common(params, note), transaction.AppCreateParams{
			OnCompletion:      cp.OnCompletion,
			ApprovalProgram:   approval,
			ClearStateProgram: clearState,
			GlobalStateSchema: cp.GlobalStateSchema,
			LocalStateSchema:  cp.LocalStateSchema,
			ExtraProgramPages: extraPages,
			Args:              cp.Args,
			AccountReferences: cp.AccountReferences,
			AppReferences:     cp.AppReferences,
			AssetReferences:   cp.AssetReferences,
			BoxReferences:     cp.BoxReferences,
		}); err != nil {
			return Result{}, fmt.Errorf("enqueue replace create: %w", err)
		}
	}
	// Count() is the pre-flatten enqueue index, which equals the built index
	// here because a deploy's create/delete method calls are not expected to
	// carry sibling transaction arguments of their own.
	createIndex := c.Count() - 1

	if dp.MethodCall != nil {
		mc := *dp.MethodCall
		mc.Kind = composer.MethodCallDelete
		mc.AppID = existing.AppID
		mc.OnCompletion = transaction.DeleteApplication
		if err := c.AddMethodCall(composer.CommonParams{Sender: params.Sender, Signer: params.Signer}, mc); err != nil {
			return Result{}, fmt.Errorf("enqueue replace delete method call: %w", err)
		}
	} else {
		if err := c.AddAppDelete(composer.CommonParams{Sender: params.Sender, Signer: params.Signer}, transaction.AppDeleteParams{
			AppID:             existing.AppID,
			Args:              dp.Args,
			AccountReferences: dp.AccountReferences,
			AppReferences:     dp.AppReferences,
			AssetReferences:   dp.AssetReferences,
			BoxReferences:     dp.BoxReferences,
		}); err != nil {
			return Result{}, fmt.Errorf("enqueue replace delete: %w", err)
		}
	}
	deleteIndex := c.Count() - 1

	sendResult, err := c.Send(ctx)
	if err != nil {
		return Result{}, err
	}

	app, err := d.metadataFromConfirmation(params.Metadata, sendResult, createIndex)
	if err != nil {
		return Result{}, err
	}
	d.invalidateCache(params.Sender, app)

	groupHash := c.GroupID()
	createResult := &composer.SendResult{TxIDs: []string{sendResult.TxIDs[createIndex]}, Confirmations: onlyIndex(sendResult.Confirmations, createIndex)}
	deleteResult := &composer.SendResult{TxIDs: []string{sendResult.TxIDs[deleteIndex]}, Confirmations: onlyIndex(sendResult.Confirmations, deleteIndex)}

	return Result{
		Action:           ActionReplace,
		App:              app,
		CreateResult:     createResult,
		DeleteResult:     deleteResult,
		GroupResult:      sendResult,
		GroupHash:        groupHash,
		CompiledApproval: approval,
		CompiledClear:    clearState,
	}, nil
}

func onlyIndex(confirmations []composer.PendingTransactionInfo, i int) []composer.PendingTransactionInfo {
	if i < 0 || i >= len(confirmations) {
		return nil
	}
	return []composer.PendingTransactionInfo{confirmations[i]}
}

func derefSchema(s *transaction.StateSchema) transaction.StateSchema {
	if s == nil {
		return transaction.StateSchema{}
	}
	return *s
}

func (d *Deployer) metadataFromCreate(meta AppDeployMetadata, sendResult *composer.SendResult) (AppMetadata, error) {
	return d.metadataFromConfirmation(meta, sendResult, len(sendResult.Confirmations)-1)
}

func (d *Deployer) metadataFromConfirmation(meta AppDeployMetadata, sendResult *composer.SendResult, index int) (AppMetadata, error) {
	if index < 0 || index >= len(sendResult.Confirmations) {
		return AppMetadata{}, deploymentFailedf("app creation confirmation missing at index %d", index)
	}
	confirmation := sendResult.Confirmations[index]
	if confirmation.ApplicationID == nil {
		return AppMetadata{}, deploymentFailedf("app creation confirmation missing application id")
	}
	if confirmation.ConfirmedRound == nil {
		return AppMetadata{}, deploymentFailedf("app creation confirmation missing confirmed round")
	}
	appID := *confirmation.ApplicationID
	round := *confirmation.ConfirmedRound
	return AppMetadata{
		AppID:           appID,
		AppAddress:      address.FromAppID(appID),
		CreatedRound:    round,
		UpdatedRound:    round,
		CreatedMetadata: meta,
		Name:            meta.Name,
		Version:         meta.Version,
		Updatable:       meta.Updatable,
		Deletable:       meta.Deletable,
	}, nil
}

func (d *Deployer) invalidateCache(creator address.Address, app AppMetadata) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := creator.String()
	lookup, ok := d.lookups[key]
	if !ok {
		lookup = AppLookup{Creator: creator, Apps: make(map[string]AppMetadata)}
	}
	lookup.Apps[app.Name] = app
	d.lookups[key] = lookup
}
