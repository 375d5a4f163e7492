package appclient

import (
	"context"
	"fmt"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/applog"
	"github.com/algorandfoundation/algokit-go/composer"
	"github.com/algorandfoundation/algokit-go/deploy"
	"github.com/algorandfoundation/algokit-go/methodcall"
)

// Factory binds an AppSpec to a creator, producing AppClients for
// whichever app id that creator's deployment currently resolves to.
type Factory struct {
	spec          AppSpec
	node          composer.NodeClient
	deployer      *deploy.Deployer
	methodCodec   methodcall.Codec
	defaultSigner composer.SignerGetter
	log           applog.Logger
	creator       address.Address
	signer        composer.Signer
}

// NewFactory builds a Factory for one logical application, ready to
// Deploy or bind a Client to a known app id.
func NewFactory(spec AppSpec, creator address.Address, signer composer.Signer, node composer.NodeClient, indexer deploy.IndexerClient, methodCodec methodcall.Codec, defaultSigner composer.SignerGetter, log applog.Logger) *Factory {
	if log == nil {
		log = applog.Nop{}
	}
	return &Factory{
		spec:          spec,
		node:          node,
		deployer:      deploy.New(node, indexer, methodCodec, defaultSigner, log),
		methodCodec:   methodCodec,
		defaultSigner: defaultSigner,
		log:           log,
		creator:       creator,
		signer:        signer,
	}
}

// DeployParams configures one idempotent deploy of the factory's bound
// AppSpec.
type DeployParams struct {
	Version       string
	Updatable     *bool
	Deletable     *bool
	OnSchemaBreak deploy.OnSchemaBreak
	OnUpdate      deploy.OnUpdate
	Create        CreateParams
	IgnoreCache   bool
}

// Deploy idempotently creates, updates, replaces, or leaves alone the
// bound application, returning an AppClient for whichever app id results.
func (f *Factory) Deploy(ctx context.Context, p DeployParams) (*Client, deploy.Result, error) {
	result, err := f.deployer.Deploy(ctx, deploy.DeployParams{
		Metadata: deploy.AppDeployMetadata{
			Name:      f.spec.Name,
			Version:   p.Version,
			Updatable: p.Updatable,
			Deletable: p.Deletable,
		},
		OnSchemaBreak: p.OnSchemaBreak,
		OnUpdate:      p.OnUpdate,
		Sender:        f.creator,
		Signer:        f.signer,
		CreateParams: deploy.CreateParams{
			OnCompletion:      p.Create.OnCompletion,
			Approval:          f.spec.Approval,
			ClearState:        f.spec.ClearState,
			GlobalStateSchema: &f.spec.GlobalStateSchema,
			LocalStateSchema:  &f.spec.LocalStateSchema,
			Args:              p.Create.Args,
			AccountReferences: p.Create.AccountReferences,
			AppReferences:     p.Create.AppReferences,
			AssetReferences:   p.Create.AssetReferences,
			BoxReferences:     p.Create.BoxReferences,
		},
		IgnoreCache: p.IgnoreCache,
	})
	if err != nil {
		return nil, deploy.Result{}, err
	}
	return f.Client(result.App.AppID), result, nil
}

// Client binds the factory's AppSpec to a known application id, without
// consulting the deployer.
func (f *Factory) Client(appID uint64) *Client {
	return &Client{
		spec:          f.spec,
		appID:         appID,
		node:          f.node,
		methodCodec:   f.methodCodec,
		defaultSigner: f.defaultSigner,
		log:           f.log,
		sender:        f.creator,
		signer:        f.signer,
	}
}

// MethodByName looks up a bound method by its ARC-4 name, erroring if the
// AppSpec never declared it.
func (f *Factory) MethodByName(name string) (methodcall.Method, error) {
	m, ok := f.spec.Methods[name]
	if !ok {
		return methodcall.Method{}, fmt.Errorf("app %q declares no method %q", f.spec.Name, name)
	}
	return m, nil
}
