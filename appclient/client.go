package appclient

import (
	"context"
	"fmt"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/applog"
	"github.com/algorandfoundation/algokit-go/composer"
	"github.com/algorandfoundation/algokit-go/methodcall"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// Client is a typed façade bound to one deployed application id.
type Client struct {
	spec          AppSpec
	appID         uint64
	node          composer.NodeClient
	methodCodec   methodcall.Codec
	defaultSigner composer.SignerGetter
	log           applog.Logger
	sender        address.Address
	signer        composer.Signer
}

// AppID returns the bound application id.
func (c *Client) AppID() uint64 { return c.appID }

// AppAddress returns the bound application's account address.
func (c *Client) AppAddress() address.Address { return address.FromAppID(c.appID) }

func (c *Client) newComposer() *composer.Composer {
	return composer.New(c.node, c.methodCodec, c.defaultSigner, c.log, composer.DefaultConfig())
}

// resolveArg converts one appclient.MethodArg to a composer.MethodArg,
// resolving ArgDefaultValue against the bound AppSpec's default table;
// ARC-56 default resolution belongs to this layer, never the composer.
func (c *Client) resolveArg(methodName string, position int, a MethodArg) (composer.MethodArg, error) {
	switch a.Kind {
	case ArgValue:
		return composer.MethodArg{Kind: composer.MethodArgValue, Value: a.Value}, nil
	case ArgAccount:
		return composer.MethodArg{Kind: composer.MethodArgAccount, Account: a.Account}, nil
	case ArgAsset:
		return composer.MethodArg{Kind: composer.MethodArgAsset, AssetID: a.AssetID}, nil
	case ArgApp:
		return composer.MethodArg{Kind: composer.MethodArgApp, AppID: a.AppID}, nil
	case ArgTransaction:
		return composer.MethodArg{Kind: composer.MethodArgTransaction, Transaction: a.Transaction}, nil
	case ArgTransactionWithSigner:
		return composer.MethodArg{Kind: composer.MethodArgTransactionWithSigner, TransactionWithSigner: a.TransactionWithSigner}, nil
	case ArgSibling:
		return composer.MethodArg{Kind: composer.MethodArgSibling, Sibling: a.Sibling}, nil
	case ArgDefaultValue:
		byPos, ok := c.spec.Defaults[methodName]
		if !ok {
			return composer.MethodArg{}, fmt.Errorf("method %q has no registered default values", methodName)
		}
		value, ok := byPos[position]
		if !ok {
			return composer.MethodArg{}, fmt.Errorf("method %q argument %d has no registered default value", methodName, position)
		}
		return composer.MethodArg{Kind: composer.MethodArgValue, Value: value}, nil
	default:
		return composer.MethodArg{}, fmt.Errorf("unknown method argument kind %d at position %d", a.Kind, position)
	}
}

func (c *Client) resolveArgs(methodName string, args []MethodArg) ([]composer.MethodArg, error) {
	out := make([]composer.MethodArg, len(args))
	for i, a := range args {
		resolved, err := c.resolveArg(methodName, i, a)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

func (c *Client) common(p CallParams) composer.CommonParams {
	sender := p.Sender
	if sender.IsZero() {
		sender = c.sender
	}
	signer := p.Signer
	if signer == nil {
		signer = c.signer
	}
	return composer.CommonParams{
		Sender:    sender,
		Signer:    signer,
		Note:      p.Note,
		StaticFee: p.StaticFee,
		ExtraFee:  p.ExtraFee,
		MaxFee:    p.MaxFee,
	}
}

// Call enqueues and sends a single ABI method call against the bound app,
// returning the decoded return value (if any) and the full send result.
func (c *Client) Call(ctx context.Context, methodName string, p CallParams) (interface{}, *composer.SendResult, error) {
	method, ok := c.spec.Methods[methodName]
	if !ok {
		return nil, nil, fmt.Errorf("app %q declares no method %q", c.spec.Name, methodName)
	}
	args, err := c.resolveArgs(methodName, p.Args)
	if err != nil {
		return nil, nil, err
	}

	comp := c.newComposer()
	if err := comp.AddMethodCall(c.common(p), composer.MethodCallParams{
		Kind:         composer.MethodCallOnApp,
		AppID:        c.appID,
		Method:       method,
		Args:         args,
		OnCompletion: transaction.NoOp,
	}); err != nil {
		return nil, nil, fmt.Errorf("enqueue method call %q: %w", methodName, err)
	}

	result, err := comp.Send(ctx)
	if err != nil {
		return nil, nil, err
	}
	var ret interface{}
	if len(result.ABIReturns) > 0 {
		ret = result.ABIReturns[0].Value
	}
	return ret, result, nil
}

// OptIn enqueues and sends an OptIn application call against the bound app.
func (c *Client) OptIn(ctx context.Context, p CallParams, appArgs [][]byte) (*composer.SendResult, error) {
	comp := c.newComposer()
	if err := comp.AddAppCall(c.common(p), transaction.AppCallParams{
		AppID:        c.appID,
		OnCompletion: transaction.OptIn,
		Args:         appArgs,
	}); err != nil {
		return nil, fmt.Errorf("enqueue opt-in: %w", err)
	}
	return comp.Send(ctx)
}

// CloseOut enqueues and sends a CloseOut application call against the
// bound app.
func (c *Client) CloseOut(ctx context.Context, p CallParams, appArgs [][]byte) (*composer.SendResult, error) {
	comp := c.newComposer()
	if err := comp.AddAppCall(c.common(p), transaction.AppCallParams{
		AppID:        c.appID,
		OnCompletion: transaction.CloseOut,
		Args:         appArgs,
	}); err != nil {
		return nil, fmt.Errorf("enqueue close-out: %w", err)
	}
	return comp.Send(ctx)
}
