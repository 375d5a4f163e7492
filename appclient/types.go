// Package appclient implements the typed façade over a single contract:
// it binds one logical application (by creator+name,
// via a Factory, or by a known app id, via a Client) to a
// composer.Composer and a deploy.Deployer, so callers invoke ABI methods
// and deploy lifecycle operations without re-stating app-wide
// configuration (programs, schemas, sender, signer) on every call.
package appclient

import (
	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/composer"
	"github.com/algorandfoundation/algokit-go/deploy"
	"github.com/algorandfoundation/algokit-go/methodcall"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// AppSpec is the static description of a contract this façade binds to:
// its ARC-4 methods, its programs (TEAL source or precompiled bytes), and
// its storage schema requirements.
type AppSpec struct {
	Name              string
	Approval          deploy.ProgramSource
	ClearState        deploy.ProgramSource
	GlobalStateSchema transaction.StateSchema
	LocalStateSchema  transaction.StateSchema
	Methods           map[string]methodcall.Method
	// Defaults resolves AppMethodCallArg's DefaultValue sentinel (ARC-56
	// "default value" support): keyed by method name, then by argument
	// position, giving the value to substitute when a caller passes
	// ArgDefaultValue for that position.
	Defaults map[string]map[int]interface{}
}

// MethodArgKind mirrors composer.MethodArgKind but adds the DefaultValue
// sentinel, which this package resolves before the
// composer ever sees the argument — the composer has no notion of ARC-56
// defaults.
type MethodArgKind int

const (
	ArgValue MethodArgKind = iota
	ArgAccount
	ArgAsset
	ArgApp
	ArgTransaction
	ArgTransactionWithSigner
	ArgSibling
	// ArgDefaultValue requests ARC-56 default resolution from the bound
	// AppSpec.Defaults table for this method and argument position.
	ArgDefaultValue
)

// MethodArg is one positional argument to a bound method call, in
// whichever unresolved shape the caller supplied it.
type MethodArg struct {
	Kind MethodArgKind

	Value interface{}

	Account address.Address
	AssetID uint64
	AppID   uint64

	Transaction           *transaction.Transaction
	TransactionWithSigner *composer.TransactionWithSigner
	Sibling               *composer.Request
}

// CallParams configures one bound ABI method call.
type CallParams struct {
	Sender  address.Address
	Signer  composer.Signer
	Note    []byte
	Args    []MethodArg

	StaticFee *uint64
	ExtraFee  *uint64
	MaxFee    *uint64
}

// CreateParams configures Deploy's create path.
type CreateParams struct {
	OnCompletion      transaction.OnCompletion
	Args              [][]byte
	AccountReferences []address.Address
	AppReferences     []uint64
	AssetReferences   []uint64
	BoxReferences     []transaction.BoxReference
}
