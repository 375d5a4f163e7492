// Package accountsigner provides the default composer.Signer: a single
// ed25519 account signing with the real Algorand SDK's transaction
// signing, so the composer never touches key material or signature layout
// directly.
package accountsigner

import (
	"context"
	"crypto/ed25519"
	"fmt"

	sdkcrypto "github.com/algorand/go-algorand-sdk/v2/crypto"
	sdkmsgpack "github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	sdktypes "github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/algorandfoundation/algokit-go/address"
	"github.com/algorandfoundation/algokit-go/composer"
	"github.com/algorandfoundation/algokit-go/transaction"
)

// Account is a composer.Signer backed by one ed25519 keypair.
type Account struct {
	sdk sdkcrypto.Account
}

var _ composer.Signer = (*Account)(nil)

// Generate creates a fresh random account. Useful for tests and LocalNet.
func Generate() *Account {
	return &Account{sdk: sdkcrypto.GenerateAccount()}
}

// FromPrivateKey wraps an existing ed25519 private key.
func FromPrivateKey(pk ed25519.PrivateKey) (*Account, error) {
	acct, err := sdkcrypto.AccountFromPrivateKey(pk)
	if err != nil {
		return nil, fmt.Errorf("derive account from private key: %w", err)
	}
	return &Account{sdk: acct}, nil
}

// Address returns the account's address (its public key).
func (a *Account) Address() address.Address {
	return address.Address(a.sdk.Address)
}

// Sign signs the requested indices of the group, returning one signed
// transaction per index in order.
func (a *Account) Sign(ctx context.Context, group []transaction.Transaction, indicesToSign []int) ([]composer.SignedTransaction, error) {
	out := make([]composer.SignedTransaction, 0, len(indicesToSign))
	for _, idx := range indicesToSign {
		if idx < 0 || idx >= len(group) {
			return nil, fmt.Errorf("sign index %d out of range of group size %d", idx, len(group))
		}
		sdkTxn, err := group[idx].ToSDK()
		if err != nil {
			return nil, fmt.Errorf("encode transaction %d for signing: %w", idx, err)
		}
		_, stxBytes, err := sdkcrypto.SignTransaction(a.sdk.PrivateKey, sdkTxn)
		if err != nil {
			return nil, fmt.Errorf("sign transaction %d: %w", idx, err)
		}
		var stxn sdktypes.SignedTxn
		if err := sdkmsgpack.Decode(stxBytes, &stxn); err != nil {
			return nil, fmt.Errorf("decode signed transaction %d: %w", idx, err)
		}
		signed := composer.SignedTransaction{
			Transaction: group[idx],
			Signature:   stxn.Sig[:],
		}
		if stxn.AuthAddr != (sdktypes.Address{}) {
			auth := address.Address(stxn.AuthAddr)
			signed.AuthAddr = &auth
		}
		out = append(out, signed)
	}
	return out, nil
}

// Resolver builds a composer.SignerGetter that maps each account's own
// address to itself, erroring for unknown senders.
func Resolver(accounts ...*Account) composer.SignerGetter {
	byAddr := make(map[address.Address]*Account, len(accounts))
	for _, a := range accounts {
		byAddr[a.Address()] = a
	}
	return func(sender address.Address) (composer.Signer, error) {
		a, ok := byAddr[sender]
		if !ok {
			return nil, fmt.Errorf("no signer registered for sender %s", sender)
		}
		return a, nil
	}
}
