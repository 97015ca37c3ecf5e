/*
Package wallet provides Account, an in-memory signing identity. An account owns
its private key for its whole lifetime and never gives it away: it can only
sign transaction requests and report its address.
*/
package wallet

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/crypto/keys"
	"github.com/nspcc-dev/eth-go/pkg/encoding/address"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// ErrSigning is returned when a request can't be signed, either because it's
// incomplete or because the credential is unusable.
var ErrSigning = errors.New("signing failed")

// Account represents a single signing account.
type Account struct {
	privateKey *keys.PrivateKey
	address    util.Uint160

	// Label is an optional user-defined name of the account.
	Label string
}

// NewAccount creates a new account with a random key.
func NewAccount() (*Account, error) {
	k, err := keys.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return NewAccountFromPrivateKey(k), nil
}

// NewAccountFromHex creates an account from a hex-encoded private key.
func NewAccountFromHex(s string) (*Account, error) {
	k, err := keys.NewPrivateKeyFromHex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return NewAccountFromPrivateKey(k), nil
}

// NewAccountFromPrivateKey creates an account owning the given key.
func NewAccountFromPrivateKey(k *keys.PrivateKey) *Account {
	return &Account{
		privateKey: k,
		address:    k.Address(),
	}
}

// Address returns the account address.
func (a *Account) Address() util.Uint160 {
	return a.address
}

// String implements the stringer interface.
func (a *Account) String() string {
	if a.Label != "" {
		return a.Label + " (" + address.Uint160ToString(a.address) + ")"
	}
	return address.Uint160ToString(a.address)
}

// CanSign returns true if the account still holds a usable key.
func (a *Account) CanSign() bool {
	return a.privateKey != nil
}

// SignTx signs a complete request producing an immutable transaction. The
// same request and key always produce the same transaction.
func (a *Account) SignTx(req *transaction.Request) (*transaction.Transaction, error) {
	if !a.CanSign() {
		return nil, fmt.Errorf("%w: account %s is closed", ErrSigning, a)
	}
	h, err := transaction.SigningHash(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	sig, err := a.privateKey.SignHash(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	tx, err := transaction.New(req, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return tx, nil
}

// Close destroys the key, the account can't sign anymore.
func (a *Account) Close() {
	if a.privateKey != nil {
		a.privateKey.Destroy()
		a.privateKey = nil
	}
}
