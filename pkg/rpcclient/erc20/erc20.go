/*
Package erc20 contains RPC wrappers for ERC-20 contracts.

TokenReader provides safe read-only methods and only needs an Invoker, Token
adds transfers on top of it and needs an Actor. Both use the ABI interface
defined in this package, so any contract implementing these methods can be
used irrespective of other methods it has.
*/
package erc20

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// MaxValidDecimals is the maximum value 'decimals' contract method can
// return to be considered as valid. It's log10(2^256), higher values
// don't make any sense with 256-bit balances.
const MaxValidDecimals = fixedn.MaxPrecision

// ABI is the subset of ERC-20 interface used by this package.
var ABI = abi.MustParseContract(
	"name()(string)",
	"symbol()(string)",
	"decimals()(uint8)",
	"totalSupply()(uint256)",
	"balanceOf(address)(uint256)",
	"transfer(address,uint256)(bool)",
)

// ErrTransferRejected is returned when the transfer method returns false
// instead of reverting.
var ErrTransferRejected = errors.New("transfer returned false")

// Invoker is used by TokenReader to call various safe methods.
type Invoker interface {
	CallContract(ctx context.Context, contract util.Uint160, c *abi.Contract, method string, args ...any) ([]any, error)
}

// Actor is used by Token to create and send transactions.
type Actor interface {
	Invoker

	MakeTransaction(ctx context.Context, r *transaction.Request) (*transaction.Transaction, error)
	Send(ctx context.Context, tx *transaction.Transaction) (util.Uint256, error)
	Execute(ctx context.Context, r *transaction.Request) (*actor.Outcome, error)
}

// TokenReader represents safe (read-only) methods of ERC-20 token. It can be
// used to query various data.
type TokenReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Token provides full ERC-20 interface, both safe and state-changing methods.
type Token struct {
	TokenReader

	actor Actor
}

// TokenInfo is the token metadata.
type TokenInfo struct {
	Address     util.Uint160
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *uint256.Int
}

// NewReader creates an instance of TokenReader for contract with the given
// address using the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *TokenReader {
	return &TokenReader{invoker, hash}
}

// New creates an instance of Token for contract with the given address
// using the given Actor.
func New(actor Actor, hash util.Uint160) *Token {
	return &Token{*NewReader(actor, hash), actor}
}

// Hash returns the contract address.
func (t *TokenReader) Hash() util.Uint160 {
	return t.hash
}

// Name returns the token name, it can be any valid UTF-8 string.
func (t *TokenReader) Name(ctx context.Context) (string, error) {
	return unwrap.String(t.invoker.CallContract(ctx, t.hash, ABI, "name"))
}

// Symbol returns a short token identifier (like "USDC").
func (t *TokenReader) Symbol(ctx context.Context) (string, error) {
	return unwrap.PrintableASCIIString(t.invoker.CallContract(ctx, t.hash, ABI, "symbol"))
}

// Decimals returns the number of decimals used by token. Values more than
// MaxValidDecimals are considered to be invalid (with an appropriate error)
// even if returned by the contract.
func (t *TokenReader) Decimals(ctx context.Context) (uint8, error) {
	r, err := t.invoker.CallContract(ctx, t.hash, ABI, "decimals")
	return unwrap.LimitedUint64[uint8](r, err, 0, MaxValidDecimals)
}

// TotalSupply returns the total token supply currently available (the amount
// of minted tokens).
func (t *TokenReader) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	return unwrap.Uint256(t.invoker.CallContract(ctx, t.hash, ABI, "totalSupply"))
}

// BalanceOf returns the token balance of the given account in base units (1
// TOK with 2 decimals will lead to 100 returned from this method).
func (t *TokenReader) BalanceOf(ctx context.Context, account util.Uint160) (*uint256.Int, error) {
	return unwrap.Uint256(t.invoker.CallContract(ctx, t.hash, ABI, "balanceOf", account))
}

// Info returns all of the token metadata, it fails if any of the methods
// fails.
func (t *TokenReader) Info(ctx context.Context) (*TokenInfo, error) {
	var (
		info = &TokenInfo{Address: t.hash}
		err  error
	)
	if info.Name, err = t.Name(ctx); err != nil {
		return nil, err
	}
	if info.Symbol, err = t.Symbol(ctx); err != nil {
		return nil, err
	}
	if info.Decimals, err = t.Decimals(ctx); err != nil {
		return nil, err
	}
	if info.TotalSupply, err = t.TotalSupply(ctx); err != nil {
		return nil, err
	}
	return info, nil
}

// FormatAmount converts base units into a decimal string using token
// decimals.
func (i *TokenInfo) FormatAmount(v *uint256.Int) string {
	return fixedn.ToString(v, int(i.Decimals))
}

// ParseAmount is the inverse of FormatAmount.
func (i *TokenInfo) ParseAmount(s string) (*uint256.Int, error) {
	return fixedn.FromString(s, int(i.Decimals))
}

// TransferRequest returns a draft request transferring amount base units of
// the token to the given account from the actor's account. It's not filled,
// use the actor to complete and sign it.
func (t *Token) TransferRequest(to util.Uint160, amount *uint256.Int) (*transaction.Request, error) {
	data, err := ABI.Pack("transfer", to, amount)
	if err != nil {
		return nil, err
	}
	return transaction.NewCallRequest(t.hash, data), nil
}

// TransferTransaction creates a signed transfer transaction without sending
// it.
func (t *Token) TransferTransaction(ctx context.Context, to util.Uint160, amount *uint256.Int) (*transaction.Transaction, error) {
	r, err := t.TransferRequest(to, amount)
	if err != nil {
		return nil, err
	}
	return t.actor.MakeTransaction(ctx, r)
}

// Transfer creates and sends a transfer transaction. The transfer is
// checked with a test call first, so a transfer that would revert (like one
// exceeding the balance) fails before sending with a node error carrying the
// revert reason. It returns the transaction hash, the transaction may still
// fail when included into a block.
func (t *Token) Transfer(ctx context.Context, to util.Uint160, amount *uint256.Int) (util.Uint256, error) {
	if err := t.checkTransfer(ctx, to, amount); err != nil {
		return util.Uint256{}, err
	}
	tx, err := t.TransferTransaction(ctx, to, amount)
	if err != nil {
		return util.Uint256{}, err
	}
	return t.actor.Send(ctx, tx)
}

// TransferAndWait is the same as Transfer, but runs the whole transaction
// lifecycle (see actor.Actor.Execute) and returns its outcome.
func (t *Token) TransferAndWait(ctx context.Context, to util.Uint160, amount *uint256.Int) (*actor.Outcome, error) {
	if err := t.checkTransfer(ctx, to, amount); err != nil {
		return nil, err
	}
	r, err := t.TransferRequest(to, amount)
	if err != nil {
		return nil, err
	}
	return t.actor.Execute(ctx, r)
}

func (t *Token) checkTransfer(ctx context.Context, to util.Uint160, amount *uint256.Int) error {
	ok, err := unwrap.Bool(t.invoker.CallContract(ctx, t.hash, ABI, "transfer", to, amount))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTransferRejected
	}
	return nil
}
