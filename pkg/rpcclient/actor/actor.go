/*
Package actor provides a way to change chain state via RPC client.

This layer builds on top of the basic RPC client and [invoker] package, it
simplifies creating, signing and sending transactions to the network (since
that's the only way chain state is changed). It's generic enough to be used for
any contract that you may want to invoke and contract-specific functions can
build on top of it.

Every transaction goes through a fixed sequence of states (see State): a draft
request is filled with the node's recommendations, signed, submitted and then
awaited until it's included into a block. Submission is never retried, a
network failure during submission leaves the transaction in an unknown
(TimedOut) state since it could have reached the node.
*/
package actor

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc/result"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"go.uber.org/zap"
)

// RPCActor is an interface required from the RPC client to successfully
// create and send transactions.
type RPCActor interface {
	invoker.RPCInvoke
	waiter.RPCPollingBased

	GetChainID(ctx context.Context) (uint64, error)
	GetTransactionCount(ctx context.Context, account util.Uint160, pending bool) (uint64, error)
	GetGasPrice(ctx context.Context) (*uint256.Int, error)
	GetMaxPriorityFeePerGas(ctx context.Context) (*uint256.Int, error)
	GetLatestHeader(ctx context.Context) (*result.Header, error)
	EstimateGas(ctx context.Context, msg ethrpc.CallMsg) (uint64, error)
	SendRawTransaction(ctx context.Context, tx *transaction.Transaction) (util.Uint256, error)
}

// Signer is an account able to sign transactions, wallet.Account implements
// it.
type Signer interface {
	Address() util.Uint160
	SignTx(r *transaction.Request) (*transaction.Transaction, error)
}

// Tracker receives every state change of transactions made by Execute, it's
// used to persist them. Tracker errors are logged, but don't affect the
// transaction.
type Tracker interface {
	Track(o Outcome) error
}

// Actor keeps a connection to the RPC endpoint and allows to perform
// state-changing actions (via transactions that can also be created without
// sending them to the network) on behalf of a single signer. It also provides
// an Invoker interface to perform read-only calls from the same sender.
//
// "Make" prefix is used for methods that create signed transactions, while
// "Send" prefix is used by methods that directly transmit created
// transactions to the RPC server.
//
// Actor also provides a Waiter interface to wait until transaction will be
// included into a block. Depending on the underlying RPCActor functionality,
// transaction awaiting can be performed via websocket using new block
// notifications or via regular receipt polling.
type Actor struct {
	invoker.Invoker
	waiter.Waiter

	client  RPCActor
	signer  Signer
	opts    Options
	chainID uint64
	log     *zap.Logger
}

// Options are used to create Actor with non-standard fee and gas policies.
type Options struct {
	// FeeModel is used when neither the request nor Options set fees.
	FeeModel FeeModel
	// DefaultGas is the gas limit for plain transfers if EstimateGas is not
	// set, transaction.TransferGas by default.
	DefaultGas uint64
	// EstimateGas makes Actor ask the node for gas limit of plain transfers
	// too. Calls with data are always estimated.
	EstimateGas bool
	// GasPrice, if set, is used for every request without fees instead of
	// the node's recommendation, requests become legacy ones.
	GasPrice *uint256.Int
	// MaxFeePerGas and MaxPriorityFeePerGas, if set, are used for requests
	// without fees, requests become dynamic fee ones.
	MaxFeePerGas         *uint256.Int
	MaxPriorityFeePerGas *uint256.Int
	// Modifier is applied to every filled request before it's signed by
	// Make*, Send* and Execute methods.
	Modifier TransactionModifier
	// Waiter configures transaction awaiting.
	Waiter waiter.Config
	// Logger is used to log state transitions, no logging if nil.
	Logger *zap.Logger
	// Tracker, if set, receives transaction state changes from Execute.
	Tracker Tracker
}

// NewDefaultOptions returns Options with automatic fee model, static gas limit
// for transfers and the default modifier that does nothing.
func NewDefaultOptions() Options {
	return Options{
		DefaultGas: transaction.TransferGas,
		Modifier:   DefaultModifier,
	}
}

// New creates an Actor instance using the specified RPC interface and signer.
// Every transaction created by this Actor will be signed by this signer and
// all communication will be performed via this RPC. Upon Actor instance
// creation a GetChainID call is made and the result of it is cached forever.
// Unset options are replaced with defaults from NewDefaultOptions.
func New(ctx context.Context, ra RPCActor, signer Signer, opts Options) (*Actor, error) {
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	chainID, err := ra.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	def := NewDefaultOptions()
	if opts.DefaultGas == 0 {
		opts.DefaultGas = def.DefaultGas
	}
	if opts.Modifier == nil {
		opts.Modifier = def.Modifier
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Waiter.Logger == nil {
		opts.Waiter.Logger = log
	}
	sender := signer.Address()
	return &Actor{
		Invoker: *invoker.New(ra, &sender),
		Waiter:  waiter.New(ra, opts.Waiter),
		client:  ra,
		signer:  signer,
		opts:    opts,
		chainID: chainID,
		log:     log,
	}, nil
}

// Sender returns the sender address used in transactions created by Actor.
func (a *Actor) Sender() util.Uint160 {
	return a.signer.Address()
}

// ChainID returns the chain id transactions are signed for.
func (a *Actor) ChainID() uint64 {
	return a.chainID
}

// Sign signs a complete request (see Fill), it fails with
// transaction.ErrIncompleteRequest wrapped into wallet.ErrSigning if
// anything is missing. Requests for other chains are rejected.
func (a *Actor) Sign(r *transaction.Request) (*transaction.Transaction, error) {
	if r.ChainID != nil && *r.ChainID != a.chainID {
		return nil, fmt.Errorf("chain id mismatch: %d instead of %d", *r.ChainID, a.chainID)
	}
	return a.signer.SignTx(r)
}

// Send allows to send arbitrary prepared transaction to the network. It
// returns the transaction hash. It's never retried, a network error means
// the transaction may or may not have reached the node.
func (a *Actor) Send(ctx context.Context, tx *transaction.Transaction) (util.Uint256, error) {
	h, err := a.client.SendRawTransaction(ctx, tx)
	if err != nil {
		return tx.Hash(), err
	}
	if !h.Equals(tx.Hash()) {
		a.log.Warn("node returned unexpected transaction hash",
			zap.Stringer("expected", tx.Hash()), zap.Stringer("returned", h))
	}
	return tx.Hash(), nil
}

// SignAndSend signs a complete request (see Sign) and sends it to the
// network.
func (a *Actor) SignAndSend(ctx context.Context, r *transaction.Request) (util.Uint256, error) {
	return a.sendWrapper(ctx)(a.Sign(r))
}

// sendWrapper simplifies wrapping methods that create transactions.
func (a *Actor) sendWrapper(ctx context.Context) func(*transaction.Transaction, error) (util.Uint256, error) {
	return func(tx *transaction.Transaction, err error) (util.Uint256, error) {
		if err != nil {
			return util.Uint256{}, err
		}
		return a.Send(ctx, tx)
	}
}

// MakeTransaction fills the request (see Fill), passes it through the
// configured modifier and signs it. The request is changed in place.
func (a *Actor) MakeTransaction(ctx context.Context, r *transaction.Request) (*transaction.Transaction, error) {
	if err := a.Fill(ctx, r); err != nil {
		return nil, err
	}
	if err := a.opts.Modifier(r); err != nil {
		return nil, fmt.Errorf("modifier: %w", err)
	}
	return a.Sign(r)
}

// MakeTransfer creates a signed transaction transferring value base units to
// the given account.
func (a *Actor) MakeTransfer(ctx context.Context, to util.Uint160, value *uint256.Int) (*transaction.Transaction, error) {
	return a.MakeTransaction(ctx, transaction.NewTransferRequest(to, value))
}

// SendTransfer creates a transfer transaction (see MakeTransfer) and sends
// it to the network.
func (a *Actor) SendTransfer(ctx context.Context, to util.Uint160, value *uint256.Int) (util.Uint256, error) {
	return a.sendWrapper(ctx)(a.MakeTransfer(ctx, to, value))
}

// MakeCall creates a signed transaction calling the contract with the given
// call data (see abi.Method.Pack).
func (a *Actor) MakeCall(ctx context.Context, contract util.Uint160, data []byte) (*transaction.Transaction, error) {
	return a.MakeTransaction(ctx, transaction.NewCallRequest(contract, data))
}

// SendCall creates a contract call transaction (see MakeCall) and sends it to
// the network.
func (a *Actor) SendCall(ctx context.Context, contract util.Uint160, data []byte) (util.Uint256, error) {
	return a.sendWrapper(ctx)(a.MakeCall(ctx, contract, data))
}
