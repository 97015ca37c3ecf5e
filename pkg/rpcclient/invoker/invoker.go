/*
Package invoker provides a convenient wrapper to perform read-only contract
calls via RPC client.

Invoker executes eth_call requests on behalf of an optional sender, it packs
call data with ABI method descriptions and unpacks the results. It doesn't
sign anything and doesn't produce any transactions. Contract-specific packages
(like erc20) build on top of it.
*/
package invoker

import (
	"context"
	"fmt"

	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// RPCInvoke is a set of RPC methods needed to execute things at the current
// blockchain height.
type RPCInvoke interface {
	Call(ctx context.Context, msg ethrpc.CallMsg) ([]byte, error)
}

// RPCInvokeHistoric is a set of RPC methods needed to execute things at some
// fixed point in blockchain's life.
type RPCInvokeHistoric interface {
	CallAtHeight(ctx context.Context, msg ethrpc.CallMsg, height uint64) ([]byte, error)
}

// Invoker allows to test-execute things using RPC client. Its API simplifies
// reusing the same sender for a series of calls and at the same time uses
// regular Go types for call parameters. Invoker does not produce any
// transactions and does not change the state of the chain.
type Invoker struct {
	client RPCInvoke
	from   *util.Uint160
}

type historicConverter struct {
	client RPCInvokeHistoric
	height uint64
}

// New creates an Invoker to test-execute things at the current blockchain
// height. from is the optional call sender (msg.sender for contracts).
func New(client RPCInvoke, from *util.Uint160) *Invoker {
	if from != nil {
		f := *from
		from = &f
	}
	return &Invoker{client, from}
}

// NewHistoricAtHeight creates an Invoker to test-execute things at some given height.
func NewHistoricAtHeight(height uint64, client RPCInvokeHistoric, from *util.Uint160) *Invoker {
	return New(&historicConverter{
		client: client,
		height: height,
	}, from)
}

func (h *historicConverter) Call(ctx context.Context, msg ethrpc.CallMsg) ([]byte, error) {
	return h.client.CallAtHeight(ctx, msg, h.height)
}

// Sender returns the sender used for calls, nil if not set.
func (v *Invoker) Sender() *util.Uint160 {
	return v.from
}

// Call executes a read-only call of the contract with the given raw call
// data and returns raw output. Reverted executions are returned as node
// errors (*ethrpc.Error), use abi.UnpackRevert or (*ethrpc.Error).Reason to
// get the reason.
func (v *Invoker) Call(ctx context.Context, contract util.Uint160, data []byte) ([]byte, error) {
	return v.client.Call(ctx, ethrpc.CallMsg{
		From: v.from,
		To:   &contract,
		Data: data,
	})
}

// CallMethod packs arguments for the method, calls it and unpacks the
// result according to the method outputs. Output that doesn't match the
// declared shape is abi.ErrDecode.
func (v *Invoker) CallMethod(ctx context.Context, contract util.Uint160, m *abi.Method, args ...any) ([]any, error) {
	data, err := m.Pack(args...)
	if err != nil {
		return nil, err
	}
	out, err := v.Call(ctx, contract, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}
	return m.Unpack(out)
}

// CallContract is the same as CallMethod, but takes the method from the
// contract interface by name.
func (v *Invoker) CallContract(ctx context.Context, contract util.Uint160, c *abi.Contract, method string, args ...any) ([]any, error) {
	m, err := c.Method(method)
	if err != nil {
		return nil, err
	}
	return v.CallMethod(ctx, contract, m, args...)
}
