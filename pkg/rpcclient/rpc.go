package rpcclient

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc/result"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// GetChainID returns the chain id transactions must be signed for.
func (c *Client) GetChainID(ctx context.Context) (uint64, error) {
	var resp hexutil.Uint64
	if err := c.performRequest(ctx, "eth_chainId", nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// GetBlockNumber returns the number of the latest block.
func (c *Client) GetBlockNumber(ctx context.Context) (uint64, error) {
	var resp hexutil.Uint64
	if err := c.performRequest(ctx, "eth_blockNumber", nil, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// GetLatestHeader returns the header of the latest block.
func (c *Client) GetLatestHeader(ctx context.Context) (*result.Header, error) {
	var (
		params = []any{ethrpc.BlockLatest, false}
		resp   *result.Header
	)
	if err := c.performRequest(ctx, "eth_getBlockByNumber", params, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: eth_getBlockByNumber: no latest block", ErrNetwork)
	}
	return resp, nil
}

// GetBalance returns the balance of the account in base units at the latest
// block. Unknown accounts have zero balance.
func (c *Client) GetBalance(ctx context.Context, account util.Uint160) (*uint256.Int, error) {
	return c.getQuantity(ctx, "eth_getBalance", account, ethrpc.BlockLatest)
}

// GetGasPrice returns the node's recommended legacy gas price.
func (c *Client) GetGasPrice(ctx context.Context) (*uint256.Int, error) {
	return c.getQuantity(ctx, "eth_gasPrice")
}

// GetMaxPriorityFeePerGas returns the node's recommended priority fee for
// dynamic fee transactions.
func (c *Client) GetMaxPriorityFeePerGas(ctx context.Context) (*uint256.Int, error) {
	return c.getQuantity(ctx, "eth_maxPriorityFeePerGas")
}

func (c *Client) getQuantity(ctx context.Context, method string, params ...any) (*uint256.Int, error) {
	var resp hexutil.Big
	if err := c.performRequest(ctx, method, params, &resp); err != nil {
		return nil, err
	}
	v, err := ethrpc.FromHexBig(&resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNetwork, method, err)
	}
	return v, nil
}

// GetTransactionCount returns the number of transactions sent from the
// account. With pending set it includes transactions in the pool, which is
// the next nonce to use.
func (c *Client) GetTransactionCount(ctx context.Context, account util.Uint160, pending bool) (uint64, error) {
	var (
		block  = ethrpc.BlockLatest
		resp   hexutil.Uint64
		params []any
	)
	if pending {
		block = ethrpc.BlockPending
	}
	params = []any{account, block}
	if err := c.performRequest(ctx, "eth_getTransactionCount", params, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// EstimateGas returns the gas limit needed to execute the call. It fails with
// a node error (*ethrpc.Error) if the execution reverts.
func (c *Client) EstimateGas(ctx context.Context, msg ethrpc.CallMsg) (uint64, error) {
	var resp hexutil.Uint64
	if err := c.performRequest(ctx, "eth_estimateGas", []any{msg}, &resp); err != nil {
		return 0, err
	}
	return uint64(resp), nil
}

// Call executes a read-only call at the latest block and returns its raw
// output. It does not produce any transactions. Reverts are returned as a
// node error carrying the reason.
func (c *Client) Call(ctx context.Context, msg ethrpc.CallMsg) ([]byte, error) {
	return c.call(ctx, msg, ethrpc.BlockLatest)
}

// CallAtHeight is the same as Call, but executes the call against the state
// of the given block.
func (c *Client) CallAtHeight(ctx context.Context, msg ethrpc.CallMsg, height uint64) ([]byte, error) {
	return c.call(ctx, msg, hexutil.EncodeUint64(height))
}

func (c *Client) call(ctx context.Context, msg ethrpc.CallMsg, block string) ([]byte, error) {
	var resp hexutil.Bytes
	if err := c.performRequest(ctx, "eth_call", []any{msg, block}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SendRawTransaction broadcasts a signed transaction and returns its hash. It
// is never retried: a network error means the transaction may or may not have
// reached the node.
func (c *Client) SendRawTransaction(ctx context.Context, tx *transaction.Transaction) (util.Uint256, error) {
	var resp util.Uint256
	if err := c.performRequest(ctx, "eth_sendRawTransaction", []any{hexutil.Encode(tx.Bytes())}, &resp); err != nil {
		return util.Uint256{}, err
	}
	return resp, nil
}

// GetTransactionReceipt returns the receipt of an included transaction. It
// doesn't block: a nil receipt with nil error means the transaction is not
// (yet) included in a block.
func (c *Client) GetTransactionReceipt(ctx context.Context, h util.Uint256) (*result.Receipt, error) {
	var resp *result.Receipt
	if err := c.performRequest(ctx, "eth_getTransactionReceipt", []any{h}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
