package rpcclient

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/internal/fakenode"
	"github.com/nspcc-dev/eth-go/internal/testchain"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/nspcc-dev/eth-go/pkg/wallet"
	"github.com/stretchr/testify/require"
)

func TestGetChainParameters(t *testing.T) {
	c, node := newTestClient(t, Options{})
	ctx := context.Background()

	id, err := c.GetChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, testchain.ChainID, id)

	node.Mine()
	num, err := c.GetBlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), num)

	h, err := c.GetLatestHeader(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), h.Number)
	require.Equal(t, uint256.NewInt(10000000), h.BaseFee)

	node.SetBaseFee(nil)
	h, err = c.GetLatestHeader(ctx)
	require.NoError(t, err)
	require.Nil(t, h.BaseFee)

	p, err := c.GetGasPrice(ctx)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(100000000), p)

	tip, err := c.GetMaxPriorityFeePerGas(ctx)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1), tip)
}

func TestGetBalanceAndNonce(t *testing.T) {
	c, node := newTestClient(t, Options{})
	ctx := context.Background()
	acc := testchain.SenderAddress()

	b, err := c.GetBalance(ctx, acc)
	require.NoError(t, err)
	require.True(t, b.IsZero())

	big, _ := uint256.FromDecimal("1000000000000000000000")
	node.SetBalance(acc, big)
	b, err = c.GetBalance(ctx, acc)
	require.NoError(t, err)
	require.Equal(t, big, b)

	node.SetNonce(acc, 7)
	n, err := c.GetTransactionCount(ctx, acc, true)
	require.NoError(t, err)
	require.Equal(t, uint64(7), n)
}

func TestSendAndReceipt(t *testing.T) {
	c, node := newTestClient(t, Options{})
	ctx := context.Background()
	acc, err := wallet.NewAccountFromHex(testchain.PrivateKeyHex)
	require.NoError(t, err)
	node.SetBalance(acc.Address(), uint256.NewInt(1_000_000_000_000_000))

	req := transaction.NewTransferRequest(testchain.RecipientAddress(), uint256.NewInt(1000))
	req.ChainID = ptr(testchain.ChainID)
	req.Nonce = ptr(uint64(0))
	req.Gas = ptr(uint64(transaction.TransferGas))
	req.GasPrice = uint256.NewInt(100)
	tx, err := acc.SignTx(req)
	require.NoError(t, err)

	h, err := c.SendRawTransaction(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, tx.Hash(), h)

	r, err := c.GetTransactionReceipt(ctx, h)
	require.NoError(t, err)
	require.Nil(t, r)

	_, err = c.SendRawTransaction(ctx, tx)
	require.True(t, ethrpc.IsAlreadyKnown(err))

	node.Mine()
	r, err = c.GetTransactionReceipt(ctx, h)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.True(t, r.Succeeded())
	require.Equal(t, h, r.TxHash)
	require.Equal(t, uint64(2), r.BlockNumber)
	require.Equal(t, uint256.NewInt(1000), node.Balance(testchain.RecipientAddress()))
}

func TestSendNonceTooLow(t *testing.T) {
	c, node := newTestClient(t, Options{})
	acc, err := wallet.NewAccountFromHex(testchain.PrivateKeyHex)
	require.NoError(t, err)
	node.SetNonce(acc.Address(), 5)

	req := transaction.NewTransferRequest(testchain.RecipientAddress(), uint256.NewInt(1))
	req.ChainID = ptr(testchain.ChainID)
	req.Nonce = ptr(uint64(4))
	req.Gas = ptr(uint64(transaction.TransferGas))
	req.GasPrice = uint256.NewInt(1)
	tx, err := acc.SignTx(req)
	require.NoError(t, err)

	_, err = c.SendRawTransaction(context.Background(), tx)
	require.ErrorIs(t, err, ethrpc.ErrNode)
	require.True(t, ethrpc.IsNonceError(err))
}

func TestCallAndEstimate(t *testing.T) {
	c, node := newTestClient(t, Options{})
	ctx := context.Background()
	tok := fakenode.NewToken("Test", "TST", 6)
	tok.Mint(testchain.SenderAddress(), uint256.NewInt(500))
	tokAddr := testchain.TokenAddress()
	node.Deploy(tokAddr, tok)

	m := abi.MustParseMethod("balanceOf(address)(uint256)")
	data, err := m.Pack(testchain.SenderAddress())
	require.NoError(t, err)

	out, err := c.Call(ctx, ethrpc.CallMsg{To: &tokAddr, Data: data})
	require.NoError(t, err)
	res, err := m.Unpack(out)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(500), res[0])

	sender := testchain.SenderAddress()
	transfer := abi.MustParseMethod("transfer(address,uint256)(bool)")
	data, err = transfer.Pack(testchain.RecipientAddress(), uint256.NewInt(501))
	require.NoError(t, err)
	_, err = c.EstimateGas(ctx, ethrpc.CallMsg{From: &sender, To: &tokAddr, Data: data})
	var e *ethrpc.Error
	require.ErrorAs(t, err, &e)
	require.True(t, e.IsReverted())
	require.Equal(t, "ERC20: transfer amount exceeds balance", e.Reason())

	data, err = transfer.Pack(testchain.RecipientAddress(), uint256.NewInt(5))
	require.NoError(t, err)
	gas, err := c.EstimateGas(ctx, ethrpc.CallMsg{From: &sender, To: &tokAddr, Data: data})
	require.NoError(t, err)
	require.Greater(t, gas, uint64(transaction.TransferGas))

	to := util.Uint160{1}
	gas, err = c.EstimateGas(ctx, ethrpc.CallMsg{From: &sender, To: &to})
	require.NoError(t, err)
	require.Equal(t, uint64(transaction.TransferGas), gas)
}

func ptr[T any](v T) *T { return &v }
