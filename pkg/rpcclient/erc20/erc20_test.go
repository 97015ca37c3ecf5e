package erc20

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/internal/fakenode"
	"github.com/nspcc-dev/eth-go/internal/testchain"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/wallet"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T) (*fakenode.Node, *fakenode.Token, *rpcclient.Client) {
	node := fakenode.New(t, testchain.ChainID)
	tok := fakenode.NewToken("Test Token", "TST", 6)
	node.Deploy(testchain.TokenAddress(), tok)
	c, err := rpcclient.New(node.URL(), rpcclient.Options{})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return node, tok, c
}

func TestReader(t *testing.T) {
	ctx := context.Background()
	_, tok, c := newTestNode(t)
	tok.Mint(testchain.SenderAddress(), uint256.NewInt(1500000))
	tok.Mint(testchain.RecipientAddress(), uint256.NewInt(500000))

	r := NewReader(invoker.New(c, nil), testchain.TokenAddress())
	require.Equal(t, testchain.TokenAddress(), r.Hash())

	info, err := r.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, &TokenInfo{
		Address:     testchain.TokenAddress(),
		Name:        "Test Token",
		Symbol:      "TST",
		Decimals:    6,
		TotalSupply: uint256.NewInt(2000000),
	}, info)
	require.Equal(t, "2", info.FormatAmount(info.TotalSupply))
	v, err := info.ParseAmount("1.5")
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1500000), v)

	bal, err := r.BalanceOf(ctx, testchain.SenderAddress())
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1500000), bal)

	bal, err = r.BalanceOf(ctx, testchain.TokenAddress())
	require.NoError(t, err)
	require.True(t, bal.IsZero())
}

func TestReaderBrokenToken(t *testing.T) {
	ctx := context.Background()
	_, tok, c := newTestNode(t)
	r := NewReader(invoker.New(c, nil), testchain.TokenAddress())

	m, err := ABI.Method("decimals")
	require.NoError(t, err)
	out, err := m.PackOutput(uint8(100))
	require.NoError(t, err)
	tok.SetRawOutput("decimals", out)
	_, err = r.Decimals(ctx)
	require.ErrorIs(t, err, abi.ErrDecode)
	_, err = r.Info(ctx)
	require.ErrorIs(t, err, abi.ErrDecode)

	m, err = ABI.Method("symbol")
	require.NoError(t, err)
	out, err = m.PackOutput("T\x01")
	require.NoError(t, err)
	tok.SetRawOutput("symbol", out)
	_, err = r.Symbol(ctx)
	require.ErrorIs(t, err, abi.ErrDecode)

	tok.SetRawOutput("totalSupply", []byte{1, 2, 3})
	_, err = r.TotalSupply(ctx)
	require.ErrorIs(t, err, abi.ErrDecode)

	// Not a contract.
	r = NewReader(invoker.New(c, nil), testchain.RecipientAddress())
	_, err = r.Name(ctx)
	require.ErrorIs(t, err, abi.ErrDecode)
}

func newTestToken(t *testing.T) (*Token, *fakenode.Node, *fakenode.Token) {
	node, tok, c := newTestNode(t)
	acc, err := wallet.NewAccountFromHex(testchain.PrivateKeyHex)
	require.NoError(t, err)
	node.SetBalance(acc.Address(), uint256.NewInt(1_000_000_000_000_000_000))
	a, err := actor.New(context.Background(), c, acc, actor.Options{})
	require.NoError(t, err)
	return New(a, testchain.TokenAddress()), node, tok
}

func TestTransferRequest(t *testing.T) {
	tk, _, _ := newTestToken(t)
	r, err := tk.TransferRequest(testchain.RecipientAddress(), uint256.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, testchain.TokenAddress(), *r.To)
	require.True(t, r.Value.IsZero())
	require.Nil(t, r.Nonce)

	args, err := ABI.Method("transfer")
	require.NoError(t, err)
	vals, err := args.UnpackInput(r.Data)
	require.NoError(t, err)
	require.Equal(t, []any{testchain.RecipientAddress(), uint256.NewInt(5)}, vals)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	tk, node, tok := newTestToken(t)
	tok.Mint(testchain.SenderAddress(), uint256.NewInt(100))

	_, err := tk.Transfer(ctx, testchain.RecipientAddress(), uint256.NewInt(101))
	var e *ethrpc.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, "ERC20: transfer amount exceeds balance", e.Reason())
	require.Empty(t, node.Pool())

	h, err := tk.Transfer(ctx, testchain.RecipientAddress(), uint256.NewInt(30))
	require.NoError(t, err)
	require.Len(t, node.Pool(), 1)
	require.Equal(t, h, node.Pool()[0].Hash())
	node.Mine()
	require.Equal(t, uint256.NewInt(30), tok.BalanceOf(testchain.RecipientAddress()))

	node.SetAutoMine(true)
	o, err := tk.TransferAndWait(ctx, testchain.RecipientAddress(), uint256.NewInt(70))
	require.NoError(t, err)
	require.Equal(t, actor.StateConfirmed, o.State)
	require.Equal(t, uint256.NewInt(100), tok.BalanceOf(testchain.RecipientAddress()))

	_, err = tk.TransferAndWait(ctx, testchain.RecipientAddress(), uint256.NewInt(1))
	require.ErrorAs(t, err, &e)
}
