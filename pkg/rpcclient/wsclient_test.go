package rpcclient

import (
	"context"
	"testing"
	"time"

	"github.com/nspcc-dev/eth-go/internal/fakenode"
	"github.com/nspcc-dev/eth-go/internal/testchain"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc/result"
	"github.com/stretchr/testify/require"
)

func newTestWSClient(t *testing.T) (*WSClient, *fakenode.Node) {
	node := fakenode.New(t, testchain.ChainID)
	c, err := NewWS(context.Background(), node.WSURL(), Options{})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, node
}

func TestWSClientRequests(t *testing.T) {
	c, node := newTestWSClient(t)
	ctx := context.Background()

	id, err := c.GetChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, testchain.ChainID, id)

	node.FailNext("eth_blockNumber", ethrpc.NewError(ethrpc.ServerErrorCode, "boom", nil))
	_, err = c.GetBlockNumber(ctx)
	require.ErrorIs(t, err, ethrpc.ErrNode)

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := c.GetGasPrice(ctx)
			errs <- err
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-errs)
	}
}

func TestWSClientReceiveHeads(t *testing.T) {
	c, node := newTestWSClient(t)
	ctx := context.Background()

	rcvr := make(chan *result.Header, 2)
	id, err := c.ReceiveHeads(ctx, rcvr)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	node.Mine()
	select {
	case h := <-rcvr:
		require.Equal(t, uint64(2), h.Number)
	case <-time.After(5 * time.Second):
		t.Fatal("no header received")
	}

	require.NoError(t, c.Unsubscribe(ctx, id))
	require.Error(t, c.Unsubscribe(ctx, id))

	_, err = c.ReceiveHeads(ctx, nil)
	require.Error(t, err)
}

func TestWSClientClose(t *testing.T) {
	node := fakenode.New(t, testchain.ChainID)
	c, err := NewWS(context.Background(), node.WSURL(), Options{})
	require.NoError(t, err)

	rcvr := make(chan *result.Header)
	_, err = c.ReceiveHeads(context.Background(), rcvr)
	require.NoError(t, err)

	c.Close()
	c.Close()
	select {
	case <-c.Done():
	default:
		t.Fatal("not done after Close")
	}
	require.Error(t, c.GetError())
	_, ok := <-rcvr
	require.False(t, ok)

	_, err = c.GetChainID(context.Background())
	require.ErrorIs(t, err, ErrNetwork)
	require.ErrorIs(t, err, ErrWSConnLost)
}

func TestNewWSBadEndpoint(t *testing.T) {
	node := fakenode.New(t, testchain.ChainID)
	_, err := NewWS(context.Background(), node.URL()+"/nows", Options{DialTimeout: time.Second})
	require.ErrorIs(t, err, ErrNetwork)
}
