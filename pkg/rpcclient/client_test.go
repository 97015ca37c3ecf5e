package rpcclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/internal/fakenode"
	"github.com/nspcc-dev/eth-go/internal/testchain"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts Options) (*Client, *fakenode.Node) {
	node := fakenode.New(t, testchain.ChainID)
	c, err := New(node.URL(), opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, node
}

func TestNew(t *testing.T) {
	for _, bad := range []string{"", "localhost", "://x", "http://"} {
		_, err := New(bad, Options{})
		require.Error(t, err, bad)
	}
	c, err := New("http://localhost:8545", Options{})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8545", c.Endpoint())
	require.Equal(t, defaultDialTimeout, c.opts.DialTimeout)
	require.Equal(t, defaultRequestTimeout, c.opts.RequestTimeout)
}

func TestRequestIDs(t *testing.T) {
	c, _ := newTestClient(t, Options{})
	require.Equal(t, uint64(1), c.getNextRequestID())
	require.Equal(t, uint64(2), c.getNextRequestID())
}

func TestNodeErrorPassedAsIs(t *testing.T) {
	c, node := newTestClient(t, Options{})
	node.FailNext("eth_chainId", ethrpc.NewError(ethrpc.ServerErrorCode, "boom", nil))

	_, err := c.GetChainID(context.Background())
	require.ErrorIs(t, err, ethrpc.ErrNode)
	require.NotErrorIs(t, err, ErrNetwork)
	var e *ethrpc.Error
	require.ErrorAs(t, err, &e)
	require.EqualValues(t, ethrpc.ServerErrorCode, e.Code)
	require.Equal(t, "boom", e.Message)
}

func TestNetworkErrors(t *testing.T) {
	t.Run("http failure", func(t *testing.T) {
		c, node := newTestClient(t, Options{})
		node.FailNext("eth_gasPrice", fakenode.ErrHTTP)
		_, err := c.GetGasPrice(context.Background())
		require.ErrorIs(t, err, ErrNetwork)
		require.NotErrorIs(t, err, ethrpc.ErrNode)
		require.Contains(t, err.Error(), "502")

		// The failure is one-shot.
		p, err := c.GetGasPrice(context.Background())
		require.NoError(t, err)
		require.Equal(t, uint256.NewInt(100000000), p)
	})
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		c, err := New(url, Options{DialTimeout: time.Second})
		require.NoError(t, err)
		_, err = c.GetBlockNumber(context.Background())
		require.ErrorIs(t, err, ErrNetwork)
		require.Error(t, c.Ping(context.Background()))
	})
	t.Run("malformed result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"not a number"}`))
		}))
		t.Cleanup(srv.Close)
		c, err := New(srv.URL, Options{})
		require.NoError(t, err)
		_, err = c.GetChainID(context.Background())
		require.ErrorIs(t, err, ErrNetwork)
		require.Contains(t, err.Error(), "malformed")
	})
	t.Run("no result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1}`))
		}))
		t.Cleanup(srv.Close)
		c, err := New(srv.URL, Options{})
		require.NoError(t, err)
		_, err = c.GetChainID(context.Background())
		require.ErrorIs(t, err, ErrNetwork)
	})
	t.Run("cancelled", func(t *testing.T) {
		c, _ := newTestClient(t, Options{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.GetChainID(ctx)
		require.ErrorIs(t, err, ErrNetwork)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, Options{})
	require.NoError(t, c.Ping(context.Background()))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c, node := newTestClient(t, Options{Registerer: reg})

	_, err := c.GetChainID(context.Background())
	require.NoError(t, err)
	node.FailNext("eth_chainId", ethrpc.NewError(ethrpc.ServerErrorCode, "boom", nil))
	_, err = c.GetChainID(context.Background())
	require.Error(t, err)
	node.FailNext("eth_chainId", fakenode.ErrHTTP)
	_, err = c.GetChainID(context.Background())
	require.Error(t, err)

	for _, status := range []string{statusOK, statusNodeError, statusNetworkError} {
		assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues("eth_chainId", status)), status)
	}

	// Double registration is an error.
	_, err = New(node.URL(), Options{Registerer: reg})
	require.Error(t, err)
}
