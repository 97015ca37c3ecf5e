package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
)

// ErrNetwork is returned when the node can't be reached or its answer can't
// be understood. For write requests it means the outcome is unknown.
var ErrNetwork = errors.New("network error")

// Client represents the middleman for executing JSON RPC calls to remote
// Ethereum-compatible nodes. Client is thread-safe and can be used from
// multiple goroutines. It doesn't retry requests, sending transactions is not
// idempotent and retry policy belongs to the caller.
type Client struct {
	cli      *http.Client
	endpoint *url.URL
	opts     Options
	requestF func(context.Context, *ethrpc.Request) (*ethrpc.Response, error)
	metrics  *metrics

	latestReqID *atomic.Uint64
	// getNextRequestID returns an ID to be used for the subsequent request creation.
	// It is defined on Client, so that our testing code can override this method
	// for the sake of more predictable request IDs generation behavior.
	getNextRequestID func() uint64
}

// Options defines options for the RPC client.
// All values are optional. If any duration is not specified,
// a default of 4 seconds will be used.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// Limit total number of connections per host. No limit by default.
	MaxConnsPerHost int
	// Registerer, if set, is used to register request metrics.
	Registerer prometheus.Registerer
}

// New returns a new Client ready to use.
func New(endpoint string, opts Options) (*Client, error) {
	cl := new(Client)
	err := initClient(cl, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func initClient(cl *Client, endpoint string, opts Options) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q", endpoint)
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.DialTimeout,
			}).DialContext,
			MaxConnsPerHost: opts.MaxConnsPerHost,
		},
		Timeout: opts.RequestTimeout,
	}

	if opts.Registerer != nil {
		cl.metrics, err = newMetrics(opts.Registerer)
		if err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
	}
	cl.cli = httpClient
	cl.endpoint = u
	cl.latestReqID = atomic.NewUint64(0)
	cl.getNextRequestID = (cl).getRequestID
	cl.opts = opts
	cl.requestF = cl.makeHTTPRequest
	return nil
}

func (c *Client) getRequestID() uint64 {
	return c.latestReqID.Inc()
}

// Endpoint returns the client endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Close closes unused underlying networks connections.
func (c *Client) Close() {
	c.cli.CloseIdleConnections()
}

func (c *Client) performRequest(ctx context.Context, method string, p []any, v any) error {
	var (
		r     = ethrpc.NewRequest(c.getNextRequestID(), method, p...)
		start = time.Now()
	)

	raw, err := c.requestF(ctx, r)

	switch {
	case raw != nil && raw.Error != nil:
		err = raw.Error
	case err != nil:
		err = fmt.Errorf("%w: %s: %w", ErrNetwork, method, err)
	case raw == nil || len(raw.Result) == 0:
		err = fmt.Errorf("%w: %s: no result returned", ErrNetwork, method)
	default:
		if jErr := json.Unmarshal(raw.Result, v); jErr != nil {
			err = fmt.Errorf("%w: %s: malformed result: %w", ErrNetwork, method, jErr)
		}
	}
	c.metrics.observe(method, time.Since(start), err)
	return err
}

func (c *Client) makeHTTPRequest(ctx context.Context, r *ethrpc.Request) (*ethrpc.Response, error) {
	var (
		buf = new(bytes.Buffer)
		raw = new(ethrpc.Response)
	)

	if err := json.NewEncoder(buf).Encode(r); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The node might send us a proper JSON anyway, so look there first and if
	// it parses, it has more relevant data than HTTP error code.
	err = json.NewDecoder(resp.Body).Decode(raw)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("HTTP %d/%s", resp.StatusCode, http.StatusText(resp.StatusCode))
		} else {
			err = fmt.Errorf("JSON decoding: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Ping attempts to create a connection to the endpoint
// and returns an error if there is any.
func (c *Client) Ping(ctx context.Context) error {
	var d = net.Dialer{Timeout: c.opts.DialTimeout}
	host := c.endpoint.Host
	if c.endpoint.Port() == "" {
		port := "80"
		if c.endpoint.Scheme == "https" || c.endpoint.Scheme == "wss" {
			port = "443"
		}
		host = net.JoinHostPort(c.endpoint.Hostname(), port)
	}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	_ = conn.Close()
	return nil
}
