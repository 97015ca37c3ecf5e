package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc/result"
	"go.uber.org/atomic"
)

// WSClient is a websocket-enabled RPC client that can be used with appropriate
// servers. It has a persistent connection to the node and, in addition to
// all Client methods, it provides new block notifications via eth_subscribe.
//
// Receiver channels passed to ReceiveHeads are owned by the client until
// Unsubscribe is called for them or the connection is lost. When the
// connection is lost all of them are closed, GetError then returns the reason.
// Receivers must be read from continuously, a blocked receiver blocks the
// reader and thus all requests of this client.
type WSClient struct {
	Client

	ws          *websocket.Conn
	done        chan struct{}
	requests    chan *ethrpc.Request
	shutdown    chan struct{}
	closeCalled atomic.Bool

	closeErrLock sync.RWMutex
	closeErr     error

	respLock     sync.Mutex
	respChannels map[uint64]chan *ethrpc.Response

	subsLock      sync.RWMutex
	subscriptions map[string]chan<- *result.Header
}

// wsMessage is a combined type for responses and notifications since we can
// get any of them here.
type wsMessage struct {
	ethrpc.HeaderAndError
	Method string                    `json:"method"`
	Params ethrpc.SubscriptionResult `json:"params"`
	Result json.RawMessage           `json:"result,omitempty"`
}

const (
	// Message limit for receiving side.
	wsReadLimit = 10 * 1024 * 1024

	// Disconnection timeout.
	wsPongLimit = 60 * time.Second

	// Ping period for connection liveness check.
	wsPingPeriod = wsPongLimit / 2

	// Write deadline.
	wsWriteLimit = wsPingPeriod / 2
)

// ErrWSConnLost is returned for requests made after the websocket connection
// is lost or closed. It's a network error.
var ErrWSConnLost = fmt.Errorf("%w: connection lost", ErrNetwork)

// NewWS returns a new WSClient ready to use (with established websocket
// connection). You need to use websocket URL for it like `ws://1.2.3.4/ws`.
func NewWS(ctx context.Context, endpoint string, opts Options) (*WSClient, error) {
	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: websocket dial: %w", ErrNetwork, err)
	}
	wsc := &WSClient{
		ws:            ws,
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		requests:      make(chan *ethrpc.Request),
		respChannels:  make(map[uint64]chan *ethrpc.Response),
		subscriptions: make(map[string]chan<- *result.Header),
	}
	err = initClient(&wsc.Client, endpoint, opts)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	wsc.Client.requestF = wsc.makeWsRequest
	go wsc.wsReader()
	go wsc.wsWriter()
	return wsc, nil
}

// Close closes connection to the remote side rendering this client instance
// unusable.
func (c *WSClient) Close() {
	if c.closeCalled.CompareAndSwap(false, true) {
		c.setCloseErr(errors.New("connection closed by user"))
		// Closing shutdown channel sends a signal to wsWriter to break out of
		// the loop. In doing so it does ws.Close() closing the network
		// connection which in turn makes wsReader receive an error from
		// ws.ReadJSON() and also break out of the loop closing c.done
		// channel in its shutdown sequence.
		close(c.shutdown)
	}
	<-c.done
	c.Client.Close()
}

// GetError returns the reason of the connection loss, nil if the connection
// is alive.
func (c *WSClient) GetError() error {
	c.closeErrLock.RLock()
	defer c.closeErrLock.RUnlock()
	return c.closeErr
}

// Done returns a channel that is closed when the connection is lost.
func (c *WSClient) Done() <-chan struct{} {
	return c.done
}

func (c *WSClient) setCloseErr(err error) {
	c.closeErrLock.Lock()
	defer c.closeErrLock.Unlock()
	if c.closeErr == nil {
		c.closeErr = err
	}
}

func (c *WSClient) wsReader() {
	c.ws.SetReadLimit(wsReadLimit)
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
	})
readloop:
	for {
		msg := new(wsMessage)
		err := c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
		if err != nil {
			c.setCloseErr(fmt.Errorf("failed to set read deadline: %w", err))
			break
		}
		err = c.ws.ReadJSON(msg)
		if err != nil {
			// Timeout/connection loss/malformed response.
			c.setCloseErr(fmt.Errorf("failed to read JSON response: %w", err))
			break
		}
		isNotification := len(msg.ID) == 0 || string(msg.ID) == "null"
		switch {
		case isNotification && msg.Method == ethrpc.SubscriptionMethod:
			h := new(result.Header)
			if err := json.Unmarshal(msg.Params.Result, h); err != nil {
				c.setCloseErr(fmt.Errorf("failed to decode notification: %w", err))
				break readloop
			}
			c.subsLock.RLock()
			rcvr, ok := c.subscriptions[msg.Params.Subscription]
			c.subsLock.RUnlock()
			if !ok {
				// Late notification for an already removed subscription.
				continue
			}
			select {
			case rcvr <- h:
			case <-c.shutdown:
				break readloop
			}
		case !isNotification:
			var id uint64
			if err := json.Unmarshal(msg.ID, &id); err != nil {
				c.setCloseErr(fmt.Errorf("failed to decode response id: %w", err))
				break readloop
			}
			c.respLock.Lock()
			ch, ok := c.respChannels[id]
			delete(c.respChannels, id)
			c.respLock.Unlock()
			if !ok {
				// The requester has given up already.
				continue
			}
			ch <- &ethrpc.Response{HeaderAndError: msg.HeaderAndError, Result: msg.Result}
		default:
			// Malformed response, neither valid notification, nor valid response.
			c.setCloseErr(errors.New("malformed message"))
			break readloop
		}
	}
	if c.closeCalled.CompareAndSwap(false, true) {
		close(c.shutdown)
	}
	close(c.done)
	c.respLock.Lock()
	clear(c.respChannels)
	c.respLock.Unlock()
	c.subsLock.Lock()
	closed := make(map[chan<- *result.Header]bool)
	for _, rcvr := range c.subscriptions {
		if !closed[rcvr] {
			closed[rcvr] = true
			close(rcvr)
		}
	}
	clear(c.subscriptions)
	c.subsLock.Unlock()
}

func (c *WSClient) wsWriter() {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer c.ws.Close()
	defer pingTicker.Stop()
	for {
		select {
		case <-c.shutdown:
			return
		case <-c.done:
			return
		case req := <-c.requests:
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.opts.RequestTimeout)); err != nil {
				c.setCloseErr(fmt.Errorf("failed to set write deadline: %w", err))
				return
			}
			if err := c.ws.WriteJSON(req); err != nil {
				c.setCloseErr(fmt.Errorf("failed to write JSON request: %w", err))
				return
			}
		case <-pingTicker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				c.setCloseErr(fmt.Errorf("failed to set write deadline: %w", err))
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				c.setCloseErr(fmt.Errorf("failed to write ping: %w", err))
				return
			}
		}
	}
}

func (c *WSClient) registerRespChannel(id uint64) chan *ethrpc.Response {
	ch := make(chan *ethrpc.Response, 1)
	c.respLock.Lock()
	c.respChannels[id] = ch
	c.respLock.Unlock()
	return ch
}

func (c *WSClient) unregisterRespChannel(id uint64) {
	c.respLock.Lock()
	delete(c.respChannels, id)
	c.respLock.Unlock()
}

func (c *WSClient) makeWsRequest(ctx context.Context, r *ethrpc.Request) (*ethrpc.Response, error) {
	ch := c.registerRespChannel(r.ID)
	defer c.unregisterRespChannel(r.ID)

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return nil, c.connLost()
	case <-ctx.Done():
		return nil, ctx.Err()
	case c.requests <- r:
	}
	select {
	case <-c.done:
		return nil, c.connLost()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("no response in %s", c.opts.RequestTimeout)
	case resp := <-ch:
		return resp, nil
	}
}

func (c *WSClient) connLost() error {
	if err := c.GetError(); err != nil {
		return fmt.Errorf("%w: %w", ErrWSConnLost, err)
	}
	return ErrWSConnLost
}

// ReceiveHeads subscribes to new block headers, they're sent to rcvr until
// Unsubscribe is called with the returned subscription id. The same receiver
// can be used for several subscriptions.
func (c *WSClient) ReceiveHeads(ctx context.Context, rcvr chan<- *result.Header) (string, error) {
	if rcvr == nil {
		return "", errors.New("nil receiver")
	}
	var id string
	if err := c.performRequest(ctx, "eth_subscribe", []any{"newHeads"}, &id); err != nil {
		return "", err
	}
	c.subsLock.Lock()
	defer c.subsLock.Unlock()
	select {
	case <-c.done:
		return "", c.connLost()
	default:
	}
	c.subscriptions[id] = rcvr
	return id, nil
}

// Unsubscribe cancels the subscription, the receiver is not closed and can be
// reused.
func (c *WSClient) Unsubscribe(ctx context.Context, id string) error {
	c.subsLock.Lock()
	_, ok := c.subscriptions[id]
	delete(c.subscriptions, id)
	c.subsLock.Unlock()
	if !ok {
		return fmt.Errorf("no subscription with ID %s", id)
	}
	var ok2 bool
	if err := c.performRequest(ctx, "eth_unsubscribe", []any{id}, &ok2); err != nil {
		return err
	}
	if !ok2 {
		return fmt.Errorf("node failed to unsubscribe %s", id)
	}
	return nil
}
