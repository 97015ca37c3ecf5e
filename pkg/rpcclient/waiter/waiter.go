/*
Package waiter provides transaction awaiting functionality: given a hash of a
submitted transaction it waits for the transaction to be included into a block
and returns its receipt.

Two implementations are available: PollingBased periodically asks the node for
a receipt while EventBased uses new block notifications of a websocket client
to recheck receipts on every block and falls back to polling if notifications
are not available. Both are bounded by a timeout measured with an injected
clock and by the context passed to Wait. A timeout doesn't mean the
transaction failed, its outcome is unknown at this point.
*/
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc/result"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"go.uber.org/zap"
)

const (
	// DefaultPollRetryCount is a threshold for a number of subsequent failed
	// attempts to get receipts from the RPC server. If polling fails
	// DefaultPollRetryCount times in a row then transaction awaiting attempt
	// is considered to be failed and an error is returned.
	DefaultPollRetryCount = 3
	// DefaultPollInterval is the default interval between receipt polls.
	DefaultPollInterval = time.Second
	// DefaultTimeout is the default time to wait for a receipt.
	DefaultTimeout = 2 * time.Minute
)

var (
	// ErrTimedOut is returned when no receipt was found during the configured
	// timeout. The transaction may still be included later.
	ErrTimedOut = errors.New("timed out waiting for receipt")
	// ErrContextDone is returned when Waiter context has been done in the middle
	// of transaction awaiting process and no result was received yet.
	ErrContextDone = errors.New("waiter context done")
	// ErrAwaitingNotSupported is returned from Wait method if Waiter instance
	// doesn't support transaction awaiting. It's compatible with [errors.ErrUnsupported].
	ErrAwaitingNotSupported = fmt.Errorf("%w: awaiting", errors.ErrUnsupported)
	// ErrMissedEvent is returned when the websocket client closes the receiver
	// channel which happens if the connection is lost.
	ErrMissedEvent = errors.New("some event was missed")
)

type (
	// Waiter is an interface providing transaction awaiting functionality.
	Waiter interface {
		// Wait allows to wait until transaction will be included into a block.
		// It can be used as a wrapper for Send or SignAndSend and accepts
		// transaction hash and an error. It returns the transaction receipt
		// or an error if the receipt wasn't found. Notice that "already known"
		// err value is not treated as an error by this routine because it
		// means that the transaction given might be already in the pool.
		Wait(ctx context.Context, h util.Uint256, err error) (*result.Receipt, error)
		// WaitAny waits until at least one of the specified transactions is
		// included into a block. It returns the receipt of this transaction or
		// an error if none of them was found until timeout.
		WaitAny(ctx context.Context, hashes ...util.Uint256) (*result.Receipt, error)
	}
	// RPCPollingBased is an interface that enables transaction awaiting
	// functionality based on periodical receipt polls.
	RPCPollingBased interface {
		GetTransactionReceipt(ctx context.Context, h util.Uint256) (*result.Receipt, error)
	}
	// RPCEventBased is an interface that enables improved transaction awaiting
	// functionality based on websocket new block notifications. RPCEventBased
	// contains RPCPollingBased under the hood and falls back to polling when
	// subscription-based awaiting fails.
	RPCEventBased interface {
		RPCPollingBased

		ReceiveHeads(ctx context.Context, rcvr chan<- *result.Header) (string, error)
		Unsubscribe(ctx context.Context, id string) error
	}
)

// Config is a unified configuration for [Waiter] implementations that allows
// to customize awaiting behaviour.
type Config struct {
	PollConfig
	// Logger is used to report fallbacks and unsubscription problems. No
	// logging if nil.
	Logger *zap.Logger
}

// PollConfig is a configuration for PollingBased waiter.
type PollConfig struct {
	// PollInterval is a time interval between subsequent polls,
	// DefaultPollInterval if not set.
	PollInterval time.Duration
	// Timeout limits the time of a single Wait or WaitAny call,
	// DefaultTimeout if not set.
	Timeout time.Duration
	// RetryCount is the number of retry attempts while fetching receipts
	// before an error is returned from Wait or WaitAny.
	RetryCount int
	// Clock measures intervals and timeouts, the real clock if not set.
	Clock clock.Clock
}

// Null is a Waiter stub that doesn't support transaction awaiting functionality.
type Null struct{}

// PollingBased is a polling-based Waiter.
type PollingBased struct {
	polling RPCPollingBased
	config  PollConfig
}

// EventBased is a websocket-based Waiter.
type EventBased struct {
	ws      RPCEventBased
	polling *PollingBased
	log     *zap.Logger
}

// New creates Waiter instance. It can be either websocket-based or
// polling-base, otherwise Waiter stub is returned. As a first argument
// it accepts RPCEventBased implementation, RPCPollingBased implementation
// or not an implementation of these two interfaces. It returns websocket-based
// waiter, polling-based waiter or a stub correspondingly.
func New(base any, config Config) Waiter {
	if eventW, ok := base.(RPCEventBased); ok {
		return NewEventBased(eventW, config)
	}
	if pollW, ok := base.(RPCPollingBased); ok {
		return NewPollingBased(pollW, config.PollConfig)
	}
	return NewNull()
}

// NewNull creates an instance of Waiter stub.
func NewNull() Null {
	return Null{}
}

// Wait implements Waiter interface.
func (Null) Wait(ctx context.Context, h util.Uint256, err error) (*result.Receipt, error) {
	return nil, ErrAwaitingNotSupported
}

// WaitAny implements Waiter interface.
func (Null) WaitAny(ctx context.Context, hashes ...util.Uint256) (*result.Receipt, error) {
	return nil, ErrAwaitingNotSupported
}

// NewPollingBased creates an instance of Waiter supporting poll-based
// transaction awaiting. Defaults are used for unset config values.
func NewPollingBased(waiter RPCPollingBased, config PollConfig) *PollingBased {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RetryCount <= 0 {
		config.RetryCount = DefaultPollRetryCount
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	return &PollingBased{
		polling: waiter,
		config:  config,
	}
}

// Config returns the effective configuration of the waiter.
func (w *PollingBased) Config() PollConfig {
	return w.config
}

// Wait implements Waiter interface.
func (w *PollingBased) Wait(ctx context.Context, h util.Uint256, err error) (*result.Receipt, error) {
	if err != nil && !ethrpc.IsAlreadyKnown(err) {
		return nil, err
	}
	return w.WaitAny(ctx, h)
}

// WaitAny implements Waiter interface.
func (w *PollingBased) WaitAny(ctx context.Context, hashes ...util.Uint256) (*result.Receipt, error) {
	return w.waitAny(ctx, w.config.Timeout, hashes)
}

func (w *PollingBased) waitAny(ctx context.Context, timeout time.Duration, hashes []util.Uint256) (*result.Receipt, error) {
	var failedAttempt int

	ticker := w.config.Clock.Ticker(w.config.PollInterval)
	defer ticker.Stop()
	timer := w.config.Clock.Timer(timeout)
	defer timer.Stop()

	for {
		res, err := w.poll(ctx, hashes)
		if res != nil {
			return res, nil
		}
		if err != nil {
			failedAttempt++
			if failedAttempt > w.config.RetryCount {
				return nil, fmt.Errorf("failed to retrieve receipt: %w", err)
			}
		} else {
			failedAttempt = 0
		}
		select {
		case <-ticker.C:
		case <-timer.C:
			return nil, fmt.Errorf("%w: no receipt in %s", ErrTimedOut, timeout)
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, ctx.Err())
		}
	}
}

// poll does a single receipt check for all hashes. It returns the first
// receipt found and the last error encountered.
func (w *PollingBased) poll(ctx context.Context, hashes []util.Uint256) (*result.Receipt, error) {
	var lastErr error
	for _, h := range hashes {
		res, err := w.polling.GetTransactionReceipt(ctx, h)
		if err != nil {
			lastErr = err
			continue
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, lastErr
}

// NewEventBased creates an instance of Waiter supporting websocket event-based
// transaction awaiting. EventBased contains PollingBased under the hood and
// falls back to polling when subscription-based awaiting fails. Defaults are
// used for unset config values.
func NewEventBased(waiter RPCEventBased, config Config) *EventBased {
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &EventBased{
		ws:      waiter,
		polling: NewPollingBased(waiter, config.PollConfig),
		log:     log,
	}
}

// Wait implements Waiter interface.
func (w *EventBased) Wait(ctx context.Context, h util.Uint256, err error) (*result.Receipt, error) {
	if err != nil && !ethrpc.IsAlreadyKnown(err) {
		return nil, err
	}
	return w.WaitAny(ctx, h)
}

// WaitAny implements Waiter interface.
func (w *EventBased) WaitAny(ctx context.Context, hashes ...util.Uint256) (*result.Receipt, error) {
	var (
		cfg      = w.polling.config
		deadline = cfg.Clock.Now().Add(cfg.Timeout)
		hRcvr    = make(chan *result.Header, 2)
	)
	id, err := w.ws.ReceiveHeads(ctx, hRcvr)
	if err != nil {
		w.log.Debug("failed to subscribe for new heads, polling", zap.Error(err))
		return w.polling.waitAny(ctx, cfg.Timeout, hashes)
	}

	res, wsErr, waitErr := w.waitHeads(ctx, hRcvr, cfg.Timeout, hashes)
	w.unsubscribe(id, hRcvr)
	if wsErr != nil {
		w.log.Debug("subscription-based awaiting failed, polling", zap.Error(wsErr))
		return w.polling.waitAny(ctx, max(deadline.Sub(cfg.Clock.Now()), time.Nanosecond), hashes)
	}
	return res, waitErr
}

// waitHeads rechecks receipts on every new block. wsErr is returned when the
// subscription is broken and polling should be used instead.
func (w *EventBased) waitHeads(ctx context.Context, hRcvr chan *result.Header, timeout time.Duration, hashes []util.Uint256) (res *result.Receipt, wsErr error, waitErr error) {
	var failedAttempt int

	timer := w.polling.config.Clock.Timer(timeout)
	defer timer.Stop()

	// There is a potential race between subscription and inclusion, so
	// do a polling check once right after the subscription.
	for {
		r, err := w.polling.poll(ctx, hashes)
		if r != nil {
			return r, nil, nil
		}
		if err != nil {
			failedAttempt++
			if failedAttempt > w.polling.config.RetryCount {
				return nil, nil, fmt.Errorf("failed to retrieve receipt: %w", err)
			}
		} else {
			failedAttempt = 0
		}
		select {
		case _, ok := <-hRcvr:
			if !ok {
				return nil, ErrMissedEvent, nil
			}
		case <-timer.C:
			return nil, nil, fmt.Errorf("%w: no receipt in %s", ErrTimedOut, timeout)
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("%w: %w", ErrContextDone, ctx.Err())
		}
	}
}

// unsubscribe cancels the subscription draining the receiver to avoid
// blocking the websocket reader meanwhile.
func (w *EventBased) unsubscribe(id string, hRcvr chan *result.Header) {
	var unsubErr = make(chan error, 1)
	go func() {
		// The caller's context may be done already.
		unsubErr <- w.ws.Unsubscribe(context.Background(), id)
	}()
	for {
		select {
		case _, ok := <-hRcvr:
			if !ok {
				hRcvr = nil
			}
		case err := <-unsubErr:
			if err != nil {
				w.log.Debug("failed to unsubscribe", zap.String("id", id), zap.Error(err))
			}
			return
		}
	}
}
