package actor

import (
	"context"
	"errors"

	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"go.uber.org/zap"
)

// Execute runs the whole transaction lifecycle for the request: it fills a
// copy of it, signs, submits and waits for the receipt. The returned Outcome
// is never nil and carries the last state reached:
//
//   - Draft or Filled with an error if the request can't be completed or
//     signed;
//   - Rejected with a node error (*ethrpc.Error) if the node refused the
//     transaction;
//   - TimedOut with an error if the submission failed at the network level
//     or the receipt wasn't received in time (the outcome is unknown then);
//   - Confirmed or Failed (reverted) without error, with a receipt.
//
// The same error is returned as Outcome.Err. Submission is not retried.
func (a *Actor) Execute(ctx context.Context, req *transaction.Request) (*Outcome, error) {
	var (
		o   = &Outcome{State: StateDraft}
		r   = req.Copy()
		log = a.log
	)
	if err := a.Fill(ctx, r); err != nil {
		return a.fail(o, err)
	}
	o.State = StateFilled
	if err := a.opts.Modifier(r); err != nil {
		return a.fail(o, err)
	}
	tx, err := a.Sign(r)
	if err != nil {
		return a.fail(o, err)
	}
	o.State, o.Tx, o.Hash = StateSigned, tx, tx.Hash()
	log = log.With(zap.Stringer("hash", o.Hash), zap.Uint64("nonce", tx.Nonce()))
	a.track(log, o)

	_, err = a.Send(ctx, tx)
	switch {
	case err == nil:
	case ethrpc.IsAlreadyKnown(err):
		log.Debug("transaction is already known to the node", zap.Error(err))
	case errors.Is(err, ethrpc.ErrNode):
		log.Info("transaction rejected", zap.Error(err))
		o.State, o.Err = StateRejected, err
		a.track(log, o)
		return o, err
	default:
		// It could have reached the node.
		log.Warn("transaction submission outcome is unknown", zap.Error(err))
		o.State, o.Err = StateTimedOut, err
		a.track(log, o)
		return o, err
	}
	o.State = StateSubmitted
	log.Info("transaction submitted")
	a.track(log, o)

	rec, err := a.Wait(ctx, o.Hash, nil)
	if err != nil {
		log.Warn("transaction outcome is unknown", zap.Error(err))
		o.State, o.Err = StateTimedOut, err
		a.track(log, o)
		return o, err
	}
	o.Receipt = rec
	if rec.Succeeded() {
		o.State = StateConfirmed
	} else {
		o.State = StateFailed
	}
	log.Info("transaction included",
		zap.Stringer("state", o.State),
		zap.Uint64("block", rec.BlockNumber),
		zap.Uint64("gas used", rec.GasUsed))
	a.track(log, o)
	return o, nil
}

func (a *Actor) fail(o *Outcome, err error) (*Outcome, error) {
	a.log.Debug("transaction not created", zap.Stringer("state", o.State), zap.Error(err))
	o.Err = err
	return o, err
}

func (a *Actor) track(log *zap.Logger, o *Outcome) {
	if a.opts.Tracker == nil {
		return
	}
	if err := a.opts.Tracker.Track(*o); err != nil {
		log.Warn("failed to track transaction", zap.Stringer("state", o.State), zap.Error(err))
	}
}
