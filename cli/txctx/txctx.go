/*
Package txctx contains helper functions that deal with transactions in CLI context.
*/
package txctx

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nspcc-dev/eth-go/cli/options"
	"github.com/nspcc-dev/eth-go/pkg/core/journal"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/actor"
	"github.com/urfave/cli"
)

// Flags returns the flags of commands sending transactions with the given
// command-specific ones first.
func Flags(own ...cli.Flag) []cli.Flag {
	res := append(own, options.Await, options.Journal)
	res = append(res, options.Fee...)
	res = append(res, options.RPC...)
	return append(res, options.Common...)
}

// SignAndSend fills the request (with fee flags applied), signs and sends
// it. With --await it waits for the transaction to be included and prints
// the result, otherwise the hash is printed right after submission. States
// are saved to the journal if it's not nil. The error returned carries the
// process exit code, see options.ExitCode.
func SignAndSend(ctx *cli.Context, a *actor.Actor, j *journal.Journal, req *transaction.Request) error {
	if err := options.ApplyFeeFlags(ctx, req); err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	if ctx.Bool("await") {
		o, err := a.Execute(gctx, req)
		if o.State >= actor.StateSigned {
			DumpOutcome(ctx.App.Writer, o)
		}
		if !o.State.IsFinal() {
			return options.NewExitError(err)
		}
		return outcomeError(o)
	}

	tx, err := a.MakeTransaction(gctx, req)
	if err != nil {
		return options.NewExitError(err)
	}
	o := &actor.Outcome{State: actor.StateSigned, Hash: tx.Hash(), Tx: tx}
	track(ctx, j, o)
	_, err = a.Send(gctx, tx)
	switch {
	case err == nil, ethrpc.IsAlreadyKnown(err):
		o.State = actor.StateSubmitted
	case errors.Is(err, ethrpc.ErrNode):
		o.State, o.Err = actor.StateRejected, err
	default:
		o.State, o.Err = actor.StateTimedOut, err
	}
	track(ctx, j, o)
	if o.State != actor.StateRejected {
		_, _ = fmt.Fprintln(ctx.App.Writer, tx.Hash())
	}
	return outcomeError(o)
}

// outcomeError returns nil for successful outcomes and an error with the exit
// code of the state otherwise.
func outcomeError(o *actor.Outcome) error {
	code := options.ExitCodeForState(o.State)
	if code == 0 {
		return nil
	}
	err := o.Err
	switch o.State {
	case actor.StateFailed:
		err = errors.New("transaction reverted")
	case actor.StateTimedOut:
		err = fmt.Errorf("transaction outcome is unknown: %w", err)
	}
	return cli.NewExitError(err, code)
}

func track(ctx *cli.Context, j *journal.Journal, o *actor.Outcome) {
	if j == nil {
		return
	}
	if err := j.Track(*o); err != nil {
		_, _ = fmt.Fprintf(ctx.App.ErrWriter, "failed to journal transaction %s: %s\n", o.Hash, err)
	}
}

// DumpOutcome prints the transaction state and its receipt if there is one.
func DumpOutcome(w io.Writer, o *actor.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "Hash:\t%s\n", o.Hash)
	_, _ = fmt.Fprintf(tw, "State:\t%s\n", o.State)
	if o.Receipt != nil {
		_, _ = fmt.Fprintf(tw, "Block:\t%d\n", o.Receipt.BlockNumber)
		_, _ = fmt.Fprintf(tw, "GasUsed:\t%d\n", o.Receipt.GasUsed)
		if fee, err := o.Receipt.Fee(); err == nil {
			_, _ = fmt.Fprintf(tw, "Fee:\t%s ETH\n", fixedn.ToString(fee, fixedn.EtherDecimals))
		}
	}
	_ = tw.Flush()
}
