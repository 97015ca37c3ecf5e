package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/eth-go/cli/options"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/encoding/address"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/waiter"
	"github.com/urfave/cli"
)

var units = map[string]int{
	"wei":   0,
	"gwei":  fixedn.GweiDecimals,
	"ether": fixedn.EtherDecimals,
}

// NewCommands returns util commands for eth-go CLI.
func NewCommands() []cli.Command {
	sendFlags := append([]cli.Flag{options.Await}, options.RPC...)
	sendFlags = append(sendFlags, options.Common...)
	return []cli.Command{
		{
			Name:  "util",
			Usage: "Various helper commands",
			Subcommands: []cli.Command{
				{
					Name:  "convert",
					Usage: "Convert an amount between wei, gwei and ether",
					UsageText: `convert [--unit <unit>] <amount>

<amount> is a decimal number in the given unit (ether by default), it's
        printed in wei, gwei and ether.`,
					Action: handleConvert,
					Flags: []cli.Flag{cli.StringFlag{
						Name:  "unit, u",
						Value: "ether",
						Usage: "Unit of the amount: wei, gwei or ether",
					}},
				},
				{
					Name:      "checksum",
					Usage:     "Print the checksummed form of an address",
					UsageText: "checksum <address>",
					Action:    handleChecksum,
				},
				{
					Name:      "sendtx",
					Usage:     "Send a signed raw transaction",
					UsageText: "sendtx -r <endpoint> [--await] <hex>",
					Description: `Sends the hex-encoded signed transaction (as produced by any wallet)
   to the given RPC node. If the --await flag is included, the command waits
   for the transaction to be included in a block before exiting.
`,
					Action: sendTx,
					Flags:  sendFlags,
				},
			},
		},
	}
}

func handleConvert(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("exactly one amount is expected", 1)
	}
	unit := strings.ToLower(ctx.String("unit"))
	precision, ok := units[unit]
	if !ok {
		return cli.NewExitError(fmt.Errorf("unknown unit %q", unit), 1)
	}
	v, err := fixedn.FromString(ctx.Args().First(), precision)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, u := range []string{"wei", "gwei", "ether"} {
		_, _ = fmt.Fprintf(ctx.App.Writer, "%s %s\n", fixedn.ToString(v, units[u]), u)
	}
	return nil
}

func handleChecksum(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("exactly one address is expected", 1)
	}
	u, err := address.StringToUint160(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	_, _ = fmt.Fprintln(ctx.App.Writer, address.Uint160ToString(u))
	return nil
}

func sendTx(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("exactly one transaction is expected", 1)
	}
	raw, err := hexutil.Decode(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid transaction hex: %w", err), 1)
	}
	tx, err := transaction.NewTransactionFromBytes(raw)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	_, err = c.SendRawTransaction(gctx, tx)
	switch {
	case err == nil, ethrpc.IsAlreadyKnown(err):
	case errors.Is(err, ethrpc.ErrNode):
		return options.NewExitError(fmt.Errorf("failed to submit transaction: %w", err))
	default:
		_, _ = fmt.Fprintln(ctx.App.Writer, tx.Hash())
		return cli.NewExitError(fmt.Errorf("transaction outcome is unknown: %w", err), options.ExitUnknown)
	}
	_, _ = fmt.Fprintln(ctx.App.Writer, tx.Hash())
	if !ctx.Bool("await") {
		return nil
	}
	w := waiter.New(c, waiter.Config{PollConfig: waiter.PollConfig{
		PollInterval: cfg.ApplicationConfiguration.Waiter.PollInterval,
		Timeout:      cfg.ApplicationConfiguration.Waiter.Timeout,
	}})
	rec, err := w.Wait(gctx, tx.Hash(), nil)
	if err != nil {
		return options.NewExitError(err)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "Block: %d\nSuccess: %t\n", rec.BlockNumber, rec.Succeeded())
	if !rec.Succeeded() {
		return cli.NewExitError("transaction reverted", options.ExitReverted)
	}
	return nil
}
