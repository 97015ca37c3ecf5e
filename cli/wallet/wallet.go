package wallet

import (
	"context"
	"fmt"

	"github.com/nspcc-dev/eth-go/cli/cmdargs"
	"github.com/nspcc-dev/eth-go/cli/flags"
	"github.com/nspcc-dev/eth-go/cli/options"
	"github.com/nspcc-dev/eth-go/cli/txctx"
	"github.com/nspcc-dev/eth-go/pkg/core/journal"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/encoding/address"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/erc20"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/urfave/cli"
)

var (
	toAddrFlag = flags.AddressFlag{
		Name:  "to, t",
		Usage: "Address to send the funds to (required)",
	}
	tokenFlag = flags.AddressFlag{
		Name:  "token",
		Usage: "ERC-20 token contract to transfer instead of ether",
	}
	amountFlag = cli.StringFlag{
		Name:     "amount",
		Usage:    "Amount to send in ether or in token units (required)",
		Required: true,
	}
)

// NewCommands returns 'wallet' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "wallet",
		Usage: "Manage the signing account and send funds",
		Subcommands: []cli.Command{
			{
				Name:  "address",
				Usage: "Print the address of the signing account",
				Description: `Prints the checksummed address of the key given with PRIVATE_KEY
   environment variable (that can also be set in an environment file) or
   entered interactively.
`,
				Action: printAddress,
				Flags:  []cli.Flag{options.EnvFile},
			},
			{
				Name:      "transfer",
				Usage:     "Send ether or ERC-20 tokens",
				UsageText: "eth-go wallet transfer -r endpoint --to <addr> --amount <amount> [--token <hash>] [--gas-price <gwei> | --max-fee <gwei> --tip <gwei>] [--gas <limit>] [--nonce <n>] [--await] [--journal-path <file>]",
				Description: `Transfers ether or ERC-20 tokens to the given address. The amount is a
   decimal number in ether (or token units for --token transfers, their
   decimals are requested from the token contract). Fees, gas limit and nonce
   are taken from the node unless given explicitly.

   Without --await the transaction hash is printed once the node accepts the
   transaction. With --await the command waits for the transaction to be
   included into a block and exits with 2 if it's reverted and with 3 if its
   outcome is unknown (it may be included later).
`,
				Action: transfer,
				Flags:  txctx.Flags(toAddrFlag, tokenFlag, amountFlag),
			},
			{
				Name:      "estimate",
				Usage:     "Estimate the maximum fee of a transfer",
				UsageText: "eth-go wallet estimate -r endpoint --to <addr> --amount <amount> [--token <hash>]",
				Action:    estimate,
				Flags:     txctx.Flags(toAddrFlag, tokenFlag, amountFlag),
			},
		},
	}}
}

func printAddress(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	if _, err := options.GetConfigFromContext(ctx); err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	acc, err := options.GetAccount()
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	defer acc.Close()
	_, _ = fmt.Fprintln(ctx.App.Writer, address.Uint160ToString(acc.Address()))
	return nil
}

func transfer(ctx *cli.Context) error {
	return withTransferRequest(ctx, func(a *actor.Actor, j *journal.Journal, req *transaction.Request) error {
		return txctx.SignAndSend(ctx, a, j, req)
	})
}

func estimate(ctx *cli.Context) error {
	return withTransferRequest(ctx, func(a *actor.Actor, _ *journal.Journal, req *transaction.Request) error {
		if err := options.ApplyFeeFlags(ctx, req); err != nil {
			return cli.NewExitError(err, options.ExitGeneric)
		}
		gctx, cancel := options.GetTimeoutContext(ctx)
		defer cancel()
		fee, err := a.EstimateFee(gctx, req)
		if err != nil {
			return options.NewExitError(err)
		}
		_, _ = fmt.Fprintf(ctx.App.Writer, "%s ETH\n", fixedn.ToString(fee, fixedn.EtherDecimals))
		return nil
	})
}

// withTransferRequest creates an Actor and a transfer request from the
// command flags and passes them to f.
func withTransferRequest(ctx *cli.Context, f func(*actor.Actor, *journal.Journal, *transaction.Request) error) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	to, ok := flags.AddressFromContext(ctx, "to")
	if !ok {
		return cli.NewExitError("missing receiver address (--to)", options.ExitGeneric)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	a, j, closer, exitErr := options.GetRPCWithActor(gctx, ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer closer()

	req, err := makeTransferRequest(gctx, ctx, a, to)
	if err != nil {
		return err
	}
	return f(a, j, req)
}

func makeTransferRequest(gctx context.Context, ctx *cli.Context, a *actor.Actor, to util.Uint160) (*transaction.Request, error) {
	token, isToken := flags.AddressFromContext(ctx, "token")
	if !isToken {
		amount, err := fixedn.FromString(ctx.String("amount"), fixedn.EtherDecimals)
		if err != nil {
			return nil, cli.NewExitError(fmt.Errorf("invalid amount: %w", err), options.ExitGeneric)
		}
		return transaction.NewTransferRequest(to, amount), nil
	}
	tok := erc20.New(a, token)
	info, err := tok.Info(gctx)
	if err != nil {
		return nil, options.NewExitError(fmt.Errorf("failed to get token info: %w", err))
	}
	amount, err := info.ParseAmount(ctx.String("amount"))
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("invalid amount: %w", err), options.ExitGeneric)
	}
	req, err := tok.TransferRequest(to, amount)
	if err != nil {
		return nil, cli.NewExitError(err, options.ExitGeneric)
	}
	return req, nil
}
