package query

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/nspcc-dev/eth-go/cli/cmdargs"
	"github.com/nspcc-dev/eth-go/cli/flags"
	"github.com/nspcc-dev/eth-go/cli/options"
	"github.com/nspcc-dev/eth-go/pkg/config/netmode"
	"github.com/nspcc-dev/eth-go/pkg/core/journal"
	"github.com/nspcc-dev/eth-go/pkg/encoding/address"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc/result"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/erc20"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/invoker"
	"github.com/urfave/cli"
)

// NewCommands returns 'query' command.
func NewCommands() []cli.Command {
	queryFlags := append(options.RPC, options.Common...)
	balanceFlags := append([]cli.Flag{
		flags.AddressFlag{
			Name:  "address, a",
			Usage: "Account to query (required)",
		},
		flags.AddressFlag{
			Name:  "token",
			Usage: "ERC-20 token contract to query the balance of instead of ether",
		},
	}, queryFlags...)
	journalFlags := append([]cli.Flag{
		options.Journal,
		cli.BoolFlag{
			Name:  "resolve",
			Usage: "Check receipts of pending transactions and update their states",
		},
		cli.BoolFlag{
			Name:  "all",
			Usage: "List all transactions, not only pending ones",
		},
	}, queryFlags...)
	return []cli.Command{{
		Name:  "query",
		Usage: "Query data from RPC node",
		Subcommands: []cli.Command{
			{
				Name:   "chain",
				Usage:  "Query chain id and the latest block",
				Action: queryChain,
				Flags:  queryFlags,
			},
			{
				Name:      "balance",
				Usage:     "Query ether or token balance of an account",
				UsageText: "eth-go query balance -r endpoint --address <addr> [--token <hash>]",
				Action:    queryBalance,
				Flags:     balanceFlags,
			},
			{
				Name:   "gasprice",
				Usage:  "Query current gas price, priority fee and base fee",
				Action: queryGasPrice,
				Flags:  queryFlags,
			},
			{
				Name:      "tx",
				Usage:     "Query transaction status",
				UsageText: "eth-go query tx -r endpoint <hash>",
				Action:    queryTx,
				Flags:     queryFlags,
			},
			{
				Name:      "journal",
				Usage:     "List journaled transactions",
				UsageText: "eth-go query journal --journal-path <file> [--all] [--resolve -r endpoint]",
				Description: `Lists pending (signed, submitted or timed out) transactions from the
   transaction journal. With --resolve receipts of pending transactions are
   requested from the node and included ones are marked as confirmed or
   failed.
`,
				Action: queryJournal,
				Flags:  journalFlags,
			},
		},
	}}
}

func queryChain(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	id, err := c.GetChainID(gctx)
	if err != nil {
		return options.NewExitError(err)
	}
	h, err := c.GetLatestHeader(gctx)
	if err != nil {
		return options.NewExitError(err)
	}

	tw := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "ChainID:\t%d (%s)\n", id, netmode.ChainID(id))
	_, _ = fmt.Fprintf(tw, "Block:\t%d\n", h.Number)
	_, _ = fmt.Fprintf(tw, "BlockHash:\t%s\n", h.Hash)
	if h.BaseFee != nil {
		_, _ = fmt.Fprintf(tw, "BaseFee:\t%s gwei\n", fixedn.ToString(h.BaseFee, fixedn.GweiDecimals))
	}
	return tw.Flush()
}

func queryBalance(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	acc, ok := flags.AddressFromContext(ctx, "address")
	if !ok {
		return cli.NewExitError("account address is required", options.ExitGeneric)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	token, isToken := flags.AddressFromContext(ctx, "token")
	if !isToken {
		b, err := c.GetBalance(gctx, acc)
		if err != nil {
			return options.NewExitError(err)
		}
		_, _ = fmt.Fprintf(ctx.App.Writer, "%s ETH\n", fixedn.ToString(b, fixedn.EtherDecimals))
		return nil
	}

	reader := erc20.NewReader(invoker.New(c, nil), token)
	info, err := reader.Info(gctx)
	if err != nil {
		return options.NewExitError(fmt.Errorf("failed to get token info: %w", err))
	}
	b, err := reader.BalanceOf(gctx, acc)
	if err != nil {
		return options.NewExitError(err)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "%s %s\n", info.FormatAmount(b), info.Symbol)
	return nil
}

func queryGasPrice(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, exitErr := options.GetRPCClient(gctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	price, err := c.GetGasPrice(gctx)
	if err != nil {
		return options.NewExitError(err)
	}
	h, err := c.GetLatestHeader(gctx)
	if err != nil {
		return options.NewExitError(err)
	}

	tw := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "GasPrice:\t%s gwei\n", fixedn.ToString(price, fixedn.GweiDecimals))
	if h.BaseFee != nil {
		tip, err := c.GetMaxPriorityFeePerGas(gctx)
		if err != nil {
			return options.NewExitError(err)
		}
		_, _ = fmt.Fprintf(tw, "BaseFee:\t%s gwei\n", fixedn.ToString(h.BaseFee, fixedn.GweiDecimals))
		_, _ = fmt.Fprintf(tw, "PriorityFee:\t%s gwei\n", fixedn.ToString(tip, fixedn.GweiDecimals))
	}
	return tw.Flush()
}

func queryTx(ctx *cli.Context) error {
	h, exitErr := cmdargs.GetHashFromContext(ctx)
	if exitErr != nil {
		return exitErr
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	c, ec := options.GetRPCClient(gctx, cfg)
	if ec != nil {
		return ec
	}
	defer c.Close()

	rec, err := c.GetTransactionReceipt(gctx, h)
	if err != nil {
		return options.NewExitError(err)
	}
	dumpReceipt(ctx, h, rec)
	return nil
}

func dumpReceipt(ctx *cli.Context, h fmt.Stringer, rec *result.Receipt) {
	buf := bytes.NewBuffer(nil)

	// Ignore the errors below because `Write` to buffer doesn't return error.
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = tw.Write([]byte("Hash:\t" + h.String() + "\n"))
	_, _ = tw.Write([]byte(fmt.Sprintf("OnChain:\t%t\n", rec != nil)))
	if rec != nil {
		_, _ = tw.Write([]byte("BlockHash:\t" + rec.BlockHash.String() + "\n"))
		_, _ = tw.Write([]byte("Block:\t" + strconv.FormatUint(rec.BlockNumber, 10) + "\n"))
		_, _ = tw.Write([]byte(fmt.Sprintf("Success:\t%t\n", rec.Succeeded())))
		_, _ = tw.Write([]byte("From:\t" + address.Uint160ToString(rec.From) + "\n"))
		if rec.To != nil {
			_, _ = tw.Write([]byte("To:\t" + address.Uint160ToString(*rec.To) + "\n"))
		}
		_, _ = tw.Write([]byte("GasUsed:\t" + strconv.FormatUint(rec.GasUsed, 10) + "\n"))
		if fee, err := rec.Fee(); err == nil {
			_, _ = tw.Write([]byte("Fee:\t" + fixedn.ToString(fee, fixedn.EtherDecimals) + " ETH\n"))
		}
	}
	_ = tw.Flush()
	_, _ = fmt.Fprint(ctx.App.Writer, buf.String())
}

func queryJournal(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	log, exitErr := options.GetLogger(ctx, cfg)
	if exitErr != nil {
		return exitErr
	}
	defer func() { _ = log.Sync() }()

	j, err := options.GetJournal(cfg, log)
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	if j == nil {
		return cli.NewExitError(errors.New("no journal configured, use --"+options.Journal.Name), options.ExitGeneric)
	}
	defer func() { _ = j.Close() }()

	if ctx.Bool("resolve") {
		gctx, cancel := options.GetTimeoutContext(ctx)
		defer cancel()

		c, exitErr := options.GetRPCClient(gctx, cfg)
		if exitErr != nil {
			return exitErr
		}
		defer c.Close()

		resolved, err := j.Resolve(gctx, c)
		if err != nil {
			return options.NewExitError(err)
		}
		_, _ = fmt.Fprintf(ctx.App.Writer, "Resolved: %d\n", len(resolved))
	}

	var records []*journal.Record
	if ctx.Bool("all") {
		records, err = j.List()
	} else {
		records, err = j.Pending()
	}
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	tw := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 4, '\t', 0)
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Hash, r.Tx.Nonce(), r.State)
	}
	return tw.Flush()
}
