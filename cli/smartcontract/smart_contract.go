package smartcontract

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/nspcc-dev/eth-go/cli/cmdargs"
	"github.com/nspcc-dev/eth-go/cli/flags"
	"github.com/nspcc-dev/eth-go/cli/options"
	"github.com/nspcc-dev/eth-go/cli/txctx"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/erc20"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/urfave/cli"
)

var (
	contractFlag = flags.AddressFlag{
		Name:  "contract, c",
		Usage: "Contract address (required)",
	}
	abiFlag = cli.StringFlag{
		Name:  "abi",
		Usage: "Contract JSON ABI file, the method is then given by name",
	}
)

// NewCommands returns 'contract' command.
func NewCommands() []cli.Command {
	callFlags := append([]cli.Flag{
		contractFlag,
		abiFlag,
		flags.AddressFlag{
			Name:  "from",
			Usage: "Call sender address",
		},
		cli.Uint64Flag{
			Name:  "height",
			Usage: "Block number to perform the call at (the latest block by default)",
		},
	}, options.RPC...)
	callFlags = append(callFlags, options.Common...)
	tokenFlags := append([]cli.Flag{contractFlag}, options.RPC...)
	tokenFlags = append(tokenFlags, options.Common...)
	return []cli.Command{{
		Name:  "contract",
		Usage: "Call and invoke smart contracts",
		Subcommands: []cli.Command{
			{
				Name:      "call",
				Usage:     "Perform a read-only call of a contract method",
				UsageText: "eth-go contract call -r endpoint --contract <hash> [--abi <file>] [--from <addr>] [--height <n>] <method> [<arg>...]",
				Description: `Calls the method without creating a transaction and prints the values
   returned, one per line. Reverted calls exit with 2 printing the revert
   reason.

` + cmdargs.ParamsParsingDoc,
				Action: contractCall,
				Flags:  callFlags,
			},
			{
				Name:      "invoke",
				Usage:     "Invoke a contract method with a transaction",
				UsageText: "eth-go contract invoke -r endpoint --contract <hash> [--abi <file>] [--value <ether>] [--await] [fee flags] <method> [<arg>...]",
				Description: `Creates, signs and sends a transaction calling the method. See
   'wallet transfer' for fee flags, --await and exit codes.

` + cmdargs.ParamsParsingDoc,
				Action: contractInvoke,
				Flags: txctx.Flags(contractFlag, abiFlag, cli.StringFlag{
					Name:  "value",
					Usage: "Ether to send with the call",
				}),
			},
			{
				Name:      "token",
				Usage:     "Print ERC-20 token metadata",
				UsageText: "eth-go contract token -r endpoint --contract <hash>",
				Action:    tokenInfo,
				Flags:     tokenFlags,
			},
		},
	}}
}

func getContract(ctx *cli.Context) (util.Uint160, *abi.Contract, *cli.ExitError) {
	hash, ok := flags.AddressFromContext(ctx, "contract")
	if !ok {
		return util.Uint160{}, nil, cli.NewExitError(errors.New("contract address is required (--contract)"), options.ExitGeneric)
	}
	path := ctx.String(abiFlag.Name)
	if path == "" {
		return hash, nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return hash, nil, cli.NewExitError(fmt.Errorf("failed to read ABI: %w", err), options.ExitGeneric)
	}
	c, err := abi.ParseJSON(data)
	if err != nil {
		return hash, nil, cli.NewExitError(err, options.ExitGeneric)
	}
	return hash, c, nil
}

func contractCall(ctx *cli.Context) error {
	hash, contract, exitErr := getContract(ctx)
	if exitErr != nil {
		return exitErr
	}
	m, params, exitErr := cmdargs.GetMethodFromContext(ctx, contract)
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

	var from *util.Uint160
	if f, ok := flags.AddressFromContext(ctx, "from"); ok {
		from = &f
	}
	inv := invoker.New(c, from)
	if ctx.IsSet("height") {
		inv = invoker.NewHistoricAtHeight(ctx.Uint64("height"), c, from)
	}

	if len(m.Outputs) == 0 {
		data, err := m.Pack(params...)
		if err != nil {
			return cli.NewExitError(err, options.ExitGeneric)
		}
		out, err := inv.Call(gctx, hash, data)
		if err != nil {
			return callError(err)
		}
		_, _ = fmt.Fprintln(ctx.App.Writer, hexutil.Encode(out))
		return nil
	}
	res, err := inv.CallMethod(gctx, hash, m, params...)
	if err != nil {
		return callError(err)
	}
	for _, v := range res {
		_, _ = fmt.Fprintln(ctx.App.Writer, abi.FormatValue(v))
	}
	return nil
}

func callError(err error) error {
	var nodeErr *ethrpc.Error
	if errors.As(err, &nodeErr) && nodeErr.IsReverted() {
		return cli.NewExitError(fmt.Errorf("execution reverted: %s", nodeErr.Reason()), options.ExitReverted)
	}
	return options.NewExitError(err)
}

func contractInvoke(ctx *cli.Context) error {
	hash, contract, exitErr := getContract(ctx)
	if exitErr != nil {
		return exitErr
	}
	m, params, exitErr := cmdargs.GetMethodFromContext(ctx, contract)
	if exitErr != nil {
		return exitErr
	}
	data, err := m.Pack(params...)
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	req := transaction.NewCallRequest(hash, data)
	if v := ctx.String("value"); v != "" {
		req.Value, err = fixedn.FromString(v, fixedn.EtherDecimals)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("invalid value: %w", err), options.ExitGeneric)
		}
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, options.ExitGeneric)
	}
	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()

	a, j, closer, exitCoder := options.GetRPCWithActor(gctx, ctx, cfg)
	if exitCoder != nil {
		return exitCoder
	}
	defer closer()
	return txctx.SignAndSend(ctx, a, j, req)
}

func tokenInfo(ctx *cli.Context) error {
	if err := cmdargs.EnsureNone(ctx); err != nil {
		return err
	}
	hash, _, exitErr := getContract(ctx)
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

	info, err := erc20.NewReader(invoker.New(c, nil), hash).Info(gctx)
	if err != nil {
		return options.NewExitError(err)
	}
	tw := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "Name:\t%s\n", info.Name)
	_, _ = fmt.Fprintf(tw, "Symbol:\t%s\n", info.Symbol)
	_, _ = fmt.Fprintf(tw, "Decimals:\t%d\n", info.Decimals)
	_, _ = fmt.Fprintf(tw, "TotalSupply:\t%s\n", info.FormatAmount(info.TotalSupply))
	return tw.Flush()
}
