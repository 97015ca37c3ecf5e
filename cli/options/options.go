/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/cli/flags"
	"github.com/nspcc-dev/eth-go/cli/input"
	"github.com/nspcc-dev/eth-go/pkg/config"
	"github.com/nspcc-dev/eth-go/pkg/config/netmode"
	"github.com/nspcc-dev/eth-go/pkg/core/journal"
	"github.com/nspcc-dev/eth-go/pkg/core/storage"
	"github.com/nspcc-dev/eth-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/waiter"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/nspcc-dev/eth-go/pkg/wallet"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultTimeout is the default timeout used for RPC requests.
	DefaultTimeout = 10 * time.Second
	// DefaultAwaitableTimeout is the default timeout used for RPC requests that
	// require transaction awaiting. It covers the default receipt waiting
	// time and the requests made before.
	DefaultAwaitableTimeout = waiter.DefaultTimeout + DefaultTimeout
)

// Process exit codes. Failures that leave the outcome of a transaction
// unknown have their own code, the transaction may still be included.
const (
	ExitGeneric  = 1
	ExitReverted = 2
	ExitUnknown  = 3
	ExitNetwork  = 4
)

// RPCEndpointFlag is a long flag name for an RPC endpoint. It can be used to
// check for flag presence in the context.
const RPCEndpointFlag = "rpc-endpoint"

// RPC is a set of flags used for RPC connections (endpoint and timeout).
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "RPC node address (overrides " + config.EnvRPCURL + " and the configuration)",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Value: DefaultTimeout,
		Usage: "Timeout for the operation",
	},
}

// ConfigFile is a flag for commands that use client configuration.
var ConfigFile = cli.StringFlag{
	Name:  "config-file",
	Usage: "path to the client configuration file (defaults are used if not given)",
}

// EnvFile is a flag to load environment variables from.
var EnvFile = cli.StringFlag{
	Name:  "env-file",
	Usage: "file with environment variables (" + config.EnvRPCURL + ", " + config.EnvPrivateKey + "), " + config.DefaultEnvFile + " by default",
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (overrides configuration)",
}

// Journal is a flag to use a BoltDB transaction journal file.
var Journal = cli.StringFlag{
	Name:  "journal-path",
	Usage: "path to the BoltDB transaction journal (overrides configuration)",
}

// Await is a flag for commands that can wait for transaction inclusion.
var Await = cli.BoolFlag{
	Name:  "await",
	Usage: "wait for the transaction to be included into a block",
}

// Fee is a set of flags to override fees and gas of a single transaction.
var Fee = []cli.Flag{
	flags.GweiFlag{
		Name:  "gas-price",
		Usage: "legacy gas price in gwei (conflicts with --max-fee and --tip)",
	},
	flags.GweiFlag{
		Name:  "max-fee",
		Usage: "max fee per gas in gwei, makes a dynamic fee transaction",
	},
	flags.GweiFlag{
		Name:  "tip",
		Usage: "max priority fee per gas in gwei, makes a dynamic fee transaction",
	},
	cli.Uint64Flag{
		Name:  "gas",
		Usage: "gas limit (estimated by default)",
	},
	cli.StringFlag{
		Name:  "nonce",
		Usage: "transaction nonce (pending transaction count by default)",
	},
}

// Common is a set of flags used by all commands talking to nodes.
var Common = []cli.Flag{ConfigFile, EnvFile, Debug}

var (
	errNoEndpoint     = errors.New("no RPC endpoint specified, use option '--" + RPCEndpointFlag + "', '-r' or " + config.EnvRPCURL + " environment variable")
	errConflictingFee = errors.New("--gas-price conflicts with --max-fee and --tip")
)

// RPCClient is the node client used by commands, it's either an HTTP one or
// a websocket one depending on the endpoint.
type RPCClient interface {
	actor.RPCActor

	GetBalance(ctx context.Context, account util.Uint160) (*uint256.Int, error)
	GetBlockNumber(ctx context.Context) (uint64, error)
	CallAtHeight(ctx context.Context, msg ethrpc.CallMsg, height uint64) ([]byte, error)
	Close()
}

// GetTimeoutContext returns a context.Context with the default or a user-set timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	if !ctx.IsSet("timeout") && ctx.Bool("await") {
		dur = DefaultAwaitableTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// GetConfigFromContext returns the configuration for the command: the file
// given with --config-file (or defaults), environment overrides and flag
// overrides applied in this order. Environment files are loaded here too.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	var envFiles []string
	if f := ctx.String(EnvFile.Name); f != "" {
		if _, err := os.Stat(f); err != nil {
			return config.Config{}, fmt.Errorf("env file: %w", err)
		}
		envFiles = append(envFiles, f)
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		return config.Config{}, err
	}
	var (
		cfg = config.Default()
		err error
	)
	if f := ctx.String(ConfigFile.Name); f != "" {
		cfg, err = config.LoadFile(f)
		if err != nil {
			return config.Config{}, err
		}
	}
	cfg.ApplyEnv()
	if endpoint := ctx.String(RPCEndpointFlag); endpoint != "" {
		cfg.ApplicationConfiguration.RPC.Endpoint = endpoint
	}
	if p := ctx.String(Journal.Name); p != "" {
		cfg.ApplicationConfiguration.Journal = dbconfig.DBConfiguration{
			Type:          dbconfig.BoltDB,
			BoltDBOptions: dbconfig.BoltDBOptions{FilePath: p},
		}
	}
	return cfg, cfg.Validate()
}

// GetRPCClient returns an RPC client instance for the given configuration.
// Websocket client is used for ws:// and wss:// endpoints. If the
// configuration has a chain id, it's checked against the node's one.
func GetRPCClient(gctx context.Context, cfg config.Config) (RPCClient, cli.ExitCoder) {
	rpcCfg := cfg.ApplicationConfiguration.RPC
	if len(rpcCfg.Endpoint) == 0 {
		return nil, cli.NewExitError(errNoEndpoint, ExitGeneric)
	}
	opts := rpcclient.Options{
		DialTimeout:    rpcCfg.DialTimeout,
		RequestTimeout: rpcCfg.RequestTimeout,
	}
	var (
		c   RPCClient
		err error
	)
	if strings.HasPrefix(rpcCfg.Endpoint, "ws") {
		c, err = rpcclient.NewWS(gctx, rpcCfg.Endpoint, opts)
	} else {
		c, err = rpcclient.New(rpcCfg.Endpoint, opts)
	}
	if err != nil {
		return nil, NewExitError(err)
	}
	if rpcCfg.ChainID != 0 {
		id, err := c.GetChainID(gctx)
		if err != nil {
			c.Close()
			return nil, NewExitError(fmt.Errorf("chain id: %w", err))
		}
		if netmode.ChainID(id) != rpcCfg.ChainID {
			c.Close()
			return nil, cli.NewExitError(fmt.Errorf("node is on %s chain, %s is configured", netmode.ChainID(id), rpcCfg.ChainID), ExitGeneric)
		}
	}
	return c, nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
// The function returns the logger, its level and a sync function that must
// be called before exit.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, func() error, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, nil, nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	if err != nil {
		return nil, nil, nil, err
	}
	return log, &cc.Level, log.Sync, nil
}

// GetLogger returns a logger configured by the context flags and the
// configuration. Errors are returned as cli.ExitCoder.
func GetLogger(ctx *cli.Context, cfg config.Config) (*zap.Logger, cli.ExitCoder) {
	log, _, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, cli.NewExitError(err, ExitGeneric)
	}
	return log, nil
}

// GetAccount returns the account to sign transactions with. The key is taken
// from the PRIVATE_KEY environment variable, it's requested from the user if
// the variable is not set.
func GetAccount() (*wallet.Account, error) {
	key := os.Getenv(config.EnvPrivateKey)
	if key == "" {
		var err error
		key, err = input.ReadPassword("Enter private key > ")
		if err != nil {
			return nil, fmt.Errorf("error reading private key: %w", err)
		}
	}
	acc, err := wallet.NewAccountFromHex(strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return acc, nil
}

// GetJournal opens the transaction journal configured, it returns nil if
// there is none.
func GetJournal(cfg config.Config, log *zap.Logger) (*journal.Journal, error) {
	jCfg := cfg.ApplicationConfiguration.Journal
	if jCfg.Type == "" {
		return nil, nil
	}
	store, err := storage.NewStore(jCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	j, err := journal.New(store, journal.Options{Logger: log})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return j, nil
}

// GetActorOptions converts the fee and waiter configuration into Actor
// options.
func GetActorOptions(cfg config.Config, log *zap.Logger) (actor.Options, error) {
	var (
		appCfg = cfg.ApplicationConfiguration
		opts   = actor.NewDefaultOptions()
		err    error
	)
	opts.FeeModel, err = actor.ParseFeeModel(appCfg.Fee.Model)
	if err != nil {
		return opts, err
	}
	opts.GasPrice, opts.MaxFeePerGas, opts.MaxPriorityFeePerGas, err = appCfg.Fee.Prices()
	if err != nil {
		return opts, err
	}
	if appCfg.Fee.GasLimit != 0 {
		opts.DefaultGas = appCfg.Fee.GasLimit
	}
	opts.EstimateGas = appCfg.Fee.EstimateGas
	opts.Waiter = waiter.Config{
		PollConfig: waiter.PollConfig{
			PollInterval: appCfg.Waiter.PollInterval,
			Timeout:      appCfg.Waiter.Timeout,
		},
		Logger: log,
	}
	opts.Logger = log
	return opts, nil
}

// GetActor creates an Actor for the account using the configuration. The
// journal, if not nil, receives transaction states.
func GetActor(gctx context.Context, c RPCClient, acc *wallet.Account, cfg config.Config, j *journal.Journal, log *zap.Logger) (*actor.Actor, cli.ExitCoder) {
	opts, err := GetActorOptions(cfg, log)
	if err != nil {
		return nil, cli.NewExitError(err, ExitGeneric)
	}
	if j != nil {
		opts.Tracker = j
	}
	a, err := actor.New(gctx, c, acc, opts)
	if err != nil {
		return nil, NewExitError(fmt.Errorf("failed to create Actor: %w", err))
	}
	return a, nil
}

// ApplyFeeFlags sets fee, gas and nonce of the request from the command
// flags (see Fee), unset flags leave the request intact.
func ApplyFeeFlags(ctx *cli.Context, r *transaction.Request) error {
	var (
		price  = flags.GweiFromContext(ctx, "gas-price")
		maxFee = flags.GweiFromContext(ctx, "max-fee")
		tip    = flags.GweiFromContext(ctx, "tip")
	)
	switch {
	case price != nil && (maxFee != nil || tip != nil):
		return errConflictingFee
	case price != nil:
		r.WithGasPrice(price)
	case maxFee != nil || tip != nil:
		r.WithDynamicFee(maxFee, tip)
	}
	if ctx.IsSet("gas") {
		r.WithGas(ctx.Uint64("gas"))
	}
	if s := ctx.String("nonce"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid nonce: %w", err)
		}
		r.WithNonce(n)
	}
	return nil
}

// ExitCode returns the process exit code for the error: ExitReverted for
// reverted executions, ExitUnknown for receipt waiting failures, ExitNetwork
// for network failures (including requests cut by the timeout) and
// ExitGeneric for anything else.
func ExitCode(err error) int {
	var nodeErr *ethrpc.Error
	switch {
	case errors.As(err, &nodeErr) && nodeErr.IsReverted():
		return ExitReverted
	case errors.Is(err, waiter.ErrTimedOut), errors.Is(err, waiter.ErrContextDone):
		return ExitUnknown
	case errors.Is(err, rpcclient.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		return ExitNetwork
	default:
		return ExitGeneric
	}
}

// ExitCodeForState returns the process exit code for the transaction state,
// 0 for confirmed and submitted (not awaited) transactions.
func ExitCodeForState(s actor.State) int {
	switch s {
	case actor.StateConfirmed, actor.StateSubmitted:
		return 0
	case actor.StateFailed:
		return ExitReverted
	case actor.StateTimedOut:
		return ExitUnknown
	default:
		return ExitGeneric
	}
}

// NewExitError wraps the error into cli.ExitError with the code returned by
// ExitCode.
func NewExitError(err error) *cli.ExitError {
	return cli.NewExitError(err, ExitCode(err))
}

// GetRPCWithActor creates an RPC client, an account, a journal (if
// configured) and an Actor for the given context. The function returned
// releases all of them.
func GetRPCWithActor(gctx context.Context, ctx *cli.Context, cfg config.Config) (*actor.Actor, *journal.Journal, func(), cli.ExitCoder) {
	log, exitErr := GetLogger(ctx, cfg)
	if exitErr != nil {
		return nil, nil, nil, exitErr
	}
	acc, err := GetAccount()
	if err != nil {
		return nil, nil, nil, cli.NewExitError(err, ExitGeneric)
	}
	c, exitErr := GetRPCClient(gctx, cfg)
	if exitErr != nil {
		acc.Close()
		return nil, nil, nil, exitErr
	}
	j, err := GetJournal(cfg, log)
	if err != nil {
		c.Close()
		acc.Close()
		return nil, nil, nil, cli.NewExitError(err, ExitGeneric)
	}
	closer := func() {
		if j != nil {
			_ = j.Close()
		}
		c.Close()
		acc.Close()
		_ = log.Sync()
	}
	a, exitErr := GetActor(gctx, c, acc, cfg, j, log)
	if exitErr != nil {
		closer()
		return nil, nil, nil, exitErr
	}
	return a, j, closer, nil
}
