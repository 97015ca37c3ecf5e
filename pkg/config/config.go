package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	"github.com/nspcc-dev/eth-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/eth-go/pkg/rpcclient/actor"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	// EnvRPCURL is the environment variable overriding the RPC endpoint.
	EnvRPCURL = "RPC_URL"
	// EnvPrivateKey is the environment variable holding the hex-encoded
	// private key. Keys are never read from configuration files.
	EnvPrivateKey = "PRIVATE_KEY"

	// DefaultEnvFile is loaded by LoadEnv if no files are given.
	DefaultEnvFile = ".env"

	defaultTimeout      = 4 * time.Second
	defaultPollInterval = time.Second
	defaultWaitTimeout  = 2 * time.Minute
)

// Version is the version of the client, set at build time.
var Version string

// Config top level struct representing the config for the client.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			LogLevel: "info",
			RPC: RPC{
				DialTimeout:    defaultTimeout,
				RequestTimeout: defaultTimeout,
			},
			Fee: Fee{
				Model: actor.FeeModelAuto.String(),
			},
			Waiter: Waiter{
				PollInterval: defaultPollInterval,
				Timeout:      defaultWaitTimeout,
			},
		},
	}
}

// LoadFile loads config from the provided path. Values missing in the file
// are taken from Default, unknown fields are rejected. The result is
// validated.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Load(bytes.NewReader(configData))
}

// Load is the same as LoadFile, but reads the config from r.
func Load(r io.Reader) (Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// LoadEnv loads environment files (DefaultEnvFile if none given) into the
// process environment, already set variables are not overridden. Missing
// files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv applies environment overrides (RPC_URL) to the config.
func (c *Config) ApplyEnv() {
	if u := os.Getenv(EnvRPCURL); u != "" {
		c.ApplicationConfiguration.RPC.Endpoint = u
	}
}

// Validate checks the config for consistency.
func (c Config) Validate() error {
	cfg := c.ApplicationConfiguration
	if cfg.LogLevel != "" {
		if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid LogLevel: %w", err)
		}
	}
	if cfg.RPC.Endpoint != "" {
		if err := ValidateEndpoint(cfg.RPC.Endpoint); err != nil {
			return err
		}
	}
	if cfg.RPC.DialTimeout < 0 || cfg.RPC.RequestTimeout < 0 {
		return errors.New("negative RPC timeout")
	}
	if cfg.Waiter.PollInterval < 0 || cfg.Waiter.Timeout < 0 {
		return errors.New("negative Waiter interval or timeout")
	}
	if err := cfg.Fee.Validate(); err != nil {
		return fmt.Errorf("invalid Fee: %w", err)
	}
	switch cfg.Journal.Type {
	case "", dbconfig.InMemoryDB:
	case dbconfig.BoltDB:
		if cfg.Journal.BoltDBOptions.FilePath == "" {
			return errors.New("journal: BoltDB file path is not set")
		}
	case dbconfig.LevelDB:
		if cfg.Journal.LevelDBOptions.DataDirectoryPath == "" {
			return errors.New("journal: LevelDB directory is not set")
		}
	default:
		return fmt.Errorf("journal: unknown storage type %q", cfg.Journal.Type)
	}
	return nil
}

// ValidateEndpoint checks that the string is a URL the RPC client can
// connect to.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid RPC endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("invalid RPC endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid RPC endpoint %q: no host", endpoint)
	}
	return nil
}

// Validate checks fee model and prices.
func (f Fee) Validate() error {
	if _, err := actor.ParseFeeModel(f.Model); err != nil {
		return err
	}
	price, maxFee, tip, err := f.Prices()
	if err != nil {
		return err
	}
	if price != nil && (maxFee != nil || tip != nil) {
		return errors.New("both GasPrice and dynamic fee caps are set")
	}
	if maxFee != nil && tip != nil && tip.Gt(maxFee) {
		return errors.New("MaxPriorityFeePerGas exceeds MaxFeePerGas")
	}
	return nil
}

// Prices returns fee settings converted from gwei to wei, unset values are
// nil.
func (f Fee) Prices() (gasPrice, maxFee, tip *uint256.Int, err error) {
	var res [3]*uint256.Int
	for i, s := range []string{f.GasPrice, f.MaxFeePerGas, f.MaxPriorityFeePerGas} {
		if s == "" {
			continue
		}
		res[i], err = fixedn.FromString(s, fixedn.GweiDecimals)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return res[0], res[1], res[2], nil
}
