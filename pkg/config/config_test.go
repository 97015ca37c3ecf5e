package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/config/netmode"
	"github.com/nspcc-dev/eth-go/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

const goodConfig = `
ApplicationConfiguration:
  LogLevel: debug
  RPC:
    Endpoint: https://sepolia-rollup.arbitrum.io/rpc
    RequestTimeout: 10s
    ChainID: 421614
  Fee:
    Model: legacy
    GasPrice: "0.1"
  Waiter:
    Timeout: 30s
  Journal:
    Type: boltdb
    BoltDBOptions:
      FilePath: ./journal.db
`

func TestLoad(t *testing.T) {
	cfg, err := Load(strings.NewReader(goodConfig))
	require.NoError(t, err)
	app := cfg.ApplicationConfiguration
	require.Equal(t, "debug", app.LogLevel)
	require.Equal(t, netmode.ArbitrumSepolia, app.RPC.ChainID)
	require.Equal(t, 10*time.Second, app.RPC.RequestTimeout)
	// Defaults are kept for unset values.
	require.Equal(t, defaultTimeout, app.RPC.DialTimeout)
	require.Equal(t, defaultPollInterval, app.Waiter.PollInterval)
	require.Equal(t, 30*time.Second, app.Waiter.Timeout)
	require.Equal(t, dbconfig.BoltDB, app.Journal.Type)

	price, maxFee, tip, err := app.Fee.Prices()
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(100_000_000), price)
	require.Nil(t, maxFee)
	require.Nil(t, tip)

	cfg, err = Load(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "none.yml"))
	require.Error(t, err)

	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(goodConfig), 0600))
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	require.Equal(t, "legacy", cfg.ApplicationConfiguration.Fee.Model)
}

func TestLoadBad(t *testing.T) {
	for name, data := range map[string]string{
		"unknown field":    "ApplicationConfiguration:\n  PrivateKey: 0x01\n",
		"bad yaml":         "ApplicationConfiguration: [",
		"bad level":        "ApplicationConfiguration:\n  LogLevel: loud\n",
		"bad endpoint":     "ApplicationConfiguration:\n  RPC:\n    Endpoint: ftp://node\n",
		"no host":          "ApplicationConfiguration:\n  RPC:\n    Endpoint: http://\n",
		"negative timeout": "ApplicationConfiguration:\n  RPC:\n    DialTimeout: -1s\n",
		"bad model":        "ApplicationConfiguration:\n  Fee:\n    Model: cheap\n",
		"bad price":        "ApplicationConfiguration:\n  Fee:\n    GasPrice: 1e9\n",
		"mixed fees":       "ApplicationConfiguration:\n  Fee:\n    GasPrice: '1'\n    MaxFeePerGas: '2'\n",
		"tip above cap":    "ApplicationConfiguration:\n  Fee:\n    MaxFeePerGas: '1'\n    MaxPriorityFeePerGas: '2'\n",
		"bad journal":      "ApplicationConfiguration:\n  Journal:\n    Type: redis\n",
		"no journal path":  "ApplicationConfiguration:\n  Journal:\n    Type: leveldb\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(data))
			require.Error(t, err)
		})
	}
}

func TestEnv(t *testing.T) {
	t.Setenv(EnvRPCURL, "")
	p := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(p, []byte(EnvRPCURL+"=http://localhost:8545\n"), 0600))
	// Missing files are ignored.
	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "none.env")))

	require.NoError(t, os.Unsetenv(EnvRPCURL))
	require.NoError(t, LoadEnv(p))
	cfg := Default()
	cfg.ApplyEnv()
	require.Equal(t, "http://localhost:8545", cfg.ApplicationConfiguration.RPC.Endpoint)

	// Process environment takes precedence.
	t.Setenv(EnvRPCURL, "http://other:8545")
	require.NoError(t, LoadEnv(p))
	cfg.ApplyEnv()
	require.Equal(t, "http://other:8545", cfg.ApplicationConfiguration.RPC.Endpoint)
}

func TestSampleConfigs(t *testing.T) {
	files, err := filepath.Glob("../../config/*.yml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			cfg, err := LoadFile(f)
			require.NoError(t, err)
			require.NotEmpty(t, cfg.ApplicationConfiguration.RPC.Endpoint)
			require.NotZero(t, cfg.ApplicationConfiguration.RPC.ChainID)
			require.NotEmpty(t, cfg.ApplicationConfiguration.Journal.Type)
			_, _, _, err = cfg.ApplicationConfiguration.Fee.Prices()
			require.NoError(t, err)
		})
	}
}
