package config

import (
	"time"

	"github.com/nspcc-dev/eth-go/pkg/config/netmode"
	"github.com/nspcc-dev/eth-go/pkg/core/storage/dbconfig"
)

// ApplicationConfiguration config specific to the client.
type ApplicationConfiguration struct {
	// LogLevel is one of zap levels ("debug", "info", ...).
	LogLevel string `yaml:"LogLevel"`
	LogPath  string `yaml:"LogPath"`
	RPC      RPC    `yaml:"RPC"`
	Fee      Fee    `yaml:"Fee"`
	Waiter   Waiter `yaml:"Waiter"`
	// Journal is the transaction journal storage, no journal if Type is
	// empty.
	Journal dbconfig.DBConfiguration `yaml:"Journal"`
}

type (
	// RPC is the node connection configuration.
	RPC struct {
		// Endpoint is the node URL (http(s) or ws(s)). RPC_URL environment
		// variable overrides it.
		Endpoint       string        `yaml:"Endpoint"`
		DialTimeout    time.Duration `yaml:"DialTimeout"`
		RequestTimeout time.Duration `yaml:"RequestTimeout"`
		// ChainID, if set, is checked against the node's one.
		ChainID netmode.ChainID `yaml:"ChainID"`
	}

	// Fee is the fee policy. Prices are decimal gwei strings like "0.1".
	Fee struct {
		Model                string `yaml:"Model"`
		GasPrice             string `yaml:"GasPrice"`
		MaxFeePerGas         string `yaml:"MaxFeePerGas"`
		MaxPriorityFeePerGas string `yaml:"MaxPriorityFeePerGas"`
		// GasLimit is used for plain transfers, 21000 by default.
		GasLimit    uint64 `yaml:"GasLimit"`
		EstimateGas bool   `yaml:"EstimateGas"`
	}

	// Waiter is the transaction awaiting configuration.
	Waiter struct {
		PollInterval time.Duration `yaml:"PollInterval"`
		Timeout      time.Duration `yaml:"Timeout"`
	}
)
