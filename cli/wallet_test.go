package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/cli/options"
	"github.com/nspcc-dev/eth-go/internal/fakenode"
	"github.com/nspcc-dev/eth-go/internal/testchain"
	"github.com/nspcc-dev/eth-go/pkg/config"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/ethrpc"
	"github.com/stretchr/testify/require"
)

func TestWalletAddress(t *testing.T) {
	e := newExecutor(t, false)

	t.Run("from environment", func(t *testing.T) {
		e.Run(t, "eth-go", "wallet", "address")
		e.checkNextLine(t, "^"+testchain.SenderAddressString+"$")
		e.checkEOF(t)
	})
	t.Run("interactive", func(t *testing.T) {
		t.Setenv(config.EnvPrivateKey, "")
		e.In.WriteString(testchain.PrivateKeyHex + "\r")
		e.Run(t, "eth-go", "wallet", "address")
		e.checkNextLine(t, "^"+testchain.SenderAddressString+"$")
		e.checkEOF(t)
	})
	t.Run("invalid key", func(t *testing.T) {
		t.Setenv(config.EnvPrivateKey, "0xdeadbeef")
		e.RunWithError(t, "eth-go", "wallet", "address")
	})
	t.Run("missing env file", func(t *testing.T) {
		e.RunWithError(t, "eth-go", "wallet", "address", "--env-file", filepath.Join(t.TempDir(), "nope.env"))
	})
	t.Run("extra arguments", func(t *testing.T) {
		e.RunWithError(t, "eth-go", "wallet", "address", "something")
	})
}

func TestWalletTransfer(t *testing.T) {
	e := newExecutor(t, true)
	recipient := testchain.RecipientAddress()
	args := []string{"eth-go", "wallet", "transfer",
		"--rpc-endpoint", e.Node.URL(),
		"--to", testchain.RecipientAddressString,
	}

	t.Run("await", func(t *testing.T) {
		e.Run(t, append(args, "--amount", "1.5", "--await")...)
		e.checkNextLine(t, `^Hash:\s+0x[0-9a-f]{64}$`)
		e.checkNextLine(t, `^State:\s+confirmed$`)
		e.checkNextLine(t, `^Block:\s+\d+$`)
		e.checkNextLine(t, `^GasUsed:\s+21000$`)
		e.checkNextLine(t, `^Fee:\s+[0-9.]+ ETH$`)
		e.checkEOF(t)

		expected := new(uint256.Int).Mul(oneEther, uint256.NewInt(15))
		expected.Div(expected, uint256.NewInt(10))
		require.Equal(t, expected, e.Node.Balance(recipient))
	})

	t.Run("no await", func(t *testing.T) {
		e.Node.SetAutoMine(false)
		t.Cleanup(func() { e.Node.SetAutoMine(true) })

		e.Run(t, append(args, "--amount", "0.25")...)
		tx := e.checkTxHash(t)
		e.checkEOF(t)
		require.Equal(t, transaction.DynamicFeeTxType, tx.Type())
		require.Equal(t, uint64(1), tx.Nonce())
		require.Equal(t, testchain.ChainID, tx.ChainID())
		require.Len(t, e.Node.Pool(), 1)
		e.Node.Mine()
	})

	t.Run("explicit fees", func(t *testing.T) {
		e.Run(t, append(args, "--amount", "0.1", "--gas-price", "2", "--gas", "30000")...)
		tx := e.checkTxHash(t)
		require.Equal(t, transaction.LegacyTxType, tx.Type())
		require.Equal(t, uint256.NewInt(2000000000), tx.GasPrice())
		require.Equal(t, uint64(30000), tx.Gas())
	})

	t.Run("conflicting fees", func(t *testing.T) {
		e.RunWithError(t, append(args, "--amount", "0.1", "--gas-price", "2", "--tip", "1")...)
	})

	t.Run("invalid amount", func(t *testing.T) {
		e.RunWithError(t, append(args, "--amount", "1.2.3")...)
	})

	t.Run("rejected", func(t *testing.T) {
		e.Node.FailNext("eth_sendRawTransaction", ethrpc.NewError(ethrpc.ServerErrorCode, "insufficient funds for gas * price + value", nil))
		e.RunWithError(t, append(args, "--amount", "0.1", "--await")...)
		e.checkNextLine(t, `^Hash:\s+0x[0-9a-f]{64}$`)
		e.checkNextLine(t, `^State:\s+rejected$`)
		e.checkEOF(t)
	})

	t.Run("network failure on submission", func(t *testing.T) {
		e.Node.FailNext("eth_sendRawTransaction", fakenode.ErrHTTP)
		e.RunWithErrorCode(t, options.ExitUnknown, append(args, "--amount", "0.1")...)
		e.checkNextLine(t, `^0x[0-9a-f]{64}$`)
	})

	t.Run("no endpoint", func(t *testing.T) {
		e.RunWithError(t, "eth-go", "wallet", "transfer", "--to", testchain.RecipientAddressString, "--amount", "1")
	})
}

func TestWalletTransferToken(t *testing.T) {
	e := newExecutor(t, true)
	token := fakenode.NewToken("Test USD", "TUSD", 6)
	token.Mint(testchain.SenderAddress(), uint256.NewInt(100_000_000))
	e.Node.Deploy(testchain.TokenAddress(), token)

	args := []string{"eth-go", "wallet", "transfer",
		"--rpc-endpoint", e.Node.URL(),
		"--to", testchain.RecipientAddressString,
		"--token", testchain.TokenAddressString,
		"--await",
	}

	t.Run("good", func(t *testing.T) {
		e.Run(t, append(args, "--amount", "2.5")...)
		e.checkNextLine(t, `^Hash:`)
		e.checkNextLine(t, `^State:\s+confirmed$`)
		require.Equal(t, uint256.NewInt(2_500_000), token.BalanceOf(testchain.RecipientAddress()))
		require.Equal(t, uint256.NewInt(97_500_000), token.BalanceOf(testchain.SenderAddress()))
	})

	t.Run("too precise", func(t *testing.T) {
		e.RunWithError(t, append(args, "--amount", "0.0000001")...)
	})

	t.Run("reverted", func(t *testing.T) {
		e.RunWithErrorCode(t, options.ExitReverted, append(args, "--amount", "1000")...)
		require.Equal(t, uint256.NewInt(97_500_000), token.BalanceOf(testchain.SenderAddress()))
	})
}

func TestWalletEstimate(t *testing.T) {
	e := newExecutor(t, true)
	args := []string{"eth-go", "wallet", "estimate",
		"--rpc-endpoint", e.Node.URL(),
		"--to", testchain.RecipientAddressString,
		"--amount", "1",
	}

	// 21000 * (2 * 0.01 gwei base fee + 1 wei tip).
	e.Run(t, args...)
	e.checkNextLine(t, `^0\.000000420000021 ETH$`)
	e.checkEOF(t)

	e.Run(t, append(args, "--gas-price", "1")...)
	e.checkNextLine(t, `^0\.000021 ETH$`)
	e.checkEOF(t)
	require.Empty(t, e.Node.Pool())
}

func TestWalletJournal(t *testing.T) {
	e := newExecutor(t, true)
	e.Node.SetAutoMine(false)
	jPath := filepath.Join(t.TempDir(), "journal.db")

	e.Run(t, "eth-go", "wallet", "transfer",
		"--rpc-endpoint", e.Node.URL(),
		"--journal-path", jPath,
		"--to", testchain.RecipientAddressString,
		"--amount", "0.5")
	tx := e.checkTxHash(t)

	e.Run(t, "eth-go", "query", "journal", "--journal-path", jPath)
	e.checkNextLine(t, `^`+tx.Hash().String()+`\s+0\s+submitted$`)
	e.checkEOF(t)

	e.Node.Mine()
	e.Run(t, "eth-go", "query", "journal", "--journal-path", jPath, "--resolve", "--rpc-endpoint", e.Node.URL())
	e.checkNextLine(t, `^Resolved: 1$`)
	e.checkEOF(t)

	e.Run(t, "eth-go", "query", "journal", "--journal-path", jPath, "--all")
	e.checkNextLine(t, `^`+tx.Hash().String()+`\s+0\s+confirmed$`)
	e.checkEOF(t)

	t.Run("rejected", func(t *testing.T) {
		e.RunWithError(t, "eth-go", "wallet", "transfer",
			"--rpc-endpoint", e.Node.URL(),
			"--journal-path", jPath,
			"--to", testchain.RecipientAddressString,
			"--amount", "0.7",
			"--nonce", "0")
		e.checkEOF(t)

		e.Run(t, "eth-go", "query", "journal", "--journal-path", jPath, "--resolve", "--rpc-endpoint", e.Node.URL())
		e.checkNextLine(t, `^Resolved: 0$`)
		e.checkEOF(t)

		e.Run(t, "eth-go", "query", "journal", "--journal-path", jPath, "--all")
		lines := []string{e.getNextLine(t), e.getNextLine(t)}
		e.checkEOF(t)
		// Records are ordered by hash.
		if !strings.HasSuffix(lines[0], "confirmed") {
			lines[0], lines[1] = lines[1], lines[0]
		}
		e.checkLine(t, lines[0], `^`+tx.Hash().String()+`\s+0\s+confirmed$`)
		e.checkLine(t, lines[1], `^0x[0-9a-f]{64}\s+0\s+rejected$`)
	})

	t.Run("no journal", func(t *testing.T) {
		e.RunWithError(t, "eth-go", "query", "journal")
	})
}
