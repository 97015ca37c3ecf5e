package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/cli/app"
	"github.com/nspcc-dev/eth-go/cli/input"
	"github.com/nspcc-dev/eth-go/internal/fakenode"
	"github.com/nspcc-dev/eth-go/internal/testchain"
	"github.com/nspcc-dev/eth-go/pkg/config"
	"github.com/nspcc-dev/eth-go/pkg/core/transaction"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

// executor represents context for a test instance.
// It can be safely used in multiple tests, but not in parallel.
type executor struct {
	// CLI is a cli application to test.
	CLI *cli.App
	// Node is a fake node to query (can be nil).
	Node *fakenode.Node
	// Out contains command output.
	Out *bytes.Buffer
	// Err contains command errors.
	Err *bytes.Buffer
	// In contains command input.
	In *bytes.Buffer
}

// oneEther is 10^18 wei.
var oneEther = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18))

func newExecutor(t *testing.T, needNode bool) *executor {
	e := &executor{
		CLI: app.New(),
		Out: bytes.NewBuffer(nil),
		Err: bytes.NewBuffer(nil),
		In:  bytes.NewBuffer(nil),
	}
	e.CLI.Writer = e.Out
	e.CLI.ErrWriter = e.Err
	if needNode {
		e.Node = fakenode.New(t, testchain.ChainID)
		e.Node.SetAutoMine(true)
		e.Node.SetBalance(testchain.SenderAddress(), new(uint256.Int).Mul(oneEther, uint256.NewInt(10)))
	}
	t.Setenv(config.EnvPrivateKey, testchain.PrivateKeyHex)
	t.Setenv(config.EnvRPCURL, "")
	t.Cleanup(func() {
		e.Close(t)
	})
	return e
}

func (e *executor) Close(t *testing.T) {
	input.Terminal = nil
}

func (e *executor) getNextLine(t *testing.T) string {
	line, err := e.Out.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func (e *executor) checkNextLine(t *testing.T, expected string) {
	line := e.getNextLine(t)
	e.checkLine(t, line, expected)
}

func (e *executor) checkLine(t *testing.T, line, expected string) {
	require.Regexp(t, expected, line)
}

func (e *executor) checkEOF(t *testing.T) {
	_, err := e.Out.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF))
}

// checkTxHash reads the transaction hash from the next output line and
// returns the transaction from the node pool.
func (e *executor) checkTxHash(t *testing.T) *transaction.Transaction {
	line := strings.TrimSpace(e.getNextLine(t))
	h, err := util.Uint256DecodeStringBE(line)
	require.NoError(t, err, "can't decode tx hash: %s", line)
	tx := e.Node.Transaction(h)
	require.NotNil(t, tx)
	return tx
}

func setExitFunc() <-chan int {
	ch := make(chan int, 1)
	cli.OsExiter = func(code int) {
		ch <- code
	}
	return ch
}

func checkExit(t *testing.T, ch <-chan int, code int) {
	select {
	case c := <-ch:
		require.Equal(t, code, c)
	default:
		if code != 0 {
			require.Fail(t, "no exit was called")
		}
	}
}

// RunWithError runs command and checks that is exits with error.
func (e *executor) RunWithError(t *testing.T, args ...string) {
	e.RunWithErrorCode(t, 1, args...)
}

// RunWithErrorCode runs command and checks that is exits with the given code.
func (e *executor) RunWithErrorCode(t *testing.T, code int, args ...string) {
	ch := setExitFunc()
	require.Error(t, e.run(args...))
	checkExit(t, ch, code)
}

// Run runs command and checks that there were no errors.
func (e *executor) Run(t *testing.T, args ...string) {
	ch := setExitFunc()
	require.NoError(t, e.run(args...))
	checkExit(t, ch, 0)
}

func (e *executor) run(args ...string) error {
	e.Out.Reset()
	e.Err.Reset()
	input.Terminal = term.NewTerminal(input.ReadWriter{
		Reader: e.In,
		Writer: io.Discard,
	}, "")
	err := e.CLI.Run(args)
	input.Terminal = nil
	e.In.Reset()
	return err
}
