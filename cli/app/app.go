package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/eth-go/cli/query"
	"github.com/nspcc-dev/eth-go/cli/smartcontract"
	"github.com/nspcc-dev/eth-go/cli/util"
	"github.com/nspcc-dev/eth-go/cli/wallet"
	"github.com/nspcc-dev/eth-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "eth-go\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an eth-go instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "eth-go"
	ctl.Version = config.Version
	ctl.Usage = "Ethereum JSON-RPC client"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, query.NewCommands()...)
	ctl.Commands = append(ctl.Commands, wallet.NewCommands()...)
	ctl.Commands = append(ctl.Commands, smartcontract.NewCommands()...)
	ctl.Commands = append(ctl.Commands, util.NewCommands()...)
	return ctl
}
