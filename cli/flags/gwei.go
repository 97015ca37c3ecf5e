package flags

import (
	"flag"
	"strings"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/encoding/fixedn"
	"github.com/urfave/cli"
)

// Gwei is a price given in decimal gwei and stored in wei, it has
// flag.Value methods.
type Gwei struct {
	Value *uint256.Int
}

// GweiFlag is a flag for prices like "1.5" (gwei).
type GweiFlag struct {
	Name  string
	Usage string
	Value Gwei
}

var (
	_ flag.Value = (*Gwei)(nil)
	_ cli.Flag   = GweiFlag{}
)

// String implements the fmt.Stringer interface.
func (g Gwei) String() string {
	if g.Value == nil {
		return ""
	}
	return fixedn.ToString(g.Value, fixedn.GweiDecimals)
}

// Set implements the flag.Value interface.
func (g *Gwei) Set(s string) error {
	v, err := fixedn.FromString(s, fixedn.GweiDecimals)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	g.Value = v
	return nil
}

// String returns a readable representation of this value
// (for usage defaults).
func (f GweiFlag) String() string {
	var names []string
	eachName(f.Name, func(name string) {
		names = append(names, getNameHelp(name))
	})

	return strings.Join(names, ", ") + "\t" + f.Usage
}

// GetName returns the name of the flag.
func (f GweiFlag) GetName() string {
	return f.Name
}

// Apply populates the flag given the flag set and environment.
// Ignores errors.
func (f GweiFlag) Apply(set *flag.FlagSet) {
	eachName(f.Name, func(name string) {
		set.Var(&f.Value, name, f.Usage)
	})
}

// GweiFromContext returns the price in wei given with the flag name or nil
// if it wasn't given.
func GweiFromContext(ctx *cli.Context, name string) *uint256.Int {
	g, ok := ctx.Generic(name).(*Gwei)
	if !ok {
		return nil
	}
	return g.Value
}
