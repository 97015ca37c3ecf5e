package cmdargs

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/urfave/cli"
)

// ParamsParsingDoc is a documentation for parameters parsing.
const ParamsParsingDoc = `   The first argument is the method signature in the "name(types)(return types)"
   form, like "balanceOf(address)(uint256)". Return types are optional, the
   raw return data is printed if they're omitted. If the contract ABI is given
   with --abi, the first argument is the method name, overloaded methods are
   selected by signature like "safeTransferFrom(address,address,uint256)".
   The rest of arguments are method parameters, their types are taken from
   the signature:
    * 'uintN' and 'intN' values are decimal or 0x-prefixed hex integers that
      fit into N bits.
    * 'address' values are 0x-prefixed hex addresses, mixed-case addresses
      must have a valid checksum.
    * 'bool' values are 'true' and 'false'.
    * 'bytesN' and 'bytes' values are hex-encoded, 'bytesN' ones must have
      exactly N bytes.
    * 'string' values are taken as is.

   Examples:
    * "transfer(address,uint256)(bool)" 0x3019826431baaacc91604a595791a2d84acf5a56 1000
    * "name()(string)"
`

// GetMethodFromContext parses the method and its parameters from positional
// arguments. The first argument is the method signature or, if the contract
// interface is given, the method name.
func GetMethodFromContext(ctx *cli.Context, c *abi.Contract) (*abi.Method, []any, *cli.ExitError) {
	args := ctx.Args()
	if !args.Present() {
		return nil, nil, cli.NewExitError("method is required", 1)
	}
	var (
		m   *abi.Method
		err error
	)
	if c != nil {
		m, err = c.Method(args.First())
	} else {
		m, err = abi.ParseMethod(args.First())
	}
	if err != nil {
		return nil, nil, cli.NewExitError(err, 1)
	}
	params, err := ParseParams(m, args.Tail())
	if err != nil {
		return nil, nil, cli.NewExitError(fmt.Errorf("%s: %w", m.Name, err), 1)
	}
	return m, params, nil
}

// ParseParams converts textual arguments into values of the method parameter
// types.
func ParseParams(m *abi.Method, args []string) ([]any, error) {
	types := m.InputTypes()
	if len(args) != len(types) {
		return nil, fmt.Errorf("%d arguments given for %d parameters", len(args), len(types))
	}
	res := make([]any, len(args))
	for i, t := range types {
		v, err := t.ParseValue(args[i])
		if err != nil {
			return nil, fmt.Errorf("failed to parse argument #%d (%s): %w", i+1, t, err)
		}
		res[i] = v
	}
	return res, nil
}

// EnsureNone returns an error if there are any positional arguments present.
// It can be used to check for them in commands that don't accept arguments.
func EnsureNone(ctx *cli.Context) *cli.ExitError {
	if ctx.Args().Present() {
		return cli.NewExitError("additional arguments given while this command expects none", 1)
	}
	return nil
}

// GetHashFromContext returns the only positional argument parsed as a
// transaction hash.
func GetHashFromContext(ctx *cli.Context) (util.Uint256, *cli.ExitError) {
	args := ctx.Args()
	switch {
	case len(args) == 0:
		return util.Uint256{}, cli.NewExitError(errors.New("transaction hash is required"), 1)
	case len(args) > 1:
		return util.Uint256{}, cli.NewExitError(errors.New("only one transaction hash is accepted"), 1)
	}
	h, err := util.Uint256DecodeStringBE(args[0])
	if err != nil {
		return util.Uint256{}, cli.NewExitError(fmt.Errorf("invalid transaction hash: %w", err), 1)
	}
	return h, nil
}
