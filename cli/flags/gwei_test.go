package flags

import (
	"flag"
	"io"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestGwei_Set(t *testing.T) {
	var g Gwei
	require.Equal(t, "", g.String())

	require.NoError(t, g.Set("1.5"))
	require.Equal(t, uint256.NewInt(1500000000), g.Value)
	require.Equal(t, "1.5", g.String())

	require.NoError(t, g.Set("0.000000001"))
	require.Equal(t, uint256.NewInt(1), g.Value)

	require.Error(t, g.Set("0.0000000001"))
	require.Error(t, g.Set("-1"))
	require.Error(t, g.Set("one"))
}

func TestGweiFlag(t *testing.T) {
	f := flag.NewFlagSet("", flag.ContinueOnError)
	f.SetOutput(io.Discard)
	gf := GweiFlag{Name: "gas-price, g", Usage: "price"}
	require.Equal(t, "--gas-price value, -g value\tprice", gf.String())
	gf.Apply(f)
	require.NoError(t, f.Parse([]string{"-g", "20"}))
	require.Equal(t, "20", f.Lookup("gas-price").Value.String())
	require.Error(t, f.Parse([]string{"--gas-price", "x"}))
}

func TestMarkRequired(t *testing.T) {
	fs := MarkRequired([]cli.Flag{
		cli.StringFlag{Name: "amount"},
		cli.BoolFlag{Name: "await"},
		GweiFlag{Name: "tip"},
	}, "amount")
	require.True(t, fs[0].(cli.StringFlag).Required)
	require.False(t, fs[1].(cli.BoolFlag).Required)
	require.Equal(t, "tip", fs[2].GetName())
}
