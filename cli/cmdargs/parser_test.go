package cmdargs

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	m := abi.MustParseMethod("f(address,uint256,bool,bytes2,string,int8)")
	res, err := ParseParams(m, []string{
		"0x3019826431baaacc91604a595791a2d84acf5a56",
		"0x10",
		"true",
		"0xbeef",
		"a:b c",
		"-5",
	})
	require.NoError(t, err)
	require.Len(t, res, 6)
	require.IsType(t, util.Uint160{}, res[0])
	require.Equal(t, uint256.NewInt(16), res[1])
	require.Equal(t, true, res[2])
	require.Equal(t, []byte{0xbe, 0xef}, res[3])
	require.Equal(t, "a:b c", res[4])
	require.Equal(t, "-5", abi.FormatValue(res[5]))

	data, err := m.Pack(res...)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestParseParamsErrors(t *testing.T) {
	m := abi.MustParseMethod("transfer(address,uint8)")
	errCases := map[string][]string{
		"count":     {"0x3019826431baaacc91604a595791a2d84acf5a56"},
		"address":   {"0x1234", "1"},
		"overflow":  {"0x3019826431baaacc91604a595791a2d84acf5a56", "256"},
		"negative":  {"0x3019826431baaacc91604a595791a2d84acf5a56", "-1"},
		"not a num": {"0x3019826431baaacc91604a595791a2d84acf5a56", "one"},
	}
	for name, args := range errCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseParams(m, args)
			require.Error(t, err)
		})
	}
}
