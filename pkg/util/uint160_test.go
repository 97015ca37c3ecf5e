package util_test

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint160UnmarshalJSON(t *testing.T) {
	str := "f6febd05224397e58cfd604220b31f84c089a2e1"
	expected, err := util.Uint160DecodeStringBE(str)
	require.NoError(t, err)

	var u1, u2 util.Uint160
	require.NoError(t, u1.UnmarshalJSON([]byte(`"0x`+str+`"`)))
	assert.True(t, expected.Equals(u1))

	require.NoError(t, u2.UnmarshalJSON([]byte(`"0xF6FEBD05224397E58CFD604220B31F84C089A2E1"`)))
	assert.Equal(t, expected, u2)

	data, err := json.Marshal(expected)
	require.NoError(t, err)
	assert.Equal(t, `"0x`+str+`"`, string(data))

	assert.Error(t, u2.UnmarshalJSON([]byte(`123`)))
}

func TestUint160DecodeString(t *testing.T) {
	hexStr := "3019826431baaacc91604a595791a2d84acf5a56"
	val, err := util.Uint160DecodeStringBE(hexStr)
	require.NoError(t, err)
	assert.Equal(t, hexStr, val.StringBE())
	assert.Equal(t, "0x"+hexStr, val.String())

	_, err = util.Uint160DecodeStringBE(hexStr[1:])
	assert.Error(t, err)

	_, err = util.Uint160DecodeStringBE("zz19826431baaacc91604a595791a2d84acf5a56")
	assert.Error(t, err)
}

func TestUint160DecodeBytes(t *testing.T) {
	b, err := hex.DecodeString("3019826431baaacc91604a595791a2d84acf5a56")
	require.NoError(t, err)

	val, err := util.Uint160DecodeBytesBE(b)
	require.NoError(t, err)
	assert.Equal(t, b, val.BytesBE())

	_, err = util.Uint160DecodeBytesBE(b[1:])
	assert.Error(t, err)
}

func TestUint160Compare(t *testing.T) {
	a := util.Uint160{1}
	b := util.Uint160{2}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Equals(b))
	assert.True(t, util.Uint160{}.IsZero())
	assert.False(t, a.IsZero())
}
