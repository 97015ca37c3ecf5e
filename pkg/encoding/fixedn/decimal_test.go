package fixedn

import (
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	testCases := []struct {
		in        string
		precision int
		out       string
	}{
		{"0", 18, "0"},
		{"0.0", 18, "0"},
		{"0.001", 18, "1000000000000000"},
		{"1", 18, "1000000000000000000"},
		{"1.5", 0x12, "1500000000000000000"},
		{"0000.10", 2, "10"},
		{"12.3400", 2, "1234"},
		{"0.1", 9, "100000000"},
		{"42", 0, "42"},
		{"115792089237316195423570985008687907853269984665640564039457584007913129639935", 0,
			"115792089237316195423570985008687907853269984665640564039457584007913129639935"},
	}
	for _, tc := range testCases {
		v, err := FromString(tc.in, tc.precision)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.out, v.Dec(), tc.in)
	}
}

func TestFromStringErrors(t *testing.T) {
	for _, s := range []string{"", ".", "1.", ".5", "-1", "+1", "1e18", " 1", "1 ", "1,5", "0x10", "1.2.3", "abc"} {
		_, err := FromString(s, 18)
		require.ErrorIs(t, err, ErrInvalidFormat, s)
	}

	_, err := FromString("0.123", 2)
	require.ErrorIs(t, err, ErrInvalidFormat)

	_, err = FromString("1", -1)
	require.ErrorIs(t, err, ErrInvalidFormat)
	_, err = FromString("1", MaxPrecision+1)
	require.ErrorIs(t, err, ErrInvalidFormat)

	_, err = FromString("115792089237316195423570985008687907853269984665640564039457584007913129639936", 0)
	require.ErrorIs(t, err, ErrOverflow)
	_, err = FromString("1000000000000000000000000000000000000000000000000000000000000", 18)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestToString(t *testing.T) {
	testCases := []struct {
		in        uint64
		precision int
		out       string
	}{
		{0, 18, "0"},
		{2100000000000, 18, "0.0000021"},
		{1000000000000000, 18, "0.001"},
		{1500000000000000000, 18, "1.5"},
		{1000000000000000000, 18, "1"},
		{123, 0, "123"},
		{123, 2, "1.23"},
		{123, 3, "0.123"},
		{123, 5, "0.00123"},
		{100, 2, "1"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.out, ToString(uint256.NewInt(tc.in), tc.precision))
	}
	assert.Equal(t, "0", ToString(nil, 18))
	assert.Equal(t, "0."+strings.Repeat("0", 80)+"1", ToString(uint256.NewInt(1), 81))
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "0.0000021", "1.000000000000000001", "123456789.987654321"} {
		v, err := FromString(s, 18)
		require.NoError(t, err)
		assert.Equal(t, s, ToString(v, 18))
	}

	n, err := Normalize("0012.3400", 4)
	require.NoError(t, err)
	assert.Equal(t, "12.34", n)
}

func TestCheckedMath(t *testing.T) {
	fee, err := MulChecked(uint256.NewInt(100000000), uint256.NewInt(21000))
	require.NoError(t, err)
	assert.Equal(t, "0.0000021", ToString(fee, EtherDecimals))

	max := new(uint256.Int).SetAllOne()
	_, err = MulChecked(max, uint256.NewInt(2))
	require.ErrorIs(t, err, ErrOverflow)
	_, err = AddChecked(max, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrOverflow)

	sum, err := AddChecked(uint256.NewInt(1), uint256.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sum.Uint64())

	p, err := Pow10(18)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", p.Dec())
	_, err = Pow10(78)
	require.ErrorIs(t, err, ErrOverflow)
}
