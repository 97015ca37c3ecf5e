package unwrap

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestStdErrors(t *testing.T) {
	funcs := map[string]func(r []any, err error) (any, error){
		"Item": Item,
		"Uint256": func(r []any, err error) (any, error) {
			return Uint256(r, err)
		},
		"BigInt": func(r []any, err error) (any, error) {
			return BigInt(r, err)
		},
		"Uint8": func(r []any, err error) (any, error) {
			return Uint8(r, err)
		},
		"Bool": func(r []any, err error) (any, error) {
			return Bool(r, err)
		},
		"String": func(r []any, err error) (any, error) {
			return String(r, err)
		},
		"PrintableASCIIString": func(r []any, err error) (any, error) {
			return PrintableASCIIString(r, err)
		},
		"Address": func(r []any, err error) (any, error) {
			return Address(r, err)
		},
		"Bytes": func(r []any, err error) (any, error) {
			return Bytes(r, err)
		},
	}
	callErr := errors.New("call failed")
	for name, f := range funcs {
		t.Run(name, func(t *testing.T) {
			_, err := f(nil, callErr)
			require.ErrorIs(t, err, callErr)

			_, err = f([]any{}, nil)
			require.ErrorIs(t, err, abi.ErrDecode)

			_, err = f([]any{uint256.NewInt(1), uint256.NewInt(2)}, nil)
			require.ErrorIs(t, err, abi.ErrDecode)

			if name != "Item" {
				_, err = f([]any{struct{}{}}, nil)
				require.ErrorIs(t, err, abi.ErrDecode)
			}
		})
	}
}

func TestValues(t *testing.T) {
	u, err := Uint256([]any{uint256.NewInt(5)}, nil)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(5), u)

	b, err := BigInt([]any{big.NewInt(-5)}, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(-5), b)
	b, err = BigInt([]any{uint256.NewInt(5)}, nil)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5), b)

	d, err := Uint8([]any{uint256.NewInt(18)}, nil)
	require.NoError(t, err)
	require.Equal(t, uint8(18), d)
	_, err = Uint8([]any{uint256.NewInt(256)}, nil)
	require.ErrorIs(t, err, abi.ErrDecode)
	_, err = LimitedUint64[uint8]([]any{uint256.NewInt(78)}, nil, 0, 77)
	require.ErrorIs(t, err, abi.ErrDecode)
	_, err = LimitedUint64[uint32]([]any{uint256.NewInt(1)}, nil, 2, 77)
	require.ErrorIs(t, err, abi.ErrDecode)

	ok, err := Bool([]any{true}, nil)
	require.NoError(t, err)
	require.True(t, ok)

	s, err := String([]any{"Тест"}, nil)
	require.NoError(t, err)
	require.Equal(t, "Тест", s)
	_, err = PrintableASCIIString([]any{"Тест"}, nil)
	require.ErrorIs(t, err, abi.ErrDecode)
	_, err = PrintableASCIIString([]any{"a\nb"}, nil)
	require.ErrorIs(t, err, abi.ErrDecode)
	s, err = PrintableASCIIString([]any{"USDC"}, nil)
	require.NoError(t, err)
	require.Equal(t, "USDC", s)

	a, err := Address([]any{util.Uint160{1}}, nil)
	require.NoError(t, err)
	require.Equal(t, util.Uint160{1}, a)

	bs, err := Bytes([]any{[]byte{1, 2}}, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, bs)
}
