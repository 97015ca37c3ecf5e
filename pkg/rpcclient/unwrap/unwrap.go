/*
Package unwrap provides a set of proxy methods to process call results.

Functions implemented there are intended to be used as wrappers for other
functions that return ([]any, error) pair, like invoker.CallMethod. These
functions will check for error, check the number of results, cast them to
appropriate type (if everything is OK) and then return a result or error.
Mismatches are reported as abi.ErrDecode. They're mostly useful for other
higher-level contract-specific packages.
*/
package unwrap

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/eth-go/pkg/smartcontract/abi"
	"github.com/nspcc-dev/eth-go/pkg/util"
)

// Item expects exactly one returned value and returns it.
func Item(r []any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if len(r) != 1 {
		return nil, fmt.Errorf("%w: %d values returned instead of one", abi.ErrDecode, len(r))
	}
	return r[0], nil
}

// Uint256 expects a single unsigned integer value.
func Uint256(r []any, err error) (*uint256.Int, error) {
	return itemAs[*uint256.Int](r, err)
}

// BigInt expects a single integer value of any signedness and returns it as
// big.Int.
func BigInt(r []any, err error) (*big.Int, error) {
	itm, err := Item(r, err)
	if err != nil {
		return nil, err
	}
	switch v := itm.(type) {
	case *big.Int:
		return v, nil
	case *uint256.Int:
		return v.ToBig(), nil
	default:
		return nil, fmt.Errorf("%w: %T is not an integer", abi.ErrDecode, itm)
	}
}

// Uint8 expects a single unsigned integer value fitting into uint8.
func Uint8(r []any, err error) (uint8, error) {
	return LimitedUint64[uint8](r, err, 0, 255)
}

// LimitedUint64 is similar to Uint256 except it allows to set minimum and
// maximum limits to be checked, so if it doesn't return an error the value is
// within [min, max].
func LimitedUint64[T ~uint8 | ~uint16 | ~uint32 | ~uint64](r []any, err error, min uint64, max uint64) (T, error) {
	v, err := Uint256(r, err)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() || v.Uint64() > max {
		return 0, fmt.Errorf("%w: too big value %s", abi.ErrDecode, v.Dec())
	}
	if v.Uint64() < min {
		return 0, fmt.Errorf("%w: too small value %s", abi.ErrDecode, v.Dec())
	}
	return T(v.Uint64()), nil
}

// Bool expects a single boolean value.
func Bool(r []any, err error) (bool, error) {
	return itemAs[bool](r, err)
}

// String expects a single string value, it's valid UTF-8 (checked by the
// decoder).
func String(r []any, err error) (string, error) {
	return itemAs[string](r, err)
}

// PrintableASCIIString expects a single string value that only contains ASCII
// characters in printable range.
func PrintableASCIIString(r []any, err error) (string, error) {
	s, err := String(r, err)
	if err != nil {
		return "", err
	}
	for _, c := range s {
		if c < 32 || c >= 127 {
			return "", fmt.Errorf("%w: not a printable ASCII string", abi.ErrDecode)
		}
	}
	return s, nil
}

// Address expects a single address value.
func Address(r []any, err error) (util.Uint160, error) {
	return itemAs[util.Uint160](r, err)
}

// Bytes expects a single byte array value (fixed or dynamic).
func Bytes(r []any, err error) ([]byte, error) {
	return itemAs[[]byte](r, err)
}

func itemAs[T any](r []any, err error) (T, error) {
	var zero T
	itm, err := Item(r, err)
	if err != nil {
		return zero, err
	}
	v, ok := itm.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T is not %T", abi.ErrDecode, itm, zero)
	}
	return v, nil
}
