package abi

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	errorMethod = NewMethod("Error", []Type{String}, nil)
	panicMethod = NewMethod("Panic", []Type{Uint256}, nil)
)

// UnpackRevert extracts a human readable reason from revert data produced by
// require/revert (Error(string)) or by failed assertions (Panic(uint256)).
func UnpackRevert(data []byte) (string, error) {
	if len(data) < SelectorSize {
		return "", fmt.Errorf("%w: no revert selector", ErrDecode)
	}
	errSel, panicSel := errorMethod.Selector(), panicMethod.Selector()
	switch {
	case bytes.Equal(data[:SelectorSize], errSel[:]):
		v, err := errorMethod.UnpackInput(data)
		if err != nil {
			return "", err
		}
		return v[0].(string), nil
	case bytes.Equal(data[:SelectorSize], panicSel[:]):
		v, err := panicMethod.UnpackInput(data)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("panic: code 0x%s", v[0].(*uint256.Int).Hex()[2:]), nil
	default:
		return "", fmt.Errorf("%w: unknown revert selector %x", ErrDecode, data[:SelectorSize])
	}
}

// PackRevert encodes an Error(string) revert payload.
func PackRevert(reason string) []byte {
	b, _ := errorMethod.Pack(reason)
	return b
}
